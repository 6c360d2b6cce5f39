package main

import "github.com/orderlab-dev/checkout-runner/pkg/cli"

func main() {
	cli.Execute()
}
