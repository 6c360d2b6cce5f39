package executor

import (
	"fmt"

	"github.com/dop251/goja"
	"github.com/sirupsen/logrus"
)

// ScriptEngine evaluates evalScript actions locally in the runner. One
// engine lives per test case attempt, so values stored in output persist
// across the attempt's actions.
type ScriptEngine struct {
	runtime *goja.Runtime
	output  map[string]interface{}
	log     logrus.FieldLogger
}

// NewScriptEngine creates a script engine with console and output bound.
func NewScriptEngine(log logrus.FieldLogger) *ScriptEngine {
	e := &ScriptEngine{
		runtime: goja.New(),
		output:  make(map[string]interface{}),
		log:     log,
	}
	e.setupBuiltins()
	return e
}

func (e *ScriptEngine) setupBuiltins() {
	makeConsoleFunc := func(level logrus.Level) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := make([]interface{}, len(call.Arguments))
			for i, arg := range call.Arguments {
				args[i] = arg.Export()
			}
			e.log.WithField("source", "script").Log(level, args...)
			return goja.Undefined()
		}
	}

	console := e.runtime.NewObject()
	console.Set("log", makeConsoleFunc(logrus.InfoLevel))
	console.Set("warn", makeConsoleFunc(logrus.WarnLevel))
	console.Set("error", makeConsoleFunc(logrus.ErrorLevel))
	e.runtime.Set("console", console)

	e.runtime.Set("output", e.output)
}

// Eval runs a script and returns its completion value rendered as a string.
// Undefined and null render as the empty string.
func (e *ScriptEngine) Eval(script string) (string, error) {
	v, err := e.runtime.RunString(script)
	if err != nil {
		return "", fmt.Errorf("script evaluation failed: %w", err)
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", nil
	}
	return fmt.Sprintf("%v", v.Export()), nil
}

// Output returns the values the scripts stored on the output object.
func (e *ScriptEngine) Output() map[string]interface{} {
	return e.output
}
