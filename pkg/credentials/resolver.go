// Package credentials resolves login and HTTP Basic credentials from the
// environment. Nothing in this package writes a password to a log or a file.
package credentials

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/orderlab-dev/checkout-runner/pkg/config"
)

// Credentials is one username/password pair. String redacts the password, so
// a pair is safe to format into logs and error messages.
type Credentials struct {
	Username string
	Password string
}

// String returns the username with the password redacted.
func (c Credentials) String() string {
	return fmt.Sprintf("%s:[redacted]", c.Username)
}

// Resolver resolves credentials per profile and worker from the environment.
//
// For profile DEV and worker 2 the login pair is taken from
// DEV_LOGIN_USER_W2 / DEV_LOGIN_PASS_W2 when both are set, falling back to
// the shared DEV_LOGIN_USER / DEV_LOGIN_PASS otherwise. A partial override
// (only one of the pair) is handled per policy: fallback uses the shared
// pair with a warning, strict fails the resolution. Basic auth pairs are
// always shared across workers.
type Resolver struct {
	log    logrus.FieldLogger
	policy config.CredentialPolicy
	getenv func(string) string
}

// NewResolver creates a resolver reading the process environment.
func NewResolver(log logrus.FieldLogger, policy config.CredentialPolicy) *Resolver {
	return &Resolver{log: log, policy: policy, getenv: os.Getenv}
}

// Login resolves the login pair for a profile and 1-based worker index.
// The pair is resolved fresh on every call; rotated environment values are
// picked up by the next attempt.
func (r *Resolver) Login(profile string, worker int) (Credentials, error) {
	prefix := strings.ToUpper(profile)

	userKey := fmt.Sprintf("%s_LOGIN_USER_W%d", prefix, worker)
	passKey := fmt.Sprintf("%s_LOGIN_PASS_W%d", prefix, worker)
	user := r.getenv(userKey)
	pass := r.getenv(passKey)

	if user != "" && pass != "" {
		return Credentials{Username: user, Password: pass}, nil
	}

	if user != "" || pass != "" {
		missing := passKey
		if pass != "" {
			missing = userKey
		}
		if r.policy == config.PolicyStrict {
			return Credentials{}, fmt.Errorf(
				"partial worker credential override for profile %s: %s is not set", profile, missing)
		}
		r.log.WithFields(logrus.Fields{
			"profile": profile,
			"worker":  worker,
			"missing": missing,
		}).Warn("Partial worker credential override, falling back to shared pair")
	}

	shared := Credentials{
		Username: r.getenv(prefix + "_LOGIN_USER"),
		Password: r.getenv(prefix + "_LOGIN_PASS"),
	}
	if shared.Username == "" || shared.Password == "" {
		return Credentials{}, fmt.Errorf("no login credentials configured for profile %s", profile)
	}
	return shared, nil
}

// Basic resolves the profile's HTTP Basic pair. It returns nil without error
// when the profile has none configured.
func (r *Resolver) Basic(profile string) (*Credentials, error) {
	prefix := strings.ToUpper(profile)
	user := r.getenv(prefix + "_BASIC_USER")
	pass := r.getenv(prefix + "_BASIC_PASS")

	if user == "" && pass == "" {
		return nil, nil
	}
	if user == "" || pass == "" {
		return nil, fmt.Errorf("incomplete basic auth pair for profile %s", profile)
	}
	return &Credentials{Username: user, Password: pass}, nil
}
