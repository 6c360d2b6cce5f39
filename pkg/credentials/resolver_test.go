package credentials

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderlab-dev/checkout-runner/pkg/config"
)

func newTestResolver(policy config.CredentialPolicy, env map[string]string) *Resolver {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return &Resolver{
		log:    log,
		policy: policy,
		getenv: func(key string) string { return env[key] },
	}
}

func TestLoginWorkerOverrideWins(t *testing.T) {
	r := newTestResolver(config.PolicyFallback, map[string]string{
		"DEV_LOGIN_USER":    "shared@example.com",
		"DEV_LOGIN_PASS":    "shared-pw",
		"DEV_LOGIN_USER_W2": "worker2@example.com",
		"DEV_LOGIN_PASS_W2": "worker2-pw",
	})

	creds, err := r.Login("dev", 2)
	require.NoError(t, err)
	assert.Equal(t, "worker2@example.com", creds.Username)
	assert.Equal(t, "worker2-pw", creds.Password)

	// Other workers keep the shared pair.
	creds, err = r.Login("dev", 1)
	require.NoError(t, err)
	assert.Equal(t, "shared@example.com", creds.Username)
}

func TestLoginSharedFallback(t *testing.T) {
	r := newTestResolver(config.PolicyFallback, map[string]string{
		"STG_LOGIN_USER": "stg@example.com",
		"STG_LOGIN_PASS": "stg-pw",
	})

	creds, err := r.Login("stg", 3)
	require.NoError(t, err)
	assert.Equal(t, "stg@example.com", creds.Username)
}

func TestLoginPartialOverride(t *testing.T) {
	env := map[string]string{
		"DEV_LOGIN_USER":    "shared@example.com",
		"DEV_LOGIN_PASS":    "shared-pw",
		"DEV_LOGIN_USER_W1": "worker1@example.com",
		// DEV_LOGIN_PASS_W1 deliberately absent.
	}

	t.Run("fallback policy uses shared pair", func(t *testing.T) {
		r := newTestResolver(config.PolicyFallback, env)
		creds, err := r.Login("dev", 1)
		require.NoError(t, err)
		assert.Equal(t, "shared@example.com", creds.Username)
	})

	t.Run("strict policy fails", func(t *testing.T) {
		r := newTestResolver(config.PolicyStrict, env)
		_, err := r.Login("dev", 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DEV_LOGIN_PASS_W1")
	})
}

func TestLoginMissingEntirely(t *testing.T) {
	r := newTestResolver(config.PolicyFallback, map[string]string{})
	_, err := r.Login("dev", 1)
	require.Error(t, err)
}

func TestBasicAlwaysShared(t *testing.T) {
	r := newTestResolver(config.PolicyFallback, map[string]string{
		"DEV_BASIC_USER": "gate",
		"DEV_BASIC_PASS": "gate-pw",
	})

	basic, err := r.Basic("dev")
	require.NoError(t, err)
	require.NotNil(t, basic)
	assert.Equal(t, "gate", basic.Username)
}

func TestBasicAbsentIsNil(t *testing.T) {
	r := newTestResolver(config.PolicyFallback, map[string]string{})
	basic, err := r.Basic("dev")
	require.NoError(t, err)
	assert.Nil(t, basic)
}

func TestBasicPartialPairFails(t *testing.T) {
	r := newTestResolver(config.PolicyFallback, map[string]string{
		"DEV_BASIC_USER": "gate",
	})
	_, err := r.Basic("dev")
	require.Error(t, err)
}

func TestCredentialsStringRedactsPassword(t *testing.T) {
	c := Credentials{Username: "user@example.com", Password: "hunter2"}
	s := c.String()
	assert.Contains(t, s, "user@example.com")
	assert.False(t, strings.Contains(s, "hunter2"), "password must never be printed")
}
