package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/lotledger/backend/src/config"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	config.Cfg = &config.AppConfig{AccessTokenExpiry: time.Minute}
	svc, err := NewAuthService("test-secret-key-at-least-32-bytes-long", "operator-key")
	require.NoError(t, err)
	return svc
}

func TestCheckOperatorKey(t *testing.T) {
	svc := newTestAuthService(t)

	assert.NoError(t, svc.CheckOperatorKey("operator-key"))
	assert.Error(t, svc.CheckOperatorKey("wrong-key"))
	assert.Error(t, svc.CheckOperatorKey(""))
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestAuthService(t)

	token, err := svc.GenerateToken("operator")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "operator", subject)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := newTestAuthService(t)
	token, err := svc.GenerateToken("operator")
	require.NoError(t, err)

	other, err := NewAuthService("a-completely-different-secret-key-32b", "operator-key")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestGenerateTokenRequiresConfig(t *testing.T) {
	svc := newTestAuthService(t)
	config.Cfg = nil
	t.Cleanup(func() { config.Cfg = &config.AppConfig{AccessTokenExpiry: time.Minute} })

	_, err := svc.GenerateToken("operator")
	assert.Error(t, err)
}
