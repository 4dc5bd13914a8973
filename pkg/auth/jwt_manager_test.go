package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addr = "0x52908400098527886e0f7030069857d2e4169ee7"

func TestGenerateAndVerify(t *testing.T) {
	m := NewJWTManager("secret", "wallet-profile", time.Hour)

	token, exp, err := m.Generate(addr)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, addr, claims.Subject)
	assert.NotEmpty(t, claims.ID)

	expiry, err := m.Expiry(token)
	require.NoError(t, err)
	assert.Equal(t, exp.Unix(), expiry.Unix())
}

func TestVerify_WrongSecret(t *testing.T) {
	token, _, err := NewJWTManager("secret", "", time.Hour).Generate(addr)
	require.NoError(t, err)

	_, err = NewJWTManager("other", "", time.Hour).Verify(token)
	assert.Error(t, err)
}

func TestVerify_WrongIssuer(t *testing.T) {
	token, _, err := NewJWTManager("secret", "a", time.Hour).Generate(addr)
	require.NoError(t, err)

	_, err = NewJWTManager("secret", "b", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	m := NewJWTManager("secret", "", -time.Minute)
	token, _, err := m.Generate(addr)
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/", nil)
	_, err := ExtractTokenFromHeader(r)
	assert.Error(t, err)

	r.Header.Set("Authorization", "bearer abc")
	token, err := ExtractTokenFromHeader(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	r.Header.Set("Authorization", "Basic abc")
	_, err = ExtractTokenFromHeader(r)
	assert.Error(t, err)
}
