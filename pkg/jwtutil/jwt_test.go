package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakancineli/smmmm/pkg/config"
)

func testConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSigningKey:  "access-test-key",
		RefreshSigningKey: "refresh-test-key",
		AccessExpiration:  15 * time.Minute,
		RefreshExpiration: 7 * 24 * time.Hour,
	}
}

func TestIssueAndVerifyPair(t *testing.T) {
	j := NewJWTUtil(testConfig())

	pair, err := j.IssuePair(42, KindTenant, "mehmet-smmm")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int((15 * time.Minute).Seconds()), pair.ExpiresIn)

	claims, err := j.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.SubjectID)
	assert.Equal(t, KindTenant, claims.Kind)
	assert.Equal(t, "mehmet-smmm", claims.Username)

	claims, err = j.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.SubjectID)
}

func TestAccessAndRefreshKeysAreDistinct(t *testing.T) {
	j := NewJWTUtil(testConfig())

	pair, err := j.IssuePair(7, KindSuperuser, "root")
	require.NoError(t, err)

	// a refresh token must never pass as an access token, and vice versa
	_, err = j.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = j.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	j := NewJWTUtil(testConfig())

	pair, err := j.IssuePair(1, KindTenant, "firm")
	require.NoError(t, err)

	tampered := pair.AccessToken[:len(pair.AccessToken)-2] + "xx"
	_, err = j.VerifyAccess(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	j := NewJWTUtil(testConfig())
	other := NewJWTUtil(&config.JWTConfig{
		AccessSigningKey:  "different-key",
		RefreshSigningKey: "another-key",
		AccessExpiration:  15 * time.Minute,
		RefreshExpiration: 7 * 24 * time.Hour,
	})

	pair, err := j.IssuePair(5, KindTenant, "firm")
	require.NoError(t, err)

	_, err = other.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	cfg := testConfig()
	cfg.AccessExpiration = -time.Minute
	j := NewJWTUtil(cfg)

	pair, err := j.IssuePair(9, KindTenant, "firm")
	require.NoError(t, err)

	_, err = j.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
