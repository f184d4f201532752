package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/hakancineli/smmmm/pkg/config"
)

// Subject kinds carried in token claims.
const (
	KindSuperuser = "superuser"
	KindTenant    = "tenant"
)

// ErrInvalidToken is returned for any token that fails signature, expiry
// or claim checks. Callers treat it as a single "not authenticated" signal.
var ErrInvalidToken = errors.New("invalid token")

// Claims represents the JWT claims for both access and refresh tokens
type Claims struct {
	SubjectID uint   `json:"sub_id"`
	Kind      string `json:"kind"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// Pair is an issued access/refresh token pair
type Pair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// JWTUtil signs and verifies token pairs
type JWTUtil struct {
	config *config.JWTConfig
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(cfg *config.JWTConfig) *JWTUtil {
	return &JWTUtil{config: cfg}
}

// IssuePair creates an access/refresh token pair for a subject
func (j *JWTUtil) IssuePair(subjectID uint, kind, username string) (*Pair, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	access, err := j.sign(subjectID, kind, username, j.config.AccessSigningKey, j.config.AccessExpiration)
	if err != nil {
		return nil, err
	}
	refresh, err := j.sign(subjectID, kind, username, j.config.RefreshSigningKey, j.config.RefreshExpiration)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(j.config.AccessExpiration.Seconds()),
	}, nil
}

// VerifyAccess validates an access token and returns its claims
func (j *JWTUtil) VerifyAccess(tokenString string) (*Claims, error) {
	return j.verify(tokenString, j.config.AccessSigningKey)
}

// VerifyRefresh validates a refresh token and returns its claims
func (j *JWTUtil) VerifyRefresh(tokenString string) (*Claims, error) {
	return j.verify(tokenString, j.config.RefreshSigningKey)
}

func (j *JWTUtil) sign(subjectID uint, kind, username, key string, ttl time.Duration) (string, error) {
	claims := Claims{
		SubjectID: subjectID,
		Kind:      kind,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(key))
}

func (j *JWTUtil) verify(tokenString, key string) (*Claims, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(key), nil
		},
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != KindSuperuser && claims.Kind != KindTenant {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
