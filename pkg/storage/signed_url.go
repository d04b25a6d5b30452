package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const linkAudience = "report-download"

// Link is the content of a verified download token.
type Link struct {
	ReportID  string
	Path      string
	ExpiresAt time.Time
}

type linkClaims struct {
	Path string `json:"path"`
	jwt.RegisteredClaims
}

// SignedURLSigner issues short lived HMAC tokens that grant access to one stored report.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSignedURLSigner defaults ttl to one hour.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl}
}

// Generate signs a token for reportID pointing at path.
func (s *SignedURLSigner) Generate(reportID, path string) (string, time.Time, error) {
	if reportID == "" || path == "" {
		return "", time.Time{}, errors.New("report id and path required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("signing secret missing")
	}
	now := time.Now()
	expiresAt := now.Add(s.ttl).Truncate(time.Second)
	claims := linkClaims{
		Path: path,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        reportID,
			Audience:  jwt.ClaimStrings{linkAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign download token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse verifies token and returns the link it grants.
func (s *SignedURLSigner) Parse(token string) (Link, error) {
	claims := &linkClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithAudience(linkAudience))
	if err != nil {
		return Link{}, fmt.Errorf("invalid download token: %w", err)
	}
	if !parsed.Valid || claims.ExpiresAt == nil {
		return Link{}, errors.New("invalid download token")
	}
	return Link{ReportID: claims.ID, Path: claims.Path, ExpiresAt: claims.ExpiresAt.Time}, nil
}
