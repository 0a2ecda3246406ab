package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ids"
	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultVisitorTokenTTL = 365 * 24 * time.Hour
	defaultVisitorIssuer   = "pulse-api"
	defaultVisitorAudience = "pulse-visitors"
	// VisitorSubjectPrefix marks submitter ids that belong to anonymous visitors.
	VisitorSubjectPrefix = "visitor:"
)

var (
	ErrMissingVisitorSigningSecret = errors.New("visitor tokens: signing secret required")
	ErrMissingVisitorIDProvider    = errors.New("visitor tokens: id provider required")
	ErrInvalidVisitorToken         = errors.New("visitor tokens: invalid token")
)

// VisitorTokenIssuerConfig configures anonymous visitor tokens.
type VisitorTokenIssuerConfig struct {
	SigningSecret []byte
	Issuer        string
	Audience      string
	TokenTTL      time.Duration
	IDProvider    ids.Provider
	Clock         func() time.Time
}

// VisitorToken is a freshly issued anonymous identity.
type VisitorToken struct {
	Token     string `json:"token"`
	VisitorID string `json:"visitorId"`
	ExpiresIn int64  `json:"expiresIn"`
}

// VisitorTokenIssuer signs and validates tokens that give anonymous visitors
// a stable submitter id.
type VisitorTokenIssuer struct {
	signingSecret []byte
	issuer        string
	audience      string
	ttl           time.Duration
	idProvider    ids.Provider
	clock         func() time.Time
}

// NewVisitorTokenIssuer constructs an issuer with defaults for the optional fields.
func NewVisitorTokenIssuer(cfg VisitorTokenIssuerConfig) (*VisitorTokenIssuer, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, ErrMissingVisitorSigningSecret
	}
	if cfg.IDProvider == nil {
		return nil, ErrMissingVisitorIDProvider
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultVisitorTokenTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = defaultVisitorIssuer
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = defaultVisitorAudience
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &VisitorTokenIssuer{
		signingSecret: append([]byte(nil), cfg.SigningSecret...),
		issuer:        issuer,
		audience:      audience,
		ttl:           ttl,
		idProvider:    cfg.IDProvider,
		clock:         clock,
	}, nil
}

// IssueVisitorToken mints a new visitor id and a signed token carrying it as subject.
func (i *VisitorTokenIssuer) IssueVisitorToken(_ context.Context) (VisitorToken, error) {
	id, err := i.idProvider.NewID()
	if err != nil {
		return VisitorToken{}, fmt.Errorf("visitor tokens: generate id: %w", err)
	}
	subject := VisitorSubjectPrefix + id

	now := i.clock().UTC()
	expiresAt := now.Add(i.ttl)
	registered := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    i.issuer,
		Audience:  []string{i.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, registered).SignedString(i.signingSecret)
	if err != nil {
		return VisitorToken{}, err
	}
	return VisitorToken{Token: signed, VisitorID: subject, ExpiresIn: int64(expiresAt.Sub(now).Seconds())}, nil
}

// ValidateToken checks the signature, issuer, audience and expiry and returns the visitor subject.
func (i *VisitorTokenIssuer) ValidateToken(tokenString string) (string, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return "", ErrInvalidVisitorToken
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", token.Method.Alg())
			}
			return i.signingSecret, nil
		},
		jwt.WithAudience(i.audience),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidVisitorToken, err)
	}
	if !strings.HasPrefix(claims.Subject, VisitorSubjectPrefix) || len(claims.Subject) == len(VisitorSubjectPrefix) {
		return "", ErrInvalidVisitorToken
	}
	return claims.Subject, nil
}
