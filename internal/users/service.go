package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/auth"
	"go.uber.org/zap"
)

// ErrInvalidIdentity indicates the claims did not contain a usable identifier.
var ErrInvalidIdentity = errors.New("users: invalid identity")

// ServiceConfig describes the dependencies required for member resolution.
type ServiceConfig struct {
	Store  IdentityStore
	Clock  func() time.Time
	Logger *zap.Logger
}

// Service maps TAuth sessions to canonical member ids.
type Service struct {
	store  IdentityStore
	now    func() time.Time
	logger *zap.Logger
	cache  sync.Map
}

// NewService constructs the identity service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("users: identity store required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  cfg.Store,
		now:    clock,
		logger: logger,
	}, nil
}

// ResolveMember returns the member behind the session claims. The first
// sign-in of a provider+subject pair records a new identity; later sign-ins
// refresh the stored profile.
func (s *Service) ResolveMember(ctx context.Context, claims auth.SessionClaims) (Member, error) {
	userID, err := s.resolveCanonicalUserID(ctx, claims)
	if err != nil {
		return Member{}, err
	}
	return Member{
		UserID:      userID,
		Email:       normalize(claims.UserEmail),
		DisplayName: normalize(claims.UserDisplayName),
		AvatarURL:   normalize(claims.UserAvatarURL),
		Roles:       append([]string(nil), claims.UserRoles...),
		Admin:       claims.IsAdmin(),
	}, nil
}

func (s *Service) resolveCanonicalUserID(ctx context.Context, claims auth.SessionClaims) (string, error) {
	provider, subject := deriveProviderSubject(claims)
	if subject == "" {
		return "", ErrInvalidIdentity
	}

	cacheKey := provider + ":" + subject
	if cachedIdentifier, ok := s.cache.Load(cacheKey); ok {
		if canonicalIdentifier, ok := cachedIdentifier.(string); ok {
			return canonicalIdentifier, nil
		}
	}

	now := s.now().UTC()
	profile := IdentityProfile{
		Email:       normalize(claims.UserEmail),
		DisplayName: normalize(claims.UserDisplayName),
		AvatarURL:   normalize(claims.UserAvatarURL),
		SeenAt:      now,
	}
	identity, err := s.store.FindIdentity(ctx, provider, subject)
	switch {
	case errors.Is(err, ErrIdentityNotFound):
		identity = Identity{
			Provider:    provider,
			Subject:     subject,
			UserID:      subject,
			Email:       profile.Email,
			DisplayName: profile.DisplayName,
			AvatarURL:   profile.AvatarURL,
			LastSeenAt:  now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.store.CreateIdentity(ctx, &identity); err != nil {
			return "", err
		}
	case err != nil:
		return "", err
	default:
		if err := s.store.TouchIdentity(ctx, provider, subject, profile); err != nil {
			s.logger.Warn("identity refresh failed",
				zap.String("provider", provider),
				zap.Error(err))
		}
	}

	s.cache.Store(cacheKey, identity.UserID)
	return identity.UserID, nil
}

func deriveProviderSubject(claims auth.SessionClaims) (string, string) {
	provider := "default"
	subject := normalize(claims.Subject)

	raw := normalize(claims.UserID)
	if raw != "" {
		if strings.Contains(raw, ":") {
			segments := strings.SplitN(raw, ":", 2)
			if normalize(segments[0]) != "" && normalize(segments[1]) != "" {
				provider = normalize(segments[0])
				subject = normalize(segments[1])
			}
		} else if subject == "" {
			subject = raw
		}
	}

	if subject == "" {
		subject = normalize(claims.UserEmail)
	}

	return provider, subject
}
