package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/pulse/backend/internal/ids"
	"go.uber.org/zap"
)

const (
	opRegister        = "push.register"
	maxEndpointLength = 1024

	// MaxSubscriptionSize bounds the raw subscription JSON accepted by Register.
	MaxSubscriptionSize = 4096
)

// ServiceConfig describes the dependencies of the push registration service.
type ServiceConfig struct {
	Repository Repository
	IDProvider ids.Provider
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Service registers Web Push subscriptions. Delivery happens elsewhere.
type Service struct {
	repository Repository
	idProvider ids.Provider
	clock      func() time.Time
	logger     *zap.Logger
}

type subscriptionEnvelope struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256DH string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// NewService constructs the service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repository == nil {
		return nil, errors.New("push: repository is required")
	}
	if cfg.IDProvider == nil {
		return nil, errors.New("push: id provider is required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repository: cfg.Repository, idProvider: cfg.IDProvider, clock: clock, logger: logger}, nil
}

// Register upserts the subscription identified by its endpoint. A non-empty
// userID is attached; an anonymous re-registration keeps the stored owner.
func (s *Service) Register(ctx context.Context, raw []byte, userID string) (Subscription, error) {
	payload, endpoint, err := parseSubscription(raw)
	if err != nil {
		return Subscription{}, &ServiceError{code: opRegister + ".invalid_input", err: err}
	}

	now := s.clock().UTC()
	subscription, err := s.repository.FindByEndpoint(ctx, endpoint)
	switch {
	case errors.Is(err, ErrNotFound):
		id, idErr := s.idProvider.NewID()
		if idErr != nil {
			return Subscription{}, s.fail("id_generation_failed", idErr)
		}
		subscription = Subscription{ID: id, Endpoint: endpoint, CreatedAt: now}
	case err != nil:
		return Subscription{}, s.fail("lookup_failed", err)
	}

	subscription.Subscription = payload
	if userID = strings.TrimSpace(userID); userID != "" {
		subscription.UserID = userID
	}
	subscription.UpdatedAt = now
	if err := s.repository.Save(ctx, &subscription); err != nil {
		return Subscription{}, s.fail("save_failed", err)
	}
	return subscription, nil
}

func (s *Service) fail(reason string, err error) error {
	s.logger.Error("push service error",
		zap.String("operation", opRegister),
		zap.String("reason", reason),
		zap.Error(err))
	return &ServiceError{code: opRegister + "." + reason, err: errors.Join(ErrStore, err)}
}

func parseSubscription(raw []byte) (RawJSON, string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", "", errors.Join(ErrValidation, errors.New("empty body"))
	}
	if len(raw) > MaxSubscriptionSize {
		return "", "", errors.Join(ErrValidation, errors.New("subscription too large"))
	}
	var envelope subscriptionEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", "", errors.Join(ErrValidation, err)
	}
	endpoint := strings.TrimSpace(envelope.Endpoint)
	if endpoint == "" || len(endpoint) > maxEndpointLength {
		return "", "", errors.Join(ErrValidation, errors.New("endpoint is required"))
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme != "https" || parsed.Host == "" {
		return "", "", errors.Join(ErrValidation, errors.New("endpoint must be an https url"))
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return "", "", errors.Join(ErrValidation, err)
	}
	return RawJSON(compact.String()), endpoint, nil
}
