package featureflag

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/contractforge/registry/pkg/regerr"
)

// Service implements the inactive<->active<->sunset transitions of
// spec.md §3's FeatureFlag entity.
type Service struct {
	store  *Store
	logger *slog.Logger
}

// NewService creates a featureflag Service backed by store.
func NewService(store *Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Create validates and persists a new flag in the inactive state.
func (s *Service) Create(ctx context.Context, req CreateRequest) (FeatureFlag, error) {
	if req.SunsetAt != nil && !req.SunsetAt.After(time.Now().UTC()) {
		return FeatureFlag{}, regerr.WithField(regerr.KindInvalidRequest, "sunset_at must be in the future", "sunset_at")
	}
	return s.store.Create(ctx, FeatureFlag{
		ContractID: req.ContractID,
		Name:       req.Name,
		State:      StateInactive,
		Rollout:    req.Rollout,
		Pct:        req.Pct,
		SunsetAt:   req.SunsetAt,
	})
}

// Get fetches a flag by id and applies lazy sunset: a flag whose SunsetAt
// has passed is transitioned to sunset before being returned, mirroring
// pkg/multisig's lazy-expiry read path.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (FeatureFlag, error) {
	flag, err := s.store.Get(ctx, id)
	if err != nil {
		return FeatureFlag{}, err
	}
	return s.applyLazySunset(ctx, flag)
}

// ListByContract returns every flag for a contract, applying lazy sunset to
// each before returning.
func (s *Service) ListByContract(ctx context.Context, contractID uuid.UUID) ([]FeatureFlag, error) {
	flags, err := s.store.ListByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	for i, f := range flags {
		live, err := s.applyLazySunset(ctx, f)
		if err != nil {
			return nil, err
		}
		flags[i] = live
	}
	return flags, nil
}

func (s *Service) applyLazySunset(ctx context.Context, f FeatureFlag) (FeatureFlag, error) {
	if f.State == StateSunset || f.SunsetAt == nil || time.Now().UTC().Before(*f.SunsetAt) {
		return f, nil
	}
	sunset, err := s.store.SunsetNow(ctx, f.ID)
	if err == pgx.ErrNoRows {
		// Lost a race with a concurrent transition; re-read current state.
		return s.store.Get(ctx, f.ID)
	}
	if err != nil {
		return FeatureFlag{}, err
	}
	s.logger.Info("feature flag lazily sunset", "flag_id", f.ID, "name", f.Name)
	return sunset, nil
}

// Activate transitions inactive -> active.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (FeatureFlag, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return FeatureFlag{}, err
	}
	switch current.State {
	case StateActive:
		return FeatureFlag{}, regerr.New(regerr.KindAlreadyActive, "feature flag is already active")
	case StateSunset:
		return FeatureFlag{}, regerr.New(regerr.KindAlreadySunset, "feature flag is sunset and cannot be reactivated")
	}
	flag, err := s.store.TransitionState(ctx, id, StateInactive, StateActive)
	if err == pgx.ErrNoRows {
		return FeatureFlag{}, regerr.New(regerr.KindAlreadyActive, "feature flag state changed concurrently")
	}
	return flag, err
}

// Deactivate transitions active -> inactive.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (FeatureFlag, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return FeatureFlag{}, err
	}
	switch current.State {
	case StateInactive:
		return FeatureFlag{}, regerr.New(regerr.KindAlreadyInactive, "feature flag is already inactive")
	case StateSunset:
		return FeatureFlag{}, regerr.New(regerr.KindAlreadySunset, "feature flag is sunset and cannot be deactivated")
	}
	flag, err := s.store.TransitionState(ctx, id, StateActive, StateInactive)
	if err == pgx.ErrNoRows {
		return FeatureFlag{}, regerr.New(regerr.KindAlreadyInactive, "feature flag state changed concurrently")
	}
	return flag, err
}

// Sunset terminally retires a flag from any non-sunset state. A second call
// against an already-sunset flag returns ALREADY_SUNSET (spec.md §8's
// round-trip property: "two successive sunset calls: first succeeds, second
// returns ALREADY_SUNSET").
func (s *Service) Sunset(ctx context.Context, id uuid.UUID) (FeatureFlag, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return FeatureFlag{}, err
	}
	if current.State == StateSunset {
		return FeatureFlag{}, regerr.New(regerr.KindAlreadySunset, "feature flag is already sunset")
	}
	flag, err := s.store.SunsetNow(ctx, id)
	if err == pgx.ErrNoRows {
		return FeatureFlag{}, regerr.New(regerr.KindAlreadySunset, "feature flag state changed concurrently")
	}
	return flag, err
}

// UpdateRollout changes the rollout kind/percentage of a non-sunset flag.
func (s *Service) UpdateRollout(ctx context.Context, id uuid.UUID, req UpdateRolloutRequest) (FeatureFlag, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return FeatureFlag{}, err
	}
	if current.State == StateSunset {
		return FeatureFlag{}, regerr.New(regerr.KindAlreadySunset, "feature flag is sunset and cannot be modified")
	}
	return s.store.UpdateRollout(ctx, id, req.Rollout, req.Pct)
}
