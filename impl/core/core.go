package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"keygate/entity"
	"keygate/lib/clock"
	"keygate/lib/sl"
)

// maxGenerateAttempts bounds regeneration when a freshly generated key value
// collides with a persisted one.
const maxGenerateAttempts = 3

// Store is the persistence contract of the service. RedeemKey must perform
// the unused -> used transition as a single conditional write: two
// concurrent calls for the same value must never both report Redeemed.
type Store interface {
	CreateKey(ctx context.Context, key *entity.Key) error
	KeyByValue(ctx context.Context, value string) (*entity.Key, error)
	RedeemKey(ctx context.Context, value, claimant string, now time.Time) (entity.RedeemOutcome, error)
	CountKeys(ctx context.Context) (entity.KeyStats, error)
	Ping(ctx context.Context) error
}

type Core struct {
	store Store
	log   *slog.Logger
}

func New(store Store, log *slog.Logger) Core {
	if store == nil {
		panic("store is nil")
	}
	return Core{
		store: store,
		log:   log.With(sl.Module("core")),
	}
}

// Issue generates a new key for the given owner and persists it unused.
// The issuance decision (membership gating) belongs to the caller; this
// only handles generation and persistence. No key value is returned unless
// the row was persisted.
func (c Core) Issue(ctx context.Context, ownerId int64, scopes []string) (string, error) {
	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		key, err := entity.NewKey(ownerId, scopes)
		if err != nil {
			return "", fmt.Errorf("issue key: %w", err)
		}
		err = c.store.CreateKey(ctx, key)
		if err == nil {
			c.log.Info("key issued",
				slog.Int64("owner_id", ownerId),
				slog.Int("scopes", len(scopes)),
				sl.Secret("key", key.Value))
			return key.Value, nil
		}
		if errors.Is(err, entity.ErrKeyExists) {
			c.log.Warn("key value collision, regenerating", slog.Int("attempt", attempt))
			continue
		}
		return "", fmt.Errorf("issue key: %w", err)
	}
	return "", fmt.Errorf("issue key: %d generation attempts exhausted", maxGenerateAttempts)
}

// Redeem consumes a key at most once. Not-found and already-used are
// business outcomes reported in the result; only storage failures and an
// empty value are errors. The result is identical whichever entry point
// the call came through.
func (c Core) Redeem(ctx context.Context, value, claimant string) (*entity.CheckResult, error) {
	if value == "" {
		return nil, entity.ErrKeyRequired
	}
	now := time.Now()
	outcome, err := c.store.RedeemKey(ctx, value, claimant, now)
	if err != nil {
		return nil, fmt.Errorf("redeem key: %w", err)
	}
	switch outcome {
	case entity.OutcomeRedeemed:
		c.log.Info("key redeemed",
			sl.Secret("key", value),
			slog.String("claimant", claimant))
		return &entity.CheckResult{Valid: true, ConsumedAt: clock.Format(now)}, nil
	case entity.OutcomeNotFound:
		return &entity.CheckResult{Valid: false, Reason: entity.ReasonNotFound}, nil
	case entity.OutcomeAlreadyUsed:
		return &entity.CheckResult{Valid: false, Reason: entity.ReasonAlreadyUsed}, nil
	default:
		return nil, fmt.Errorf("redeem key: unexpected outcome %q", outcome)
	}
}

func (c Core) Stats(ctx context.Context) (entity.KeyStats, error) {
	stats, err := c.store.CountKeys(ctx)
	if err != nil {
		return entity.KeyStats{}, fmt.Errorf("count keys: %w", err)
	}
	return stats, nil
}

func (c Core) StoragePing(ctx context.Context) error {
	return c.store.Ping(ctx)
}
