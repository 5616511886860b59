package database

import (
	"context"
	"sync"
	"time"

	"keygate/entity"
)

// Memory keeps keys in a mutex-guarded map. It is the fallback backend when
// no storage section is enabled; contents are lost on restart. The mutex is
// the serialization point that makes RedeemKey a single conditional write.
type Memory struct {
	mu   sync.Mutex
	keys map[string]*entity.Key
}

func NewMemory() *Memory {
	return &Memory{keys: make(map[string]*entity.Key)}
}

func (m *Memory) CreateKey(_ context.Context, key *entity.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key.Value]; ok {
		return entity.ErrKeyExists
	}
	m.keys[key.Value] = copyKey(key)
	return nil
}

func (m *Memory) KeyByValue(_ context.Context, value string) (*entity.Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.keys[value]
	if !ok {
		return nil, nil
	}
	return copyKey(key), nil
}

func (m *Memory) RedeemKey(_ context.Context, value, claimant string, now time.Time) (entity.RedeemOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.keys[value]
	if !ok {
		return entity.OutcomeNotFound, nil
	}
	if key.IsUsed() {
		return entity.OutcomeAlreadyUsed, nil
	}
	key.Use(claimant, now)
	return entity.OutcomeRedeemed, nil
}

func (m *Memory) CountKeys(_ context.Context) (entity.KeyStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := entity.KeyStats{Issued: int64(len(m.keys))}
	for _, key := range m.keys {
		if key.IsUsed() {
			stats.Redeemed++
		}
	}
	return stats, nil
}

func (m *Memory) Ping(_ context.Context) error {
	return nil
}

// copies guard the map against callers mutating shared state
func copyKey(key *entity.Key) *entity.Key {
	out := *key
	out.Scopes = append([]string(nil), key.Scopes...)
	return &out
}
