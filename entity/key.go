package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-secure-stdlib/base62"
)

// KeyValueLength is the length of a generated key value in base62
// characters. 48 characters carry ~285 bits of entropy.
const KeyValueLength = 48

var (
	// ErrKeyExists is reported by stores when a key value collides with
	// an already persisted one.
	ErrKeyExists = errors.New("key already exists")
	// ErrKeyRequired is reported when a check is attempted with an empty key.
	ErrKeyRequired = errors.New("key required")
)

// KeyState tracks the lifecycle of an access key.
// The only legal transition is unused -> used; used is terminal.
type KeyState string

const (
	KeyUnused KeyState = "unused"
	KeyUsed   KeyState = "used"
)

// Key is a single-use opaque access credential. Members request keys through
// the bot after a channel-membership check; a client redeems the key exactly
// once through the HTTP check endpoint.
type Key struct {
	Value      string    `json:"value" bson:"value"`
	OwnerId    int64     `json:"owner_id" bson:"owner_id"`
	Scopes     []string  `json:"scopes" bson:"scopes,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	State      KeyState  `json:"state" bson:"state"`
	ConsumedBy string    `json:"consumed_by" bson:"consumed_by,omitempty"`
	ConsumedAt time.Time `json:"consumed_at" bson:"consumed_at,omitempty"`
}

// NewKey builds an unused key with a freshly generated random value.
// Scopes are the chat ids whose membership was verified at issuance.
func NewKey(ownerId int64, scopes []string) (*Key, error) {
	value, err := base62.Random(KeyValueLength)
	if err != nil {
		return nil, fmt.Errorf("generate key value: %w", err)
	}
	return &Key{
		Value:     value,
		OwnerId:   ownerId,
		Scopes:    append([]string(nil), scopes...),
		CreatedAt: time.Now(),
		State:     KeyUnused,
	}, nil
}

func (k *Key) IsUsed() bool {
	return k.State == KeyUsed
}

// Use records the consumption of the key. Callers are responsible for
// checking the current state first; stores do this atomically.
func (k *Key) Use(claimant string, now time.Time) {
	k.State = KeyUsed
	k.ConsumedBy = claimant
	k.ConsumedAt = now
}
