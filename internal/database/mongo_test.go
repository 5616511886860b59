package database

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keygate/entity"
	"keygate/internal/config"
)

// newTestMongo needs a running MongoDB instance; set TEST_MONGO_HOST to
// enable, e.g. TEST_MONGO_HOST=localhost go test ./internal/database/
func newTestMongo(t *testing.T) *Mongo {
	t.Helper()
	host := os.Getenv("TEST_MONGO_HOST")
	if host == "" {
		t.Skip("TEST_MONGO_HOST not set")
	}
	conf := &config.Config{Mongo: config.MongoConfig{
		Enabled:  true,
		Host:     host,
		Port:     "27017",
		Database: fmt.Sprintf("keygate_test_%d", time.Now().UnixNano()),
	}}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := NewMongo(ctx, conf)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.client.Database(store.database).Drop(context.Background())
		store.Close()
	})
	return store
}

func Test_Mongo_CreateKey(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()
	store := newTestMongo(t)

	key, err := entity.NewKey(42, []string{"-1001"})
	require.NoError(err)
	require.NoError(store.CreateKey(ctx, key))

	err = store.CreateKey(ctx, key)
	assert.ErrorIs(err, entity.ErrKeyExists)
}

func Test_Mongo_RedeemKey(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	ctx := context.Background()
	store := newTestMongo(t)

	outcome, err := store.RedeemKey(ctx, "garbage-token", "deviceA", time.Now())
	require.NoError(err)
	assert.Equal(entity.OutcomeNotFound, outcome)

	key, err := entity.NewKey(42, nil)
	require.NoError(err)
	require.NoError(store.CreateKey(ctx, key))

	outcome, err = store.RedeemKey(ctx, key.Value, "deviceA", time.Now())
	require.NoError(err)
	assert.Equal(entity.OutcomeRedeemed, outcome)

	outcome, err = store.RedeemKey(ctx, key.Value, "deviceB", time.Now())
	require.NoError(err)
	assert.Equal(entity.OutcomeAlreadyUsed, outcome)

	got, err := store.KeyByValue(ctx, key.Value)
	require.NoError(err)
	require.NotNil(got)
	assert.Equal(entity.KeyUsed, got.State)
	assert.Equal("deviceA", got.ConsumedBy)
}
