package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"keygate/entity"
	"keygate/internal/config"
)

const collectionKeys = "access_keys"

// Mongo stores keys in a MongoDB collection. The client is connected once at
// open and closed at shutdown; a unique index on the key value backs the
// collision detection in CreateKey.
type Mongo struct {
	client   *mongo.Client
	database string
}

func NewMongo(ctx context.Context, conf *config.Config) (*Mongo, error) {
	if !conf.Mongo.Enabled {
		return nil, fmt.Errorf("mongodb is disabled in configuration")
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	m := &Mongo{
		client:   client,
		database: conf.Mongo.Database,
	}
	if err = m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return m, nil
}

func (m *Mongo) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = m.client.Disconnect(ctx)
}

func (m *Mongo) keys() *mongo.Collection {
	return m.client.Database(m.database).Collection(collectionKeys)
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "value", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err := m.keys().Indexes().CreateOne(ctx, index)
	if err != nil {
		return fmt.Errorf("mongodb ensure indexes: %w", err)
	}
	return nil
}

func (m *Mongo) CreateKey(ctx context.Context, key *entity.Key) error {
	_, err := m.keys().InsertOne(ctx, key)
	if mongo.IsDuplicateKeyError(err) {
		return entity.ErrKeyExists
	}
	if err != nil {
		return fmt.Errorf("mongodb insert key: %w", err)
	}
	return nil
}

func (m *Mongo) KeyByValue(ctx context.Context, value string) (*entity.Key, error) {
	filter := bson.D{{Key: "value", Value: value}}
	var key entity.Key
	err := m.keys().FindOne(ctx, filter).Decode(&key)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb find key: %w", err)
	}
	return &key, nil
}

// RedeemKey relies on the single-document atomicity of UpdateOne: the filter
// matches only while the key is still unused, so at most one concurrent call
// observes ModifiedCount == 1.
func (m *Mongo) RedeemKey(ctx context.Context, value, claimant string, now time.Time) (entity.RedeemOutcome, error) {
	filter := bson.D{{Key: "value", Value: value}, {Key: "state", Value: entity.KeyUnused}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "state", Value: entity.KeyUsed},
		{Key: "consumed_by", Value: claimant},
		{Key: "consumed_at", Value: now},
	}}}
	res, err := m.keys().UpdateOne(ctx, filter, update)
	if err != nil {
		return "", fmt.Errorf("mongodb redeem key: %w", err)
	}
	if res.ModifiedCount == 1 {
		return entity.OutcomeRedeemed, nil
	}

	key, err := m.KeyByValue(ctx, value)
	if err != nil {
		return "", err
	}
	if key == nil {
		return entity.OutcomeNotFound, nil
	}
	return entity.OutcomeAlreadyUsed, nil
}

func (m *Mongo) CountKeys(ctx context.Context) (entity.KeyStats, error) {
	issued, err := m.keys().CountDocuments(ctx, bson.D{})
	if err != nil {
		return entity.KeyStats{}, fmt.Errorf("mongodb count keys: %w", err)
	}
	redeemed, err := m.keys().CountDocuments(ctx, bson.D{{Key: "state", Value: entity.KeyUsed}})
	if err != nil {
		return entity.KeyStats{}, fmt.Errorf("mongodb count keys: %w", err)
	}
	return entity.KeyStats{Issued: issued, Redeemed: redeemed}, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongodb ping: %w", err)
	}
	return nil
}
