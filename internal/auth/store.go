package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/crowdfund/internal/cache"
)

var ErrMissingKey = errors.New("missing key")

// APIKeyStore validates API keys and optionally provides a health ping.
type APIKeyStore interface {
	Validate(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}

// APIKeyCreator exposes creation/upsert of API keys for admin/signup handlers.
type APIKeyCreator interface {
	Create(ctx context.Context, key string, active bool, owner string) error
}

type MongoAPIKeyStore struct {
	coll  *mongo.Collection
	cache *cache.Cache[bool]
}

type apiKeyDoc struct {
	Key    string `bson:"key"`
	Active bool   `bson:"active"`
	Owner  string `bson:"owner,omitempty"`
}

// NewMongoAPIKeyStore sets up the collection and unique index on key.
func NewMongoAPIKeyStore(ctx context.Context, client *mongo.Client, dbName string, ttl time.Duration) (*MongoAPIKeyStore, error) {
	coll := client.Database(dbName).Collection("api_keys")
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create api_keys index")
	}
	return &MongoAPIKeyStore{
		coll:  coll,
		cache: cache.New[bool](ttl),
	}, nil
}

// Validate reports whether key exists and is active. Results, negative ones
// included, are cached for the store's TTL.
func (s *MongoAPIKeyStore) Validate(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrMissingKey
	}
	active, _, err := s.cache.GetOrFetch(ctx, key, func(ctx context.Context) (bool, error) {
		var doc apiKeyDoc
		err := s.coll.FindOne(ctx, bson.D{{Key: "key", Value: key}}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		} else if err != nil {
			return false, errors.Wrap(err, "find api key")
		}
		return doc.Active, nil
	})
	return active, err
}

func (s *MongoAPIKeyStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

// Create inserts or updates an API key entry.
func (s *MongoAPIKeyStore) Create(ctx context.Context, key string, active bool, owner string) error {
	if key == "" {
		return ErrMissingKey
	}
	_, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "key", Value: key}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "active", Value: active}, {Key: "owner", Value: owner}}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(err, "upsert api key")
	}
	s.cache.Set(key, active)
	return nil
}

// MemoryAPIKeyStore backs the API when no Mongo is configured.
type MemoryAPIKeyStore struct {
	mu   sync.RWMutex
	keys map[string]apiKeyDoc
}

func NewMemoryAPIKeyStore() *MemoryAPIKeyStore {
	return &MemoryAPIKeyStore{keys: make(map[string]apiKeyDoc)}
}

func (s *MemoryAPIKeyStore) Validate(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrMissingKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[key].Active, nil
}

func (s *MemoryAPIKeyStore) Ping(context.Context) error { return nil }

func (s *MemoryAPIKeyStore) Create(_ context.Context, key string, active bool, owner string) error {
	if key == "" {
		return ErrMissingKey
	}
	s.mu.Lock()
	s.keys[key] = apiKeyDoc{Key: key, Active: active, Owner: owner}
	s.mu.Unlock()
	return nil
}

// HashPrefix returns the first 8 hex chars of SHA-256(key) for logging.
func HashPrefix(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:8]
}
