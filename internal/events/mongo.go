package events

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "campaign_events"

type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore sets up the collection and its (campaign, created_at) index.
func NewMongoStore(ctx context.Context, client *mongo.Client, dbName string) (*MongoStore, error) {
	coll := client.Database(dbName).Collection(collectionName)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "campaign", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create campaign_events index")
	}
	return &MongoStore{coll: coll}, nil
}

func (s *MongoStore) Record(ctx context.Context, e *Event) error {
	if e == nil || e.Campaign == "" {
		return errors.New("event campaign is required")
	}
	prepare(e)

	if _, err := s.coll.InsertOne(ctx, e); err != nil {
		return errors.Wrap(err, "insert event")
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, campaign string, limit int) ([]*Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(clampLimit(limit)))

	cur, err := s.coll.Find(ctx, bson.D{{Key: "campaign", Value: campaign}}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find events")
	}
	defer cur.Close(ctx)

	res := make([]*Event, 0)
	if err := cur.All(ctx, &res); err != nil {
		return nil, errors.Wrap(err, "decode events")
	}
	return res, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}
