package session

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// MongoStore keeps sessions in the "sessions" collection. Expired documents
// are ignored on read and removed by the TTL index on expiresAt.
type MongoStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ Store = (*MongoStore)(nil)

func NewMongoStore(db *mongo.Database) *MongoStore {
	opts := options.Collection().SetWriteConcern(writeconcern.Majority())
	return &MongoStore{coll: db.Collection("sessions", opts), now: time.Now}
}

func (m *MongoStore) Get(ctx context.Context, id string) (*Session, error) {
	filter := bson.M{"_id": id, "expiresAt": bson.M{"$gt": m.now().UTC()}}

	var s Session
	if err := m.coll.FindOne(ctx, filter).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (m *MongoStore) Save(ctx context.Context, s *Session) error {
	opts := options.Replace().SetUpsert(true)
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": s.ID}, s, opts)
	return err
}

func (m *MongoStore) Destroy(ctx context.Context, id string) error {
	_, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
