package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_index"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("createdAt_desc"),
		},
	}

	log.Println("[DB] EnsureUserIndexes: creating email_index, createdAt_desc")
	if _, err := indexes.CreateMany(ctx, models); err != nil {
		log.Println("[DB] EnsureUserIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureProductIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("products").Indexes()

	activeIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("isActive_createdAt"),
	}

	log.Println("[DB] EnsureProductIndexes: creating isActive_createdAt index")
	if _, err := indexes.CreateOne(ctx, activeIndex); err != nil {
		log.Println("[DB] EnsureProductIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("userId_index"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("createdAt_desc"),
		},
	}

	log.Println("[DB] EnsureOrderIndexes: creating userId_index, createdAt_desc")
	if _, err := indexes.CreateMany(ctx, models); err != nil {
		log.Println("[DB] EnsureOrderIndexes: index error:", err)
		return err
	}
	return nil
}

// EnsureSessionIndexes lets the server expire sessions whose expiresAt passed.
func EnsureSessionIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("sessions").Indexes()

	ttlIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().
			SetName("expiresAt_ttl").
			SetExpireAfterSeconds(0),
	}

	log.Println("[DB] EnsureSessionIndexes: creating expiresAt_ttl index")
	if _, err := indexes.CreateOne(ctx, ttlIndex); err != nil {
		log.Println("[DB] EnsureSessionIndexes: ttl index error:", err)
		return err
	}
	return nil
}
