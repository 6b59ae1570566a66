package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

type UserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection("users"), now: time.Now}
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := make([]models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (r *UserRepository) Upsert(ctx context.Context, u models.User) (*models.User, error) {
	now := r.now().UTC()
	if u.Role == "" {
		u.Role = models.RoleUser
	}

	update := bson.M{
		"$set": bson.M{
			"name":         u.Name,
			"email":        u.Email,
			"passwordHash": u.PasswordHash,
			"phone":        u.Phone,
			"address":      u.Address,
			"role":         u.Role,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored models.User
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": u.ID}, update, opts).Decode(&stored); err != nil {
		return nil, mapErr(err)
	}
	return &stored, nil
}

func (r *UserRepository) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": r.now().UTC()}
	if upd.Name != nil {
		set["name"] = upd.Name
	}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.Phone != nil {
		set["phone"] = upd.Phone
	}
	if upd.Address != nil {
		set["address"] = upd.Address
	}
	if upd.Role != nil {
		set["role"] = *upd.Role
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var stored models.User
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&stored); err != nil {
		return nil, mapErr(err)
	}
	return &stored, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

func mapErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
