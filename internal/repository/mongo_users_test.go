package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"storefront/internal/models"
)

func TestUserRepositoryUpsertIsKeyedByProviderID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upsert sends findAndModify with upsert", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "provider-1"},
			{Key: "email", Value: "ada@example.com"},
			{Key: "name", Value: "Ada"},
			{Key: "phone", Value: "5550100"},
			{Key: "role", Value: "user"},
			{Key: "createdAt", Value: created},
		}}))

		stored, err := repo.Upsert(context.Background(), models.User{
			ID:    "provider-1",
			Email: "ada@example.com",
			Name:  models.StringPtr("Ada"),
			Phone: models.StringPtr("5550100"),
		})
		if err != nil {
			t.Fatalf("Upsert returned error: %v", err)
		}
		if stored.ID != "provider-1" || stored.Email != "ada@example.com" {
			t.Fatalf("unexpected stored user %+v", stored)
		}
		if !stored.CreatedAt.Equal(created) {
			t.Fatalf("expected createdAt %v, got %v", created, stored.CreatedAt)
		}

		started := mt.GetStartedEvent()
		if started == nil || started.CommandName != "findAndModify" {
			t.Fatalf("expected findAndModify command, got %+v", started)
		}
		if upsert, ok := started.Command.Lookup("upsert").BooleanOK(); !ok || !upsert {
			t.Fatalf("expected upsert=true in command %s", started.Command)
		}
		if id := started.Command.Lookup("query", "_id").StringValue(); id != "provider-1" {
			t.Fatalf("expected query on provider id, got %q", id)
		}
		role := started.Command.Lookup("update", "$set", "role").StringValue()
		if role != models.RoleUser {
			t.Fatalf("expected default role user, got %q", role)
		}
		if _, err := started.Command.LookupErr("update", "$setOnInsert", "createdAt"); err != nil {
			t.Fatalf("expected createdAt only on insert: %v", err)
		}
	})
}

func TestUserRepositoryGetNotFound(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("empty cursor maps to ErrNotFound", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "storefront.users", mtest.FirstBatch))

		_, err := repo.Get(context.Background(), "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserRepositoryDeleteMissing(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("zero deleted maps to ErrNotFound", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("deleted row returns nil", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		if err := repo.Delete(context.Background(), "u1"); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})
}

func TestUserRepositoryListDecodes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("list", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		first := mtest.CreateCursorResponse(1, "storefront.users", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "u2"}, {Key: "email", Value: "b@example.com"}, {Key: "role", Value: "user"}},
			bson.D{{Key: "_id", Value: "u1"}, {Key: "email", Value: "a@example.com"}, {Key: "role", Value: "admin"}},
		)
		end := mtest.CreateCursorResponse(0, "storefront.users", mtest.NextBatch)
		mt.AddMockResponses(first, end)

		users, err := repo.List(context.Background())
		if err != nil {
			t.Fatalf("List returned error: %v", err)
		}
		if len(users) != 2 || users[0].ID != "u2" || users[1].Role != "admin" {
			t.Fatalf("unexpected users %+v", users)
		}
	})
}
