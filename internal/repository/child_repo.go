package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"journeybot/internal/model"
)

// ChildRepo handles MongoDB operations for child profiles
type ChildRepo interface {
	Create(ctx context.Context, child *model.Child) (string, error)
	GetByID(ctx context.Context, id string) (*model.Child, error)
}

type childRepo struct {
	collection *mongo.Collection
}

// NewChildRepo creates a new child repository
func NewChildRepo(db *mongo.Database) ChildRepo {
	return &childRepo{
		collection: db.Collection("children"),
	}
}

func (r *childRepo) Create(ctx context.Context, child *model.Child) (string, error) {
	child.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, child)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", nil
	}
	child.ID = oid.Hex()
	return child.ID, nil
}

func (r *childRepo) GetByID(ctx context.Context, id string) (*model.Child, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var child model.Child
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&child)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	child.ID = id
	return &child, nil
}
