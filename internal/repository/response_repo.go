package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"journeybot/internal/model"
)

// ResponseRepo handles MongoDB operations for answer events
type ResponseRepo interface {
	Append(ctx context.Context, response *model.Response) error
	GetByChildAndCaregiver(ctx context.Context, childID, caregiverID string) ([]*model.Response, error)
	GetByChild(ctx context.Context, childID string) ([]*model.Response, error)
}

type responseRepo struct {
	collection *mongo.Collection
}

// NewResponseRepo creates a new response repository
func NewResponseRepo(db *mongo.Database) ResponseRepo {
	return &responseRepo{
		collection: db.Collection("responses"),
	}
}

func (r *responseRepo) Append(ctx context.Context, response *model.Response) error {
	if response.RecordedAt.IsZero() {
		response.RecordedAt = time.Now()
	}

	result, err := r.collection.InsertOne(ctx, response)
	if err != nil {
		return err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		response.ID = oid.Hex()
	}
	return nil
}

func (r *responseRepo) GetByChildAndCaregiver(ctx context.Context, childID, caregiverID string) ([]*model.Response, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"childId": childID, "caregiverId": caregiverID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var responses []*model.Response
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseRepo) GetByChild(ctx context.Context, childID string) ([]*model.Response, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"childId": childID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var responses []*model.Response
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}
