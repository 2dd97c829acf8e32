package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"journeybot/internal/model"
)

// SessionRepo handles MongoDB operations for conversation sessions
type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	GetActive(ctx context.Context, childID, caregiverID string) (*model.Session, error)
	Update(ctx context.Context, id string, patch *model.SessionPatch) error
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("sessions"),
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		session.ID = oid.Hex()
	}
	return nil
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var session model.Session
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	session.ID = id
	return &session, nil
}

// GetActive returns the active session for a child/caregiver pair, or nil.
// This lookup is the advisory mutual exclusion between engine instances.
func (r *sessionRepo) GetActive(ctx context.Context, childID, caregiverID string) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, bson.M{
		"childId":     childID,
		"caregiverId": caregiverID,
		"status":      model.SessionActive,
	}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Update(ctx context.Context, id string, patch *model.SessionPatch) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": patch})
	return err
}
