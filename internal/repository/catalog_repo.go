package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"journeybot/internal/model"
)

// CatalogRepo handles MongoDB operations for age-range modules
type CatalogRepo interface {
	Create(ctx context.Context, module *model.Module) (string, error)
	GetByID(ctx context.Context, id string) (*model.Module, error)
	GetForAge(ctx context.Context, ageInMonths int) ([]*model.Module, error)
	List(ctx context.Context) ([]*model.Module, error)
	Update(ctx context.Context, module *model.Module) error
	Delete(ctx context.Context, id string) error
}

type catalogRepo struct {
	collection *mongo.Collection
}

// NewCatalogRepo creates a new catalog repository
func NewCatalogRepo(db *mongo.Database) CatalogRepo {
	return &catalogRepo{
		collection: db.Collection("modules"),
	}
}

func (r *catalogRepo) Create(ctx context.Context, module *model.Module) (string, error) {
	module.CreatedAt = time.Now()
	module.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, module)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", nil
	}
	return oid.Hex(), nil
}

func (r *catalogRepo) GetByID(ctx context.Context, id string) (*model.Module, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var module model.Module
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&module)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	module.ID = id
	return &module, nil
}

// GetForAge returns modules whose age window starts at or before the child's
// age, ordered by catalog order. A module stays in the journey once the child
// has grown past its window so earlier answers remain visible.
func (r *catalogRepo) GetForAge(ctx context.Context, ageInMonths int) ([]*model.Module, error) {
	filter := bson.M{"minMonths": bson.M{"$lte": ageInMonths}}
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var modules []*model.Module
	if err := cursor.All(ctx, &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *catalogRepo) List(ctx context.Context) ([]*model.Module, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var modules []*model.Module
	if err := cursor.All(ctx, &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *catalogRepo) Update(ctx context.Context, module *model.Module) error {
	oid, err := primitive.ObjectIDFromHex(module.ID)
	if err != nil {
		return err
	}

	module.UpdatedAt = time.Now()
	_, err = r.collection.ReplaceOne(ctx, bson.M{"_id": oid}, module)
	return err
}

func (r *catalogRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
