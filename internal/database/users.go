package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/store"
)

type userRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func (r userRepo) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, store.ErrNotFound
	}
	return user, err
}

func (r userRepo) IncrementOrderCount(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"Orders": 1},
			"$set": bson.M{"updatedAt": r.now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r userRepo) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

type categoryRepo struct {
	coll *mongo.Collection
}

func (r categoryRepo) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	categories := make([]models.Category, 0)
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r categoryRepo) Create(ctx context.Context, category *models.Category) error {
	count, err := r.coll.CountDocuments(ctx, bson.M{"name": category.Name})
	if err != nil {
		return err
	}
	if count > 0 {
		return store.ErrDuplicate
	}

	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now()
	}
	res, err := r.coll.InsertOne(ctx, category)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		category.ID = id
	}
	return nil
}

func (r categoryRepo) Update(ctx context.Context, id primitive.ObjectID, name *string, isActive *bool) (models.Category, error) {
	set := bson.M{}
	if name != nil {
		set["name"] = *name
	}
	if isActive != nil {
		set["isActive"] = *isActive
	}

	var category models.Category
	err := r.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&category)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Category{}, store.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return models.Category{}, store.ErrDuplicate
	}
	return category, err
}

func (r categoryRepo) Delete(ctx context.Context, id primitive.ObjectID) (models.Category, error) {
	var category models.Category
	err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&category)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Category{}, store.ErrNotFound
	}
	return category, err
}
