package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureIndexes creates every index the pipeline relies on. Failures are
// returned per collection so the caller can decide whether to continue.
func EnsureIndexes(db *mongo.Database, logger *zap.Logger) error {
	if err := EnsureProductIndexes(db, logger); err != nil {
		return err
	}
	if err := EnsureOrderIndexes(db, logger); err != nil {
		return err
	}
	if err := EnsureUserIndexes(db, logger); err != nil {
		return err
	}
	return EnsureCategoryIndexes(db, logger)
}

func EnsureProductIndexes(db *mongo.Database, logger *zap.Logger) error {
	return createIndexes(db, productsCollection, logger, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "category", Value: 1}},
			Options: options.Index().SetName("category_index"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("createdAt_desc"),
		},
	})
}

func EnsureOrderIndexes(db *mongo.Database, logger *zap.Logger) error {
	return createIndexes(db, ordersCollection, logger, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("userId_index"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status_index"),
		},
		{
			Keys:    bson.D{{Key: "date", Value: -1}},
			Options: options.Index().SetName("date_desc"),
		},
		{
			Keys:    bson.D{{Key: "paymentStatus", Value: 1}},
			Options: options.Index().SetName("paymentStatus_index"),
		},
	})
}

func EnsureUserIndexes(db *mongo.Database, logger *zap.Logger) error {
	return createIndexes(db, usersCollection, logger, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
	})
}

func EnsureCategoryIndexes(db *mongo.Database, logger *zap.Logger) error {
	return createIndexes(db, categoriesCollection, logger, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("name_unique").SetUnique(true),
		},
	})
}

func createIndexes(db *mongo.Database, collection string, logger *zap.Logger, models []mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log := logger.With(zap.String("collection", collection))
	log.Info("creating indexes", zap.Int("count", len(models)))

	names, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
	if err != nil {
		log.Error("index creation failed", zap.Error(err))
		return err
	}
	log.Info("indexes ready", zap.Strings("names", names))
	return nil
}
