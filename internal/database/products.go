package database

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/store"
)

var notDeleted = bson.M{"$ne": true}

type productRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func (r productRepo) FindByID(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	var raw bson.M
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "isDeleted": notDeleted}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, store.ErrNotFound
	}
	if err != nil {
		return models.Product{}, err
	}
	return normalizeProductDocument(raw)
}

func (r productRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	cursor, err := r.coll.Find(ctx, bson.M{
		"_id":       bson.M{"$in": ids},
		"isDeleted": notDeleted,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products, err := decodeProducts(ctx, cursor)
	if err != nil {
		return nil, err
	}

	found := make(map[primitive.ObjectID]models.Product, len(products))
	for _, product := range products {
		found[product.ID] = product
	}
	return found, nil
}

func (r productRepo) List(ctx context.Context, filter store.ProductFilter) ([]models.Product, error) {
	query := bson.M{"isDeleted": notDeleted}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query["name"] = bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
	}

	cursor, err := r.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeProducts(ctx, cursor)
}

func (r productRepo) Create(ctx context.Context, product *models.Product) error {
	now := r.now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, product)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		product.ID = id
	}
	return nil
}

func (r productRepo) Update(ctx context.Context, id primitive.ObjectID, update store.ProductUpdate) (models.Product, error) {
	set := bson.M{"updatedAt": r.now()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Price != nil {
		set["price"] = *update.Price
	}
	if update.Category != nil {
		set["category"] = *update.Category
	}
	if update.IsOnSale != nil {
		set["isOnSale"] = *update.IsOnSale
	}
	if update.SalePercentage != nil {
		set["salePercentage"] = *update.SalePercentage
	}

	var raw bson.M
	err := r.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "isDeleted": notDeleted},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, store.ErrNotFound
	}
	if err != nil {
		return models.Product{}, err
	}
	return normalizeProductDocument(raw)
}

func (r productRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	now := r.now()
	res, err := r.coll.UpdateOne(
		ctx,
		bson.M{"_id": id, "isDeleted": notDeleted},
		bson.M{"$set": bson.M{"isDeleted": true, "deletedAt": now, "updatedAt": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r productRepo) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"isDeleted": notDeleted})
}

// DecrementStock is a single guarded FindOneAndUpdate: the $gte filter and
// the $inc are applied by the server as one document-level atomic write.
func (r productRepo) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (models.Product, error) {
	if qty <= 0 {
		return models.Product{}, store.ErrInvalidQuantity
	}
	filter := bson.M{
		"_id":           id,
		"isDeleted":     notDeleted,
		"stockQuantity": bson.M{"$gte": qty},
	}
	update := bson.M{
		"$inc": bson.M{"stockQuantity": -qty, "stockVersion": 1},
		"$set": bson.M{"updatedAt": r.now()},
	}

	var raw bson.M
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		current, findErr := r.FindByID(ctx, id)
		if findErr != nil {
			return models.Product{}, findErr
		}
		return current, store.ErrInsufficientStock
	}
	if err != nil {
		return models.Product{}, err
	}
	return normalizeProductDocument(raw)
}

// IncrementStock ignores isDeleted so a rollback can always restore units.
func (r productRepo) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) (models.Product, error) {
	if qty <= 0 {
		return models.Product{}, store.ErrInvalidQuantity
	}
	filter := bson.M{
		"_id":           id,
		"stockQuantity": bson.M{"$lte": math.MaxInt - qty},
	}
	update := bson.M{
		"$inc": bson.M{"stockQuantity": qty, "stockVersion": 1},
		"$set": bson.M{"updatedAt": r.now()},
	}

	var raw bson.M
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, countErr := r.coll.CountDocuments(ctx, bson.M{"_id": id})
		if countErr != nil {
			return models.Product{}, countErr
		}
		if n == 0 {
			return models.Product{}, store.ErrNotFound
		}
		return models.Product{}, store.ErrStockOverflow
	}
	if err != nil {
		return models.Product{}, err
	}
	return normalizeProductDocument(raw)
}

// normalizeProductDocument tolerates legacy documents whose numeric fields
// were written as doubles or strings by older clients.
func normalizeProductDocument(raw bson.M) (models.Product, error) {
	raw["stockQuantity"] = toInt(raw["stockQuantity"])
	raw["stockVersion"] = int64(toInt(raw["stockVersion"]))
	raw["price"] = toFloat(raw["price"])
	raw["salePercentage"] = toFloat(raw["salePercentage"])

	if val, ok := raw["isOnSale"]; ok {
		switch typed := val.(type) {
		case string:
			raw["isOnSale"] = typed == "true"
		case bool:
		default:
			raw["isOnSale"] = false
		}
	}

	data, err := bson.Marshal(raw)
	if err != nil {
		return models.Product{}, err
	}

	var p models.Product
	if err := bson.Unmarshal(data, &p); err != nil {
		return models.Product{}, err
	}

	p.InStock = p.StockQuantity > 0
	return p, nil
}

func toInt(val interface{}) int {
	switch typed := val.(type) {
	case int32:
		return int(typed)
	case int64:
		return int(typed)
	case int:
		return typed
	case float64:
		return int(typed)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func toFloat(val interface{}) float64 {
	switch typed := val.(type) {
	case float64:
		return typed
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case int:
		return float64(typed)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	products := make([]models.Product, 0)

	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}

		product, err := normalizeProductDocument(raw)
		if err != nil {
			return nil, err
		}

		products = append(products, product)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return products, nil
}
