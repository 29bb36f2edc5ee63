package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"storefront/internal/store"
)

const (
	productsCollection   = "products"
	ordersCollection     = "orders"
	usersCollection      = "users"
	categoriesCollection = "categories"
)

func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Store is the MongoDB implementation of store.Store.
type Store struct {
	db           *mongo.Database
	transactions bool
	now          func() time.Time
}

// NewStore wraps db. With transactions enabled, WithTransaction runs inside a
// session transaction, which requires a replica set or sharded cluster.
func NewStore(db *mongo.Database, transactions bool) *Store {
	return &Store{db: db, transactions: transactions, now: time.Now}
}

func (s *Store) Products() store.Products {
	return productRepo{coll: s.db.Collection(productsCollection), now: s.now}
}

func (s *Store) Orders() store.Orders {
	return orderRepo{coll: s.db.Collection(ordersCollection), now: s.now}
}

func (s *Store) Users() store.Users {
	return userRepo{coll: s.db.Collection(usersCollection), now: s.now}
}

func (s *Store) Categories() store.Categories {
	return categoryRepo{coll: s.db.Collection(categoriesCollection)}
}

func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions {
		return fn(ctx)
	}

	session, err := s.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

func (s *Store) Transactional() bool { return s.transactions }

func (s *Store) Ping(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return s.db.Client().Ping(checkCtx, readpref.Primary())
}
