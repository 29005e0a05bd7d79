package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Driver opens client pools. The production implementation wraps
// go.mongodb.org/mongo-driver; tests substitute fakes.
type Driver interface {
	// Connect opens a pool and verifies it is reachable.
	Connect(ctx context.Context, opts *options.ClientOptions) (ClientHandle, error)
}

// ClientHandle is an open client pool.
type ClientHandle interface {
	Database(name string, opts *options.DatabaseOptions) (DatabaseHandle, error)
	Ping(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

// DatabaseHandle is a handle on one database.
type DatabaseHandle interface {
	Name() string

	// ListCollections returns the specifications of collections whose name
	// equals name.
	ListCollections(ctx context.Context, name string) ([]bson.M, error)

	// CreateCollection reports false when the server did not create the
	// collection, for example because it already exists.
	CreateCollection(ctx context.Context, name string) (bool, error)

	// DropCollection reports false when the collection did not exist.
	DropCollection(ctx context.Context, name string) (bool, error)

	Collection(name string) CollectionHandle
}

// CollectionHandle exposes the index operations of one collection.
type CollectionHandle interface {
	IndexExists(ctx context.Context, name string) (bool, error)

	// CreateIndex returns the name of the created index, or "" when the
	// server reports that nothing was created.
	CreateIndex(ctx context.Context, keys bson.D, opts bson.M) (string, error)

	DropIndex(ctx context.Context, name string) error
}
