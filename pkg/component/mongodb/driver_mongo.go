package mongodb

import (
	"context"
	"errors"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// codeNamespaceExists is returned by create when the collection exists.
const codeNamespaceExists = 48

// MongoDriver is the Driver backed by go.mongodb.org/mongo-driver.
type MongoDriver struct{}

// NewMongoDriver returns the production driver.
func NewMongoDriver() Driver {
	return MongoDriver{}
}

// Connect opens a pool and pings the primary-or-preferred member so that
// unreachable deployments fail here rather than on first use.
func (MongoDriver) Connect(ctx context.Context, opts *options.ClientOptions) (ClientHandle, error) {
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, readpref.PrimaryPreferred()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &mongoClient{client: client}, nil
}

type mongoClient struct {
	client *mongo.Client
}

func (c *mongoClient) Database(name string, opts *options.DatabaseOptions) (DatabaseHandle, error) {
	db := c.client.Database(name, opts)
	if db == nil {
		return nil, nil
	}
	return &mongoDatabase{db: db}, nil
}

func (c *mongoClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

func (c *mongoClient) Disconnect(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

type mongoDatabase struct {
	db *mongo.Database
}

func (d *mongoDatabase) Name() string {
	return d.db.Name()
}

func (d *mongoDatabase) ListCollections(ctx context.Context, name string) ([]bson.M, error) {
	cursor, err := d.db.ListCollections(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return nil, err
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (d *mongoDatabase) CreateCollection(ctx context.Context, name string) (bool, error) {
	err := d.db.CreateCollection(ctx, name)
	if err == nil {
		return true, nil
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceExists {
		return false, nil
	}
	return false, err
}

func (d *mongoDatabase) DropCollection(ctx context.Context, name string) (bool, error) {
	// Drop succeeds silently on a missing namespace, so check first.
	names, err := d.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return false, err
	}
	if len(names) == 0 {
		return false, nil
	}

	if err := d.db.Collection(name).Drop(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (d *mongoDatabase) Collection(name string) CollectionHandle {
	return &mongoCollection{coll: d.db.Collection(name)}
}

type mongoCollection struct {
	coll *mongo.Collection
}

func (c *mongoCollection) IndexExists(ctx context.Context, name string) (bool, error) {
	specs, err := c.coll.Indexes().ListSpecifications(ctx)
	if err != nil {
		// A collection that has not been created yet has no indexes.
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceNotFound" {
			return false, nil
		}
		return false, err
	}

	for _, spec := range specs {
		if spec.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// CreateIndex issues createIndexes directly so that arbitrary index options
// pass through untouched and the "nothing created" outcome is observable.
func (c *mongoCollection) CreateIndex(ctx context.Context, keys bson.D, opts bson.M) (string, error) {
	index := bson.D{{Key: "key", Value: keys}}

	optKeys := make([]string, 0, len(opts))
	for k := range opts {
		if k != "key" {
			optKeys = append(optKeys, k)
		}
	}
	sort.Strings(optKeys)
	for _, k := range optKeys {
		index = append(index, bson.E{Key: k, Value: opts[k]})
	}

	cmd := bson.D{
		{Key: "createIndexes", Value: c.coll.Name()},
		{Key: "indexes", Value: bson.A{index}},
	}

	var res struct {
		NumIndexesBefore int `bson:"numIndexesBefore"`
		NumIndexesAfter  int `bson:"numIndexesAfter"`
	}
	if err := c.coll.Database().RunCommand(ctx, cmd).Decode(&res); err != nil {
		return "", err
	}
	if res.NumIndexesAfter <= res.NumIndexesBefore {
		return "", nil
	}

	name, _ := opts["name"].(string)
	return name, nil
}

func (c *mongoCollection) DropIndex(ctx context.Context, name string) error {
	_, err := c.coll.Indexes().DropOne(ctx, name)
	return err
}
