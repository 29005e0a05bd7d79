package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"
	"github.com/kart-io/logger/core"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/mongo-bootstrap/pkg/component/storage"
)

// TracerName names the tracer used when none is injected.
const TracerName = "github.com/kart-io/mongo-bootstrap/pkg/component/mongodb"

var _ storage.Client = (*Client)(nil)

// Client manages one lazily opened MongoDB connection.
//
// The configuration is resolved and the identity computed once in New.
// Connect opens the pool on first use and returns the cached database handle
// afterwards; a failed Connect leaves the Client disconnected so that the
// next call retries. Connect, Close and Disconnect are serialized, so
// concurrent callers share a single pool.
//
// Example usage:
//
//	client, err := mongodb.New(&mongodb.HostOptions{
//	    User: "peter",
//	    Pass: "mysecretpassword",
//	    CommonOptions: mongodb.CommonOptions{DB: "main"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close(context.Background())
//
//	db, err := client.Connect(ctx)
type Client struct {
	mu sync.Mutex

	cfg *ResolvedConfig
	uri string
	uid string

	driver   Driver
	resolver *Resolver
	logger   core.Logger
	tracer   trace.Tracer
	observer Observer

	client ClientHandle
	db     DatabaseHandle
}

// Option configures a Client.
type Option func(*Client)

// WithDriver replaces the mongo-driver backed Driver.
func WithDriver(d Driver) Option {
	return func(c *Client) {
		if d != nil {
			c.driver = d
		}
	}
}

// WithLogger sets the logger. The default is logger.Global().
func WithLogger(l core.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithResolver sets the resolver used by New.
func WithResolver(r *Resolver) Option {
	return func(c *Client) {
		c.resolver = r
	}
}

// WithTracer sets the tracer. The default comes from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithObserver sets the lifecycle observer.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// New resolves raw and returns a disconnected Client. It performs no I/O.
func New(raw RawOptions, opts ...Option) (*Client, error) {
	c := &Client{
		driver:   NewMongoDriver(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Global()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(TracerName)
	}

	var (
		cfg *ResolvedConfig
		uri string
		err error
	)
	if c.resolver != nil {
		cfg, uri, err = c.resolver.Resolve(raw)
	} else {
		cfg, uri, err = Resolve(raw)
	}
	if err != nil {
		return nil, err
	}

	c.cfg = cfg
	c.uri = uri
	c.uid = Fingerprint(uri, cfg.DB)
	c.logger = c.logger.With("component", "mongodb", "uid", c.uid, "db", cfg.DB)

	return c, nil
}

// Name returns the identity. Implements storage.Client.
func (c *Client) Name() string {
	return c.uid
}

// UID returns the identity fingerprint of this connection.
func (c *Client) UID() string {
	return c.uid
}

// ConnectionString returns the connection string with its password redacted.
func (c *Client) ConnectionString() string {
	return RedactURI(c.uri)
}

// Config returns a copy of the resolved configuration.
func (c *Client) Config() *ResolvedConfig {
	return c.cfg.Clone()
}

// IsConnected reports whether both the pool and the database handle are held.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected()
}

func (c *Client) connected() bool {
	return c.client != nil && c.db != nil
}

// Connect returns the database handle, opening the pool on first use.
// Driver errors are returned as ErrConnectionFailure wrapping the original.
func (c *Client) Connect(ctx context.Context) (DatabaseHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected() {
		return c.db, nil
	}

	ctx, span := c.tracer.Start(ctx, "mongodb.connect", trace.WithAttributes(
		attribute.String("db.system", "mongodb"),
		attribute.String("db.name", c.cfg.DB),
		attribute.String("mongodb.uid", c.uid),
	))
	defer span.End()

	start := time.Now()
	db, err := c.open(ctx)
	c.observer.ObserveConnect(c.uid, time.Since(start), err)

	if err != nil {
		c.client, c.db = nil, nil
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Errorw("Failed to connect to mongodb", "uri", c.ConnectionString(), "error", err)
		return nil, err
	}

	c.logger.Infow("Connected to mongodb", "uri", c.ConnectionString(), "pool_size", c.cfg.PoolSize)
	return db, nil
}

func (c *Client) open(ctx context.Context) (DatabaseHandle, error) {
	client, err := c.driver.Connect(ctx, c.clientOptions())
	if err != nil {
		return nil, ErrConnectionFailure.WithOp("connect").WithCause(err)
	}
	if client == nil {
		return nil, ErrPoolCreationFailed.WithOp("connect")
	}

	db, err := client.Database(c.cfg.DB, options.Database().SetReadPreference(c.readPref()))
	if err != nil || db == nil {
		if cerr := client.Disconnect(ctx); cerr != nil {
			c.logger.Warnw("Failed to release mongodb pool", "error", cerr)
		}
		if err != nil {
			return nil, ErrConnectionFailure.WithOp("connect").WithCause(err)
		}
		return nil, ErrDatabaseHandleFailed.WithOp("connect")
	}

	c.client, c.db = client, db
	return db, nil
}

// Close disconnects the pool. Failures are logged and the Client stays
// connected; use Disconnect to observe the error.
func (c *Client) Close(ctx context.Context) {
	if err := c.Disconnect(ctx); err != nil {
		c.logger.Errorw("Failed to close mongodb connection", "error", err)
	}
}

// Disconnect closes the pool and returns the driver's error, if any. On
// failure the handles are kept and IsConnected stays true.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}

	if err := c.client.Disconnect(ctx); err != nil {
		return err
	}

	c.client, c.db = nil, nil
	c.logger.Infow("Disconnected from mongodb")
	return nil
}

// Ping checks the open pool. It does not connect.
func (c *Client) Ping(ctx context.Context) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()

	if client == nil {
		return ErrNotConnected.WithOp("ping")
	}
	if err := client.Ping(ctx); err != nil {
		return ErrOperationFailure.WithOp("ping").WithCause(err)
	}
	return nil
}

// Bootstrap reconciles structure using this Client.
func (c *Client) Bootstrap(ctx context.Context, structure []CollectionStructure, opts ...ReconcilerOption) (*Report, error) {
	opts = append([]ReconcilerOption{
		WithReconcilerLogger(c.logger),
		WithReconcilerTracer(c.tracer),
		WithReconcilerObserver(c.observer),
	}, opts...)
	return NewReconciler(c, opts...).Bootstrap(ctx, structure)
}

// CollectionExists reports whether the collection exists, connecting first
// if needed.
func (c *Client) CollectionExists(ctx context.Context, name string) (bool, error) {
	if err := checkCollectionName("collectionExists", name); err != nil {
		return false, err
	}

	db, err := c.Connect(ctx)
	if err != nil {
		return false, err
	}

	docs, err := db.ListCollections(ctx, name)
	if err != nil {
		return false, ErrOperationFailure.WithOp("collectionExists").WithCause(err)
	}
	return containsCollection(docs, name, "collectionExists")
}

// IndexExists reports whether the named index exists on the collection.
func (c *Client) IndexExists(ctx context.Context, collection, name string) (bool, error) {
	if err := checkCollectionName("indexExists", collection); err != nil {
		return false, err
	}
	if err := checkIndexName("indexExists", name); err != nil {
		return false, err
	}

	db, err := c.Connect(ctx)
	if err != nil {
		return false, err
	}

	exists, err := db.Collection(collection).IndexExists(ctx, name)
	if err != nil {
		return false, ErrOperationFailure.WithOp("indexExists").WithCause(err)
	}
	return exists, nil
}

// DropCollection drops the collection and reports false when it was absent.
func (c *Client) DropCollection(ctx context.Context, name string) (bool, error) {
	if err := checkCollectionName("dropCollection", name); err != nil {
		return false, err
	}

	db, err := c.Connect(ctx)
	if err != nil {
		return false, err
	}

	dropped, err := db.DropCollection(ctx, name)
	if err != nil {
		return false, ErrOperationFailure.WithOp("dropCollection").WithCause(err)
	}
	c.logger.Infow("Dropped mongodb collection", "collection", name, "dropped", dropped)
	return dropped, nil
}

// DropIndex drops the named index.
func (c *Client) DropIndex(ctx context.Context, collection, name string) error {
	if err := checkCollectionName("dropIndex", collection); err != nil {
		return err
	}
	if err := checkIndexName("dropIndex", name); err != nil {
		return err
	}

	db, err := c.Connect(ctx)
	if err != nil {
		return err
	}

	if err := db.Collection(collection).DropIndex(ctx, name); err != nil {
		return ErrOperationFailure.WithOp("dropIndex").WithCause(err)
	}
	c.logger.Infow("Dropped mongodb index", "collection", collection, "index", name)
	return nil
}

// clientOptions maps the resolved configuration onto driver options.
// Explicit setters are applied after the URI, which is consistent because
// the resolved values already account for the URI query.
func (c *Client) clientOptions() *options.ClientOptions {
	cfg := c.cfg
	poolSize := uint64(cfg.PoolSize)

	opts := options.Client().
		ApplyURI(c.uri).
		SetMinPoolSize(1).
		SetMaxPoolSize(poolSize).
		SetMaxConnecting(poolSize).
		SetConnectTimeout(time.Duration(cfg.ConnectTimeoutMS) * time.Millisecond).
		SetSocketTimeout(time.Duration(cfg.SocketTimeoutMS) * time.Millisecond).
		SetReadPreference(c.readPref()).
		SetRetryReads(cfg.RetryReads).
		SetRetryWrites(cfg.RetryWrites).
		SetCompressors([]string{"zlib"})

	// Properties attach to the credential carried by the URI or host options.
	if len(cfg.AuthMechanismProperties) > 0 && opts.Auth == nil {
		c.logger.Warnw("Ignoring auth mechanism properties without credentials",
			"properties", len(cfg.AuthMechanismProperties))
	} else if len(cfg.AuthMechanismProperties) > 0 {
		props := make(map[string]string, len(cfg.AuthMechanismProperties))
		for k, v := range cfg.AuthMechanismProperties {
			props[k] = fmt.Sprint(v)
		}
		opts.Auth.AuthMechanismProperties = props
	}

	if cfg.Debug {
		opts.SetMonitor(c.commandMonitor())
	}

	return opts
}

func (c *Client) readPref() *readpref.ReadPref {
	mode, err := readpref.ModeFromString(c.cfg.ReadPreference)
	if err != nil {
		return readpref.Nearest()
	}
	rp, err := readpref.New(mode)
	if err != nil {
		return readpref.Nearest()
	}
	return rp
}

func (c *Client) commandMonitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Started: func(_ context.Context, e *event.CommandStartedEvent) {
			c.logger.Debugw("mongodb command started",
				"command", e.CommandName, "request_id", e.RequestID, "database", e.DatabaseName)
		},
		Succeeded: func(_ context.Context, e *event.CommandSucceededEvent) {
			c.logger.Debugw("mongodb command succeeded",
				"command", e.CommandName, "request_id", e.RequestID, "duration", e.Duration)
		},
		Failed: func(_ context.Context, e *event.CommandFailedEvent) {
			c.logger.Warnw("mongodb command failed",
				"command", e.CommandName, "request_id", e.RequestID, "duration", e.Duration, "failure", e.Failure)
		},
	}
}
