package mongodb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kart-io/logger/core"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// fakeDriver hands out a single fakeClient and counts connects.
type fakeDriver struct {
	mu         sync.Mutex
	connectErr error
	nilClient  bool
	lastOpts   *options.ClientOptions

	connects atomic.Int32
	client   *fakeClient
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{client: &fakeClient{db: newFakeDatabase("main")}}
}

func (d *fakeDriver) Connect(_ context.Context, opts *options.ClientOptions) (ClientHandle, error) {
	d.connects.Add(1)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastOpts = opts
	if d.connectErr != nil {
		return nil, d.connectErr
	}
	if d.nilClient {
		return nil, nil
	}
	return d.client, nil
}

func (d *fakeDriver) setConnectErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connectErr = err
}

func (d *fakeDriver) clientOptions() *options.ClientOptions {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastOpts
}

type fakeClient struct {
	mu            sync.Mutex
	disconnectErr error
	databaseErr   error
	nilDatabase   bool
	pingErr       error

	databases   atomic.Int32
	disconnects atomic.Int32
	db          *fakeDatabase
}

func (c *fakeClient) Database(name string, _ *options.DatabaseOptions) (DatabaseHandle, error) {
	c.databases.Add(1)
	if c.databaseErr != nil {
		return nil, c.databaseErr
	}
	if c.nilDatabase {
		return nil, nil
	}
	c.db.name = name
	return c.db, nil
}

func (c *fakeClient) Ping(context.Context) error {
	return c.pingErr
}

func (c *fakeClient) Disconnect(context.Context) error {
	c.disconnects.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnectErr
}

func (c *fakeClient) setDisconnectErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectErr = err
}

// fakeDatabase keeps created collections in memory.
type fakeDatabase struct {
	mu      sync.Mutex
	name    string
	created map[string]bool
	handles map[string]*fakeCollection

	listErr      error
	listDocs     []bson.M
	createErr    error
	createNoop   bool
	listCalls    atomic.Int32
	createCalls  atomic.Int32
	dropCalls    atomic.Int32
	createdOrder []string
}

func newFakeDatabase(name string) *fakeDatabase {
	return &fakeDatabase{
		name:    name,
		created: make(map[string]bool),
		handles: make(map[string]*fakeCollection),
	}
}

func (d *fakeDatabase) Name() string {
	return d.name
}

func (d *fakeDatabase) ListCollections(_ context.Context, name string) ([]bson.M, error) {
	d.listCalls.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.listErr != nil {
		return nil, d.listErr
	}
	if d.listDocs != nil {
		return d.listDocs, nil
	}
	if d.created[name] {
		return []bson.M{{"name": name, "type": "collection"}}, nil
	}
	return []bson.M{}, nil
}

func (d *fakeDatabase) CreateCollection(_ context.Context, name string) (bool, error) {
	d.createCalls.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.createErr != nil {
		return false, d.createErr
	}
	if d.createNoop || d.created[name] {
		return false, nil
	}
	d.created[name] = true
	d.createdOrder = append(d.createdOrder, name)
	return true, nil
}

func (d *fakeDatabase) DropCollection(_ context.Context, name string) (bool, error) {
	d.dropCalls.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.created[name] {
		return false, nil
	}
	delete(d.created, name)
	delete(d.handles, name)
	return true, nil
}

func (d *fakeDatabase) Collection(name string) CollectionHandle {
	return d.collection(name)
}

func (d *fakeDatabase) collection(name string) *fakeCollection {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.handles[name]
	if !ok {
		c = &fakeCollection{indexes: make(map[string]bson.D)}
		d.handles[name] = c
	}
	return c
}

type fakeCollection struct {
	mu         sync.Mutex
	indexes    map[string]bson.D
	lastKeys   bson.D
	lastOpts   bson.M
	existsErr  error
	createErr  error
	createNoop bool

	existsCalls atomic.Int32
	createCalls atomic.Int32
}

func (c *fakeCollection) IndexExists(_ context.Context, name string) (bool, error) {
	c.existsCalls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.existsErr != nil {
		return false, c.existsErr
	}
	_, ok := c.indexes[name]
	return ok, nil
}

func (c *fakeCollection) CreateIndex(_ context.Context, keys bson.D, opts bson.M) (string, error) {
	c.createCalls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastKeys, c.lastOpts = keys, opts
	if c.createErr != nil {
		return "", c.createErr
	}
	if c.createNoop {
		return "", nil
	}
	name := fmt.Sprint(opts["name"])
	c.indexes[name] = keys
	return name, nil
}

func (c *fakeCollection) DropIndex(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.indexes[name]; !ok {
		return fmt.Errorf("index not found with name [%s]", name)
	}
	delete(c.indexes, name)
	return nil
}

// recordingLogger captures warnings and errors and drops everything else.
type recordingLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

var _ core.Logger = (*recordingLogger)(nil)

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{}
}

func (l *recordingLogger) Warnw(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) Errorw(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) Debug(...interface{})                                {}
func (l *recordingLogger) Info(...interface{})                                 {}
func (l *recordingLogger) Warn(...interface{})                                 {}
func (l *recordingLogger) Error(...interface{})                                {}
func (l *recordingLogger) Fatal(...interface{})                                {}
func (l *recordingLogger) Debugf(string, ...interface{})                       {}
func (l *recordingLogger) Infof(string, ...interface{})                        {}
func (l *recordingLogger) Warnf(string, ...interface{})                        {}
func (l *recordingLogger) Errorf(string, ...interface{})                       {}
func (l *recordingLogger) Fatalf(string, ...interface{})                       {}
func (l *recordingLogger) Debugw(string, ...interface{})                       {}
func (l *recordingLogger) Infow(string, ...interface{})                        {}
func (l *recordingLogger) Fatalw(string, ...interface{})                       {}
func (l *recordingLogger) With(...interface{}) core.Logger                     { return l }
func (l *recordingLogger) WithCtx(context.Context, ...interface{}) core.Logger { return l }
func (l *recordingLogger) WithCallerSkip(int) core.Logger                      { return l }
func (l *recordingLogger) SetLevel(core.Level)                                 {}
func (l *recordingLogger) Flush() error                                        { return nil }

func (l *recordingLogger) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}

func (l *recordingLogger) errorMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}

// peterOptions is the reference host-shape configuration.
func peterOptions() *HostOptions {
	return &HostOptions{
		User:          "peter",
		Pass:          "mysecretpassword",
		CommonOptions: CommonOptions{DB: "main"},
	}
}

func newTestClient(t testing.TB, raw RawOptions, opts ...Option) (*Client, *fakeDriver, *recordingLogger) {
	t.Helper()

	driver := newFakeDriver()
	log := newRecordingLogger()
	c, err := New(raw, append([]Option{WithDriver(driver), WithLogger(log)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, driver, log
}
