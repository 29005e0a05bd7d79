package mongodb

import (
	"encoding/json"
	"sync"

	"github.com/kart-io/mongo-bootstrap/pkg/validator"
)

// Defaults applied when neither an explicit option nor a URI query value
// sets a field.
const (
	DefaultPoolSize         = 5
	DefaultReadPreference   = "nearest"
	DefaultRetryReads       = true
	DefaultRetryWrites      = true
	DefaultConnectTimeoutMS = 10000
	DefaultSocketTimeoutMS  = 0
	DefaultDebug            = false

	DefaultHost     = "127.0.0.1:27017"
	DefaultAuthDB   = "admin"
	DefaultProtocol = schemeStandard
)

// HostConfig is the resolved host-shape connection description.
// An empty ReplSet means no replica set.
type HostConfig struct {
	Host     string `json:"host" validate:"required,mongohostlist"`
	User     string `json:"user" validate:"required"`
	Pass     string `json:"-" validate:"required"`
	AuthDB   string `json:"auth_db" validate:"required,nowhitespace"`
	ReplSet  string `json:"replset,omitempty" validate:"nowhitespace"`
	Protocol string `json:"protocol" validate:"required,mongoproto"`
}

// ResolvedConfig is the canonical configuration a Client connects with.
// Exactly one of Host and URI is set.
type ResolvedConfig struct {
	Debug                   bool                   `json:"debug"`
	PoolSize                int                    `json:"pool_size" validate:"min=1,max=100"`
	DB                      string                 `json:"db" validate:"required,min=1,max=64,nowhitespace"`
	ReadPreference          string                 `json:"read_preference" validate:"required,readpref"`
	RetryReads              bool                   `json:"retry_reads"`
	RetryWrites             bool                   `json:"retry_writes"`
	ConnectTimeoutMS        int                    `json:"connect_timeout_ms" validate:"min=1000"`
	SocketTimeoutMS         int                    `json:"socket_timeout_ms" validate:"min=0"`
	Host                    *HostConfig            `json:"host,omitempty"`
	URI                     string                 `json:"-" validate:"required_without=Host,excluded_with=Host"`
	AuthMechanismProperties map[string]interface{} `json:"auth_mechanism_properties,omitempty"`
}

func defaultConfig() *ResolvedConfig {
	return &ResolvedConfig{
		Debug:            DefaultDebug,
		PoolSize:         DefaultPoolSize,
		ReadPreference:   DefaultReadPreference,
		RetryReads:       DefaultRetryReads,
		RetryWrites:      DefaultRetryWrites,
		ConnectTimeoutMS: DefaultConnectTimeoutMS,
		SocketTimeoutMS:  DefaultSocketTimeoutMS,
	}
}

// apply overlays every field set in o.
func (c *ResolvedConfig) apply(o CommonOptions) {
	if o.Debug != nil {
		c.Debug = *o.Debug
	}
	if o.PoolSize != nil {
		c.PoolSize = *o.PoolSize
	}
	if o.ReadPreference != nil {
		c.ReadPreference = *o.ReadPreference
	}
	if o.RetryReads != nil {
		c.RetryReads = *o.RetryReads
	}
	if o.RetryWrites != nil {
		c.RetryWrites = *o.RetryWrites
	}
	if o.ConnectTimeoutMS != nil {
		c.ConnectTimeoutMS = *o.ConnectTimeoutMS
	}
	if o.SocketTimeoutMS != nil {
		c.SocketTimeoutMS = *o.SocketTimeoutMS
	}
	if o.DB != "" {
		c.DB = o.DB
	}
	if len(o.AuthMechanismProperties) > 0 {
		c.AuthMechanismProperties = copyProperties(o.AuthMechanismProperties)
	}
}

// Clone returns a deep copy.
func (c *ResolvedConfig) Clone() *ResolvedConfig {
	if c == nil {
		return nil
	}
	out := *c
	if c.Host != nil {
		h := *c.Host
		out.Host = &h
	}
	out.AuthMechanismProperties = copyProperties(c.AuthMechanismProperties)
	return &out
}

// String renders the configuration as JSON without credentials.
func (c *ResolvedConfig) String() string {
	b, _ := json.Marshal(c)
	return string(b)
}

func copyProperties(m map[string]interface{}) map[string]interface{} {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Checker validates a struct against its validate tags.
type Checker interface {
	Check(v interface{}) error
}

// Resolver turns RawOptions into a ResolvedConfig and its connection string.
type Resolver struct {
	checker Checker
}

// NewResolver returns a Resolver validating with checker. A nil checker
// selects the global validator.
func NewResolver(checker Checker) *Resolver {
	return &Resolver{checker: checker}
}

var (
	defaultResolver     *Resolver
	defaultResolverOnce sync.Once
)

// Resolve resolves raw with the default resolver.
func Resolve(raw RawOptions) (*ResolvedConfig, string, error) {
	defaultResolverOnce.Do(func() {
		defaultResolver = NewResolver(validator.Global())
	})
	return defaultResolver.Resolve(raw)
}

// Resolve merges raw with URI query values and defaults, validates the
// result and derives the connection string. Precedence is explicit option,
// then URI query value, then default. It performs no I/O.
func (r *Resolver) Resolve(raw RawOptions) (*ResolvedConfig, string, error) {
	switch o := raw.(type) {
	case *URIOptions:
		if o != nil {
			return r.resolveURI(o)
		}
	case *HostOptions:
		if o != nil {
			return r.resolveHost(o)
		}
	}
	return nil, "", ErrInvalidInput.WithOp("resolve").WithMessage("options are required")
}

func (r *Resolver) resolveURI(o *URIOptions) (*ResolvedConfig, string, error) {
	info, err := ParseURI(o.URI)
	if err != nil {
		return nil, "", err
	}
	fromQuery, err := info.Overrides()
	if err != nil {
		return nil, "", err
	}

	cfg := defaultConfig()
	cfg.apply(fromQuery)
	cfg.apply(o.CommonOptions)
	if cfg.DB == "" {
		cfg.DB = info.Database
	}
	if cfg.DB == "" {
		return nil, "", ErrMissingDatabase.WithOp("resolve").
			WithMessage("db must be set in options or in the uri path")
	}
	cfg.URI = o.URI

	if err := r.check(cfg); err != nil {
		return nil, "", err
	}
	return cfg, o.URI, nil
}

func (r *Resolver) resolveHost(o *HostOptions) (*ResolvedConfig, string, error) {
	cfg := defaultConfig()
	cfg.apply(o.CommonOptions)
	cfg.Host = &HostConfig{
		Host:     orDefault(o.Host, DefaultHost),
		User:     o.User,
		Pass:     o.Pass,
		AuthDB:   orDefault(o.AuthDB, DefaultAuthDB),
		ReplSet:  o.ReplSet,
		Protocol: orDefault(o.Protocol, DefaultProtocol),
	}

	if err := r.check(cfg); err != nil {
		return nil, "", err
	}

	uri := BuildURI(*cfg.Host)
	// The built string must satisfy the same grammar as a supplied one;
	// this catches e.g. mongodb+srv with a port.
	if _, err := ParseURI(uri); err != nil {
		return nil, "", ErrInvalidOptions.WithOp("resolve").
			WithMessage("host options do not form a valid connection uri").WithCause(err)
	}
	return cfg, uri, nil
}

func (r *Resolver) check(cfg *ResolvedConfig) error {
	checker := r.checker
	if checker == nil {
		checker = validator.Global()
	}
	if err := checker.Check(cfg); err != nil {
		return ErrInvalidOptions.WithOp("resolve").WithCause(err)
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
