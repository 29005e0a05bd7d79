// Package mongodb provides MongoDB connection options for the command line.
package mongodb

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kart-io/mongo-bootstrap/pkg/component/mongodb"
	"github.com/kart-io/mongo-bootstrap/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// redactedPassword is the placeholder used when serializing passwords.
const redactedPassword = "[REDACTED]"

// PasswordEnv is read by Complete when no password was given.
const PasswordEnv = "MONGODB_PASSWORD"

// Options defines configuration options for MongoDB. Either URI or the host
// fields describe the deployment; setting both is rejected by Validate.
type Options struct {
	// Connection
	URI      string `json:"-" mapstructure:"uri"`
	Host     string `json:"host" mapstructure:"host"`
	User     string `json:"user" mapstructure:"user"`
	Pass     string `json:"-" mapstructure:"pass"` // use MONGODB_PASSWORD
	AuthDB   string `json:"auth-db" mapstructure:"auth-db"`
	DB       string `json:"db" mapstructure:"db"`
	ReplSet  string `json:"replset" mapstructure:"replset"`
	Protocol string `json:"protocol" mapstructure:"protocol"`

	// Pool and behaviour
	PoolSize                int               `json:"pool-size" mapstructure:"pool-size"`
	ReadPreference          string            `json:"read-preference" mapstructure:"read-preference"`
	RetryReads              bool              `json:"retry-reads" mapstructure:"retry-reads"`
	RetryWrites             bool              `json:"retry-writes" mapstructure:"retry-writes"`
	ConnectTimeoutMS        int               `json:"connect-timeout-ms" mapstructure:"connect-timeout-ms"`
	SocketTimeoutMS         int               `json:"socket-timeout-ms" mapstructure:"socket-timeout-ms"`
	Debug                   bool              `json:"debug" mapstructure:"debug"`
	AuthMechanismProperties map[string]string `json:"auth-mechanism-properties" mapstructure:"auth-mechanism-properties"`

	fs     *pflag.FlagSet
	prefix string
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Host:             mongodb.DefaultHost,
		AuthDB:           mongodb.DefaultAuthDB,
		Protocol:         mongodb.DefaultProtocol,
		PoolSize:         mongodb.DefaultPoolSize,
		ReadPreference:   mongodb.DefaultReadPreference,
		RetryReads:       mongodb.DefaultRetryReads,
		RetryWrites:      mongodb.DefaultRetryWrites,
		ConnectTimeoutMS: mongodb.DefaultConnectTimeoutMS,
		SocketTimeoutMS:  mongodb.DefaultSocketTimeoutMS,
		Debug:            mongodb.DefaultDebug,
	}
}

// MarshalJSON implements json.Marshaler with password redaction.
func (o *Options) MarshalJSON() ([]byte, error) {
	type alias Options
	password := redactedPassword
	if o.Pass == "" {
		password = ""
	}
	return json.Marshal(struct {
		*alias
		URI  string `json:"uri"`
		Pass string `json:"pass"`
	}{alias: (*alias)(o), URI: mongodb.RedactURI(o.URI), Pass: password})
}

// String returns a string representation with credentials redacted.
func (o *Options) String() string {
	if o.URI != "" {
		return fmt.Sprintf("MongoDB{uri=%s, db=%s}", mongodb.RedactURI(o.URI), o.DB)
	}
	password := redactedPassword
	if o.Pass == "" {
		password = ""
	}
	return fmt.Sprintf("MongoDB{host=%s, user=%s, pass=%s, db=%s}", o.Host, o.User, password, o.DB)
}

// Complete reads the password from MONGODB_PASSWORD when it is not set.
func (o *Options) Complete() error {
	if o.URI == "" && o.Pass == "" {
		o.Pass = os.Getenv(PasswordEnv)
	}
	return nil
}

// Validate checks that the two ways of describing a deployment are not mixed.
// Field-level rules are enforced when the options are resolved.
func (o *Options) Validate() []error {
	if o == nil || o.URI == "" {
		return nil
	}

	var errs []error
	for _, name := range []string{"host", "user", "pass", "auth-db", "replset", "protocol"} {
		if o.explicit(name) {
			errs = append(errs, fmt.Errorf("--%smongodb.%s cannot be combined with --%smongodb.uri", o.prefix, name, o.prefix))
		}
	}
	return errs
}

// AddFlags adds flags for MongoDB options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	o.fs = fs
	o.prefix = options.Join(prefixes...)
	p := o.prefix + "mongodb."

	fs.StringVar(&o.URI, p+"uri", o.URI, "MongoDB connection URI (mongodb:// or mongodb+srv://). Excludes the host flags.")
	fs.StringVar(&o.Host, p+"host", o.Host, "Comma separated host[:port] list.")
	fs.StringVar(&o.User, p+"user", o.User, "Username for access to mongodb service.")
	fs.StringVar(&o.Pass, p+"pass", o.Pass, "Password for access to mongodb (prefer the "+PasswordEnv+" env var).")
	fs.StringVar(&o.AuthDB, p+"auth-db", o.AuthDB, "Authentication database.")
	fs.StringVar(&o.DB, p+"db", o.DB, "Database to bootstrap.")
	fs.StringVar(&o.ReplSet, p+"replset", o.ReplSet, "Replica set name.")
	fs.StringVar(&o.Protocol, p+"protocol", o.Protocol, "URI scheme (mongodb|mongodb+srv).")
	fs.IntVar(&o.PoolSize, p+"pool-size", o.PoolSize, "Maximum number of pooled connections (1-100).")
	fs.StringVar(&o.ReadPreference, p+"read-preference", o.ReadPreference, "Read preference mode.")
	fs.BoolVar(&o.RetryReads, p+"retry-reads", o.RetryReads, "Retry reads once on network errors.")
	fs.BoolVar(&o.RetryWrites, p+"retry-writes", o.RetryWrites, "Retry writes once on network errors.")
	fs.IntVar(&o.ConnectTimeoutMS, p+"connect-timeout-ms", o.ConnectTimeoutMS, "Connect timeout in milliseconds (>= 1000).")
	fs.IntVar(&o.SocketTimeoutMS, p+"socket-timeout-ms", o.SocketTimeoutMS, "Socket timeout in milliseconds, 0 for none.")
	fs.BoolVar(&o.Debug, p+"debug", o.Debug, "Log every driver command.")
	fs.StringToStringVar(&o.AuthMechanismProperties, p+"auth-mechanism-properties", o.AuthMechanismProperties, "Authentication mechanism properties as key=value pairs.")
}

// Raw converts the options into the input accepted by mongodb.New. Only
// explicit fields are carried over so that URI query parameters keep
// precedence over defaults.
func (o *Options) Raw() mongodb.RawOptions {
	common := o.common()
	if o.URI != "" {
		return &mongodb.URIOptions{CommonOptions: common, URI: o.URI}
	}
	return &mongodb.HostOptions{
		CommonOptions: common,
		Host:          o.explicitString("host", o.Host),
		User:          o.User,
		Pass:          o.Pass,
		AuthDB:        o.explicitString("auth-db", o.AuthDB),
		ReplSet:       o.ReplSet,
		Protocol:      o.explicitString("protocol", o.Protocol),
	}
}

func (o *Options) common() mongodb.CommonOptions {
	c := mongodb.CommonOptions{DB: o.DB}
	if o.explicit("debug") {
		c.Debug = mongodb.Bool(o.Debug)
	}
	if o.explicit("pool-size") {
		c.PoolSize = mongodb.Int(o.PoolSize)
	}
	if o.explicit("read-preference") {
		c.ReadPreference = mongodb.String(o.ReadPreference)
	}
	if o.explicit("retry-reads") {
		c.RetryReads = mongodb.Bool(o.RetryReads)
	}
	if o.explicit("retry-writes") {
		c.RetryWrites = mongodb.Bool(o.RetryWrites)
	}
	if o.explicit("connect-timeout-ms") {
		c.ConnectTimeoutMS = mongodb.Int(o.ConnectTimeoutMS)
	}
	if o.explicit("socket-timeout-ms") {
		c.SocketTimeoutMS = mongodb.Int(o.SocketTimeoutMS)
	}
	if len(o.AuthMechanismProperties) > 0 {
		c.AuthMechanismProperties = make(map[string]interface{}, len(o.AuthMechanismProperties))
		for k, v := range o.AuthMechanismProperties {
			c.AuthMechanismProperties[k] = v
		}
	}
	return c
}

func (o *Options) explicitString(name, v string) string {
	if o.explicit(name) {
		return v
	}
	return ""
}

// explicit reports whether the named field was supplied. With a flag set
// that is the flag's Changed mark, which the application shell also sets for
// keys taken from the environment or a config file. Options built in code
// have no flag set and count a field as explicit when it differs from its
// default.
func (o *Options) explicit(name string) bool {
	if o.fs != nil {
		f := o.fs.Lookup(o.prefix + "mongodb." + name)
		return f != nil && f.Changed
	}

	def := NewOptions()
	switch name {
	case "host":
		return o.Host != def.Host
	case "user":
		return o.User != ""
	case "pass":
		return o.Pass != ""
	case "auth-db":
		return o.AuthDB != def.AuthDB
	case "replset":
		return o.ReplSet != ""
	case "protocol":
		return o.Protocol != def.Protocol
	case "pool-size":
		return o.PoolSize != def.PoolSize
	case "read-preference":
		return o.ReadPreference != def.ReadPreference
	case "retry-reads":
		return o.RetryReads != def.RetryReads
	case "retry-writes":
		return o.RetryWrites != def.RetryWrites
	case "connect-timeout-ms":
		return o.ConnectTimeoutMS != def.ConnectTimeoutMS
	case "socket-timeout-ms":
		return o.SocketTimeoutMS != def.SocketTimeoutMS
	case "debug":
		return o.Debug != def.Debug
	}
	return false
}
