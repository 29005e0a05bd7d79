package mongodb

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// RawOptions is the user-supplied connection description. It is either
// HostOptions or URIOptions.
type RawOptions interface {
	isRawOptions()
}

// CommonOptions holds the settings shared by both shapes. Nil pointers mean
// "not set" so that URI query values and defaults can fill them in.
type CommonOptions struct {
	Debug                   *bool                  `json:"debug,omitempty" mapstructure:"debug"`
	PoolSize                *int                   `json:"pool_size,omitempty" mapstructure:"pool_size"`
	DB                      string                 `json:"db,omitempty" mapstructure:"db"`
	ReadPreference          *string                `json:"read_preference,omitempty" mapstructure:"read_preference"`
	RetryReads              *bool                  `json:"retry_reads,omitempty" mapstructure:"retry_reads"`
	RetryWrites             *bool                  `json:"retry_writes,omitempty" mapstructure:"retry_writes"`
	ConnectTimeoutMS        *int                   `json:"connect_timeout_ms,omitempty" mapstructure:"connect_timeout_ms"`
	SocketTimeoutMS         *int                   `json:"socket_timeout_ms,omitempty" mapstructure:"socket_timeout_ms"`
	AuthMechanismProperties map[string]interface{} `json:"auth_mechanism_properties,omitempty" mapstructure:"auth_mechanism_properties"`
}

// HostOptions describes a deployment by host and credentials.
// Empty strings take the defaults 127.0.0.1:27017, admin, no replica set
// and mongodb; User, Pass and DB are required.
type HostOptions struct {
	CommonOptions `mapstructure:",squash"`

	Host     string `json:"host,omitempty" mapstructure:"host"`
	User     string `json:"user,omitempty" mapstructure:"user"`
	Pass     string `json:"-" mapstructure:"pass"`
	AuthDB   string `json:"auth_db,omitempty" mapstructure:"auth_db"`
	ReplSet  string `json:"replset,omitempty" mapstructure:"replset"`
	Protocol string `json:"protocol,omitempty" mapstructure:"protocol"`
}

// URIOptions describes a deployment by connection URI. DB may be omitted
// when the URI path names the database.
type URIOptions struct {
	CommonOptions `mapstructure:",squash"`

	URI string `json:"-" mapstructure:"uri"`
}

func (*HostOptions) isRawOptions() {}
func (*URIOptions) isRawOptions()  {}

// MarshalJSON redacts the password.
func (o HostOptions) MarshalJSON() ([]byte, error) {
	type alias HostOptions
	return json.Marshal(struct {
		alias
		Pass string `json:"pass,omitempty"`
	}{alias: alias(o), Pass: redactIfSet(o.Pass)})
}

// MarshalJSON redacts the credentials embedded in the URI.
func (o URIOptions) MarshalJSON() ([]byte, error) {
	type alias URIOptions
	return json.Marshal(struct {
		alias
		URI string `json:"uri"`
	}{alias: alias(o), URI: RedactURI(o.URI)})
}

func redactIfSet(s string) string {
	if s == "" {
		return ""
	}
	return redacted
}

// ParseOptions builds RawOptions from a generic mapping such as a decoded
// config file section. The presence of a "uri" key selects URIOptions.
// Unknown keys are rejected; "replset: false" is accepted.
func ParseOptions(m map[string]interface{}) (RawOptions, error) {
	if len(m) == 0 {
		return nil, ErrInvalidInput.WithOp("parseOptions").WithMessage("options must be a non-empty mapping")
	}

	var out RawOptions = &HostOptions{}
	if _, ok := m["uri"]; ok {
		out = &URIOptions{}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
		TagName:     "mapstructure",
		DecodeHook:  mapstructure.DecodeHookFuncType(falseToEmptyString),
	})
	if err != nil {
		return nil, ErrInvalidOptions.WithOp("parseOptions").WithCause(err)
	}
	if err := decoder.Decode(m); err != nil {
		return nil, ErrInvalidOptions.WithOp("parseOptions").WithCause(err)
	}

	return out, nil
}

// falseToEmptyString lets "replset: false" mean "no replica set".
func falseToEmptyString(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.Bool || to.Kind() != reflect.String {
		return data, nil
	}
	if data.(bool) {
		return nil, fmt.Errorf("boolean true is not a valid string value")
	}
	return "", nil
}

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }
