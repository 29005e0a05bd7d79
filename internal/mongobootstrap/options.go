package app

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/mongo-bootstrap/pkg/options"
	logopts "github.com/kart-io/mongo-bootstrap/pkg/options/logger"
	metricsopts "github.com/kart-io/mongo-bootstrap/pkg/options/metrics"
	mongoopts "github.com/kart-io/mongo-bootstrap/pkg/options/mongodb"
	tracingopts "github.com/kart-io/mongo-bootstrap/pkg/options/tracing"
)

// Modes selectable with --mode.
const (
	ModeBootstrap = "bootstrap"
	ModeValidate  = "validate"
	ModePing      = "ping"
)

// Output formats selectable with --output.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Options contains all mongo-bootstrap options.
type Options struct {
	Mode      string `json:"mode" mapstructure:"mode"`
	Structure string `json:"structure" mapstructure:"structure"`
	Output    string `json:"output" mapstructure:"output"`

	MongoDB *mongoopts.Options   `json:"mongodb" mapstructure:"mongodb"`
	Log     *logopts.Options     `json:"log" mapstructure:"log"`
	Tracing *tracingopts.Options `json:"tracing" mapstructure:"tracing"`
	Metrics *metricsopts.Options `json:"metrics" mapstructure:"metrics"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Mode:    ModeBootstrap,
		Output:  OutputText,
		MongoDB: mongoopts.NewOptions(),
		Log:     logopts.NewOptions(),
		Tracing: tracingopts.NewOptions(),
		Metrics: metricsopts.NewOptions(),
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Mode, "mode", o.Mode, "What to run: bootstrap, validate or ping.")
	fs.StringVar(&o.Structure, "structure", o.Structure, "YAML or JSON file declaring collections and indexes.")
	fs.StringVar(&o.Output, "output", o.Output, "Result format: text or json.")

	o.MongoDB.AddFlags(fs)
	o.Log.AddFlags(fs)
	o.Tracing.AddFlags(fs)
	o.Metrics.AddFlags(fs)
}

// Complete completes the options.
func (o *Options) Complete() error {
	if err := o.MongoDB.Complete(); err != nil {
		return err
	}
	return o.Tracing.Complete()
}

// Validate validates the options.
func (o *Options) Validate() error {
	var errs []error

	switch o.Mode {
	case ModeBootstrap, ModeValidate, ModePing:
	default:
		errs = append(errs, fmt.Errorf("--mode must be one of %s, %s or %s, got %q", ModeBootstrap, ModeValidate, ModePing, o.Mode))
	}
	switch o.Output {
	case OutputText, OutputJSON:
	default:
		errs = append(errs, fmt.Errorf("--output must be %s or %s, got %q", OutputText, OutputJSON, o.Output))
	}
	if o.Mode == ModePing && o.Structure != "" {
		errs = append(errs, errors.New("--structure has no effect with --mode=ping"))
	}

	errs = append(errs, options.ValidateAll(o.MongoDB, o.Log, o.Tracing, o.Metrics))

	return errors.Join(errs...)
}
