// Package metrics provides options for exporting bootstrap metrics.
package metrics

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/spf13/pflag"

	"github.com/kart-io/mongo-bootstrap/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

var namespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Options configures the Prometheus textfile export. Metrics are only
// written when Textfile is set.
type Options struct {
	Textfile  string `json:"textfile" mapstructure:"textfile"`
	Namespace string `json:"namespace" mapstructure:"namespace"`
	Runtime   bool   `json:"runtime" mapstructure:"runtime"`
}

// NewOptions creates default metrics options.
func NewOptions() *Options {
	return &Options{
		Namespace: "mongo_bootstrap",
	}
}

// Enabled reports whether metrics should be written.
func (o *Options) Enabled() bool {
	return o.Textfile != ""
}

// AddFlags adds flags for metrics options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "metrics."

	fs.StringVar(&o.Textfile, p+"textfile", o.Textfile, "Write Prometheus metrics to this file on exit (node_exporter textfile collector format).")
	fs.StringVar(&o.Namespace, p+"namespace", o.Namespace, "Metric name prefix.")
	fs.BoolVar(&o.Runtime, p+"runtime", o.Runtime, "Include Go runtime and process metrics.")
}

// Validate validates the metrics options.
func (o *Options) Validate() []error {
	var errs []error
	if !namespacePattern.MatchString(o.Namespace) {
		errs = append(errs, fmt.Errorf("metrics: invalid namespace %q", o.Namespace))
	}
	if o.Textfile != "" && filepath.Ext(o.Textfile) != ".prom" {
		errs = append(errs, fmt.Errorf("metrics: textfile %q must end in .prom", o.Textfile))
	}
	return errs
}
