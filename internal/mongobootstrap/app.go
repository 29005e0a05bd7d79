// Package app provides the mongo-bootstrap command.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/mongo-bootstrap/internal/bootstrap"
	"github.com/kart-io/mongo-bootstrap/pkg/component/mongodb"
	"github.com/kart-io/mongo-bootstrap/pkg/infra/app"
	ctxlog "github.com/kart-io/mongo-bootstrap/pkg/infra/logger"
)

const (
	appName        = "mongo-bootstrap"
	appDescription = `Ensure MongoDB collections and indexes exist.

mongo-bootstrap connects to a deployment, creates every declared collection
and index that is missing and disconnects. Existing objects are left as they
are, so the command is safe to run on every deploy.

Examples:
  # Connectivity check against a local server
  mongo-bootstrap --mongodb.user=app --mongodb.db=main

  # Reconcile a structure file
  MONGODB_PASSWORD=secret mongo-bootstrap --mongodb.user=app --mongodb.db=main \
      --structure=structure.yaml

  # Check configuration and structure without connecting
  mongo-bootstrap --mode=validate --mongodb.uri=mongodb://db:27017/main \
      --structure=structure.yaml

  # Export metrics for the node_exporter textfile collector
  mongo-bootstrap --structure=structure.yaml \
      --metrics.textfile=/var/lib/node_exporter/mongo_bootstrap.prom

Configuration:
  Configuration can be provided via:
  - Command-line flags (highest priority)
  - Environment variables (prefix: MONGO_BOOTSTRAP_, e.g. MONGO_BOOTSTRAP_MONGODB_DB)
  - Configuration file (YAML, -c or ./mongo-bootstrap.yaml)
  - Default values (lowest priority)`
)

// pingTimeout bounds the health check in ping mode.
const pingTimeout = 5 * time.Second

// NewApp creates a new application instance.
func NewApp() *app.App {
	return newApp(os.Stdout)
}

func newApp(out io.Writer, clientOpts ...mongodb.Option) *app.App {
	opts := NewOptions()

	return app.NewApp(
		app.WithName(appName),
		app.WithShortDescription("Ensure MongoDB collections and indexes exist"),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithRunFunc(func(ctx context.Context) error {
			return Run(ctx, opts, out, clientOpts...)
		}),
	)
}

// Run executes the selected mode and writes its result to out.
func Run(ctx context.Context, opts *Options, out io.Writer, clientOpts ...mongodb.Option) error {
	bopts := &bootstrap.BootstrapOptions{
		AppName:       appName,
		AppVersion:    app.GetVersion(),
		Mode:          opts.Mode,
		StructurePath: opts.Structure,
		LogOpts:       opts.Log,
		TracingOpts:   opts.Tracing,
		MetricsOpts:   opts.Metrics,
		MongoDBOpts:   opts.MongoDB,
		ClientOptions: clientOpts,
	}

	return bootstrap.Run(ctx, bopts, func(ctx context.Context, b *bootstrap.AppBootstrapper) error {
		ctx = ctxlog.WithMode(ctxlog.WithUID(ctx, b.Client().UID()), opts.Mode)

		switch opts.Mode {
		case ModeValidate:
			return validate(b, opts, out)
		case ModePing:
			return ping(ctx, b, opts, out)
		default:
			return reconcile(ctx, b, opts, out)
		}
	})
}

type validateResult struct {
	UID              string                  `json:"uid"`
	ConnectionString string                  `json:"connection_string"`
	Config           *mongodb.ResolvedConfig `json:"config"`
	Collections      int                     `json:"collections"`
	Indexes          int                     `json:"indexes"`
}

func validate(b *bootstrap.AppBootstrapper, opts *Options, out io.Writer) error {
	c := b.Client()
	res := validateResult{
		UID:              c.UID(),
		ConnectionString: c.ConnectionString(),
		Config:           c.Config(),
		Collections:      len(b.Structure()),
	}
	for _, cs := range b.Structure() {
		res.Indexes += len(cs.Idx)
	}

	if opts.Output == OutputJSON {
		return writeJSON(out, res)
	}
	_, err := fmt.Fprintf(out, "uid: %s\nuri: %s\ncollections: %d\nindexes: %d\n",
		res.UID, res.ConnectionString, res.Collections, res.Indexes)
	return err
}

func ping(ctx context.Context, b *bootstrap.AppBootstrapper, opts *Options, out io.Writer) error {
	log := ctxlog.FromContext(ctx, logger.Global())
	c := b.Client()

	cctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := c.Connect(cctx); err != nil {
		return err
	}

	statuses := b.Registry().HealthCheckAll(cctx)
	status := statuses[c.UID()]

	if opts.Output == OutputJSON {
		if err := writeJSON(out, status); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "%s healthy=%t latency=%s", c.UID(), status.Healthy, status.Latency)
		if status.Error != nil {
			fmt.Fprintf(out, " error=%q", status.Error.Error())
		}
		fmt.Fprintln(out)
	}

	if !status.Healthy {
		log.Errorw("MongoDB is not healthy", "error", status.Error)
		return fmt.Errorf("mongodb %s is not healthy: %w", c.UID(), status.Error)
	}
	log.Infow("MongoDB is healthy", "latency", status.Latency)
	return nil
}

func reconcile(ctx context.Context, b *bootstrap.AppBootstrapper, opts *Options, out io.Writer) error {
	report, err := b.Client().Bootstrap(ctx, b.Structure())
	if report != nil {
		if werr := writeReport(out, report, opts.Output); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

func writeReport(out io.Writer, report *mongodb.Report, format string) error {
	if format == OutputJSON {
		return writeJSON(out, report)
	}

	for _, s := range report.Steps {
		name := s.Collection
		if s.Kind == mongodb.StepIndex {
			name += "." + s.Index
		}
		line := fmt.Sprintf("%-10s %-40s %s", s.Kind, name, s.Outcome)
		if s.Reason != "" {
			line += " (" + s.Reason + ")"
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(out, "phase=%s created=%d already_exists=%d failed=%d duration=%s\n",
		report.Phase, report.Created(), report.Count(mongodb.OutcomeAlreadyExists),
		report.Count(mongodb.OutcomeFailed), report.Duration)
	return err
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
