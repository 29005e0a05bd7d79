// Package app provides application bootstrapping with Cobra, Viper, and Pflag.
//
// Configuration is layered: defaults, then the config file, then
// environment variables, then flags given on the command line. Values in
// the config file may reference the environment as ${VAR} or $VAR, and a
// .env file in the working directory is loaded first.
//
// Usage:
//
//	app := app.NewApp(
//	    app.WithName("mongo-bootstrap"),
//	    app.WithDescription("Ensure MongoDB collections and indexes"),
//	    app.WithOptions(opts),
//	    app.WithRunFunc(run),
//	)
//	app.Run()
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/kart-io/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// App is the main application structure.
type App struct {
	name        string
	shortDesc   string
	description string
	envPrefix   string
	envFiles    []string
	options     CliOptions
	runFunc     RunFunc
	cmd         *cobra.Command
	viper       *viper.Viper
	args        cobra.PositionalArgs
	silence     bool
	noVersion   bool
	noConfig    bool
}

// RunFunc is the application's run function. ctx is cancelled on SIGINT
// or SIGTERM.
type RunFunc func(ctx context.Context) error

// Option configures an App.
type Option func(*App)

// WithName sets the application name. It also names the config file and
// the environment prefix.
func WithName(name string) Option {
	return func(a *App) {
		a.name = name
	}
}

// WithShortDescription sets the short description.
func WithShortDescription(desc string) Option {
	return func(a *App) {
		a.shortDesc = desc
	}
}

// WithDescription sets the long description.
func WithDescription(desc string) Option {
	return func(a *App) {
		a.description = desc
	}
}

// WithEnvPrefix overrides the environment prefix derived from the name.
func WithEnvPrefix(prefix string) Option {
	return func(a *App) {
		a.envPrefix = prefix
	}
}

// WithEnvFiles sets the dotenv files loaded before configuration. Missing
// files are skipped. The default is ".env".
func WithEnvFiles(files ...string) Option {
	return func(a *App) {
		a.envFiles = files
	}
}

// WithOptions sets the CLI options.
func WithOptions(opts CliOptions) Option {
	return func(a *App) {
		a.options = opts
	}
}

// WithRunFunc sets the run function.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) {
		a.runFunc = run
	}
}

// WithArgs sets the positional args validation.
func WithArgs(args cobra.PositionalArgs) Option {
	return func(a *App) {
		a.args = args
	}
}

// WithSilence disables usage and error printing.
func WithSilence() Option {
	return func(a *App) {
		a.silence = true
	}
}

// WithNoVersion disables version flag.
func WithNoVersion() Option {
	return func(a *App) {
		a.noVersion = true
	}
}

// WithNoConfig disables config file loading.
func WithNoConfig() Option {
	return func(a *App) {
		a.noConfig = true
	}
}

// NewApp creates a new application instance.
func NewApp(opts ...Option) *App {
	a := &App{
		name:     filepath.Base(os.Args[0]),
		envFiles: []string{".env"},
		viper:    viper.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.envPrefix == "" {
		a.envPrefix = strings.ToUpper(strings.ReplaceAll(a.name, "-", "_"))
	}

	a.buildCommand()
	return a
}

// buildCommand creates the cobra command.
func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:   a.name,
		Short: a.shortDesc,
		Long:  a.description,
		RunE:  a.runCommand,
		Args:  a.args,
		// Always silence usage on errors - users can use --help to see usage
		SilenceUsage: true,
	}

	if a.silence {
		cmd.SilenceErrors = true
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	a.addGlobalFlags(cmd)

	if a.options != nil {
		a.options.AddFlags(cmd.Flags())
	}

	a.cmd = cmd
}

// addGlobalFlags adds global flags to the command.
func (a *App) addGlobalFlags(cmd *cobra.Command) {
	if !a.noConfig {
		cmd.PersistentFlags().StringP("config", "c", "", "Path to config file")
	}

	if !a.noVersion {
		version.AddFlags(cmd.PersistentFlags())
	}

	cmd.PersistentFlags().BoolP("help", "h", false, "Help for "+a.name)
}

// runCommand is the main run function for the command.
func (a *App) runCommand(cmd *cobra.Command, _ []string) error {
	// Prints and exits if --version is set.
	if !a.noVersion {
		version.PrintAndExitIfRequested()
	}

	if err := a.loadEnvFiles(); err != nil {
		return err
	}

	if !a.noConfig {
		if err := a.loadConfig(cmd); err != nil {
			return err
		}
	}

	if a.options != nil {
		if err := a.options.Complete(); err != nil {
			return err
		}
		if err := a.options.Validate(); err != nil {
			return err
		}
	}

	if a.runFunc != nil {
		return a.runFunc(cmd.Context())
	}

	return nil
}

// loadEnvFiles loads dotenv files without overriding variables that are
// already set.
func (a *App) loadEnvFiles() error {
	for _, file := range a.envFiles {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// loadConfig loads configuration from file, environment, and flags.
func (a *App) loadConfig(cmd *cobra.Command) error {
	v := a.viper
	configFile, _ := cmd.Flags().GetString("config")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(a.name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), "."+a.name))
		v.AddConfigPath("/etc/" + a.name)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	expandEnvVars(v)

	// Every flag can also be set as PREFIX_SECTION_NAME, e.g.
	// MONGO_BOOTSTRAP_MONGODB_POOL_SIZE.
	v.SetEnvPrefix(a.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = v.BindEnv(f.Name)
	})

	if a.options == nil {
		return nil
	}

	// Capture changed flags to preserve precedence
	changed := snapshotChanged(cmd.Flags())

	if err := v.Unmarshal(a.options, viper.DecoderConfigOption(matchLoosely)); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, s := range changed {
		if err := s.restore(); err != nil {
			return fmt.Errorf("failed to re-apply flag %s: %w", s.flag.Name, err)
		}
	}

	markSupplied(cmd.Flags(), v)
	return nil
}

// markSupplied marks every flag whose key was set by the environment or the
// config file as Changed, so options can tell supplied values from defaults.
func markSupplied(flags *pflag.FlagSet, v *viper.Viper) {
	supplied := make(map[string]bool)
	for _, key := range v.AllKeys() {
		if v.IsSet(key) {
			supplied[normalizeKey(key)] = true
		}
	}
	flags.VisitAll(func(f *pflag.Flag) {
		if supplied[normalizeKey(f.Name)] {
			f.Changed = true
		}
	})
}

// matchLoosely lets "output-paths" in a config file match the
// "output_paths" tag and vice versa.
func matchLoosely(c *mapstructure.DecoderConfig) {
	c.MatchName = func(mapKey, fieldName string) bool {
		return normalizeKey(mapKey) == normalizeKey(fieldName)
	}
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(s))
}

type flagSnapshot struct {
	flag  *pflag.Flag
	slice []string
	value string
}

func snapshotChanged(flags *pflag.FlagSet) []flagSnapshot {
	var out []flagSnapshot
	flags.VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		s := flagSnapshot{flag: f, value: f.Value.String()}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			// GetSlice shares its backing array with the flag value, which
			// Unmarshal decodes into.
			s.slice = append([]string(nil), sv.GetSlice()...)
		}
		out = append(out, s)
	})
	return out
}

func (s flagSnapshot) restore() error {
	if sv, ok := s.flag.Value.(pflag.SliceValue); ok {
		return sv.Replace(s.slice)
	}
	if s.flag.Value.Type() == "stringToString" {
		return s.flag.Value.Set(strings.TrimSuffix(strings.TrimPrefix(s.value, "["), "]"))
	}
	return s.flag.Value.Set(s.value)
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands ${VAR} and $VAR style environment variables in config
// values. References to unset variables are kept as written.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		expanded := envPattern.ReplaceAllStringFunc(strVal, func(match string) string {
			var varName string
			if strings.HasPrefix(match, "${") {
				varName = match[2 : len(match)-1]
			} else {
				varName = match[1:]
			}
			if envVal, ok := os.LookupEnv(varName); ok {
				return envVal
			}
			return match
		})
		if expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

// Run executes the application and exits non-zero on error.
func (a *App) Run() {
	if err := a.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Execute runs the command with a context cancelled on SIGINT or SIGTERM.
func (a *App) Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.cmd.ExecuteContext(ctx)
}

// Command returns the cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}
