package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vk/tunegrid/internal/app"
	"github.com/vk/tunegrid/internal/hcl"
	"github.com/vk/tunegrid/internal/tunable"
	"gopkg.in/yaml.v3"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// options holds the raw flag values shared by every subcommand.
type options struct {
	configFile string
	space      string
	experiment string
	budget     int
	optimizer  string
	apiURL     string
	apiToken   string
	seed       uint64
	port       int
	logLevel   string
	logFormat  string
	assignment string
}

// Execute runs the tunegrid command line with args. Documents go to out,
// help text too; logs go to errW. Startup panics are recovered and returned
// as an *ExitError.
func Execute(ctx context.Context, args []string, out, errW io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ExitError{Code: 1, Message: fmt.Sprintf("application startup panicked: %v", r)}
		}
	}()

	root := NewRootCommand(out, errW)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand(out, errW io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "tunegrid",
		Short: "Declarative hyperparameter search spaces",
		Long: `tunegrid loads search spaces declared in HCL, flattens them into the
parameters an optimizer tunes, and runs experiments against a local or
hosted optimizer.

Examples:
  tunegrid params -s modules/layers/network.hcl
  tunegrid resolve -s modules/layers/network.hcl --assignment round.yaml
  tunegrid run -s modules/synthetic/quadratic.hcl --budget 100`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.space, "space", "s", "", "Path to an .hcl file or a directory of .hcl files.")
	pf.StringVar(&opts.configFile, "config", "", "Path to a YAML config file. Flags override its values.")
	pf.StringVarP(&opts.experiment, "experiment", "e", "", "Experiment to use. Optional when exactly one is declared.")
	pf.StringVar(&opts.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&opts.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")

	root.AddCommand(
		newParamsCommand(opts, errW),
		newResolveCommand(opts, errW),
		newRunCommand(opts, errW),
	)
	return root
}

func newParamsCommand(opts *options, errW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Print the flattened parameter descriptors as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.newApp(cmd, errW)
			if err != nil {
				return err
			}
			params, err := a.Parameters(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), params)
		},
	}
}

func newResolveCommand(opts *options, errW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve one round and print the resolved argument tree as JSON",
		Long: `Resolve the search space under one assignment and print the resolved
argument tree. Bound functions are shown as their arguments, nothing is
invoked. The assignment file maps flattened parameter names to values in YAML
or JSON; parameters it omits take their defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			assignment, err := readAssignment(opts.assignment)
			if err != nil {
				return usageError(err)
			}
			a, err := opts.newApp(cmd, errW)
			if err != nil {
				return err
			}
			value, err := a.Resolve(cmd.Context(), assignment)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), value)
		},
	}
	cmd.Flags().StringVarP(&opts.assignment, "assignment", "a", "", "YAML or JSON file with the assignment to resolve.")
	return cmd
}

func newRunCommand(opts *options, errW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the experiment loop against an optimizer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.newApp(cmd, errW)
			if err != nil {
				return err
			}
			best, err := a.Run(cmd.Context())
			if err != nil {
				return err
			}
			if best == nil {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"best": nil})
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"best": map[string]any{
				"round":      best.Round,
				"suggestion": best.SuggestionID,
				"value":      best.Value,
				"assignment": best.Assignment,
			}})
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.budget, "budget", 0, "Observation budget. 0 uses the declared budget.")
	f.StringVar(&opts.optimizer, "optimizer", app.OptimizerLocal, "Optimizer backend. Options: 'local' or 'rest'.")
	f.StringVar(&opts.apiURL, "api-url", "", "Base URL of the optimizer service (rest only).")
	f.StringVar(&opts.apiToken, "api-token", "", "API token for the optimizer service (rest only).")
	f.Uint64Var(&opts.seed, "seed", 1, "Random seed of the local optimizer.")
	f.IntVar(&opts.port, "healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	return cmd
}

// config merges the config file, if any, with the flags. A flag overrides
// the file when it was set explicitly or the file leaves the value empty.
func (o *options) config(cmd *cobra.Command) (*app.Config, error) {
	var cfg app.Config
	if o.configFile != "" {
		var err error
		if cfg, err = app.LoadConfigFile(o.configFile); err != nil {
			return nil, err
		}
		slog.Debug("Config file loaded.", "path", o.configFile)
	}

	flags := cmd.Flags()
	use := func(name string, empty bool) bool {
		f := flags.Lookup(name)
		return f != nil && (f.Changed || empty)
	}
	if use("space", cfg.SpacePath == "") {
		cfg.SpacePath = o.space
	}
	if use("experiment", cfg.ExperimentName == "") {
		cfg.ExperimentName = o.experiment
	}
	if use("log-level", cfg.LogLevel == "") {
		cfg.LogLevel = o.logLevel
	}
	if use("log-format", cfg.LogFormat == "") {
		cfg.LogFormat = o.logFormat
	}
	if use("budget", cfg.Budget == 0) {
		cfg.Budget = o.budget
	}
	if use("optimizer", cfg.Optimizer == "") {
		cfg.Optimizer = o.optimizer
	}
	if use("api-url", cfg.APIURL == "") {
		cfg.APIURL = o.apiURL
	}
	if use("api-token", cfg.APIToken == "") {
		cfg.APIToken = o.apiToken
	}
	if use("seed", cfg.Seed == 0) {
		cfg.Seed = o.seed
	}
	if use("healthcheck-port", cfg.HealthcheckPort == 0) {
		cfg.HealthcheckPort = o.port
	}

	return app.NewConfig(cfg)
}

func (o *options) newApp(cmd *cobra.Command, errW io.Writer) (*app.App, error) {
	cfg, err := o.config(cmd)
	if err != nil {
		return nil, usageError(err)
	}
	slog.Debug("CLI configuration complete.", "config", cfg.SpacePath, "experiment", cfg.ExperimentName)
	return app.NewApp(errW, cfg, hcl.NewLoader()), nil
}

// readAssignment reads a YAML or JSON assignment file. An empty path yields
// an empty assignment.
func readAssignment(path string) (tunable.Assignment, error) {
	if path == "" {
		return tunable.Assignment{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read assignment file: %w", err)
	}
	var assignment tunable.Assignment
	if err := yaml.Unmarshal(data, &assignment); err != nil {
		return nil, fmt.Errorf("failed to parse assignment file %s: %w", path, err)
	}
	if assignment == nil {
		assignment = tunable.Assignment{}
	}
	return assignment, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Join(errors.New("failed to write output"), err)
	}
	return nil
}
