// Package cli implements the fieldbook command-line interface. Each
// invocation loads config, attaches one backend, runs one command against a
// roster of the selected kind and detaches again.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/fieldbook/internal/paths"
	"github.com/mesh-intelligence/fieldbook/pkg/roster"
	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// app is the state of one invocation.
type app struct {
	// Global flags.
	configDir   string
	dataDir     string
	kind        string
	logLevel    string
	showMetrics bool

	started bool

	resolvedConfigDir string
	resolvedDataDir   string
	config            types.Config
	log               *slog.Logger
	backend           types.Backend
	registry          *prometheus.Registry
	roster            *roster.Roster
}

// newRootCmd builds the fieldbook command tree bound to a.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "fieldbook",
		Short: "Manage accounts and families with custom fields",
		Long: `fieldbook keeps accounts (with statuses) and families, each extended
by user-defined fields, in a SQLite file or a Postgres database.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return userError(err) })

	pf := root.PersistentFlags()
	pf.StringVar(&a.kind, "kind", types.AccountsSchema.Kind, "entity kind ("+strings.Join(kinds(), ", ")+")")
	pf.StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.dataDir, "data-dir", "", "data directory (default: config data_dir, then platform data dir)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	pf.BoolVar(&a.showMetrics, "metrics", false, "print remote operation counts to stderr on exit")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newEntityCmd(a),
		newStatusCmd(a),
		newFieldCmd(a),
		newValueCmd(a),
	)
	return root
}

// Run executes the command line args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	a.report(stderr)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(stderr, "fieldbook:", err)
	}
	return a.exitCode(err)
}

// setup resolves directories, loads config and attaches the backend before
// any command other than version runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.started = true
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	schema, ok := types.Schemas[a.kind]
	if !ok {
		return userError(fmt.Errorf("unknown kind %q (valid: %s)", a.kind, strings.Join(kinds(), ", ")))
	}

	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}

	level := a.logLevel
	if level == "" {
		level = v.GetString(cfgKeyLogLevel)
	}
	a.log, err = newLogger(cmd.ErrOrStderr(), level, v.GetString(cfgKeyLogFormat))
	if err != nil {
		return userError(err)
	}

	dataDir, err := paths.ResolveDataDir(a.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	a.resolvedConfigDir = configDir
	a.resolvedDataDir = dataDir
	a.config = types.Config{
		Backend: v.GetString(cfgKeyBackend),
		DataDir: dataDir,
		DSN:     v.GetString(cfgKeyDSN),
	}

	store, err := a.attach(a.config)
	if err != nil {
		return err
	}
	a.roster, err = roster.New(store, schema, roster.WithLogger(a.log))
	if err != nil {
		return sysError(err)
	}
	a.log.Debug("attached", "backend", a.config.Backend, "data_dir", dataDir, "kind", schema.Kind)
	return nil
}

// close detaches the backend, if one was attached.
func (a *app) close() error {
	if a.backend == nil {
		return nil
	}
	err := a.backend.Detach()
	a.backend = nil
	if err != nil {
		return sysError(fmt.Errorf("detach: %w", err))
	}
	return nil
}

// exitError carries an explicit exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// userErrors are sentinel errors caused by bad input rather than by the
// system.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrInvalidID,
	types.ErrInvalidData,
	types.ErrInvalidTable,
	types.ErrNoStatuses,
	types.ErrInvalidFieldType,
	types.ErrBackendEmpty,
	types.ErrBackendUnknown,
}

// exitCode maps err to a process exit code. Errors raised by cobra before
// setup ran (unknown command, bad arguments) are user errors.
func (a *app) exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if !a.started {
		return exitUserError
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

func kinds() []string {
	return []string{types.AccountsSchema.Kind, types.FamiliesSchema.Kind}
}
