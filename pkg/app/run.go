// Package app provides the shared entry point for the memagent commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/joho/godotenv"

	"github.com/flemzord/memagent/internal/agent"
	"github.com/flemzord/memagent/internal/chat"
	"github.com/flemzord/memagent/internal/config"
	"github.com/flemzord/memagent/internal/core"
	"github.com/flemzord/memagent/internal/security"
	"github.com/flemzord/memagent/internal/telemetry"
)

// File names under the data directory.
const (
	historyFile = "history"
	auditFile   = "audit.log"
)

// RunParams configures a memagent process.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, the standard search path is used and a missing file falls
	// back to config.Default.
	ConfigPath string

	// DataDir overrides the default persistent data directory.
	DataDir string

	// LogLevel sets the minimum log level. The zero value is info; the
	// command line defaults to warn.
	LogLevel slog.Level

	// EnvFile is loaded before the configuration. Defaults to ".env".
	// A missing file is not an error.
	EnvFile string

	// Stdin and Stdout carry the chat. They default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer

	// Stderr receives the log. Defaults to os.Stderr.
	Stderr io.Writer
}

func (p RunParams) withDefaults() RunParams {
	if p.DataDir == "" {
		p.DataDir = DefaultDataDir()
	}
	if p.EnvFile == "" {
		p.EnvFile = ".env"
	}
	if p.Stdin == nil {
		p.Stdin = os.Stdin
	}
	if p.Stdout == nil {
		p.Stdout = os.Stdout
	}
	if p.Stderr == nil {
		p.Stderr = os.Stderr
	}
	return p
}

// Run loads configuration, starts all modules, and holds a chat session
// until the user exits, input ends, or a shutdown signal is received.
func Run(params RunParams) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	finished := make(chan struct{})
	defer close(finished)
	go restoreSignalsOnDone(ctx, stop, finished, params.Stderr)

	rt, err := Setup(ctx, params)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := rt.params.Stdout
	if _, err := fmt.Fprintf(out, "Memory Agent initialized for user: %s with model %s.\n",
		rt.Agent.UserID(), rt.Agent.ModelName()); err != nil {
		return err
	}

	if err := rt.App.Start(); err != nil {
		return err
	}

	in, closeIn := rt.lineReader()
	defer closeIn()

	rt.Logger.Info("chat session started", "user", rt.Agent.UserID(), "config", rt.ConfigPath)
	err = chat.NewSession(rt.Agent, in, out).Run(ctx)
	rt.Logger.Info("chat session ended")
	return err
}

// restoreSignalsOnDone waits for the first shutdown signal and then
// restores default signal handling. A plain line reader stays blocked until
// the next newline, so a second Ctrl-C must be able to kill the process.
// It returns without touching anything once finished is closed.
func restoreSignalsOnDone(ctx context.Context, stop context.CancelFunc, finished <-chan struct{}, w io.Writer) {
	select {
	case <-finished:
		return
	case <-ctx.Done():
	}
	select {
	case <-finished:
		return
	default:
	}
	stop()
	if w == nil {
		w = os.Stderr
	}
	_, _ = fmt.Fprintln(w, "\nInterrupted. Press Enter to finish or Ctrl-C again to quit.")
}

// Runtime is a loaded memagent process: modules provisioned and the agent
// wired, but nothing started. Close releases everything Setup opened.
type Runtime struct {
	Config     *config.Config
	ConfigPath string // empty when the built-in default is in use
	App        *core.App
	AppCtx     *core.AppContext
	Logger     *slog.Logger
	Agent      *agent.Orchestrator

	params      RunParams
	closers     []func()
	shutdown    telemetry.ShutdownFunc
	redactor    *security.Redactor
	credentials *security.CredentialStore
	audit       *security.AuditLogger
}

// Setup performs every startup step short of starting modules: .env and
// configuration loading, logging, security services, telemetry, module
// provisioning and agent wiring.
func Setup(ctx context.Context, params RunParams) (*Runtime, error) {
	params = params.withDefaults()

	if err := godotenv.Load(params.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("app: loading %s: %w", params.EnvFile, err)
	}

	cfg, cfgPath, err := LoadConfig(params.ConfigPath)
	if err != nil {
		return nil, err
	}

	credStore := security.NewCredentialStore()
	redactor := security.NewRedactor()
	logger := security.NewLogger(params.Stderr, params.LogLevel, redactor)

	rt := &Runtime{
		Config:      cfg,
		ConfigPath:  cfgPath,
		Logger:      logger.With("component", "app"),
		params:      params,
		redactor:    redactor,
		credentials: credStore,
	}

	if err := os.MkdirAll(params.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("app: creating data dir: %w", err)
	}

	auditOut, err := security.OpenAuditFile(filepath.Join(params.DataDir, auditFile))
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, func() { _ = auditOut.Close() })
	auditLogger := security.NewAuditLogger(security.AuditLoggerConfig{
		Writer:   auditOut,
		Redactor: redactor,
	})
	rt.audit = auditLogger

	tp, shutdown, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.shutdown = shutdown
	registry := telemetry.NewRegistry()

	appCtx := core.NewAppContext(logger, params.DataDir).WithModuleConfigs(cfg.Modules)
	appCtx.RegisterService(security.CredentialsService, credStore)
	appCtx.RegisterService(security.AuditService, auditLogger)
	appCtx.RegisterService(telemetry.RegistryService, registry)
	rt.AppCtx = appCtx

	application := core.NewApp(appCtx)
	if err := application.LoadModules(config.Resolve(cfg)); err != nil {
		rt.Close()
		return nil, err
	}
	rt.App = application

	// Modules register their API keys during Provision.
	redactor.SyncCredentials(credStore)
	rt.Logger.Debug("credentials registered for redaction", "count", credStore.Len())

	orchestrator, err := wireAgent(appCtx, cfg, agentDeps{
		logger:   logger,
		registry: registry,
		tracer:   tp.Tracer("github.com/flemzord/memagent"),
		audit:    auditLogger,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Agent = orchestrator
	return rt, nil
}

// Close stops loaded modules, flushes traces and closes the audit log.
// It is safe to call more than once.
func (rt *Runtime) Close() {
	if rt.App != nil {
		rt.App.Stop()
		rt.App = nil
	}
	if rt.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := rt.shutdown(ctx); err != nil {
			rt.Logger.Warn("trace shutdown failed", "error", err)
		}
		cancel()
		rt.shutdown = nil
	}
	if n := rt.audit.Failures(); n > 0 {
		rt.Logger.Warn("audit events could not be written", "count", n)
	}
	rt.audit = nil
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// ModuleSetting is the configuration of one loaded module, with secrets
// masked.
type ModuleSetting struct {
	ID       string
	Settings map[string]any
}

// ModuleSettings returns the loaded modules in load order with their
// configuration decoded and passed through the log redactor, so API keys
// never appear when it is printed.
func (rt *Runtime) ModuleSettings() ([]ModuleSetting, error) {
	if rt.App == nil {
		return nil, nil
	}
	mods := rt.App.Modules()
	out := make([]ModuleSetting, 0, len(mods))
	for _, mod := range mods {
		id := string(mod.ModuleInfo().ID)
		settings := map[string]any{}
		if node, ok := rt.Config.Modules[id]; ok && node.Kind != 0 {
			if err := node.Decode(&settings); err != nil {
				return nil, fmt.Errorf("app: decoding %s settings: %w", id, err)
			}
			if settings == nil {
				settings = map[string]any{}
			}
		}
		rt.redactor.RedactMap(settings)
		out = append(out, ModuleSetting{ID: id, Settings: settings})
	}
	return out, nil
}

// CredentialNames lists the secrets modules resolved during provisioning.
func (rt *Runtime) CredentialNames() []string {
	return rt.credentials.Names()
}

// lineReader returns the interactive line editor when stdin is a terminal
// and a plain prompt reader otherwise.
func (rt *Runtime) lineReader() (chat.LineReader, func()) {
	in, out := rt.params.Stdin, rt.params.Stdout
	if f, ok := in.(*os.File); ok && readline.IsTerminal(int(f.Fd())) {
		rl, err := chat.NewTerminal(filepath.Join(rt.params.DataDir, historyFile))
		if err == nil {
			return rl, func() { _ = rl.Close() }
		}
		rt.Logger.Warn("line editor unavailable, using plain input", "error", err)
	}
	return chat.NewPromptReader(in, out), func() {}
}

// LoadConfig finds and loads the configuration, applies MEMAGENT_*
// environment overrides and validates the result. The returned path is
// empty when the built-in default is used.
func LoadConfig(explicit string) (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(explicit)
	if err != nil {
		return nil, "", err
	}

	overrides, err := config.LoadOverrides()
	if err != nil {
		return nil, "", err
	}
	if err := overrides.Apply(cfg); err != nil {
		return nil, "", err
	}

	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// DefaultDataDir returns the default persistent data directory.
// Uses $XDG_DATA_HOME/memagent if set, otherwise ~/.local/share/memagent.
func DefaultDataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok && dir != "" {
		return filepath.Join(dir, "memagent")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "memagent")
}
