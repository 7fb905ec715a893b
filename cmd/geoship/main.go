package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/geoship/internal/adapters/fs"
	"github.com/bft-labs/geoship/internal/adapters/metrics"
	"github.com/bft-labs/geoship/internal/adapters/observe"
	"github.com/bft-labs/geoship/internal/adapters/source"
	"github.com/bft-labs/geoship/internal/adapters/wakelock"
	"github.com/bft-labs/geoship/internal/cliconfig"
	"github.com/bft-labs/geoship/pkg/geoship"
	"github.com/bft-labs/geoship/pkg/log"
)

const helpDescription = `
Report this machine's location to a tracking endpoint at a fixed interval.

Fixes come from gpsd or from a JSON fix file (termux-location output). Each
fix is sent to the endpoint, whose scheme picks the transport:
http(s), redis(s), mqtt(s), amqp(s), grpc or postgres.

The last status lines are kept in memory and can be followed with
"geoship observe".
`

var exampleUsage = strings.TrimSpace(`
  geoship --endpoint https://tracker.example.com/api --update-interval 5m
  geoship --endpoint mqtt://broker.local/fleet --source file --fix-file /tmp/fix.json
  geoship --config $HOME/.geoship/config.yaml
  geoship observe --addr ws://127.0.0.1:8765/ws
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return geoship.Version
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "geoship",
		Short:         "Report this machine's location to a tracking endpoint",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			a := &agent{flags: cfg, changed: changed, cfgFile: cfgFile}
			return a.run()
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file, .toml or .yaml (default: $HOME/.geoship/config.toml)")
	root.Flags().StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "sink URL; the scheme selects the transport")
	root.Flags().StringVar(&cfg.UpdateInterval, "update-interval", cfg.UpdateInterval, "requested fix interval: <n>s, <n>m or <n>h")
	root.Flags().StringVar(&cfg.DeviceID, "device-id", cfg.DeviceID, "device identifier (default: generated once and kept in state-dir)")
	root.Flags().StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "bearer token for the HTTP sink")
	root.Flags().StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "directory for identity.json")

	root.Flags().StringVar(&cfg.Source, "source", cfg.Source, "location source: gpsd or file")
	root.Flags().StringVar(&cfg.GPSDAddr, "gpsd-addr", cfg.GPSDAddr, "gpsd address")
	root.Flags().StringVar(&cfg.FixFile, "fix-file", cfg.FixFile, "JSON fix file for --source file")

	root.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "status server address (empty disables)")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "sink round-trip timeout")
	root.Flags().BoolVar(&cfg.InhibitSleep, "inhibit-sleep", cfg.InhibitSleep, "block system sleep while a fix is being sent")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	root.AddCommand(newObserveCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "geoship: %v\n", err)
		os.Exit(1)
	}
}

// agent is one run of the root command.
type agent struct {
	flags   cliconfig.Config
	changed map[string]bool
	cfgFile string

	logger log.Logger

	mu  sync.Mutex
	cfg cliconfig.Config
}

// load layers file < env < flags over the flag-bound defaults.
func (a *agent) load() (cliconfig.Config, error) {
	cfg := a.flags
	if a.cfgFile != "" && cliconfig.FileExists(a.cfgFile) {
		fc, err := cliconfig.LoadFileConfig(a.cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&cfg, fc, a.changed); err != nil {
			return cfg, err
		}
	}
	if err := cliconfig.ApplyEnvConfig(&cfg, a.changed); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if cfg.DeviceID == "" {
		id, err := fs.NewIdentityFile(cfg.StateDir).Ensure()
		if err != nil {
			return cfg, fmt.Errorf("device identity: %w", err)
		}
		cfg.DeviceID = id.DeviceID
	}
	return cfg, nil
}

func (a *agent) current() cliconfig.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

func (a *agent) set(cfg cliconfig.Config) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg = cfg
}

// newSource builds the source for the current configuration. Called by
// the tracker once per session, so a reload can switch sources.
func (a *agent) newSource() geoship.LocationSource {
	cfg := a.current()
	if cfg.Source == cliconfig.SourceFile {
		return source.NewFixFile(cfg.FixFile, source.WithLogger(a.logger))
	}
	return source.NewGPSD(cfg.GPSDAddr, source.WithLogger(a.logger))
}

func libConfig(cfg cliconfig.Config) geoship.Config {
	return geoship.Config{
		Endpoint:              cfg.Endpoint,
		UpdateIntervalSeconds: cliconfig.ParseUpdateInterval(cfg.UpdateInterval),
		DeviceID:              cfg.DeviceID,
		AuthKey:               cfg.AuthKey,
		HTTPTimeout:           cfg.HTTPTimeout,
	}
}

func (a *agent) run() error {
	cfg, err := a.load()
	if err != nil {
		return err
	}
	a.set(cfg)

	logger, err := cliconfig.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}
	a.logger = logger

	logCfg := cfg
	if logCfg.AuthKey != "" {
		logCfg.AuthKey = "*****"
	}
	logger.Info("configuration", log.Any("config", logCfg))

	var lock geoship.WakeLock
	if cfg.InhibitSleep {
		inhibitor, err := wakelock.Detect()
		if err != nil {
			logger.Warn("sleep inhibition unavailable", log.Err(err))
		}
		lock = wakelock.New(inhibitor, logger)
	}

	collector := metrics.New()
	tracker := geoship.New(
		geoship.WithLogger(logger),
		geoship.WithSource(a.newSource),
		geoship.WithWakeLock(lock),
		geoship.WithEventHandler(collector),
		geoship.WithEventHandler(geoship.LogStatus(logger)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	toggleCh := make(chan os.Signal, 1)
	if len(toggleSignals) > 0 {
		signal.Notify(toggleCh, toggleSignals...)
	}

	if err := tracker.Start(ctx, libConfig(cfg)); err != nil {
		return fmt.Errorf("start tracker: %w", err)
	}

	if cfg.ListenAddr != "" {
		srv := observe.NewServer(tracker,
			observe.WithLogger(logger),
			observe.WithMetrics(collector.Handler()),
		)
		go func() {
			if err := srv.Run(ctx, cfg.ListenAddr); err != nil {
				logger.Error("status server", log.Err(err))
			}
		}()
	}

	reloadCh := make(chan struct{}, 1)
	if a.cfgFile != "" && cliconfig.FileExists(a.cfgFile) {
		w := &cliconfig.Watcher{
			Path:   a.cfgFile,
			Logger: logger,
			OnChange: func() {
				select {
				case reloadCh <- struct{}{}:
				default:
				}
			},
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Warn("config watcher stopped", log.Err(err))
			}
		}()
	}

	for {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, stopping", log.String("signal", sig.String()))
			if err := tracker.Stop(); err != nil && !errors.Is(err, geoship.ErrNotRunning) {
				return fmt.Errorf("stop tracker: %w", err)
			}
			return nil

		case <-toggleCh:
			a.toggle(tracker)

		case <-reloadCh:
			a.reload(ctx, tracker)
		}
	}
}

// toggle suspends an active tracker or resumes a suspended one.
func (a *agent) toggle(tracker *geoship.Tracker) {
	var err error
	switch tracker.State() {
	case geoship.StateActive:
		err = tracker.Suspend("suspend requested")
	case geoship.StateSuspended:
		err = tracker.Resume("resume requested")
	default:
		a.logger.Info("nothing to toggle", log.String("state", tracker.State().String()))
		return
	}
	if err != nil {
		a.logger.Warn("toggle tracker", log.Err(err))
	}
}

// reload re-reads the configuration and restarts the tracker when a
// session setting changed.
func (a *agent) reload(ctx context.Context, tracker *geoship.Tracker) {
	next, err := a.load()
	if err != nil {
		a.logger.Error("reload config", log.Err(err))
		return
	}
	prev := a.current()
	if !prev.RestartNeeded(next) {
		a.logger.Info("config reloaded, no restart needed")
		a.set(next)
		return
	}
	a.set(next)
	a.logger.Info("config changed, restarting tracker")
	if err := tracker.Restart(ctx, libConfig(next)); err != nil {
		a.logger.Error("restart tracker", log.Err(err))
	}
}
