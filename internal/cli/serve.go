package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/hostwarden/internal/alert"
	"github.com/ppiankov/hostwarden/internal/audit"
	"github.com/ppiankov/hostwarden/internal/cmdguard"
	"github.com/ppiankov/hostwarden/internal/config"
	"github.com/ppiankov/hostwarden/internal/denylist"
	"github.com/ppiankov/hostwarden/internal/files"
	"github.com/ppiankov/hostwarden/internal/gate"
	"github.com/ppiankov/hostwarden/internal/gateway"
	"github.com/ppiankov/hostwarden/internal/host"
	"github.com/ppiankov/hostwarden/internal/logging"
	"github.com/ppiankov/hostwarden/internal/notify"
	"github.com/ppiankov/hostwarden/internal/router"
	"github.com/ppiankov/hostwarden/internal/session"
	"github.com/ppiankov/hostwarden/internal/systemd"
	"github.com/ppiankov/hostwarden/internal/transport/telegram"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway",
	Long: "Connects to the bot API, notifies every allow-listed operator and\n" +
		"serves their events until interrupted. The denylist file is hot-reloaded.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}

	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	allow, err := gate.LoadAllowlist(cfg.AllowlistFile, cfg.Operators...)
	if err != nil {
		return err
	}
	dl, err := denylist.Load(cfg.Denylist)
	if err != nil {
		return fmt.Errorf("load denylist: %w", err)
	}

	checkUnit(filepath.Dir(path), log)

	var rec audit.Recorder
	if cfg.AuditLog != "" {
		al, err := audit.Open(cfg.AuditLog)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.AuditLog).Msg("audit log disabled")
		} else {
			defer al.Close()
			rec = al
		}
	}
	alerts := alert.NewDispatcher(cfg.Alerts, log)

	downloads := cfg.DownloadsDir
	if downloads == "" {
		downloads = files.DefaultDir()
	}
	guard := cmdguard.NewGuard(dl, cmdguard.Config{
		Timeout:   cfg.Shell.Timeout,
		MaxOutput: cfg.Shell.MaxOutput,
	})
	metrics := host.NewMetrics()
	r := router.New(newHost(cfg, metrics), guard, files.NewStore(downloads), log)
	sessions := session.NewStore(host.RawCapture{Argv: cfg.Capture.Command}, cfg.Capture.SampleRate)

	bot, err := telegram.New(cfg.Token, cfg.PollTimeout, log)
	if err != nil {
		return err
	}

	gw := gateway.New(gateway.Config{
		Transport: bot,
		Gate:      gate.New(allow, log, gate.WithLockoutHook(gateway.LockoutReporter(rec, alerts, log))),
		Filter:    dl,
		Router:    r,
		Sessions:  sessions,
		Audit:     rec,
		Alerts:    alerts,
		Log:       log,
	})

	reloader, err := denylist.NewReloader(dl, cfg.Denylist, log)
	if err != nil {
		log.Warn().Err(err).Msg("denylist hot-reload disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("bot", bot.Username()).
		Int("operators", allow.Len()).
		Str("downloads", downloads).
		Msg("hostwarden starting")

	g, ctx := errgroup.WithContext(ctx)
	if reloader != nil {
		g.Go(func() error { return reloader.Run(ctx) })
	}
	g.Go(func() error {
		// the event stream ending stops everything else
		defer stop()
		return gw.Run(ctx)
	})
	g.Go(func() error {
		hostname, _ := os.Hostname()
		uptime, err := metrics.Uptime(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("uptime unavailable")
		}
		notify.Broadcast(ctx, bot, allow.IDs(), notify.StartupMessage(hostname, uptime), log)
		return nil
	})

	err = g.Wait()
	log.Info().Msg("hostwarden stopped")
	return err
}

// newHost wires the concrete providers for this machine.
func newHost(cfg *config.Config, metrics *host.Metrics) *host.Host {
	run := host.ExecRunner{}
	return &host.Host{
		Mixer:     host.NewMixer(host.Pactl{Runner: run}),
		Power:     host.NewSystemPower(run),
		Media:     host.Playerctl{Runner: run},
		Display:   host.Brightnessctl{Runner: run},
		Processes: metrics,
		System:    metrics,
		Screen:    host.CommandScreen{Runner: run, Argv: cfg.Screenshot.Command},
		Clipboard: host.SystemClipboard{},
		Launcher:  host.NewDesktopLauncher(run),
	}
}

// checkUnit warns when an installed unit no longer matches the hash
// recorded by `hostwarden init --install-systemd`.
func checkUnit(configDir string, log zerolog.Logger) {
	hashPath := filepath.Join(configDir, unitHashFile)
	for _, unit := range []string{systemd.UserUnitPath(), systemd.SystemUnitPath} {
		if unit == "" {
			continue
		}
		if msg := systemd.CheckUnitFileIntegrity(unit, hashPath); msg != "" {
			log.Warn().Str("unit", unit).Msg(msg)
		}
	}
}
