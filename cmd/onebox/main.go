package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/onebox/internal/app"
	"github.com/nhle/onebox/internal/credential"
	"github.com/nhle/onebox/internal/gateway"
	"github.com/nhle/onebox/internal/model"
	"github.com/nhle/onebox/internal/session"
	"github.com/nhle/onebox/internal/store"
	appsync "github.com/nhle/onebox/internal/sync"
	"github.com/nhle/onebox/internal/verify"
)

var (
	version     = "dev"
	configPath  = flag.String("config", model.DefaultConfigPath(), "Path to the YAML config file")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("onebox version %s\n", version)
		os.Exit(0)
	}

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "onebox: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "onebox: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	journal, err := store.NewSQLiteStore(cfg.Journal.Path)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open activity journal")
	}
	defer journal.Close()

	opts := session.Options{
		Gateway: gateway.NewClient(cfg.BackendURL, cfg.HTTP.Timeout),
		Sync: appsync.Options{
			Days:        cfg.Sync.Days,
			SettleDelay: cfg.Sync.SettleDelay,
		},
		Timeout: cfg.HTTP.Timeout,
		Journal: journal,
		Webhook: cfg.WebhookURL,
		Logger:  logger,
	}

	vault, err := credential.Open()
	if err != nil {
		logger.WithError(err).Warn("Keyring unavailable, webhook URL will not persist")
	} else {
		opts.Webhooks = vault
		if opts.Webhook == "" {
			if saved, err := vault.Webhook(); err != nil {
				logger.WithError(err).Warn("Failed to read saved webhook URL")
			} else {
				opts.Webhook = saved
			}
		}
	}

	if cfg.Accounts.VerifyIMAP {
		opts.Verifier = verify.IMAPVerifier{}
	}

	logger.WithFields(logrus.Fields{
		"backend": cfg.BackendURL,
		"days":    cfg.Sync.Days,
		"settle":  cfg.Sync.SettleDelay,
	}).Info("Starting onebox")

	s := session.New(opts)
	p := tea.NewProgram(app.New(s, *cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.WithError(err).Fatal("Program exited with error")
	}
}

// newLogger writes JSON logs to the configured file; the terminal belongs
// to the UI.
func newLogger(cfg model.LogConfig) (*logrus.Logger, func(), error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger.SetOutput(f)

	return logger, func() { _ = f.Close() }, nil
}
