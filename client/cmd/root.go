package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/netbirdio/updater/client/internal/updatemanager"
	"github.com/netbirdio/updater/client/internal/updatemanager/dialect"
	"github.com/netbirdio/updater/client/internal/updatemanager/installer"
	"github.com/netbirdio/updater/util"
)

const (
	baseURLFlag = "base-url"
	appIDFlag   = "app-id"
	channelFlag = "channel"
	dialectFlag = "dialect"
)

var (
	configPath  string
	logLevel    string
	logFile     string
	baseURL     string
	appID       string
	channel     string
	dialectName string
	stateDir    string
	rootCmd     = &cobra.Command{
		Use:               "updater",
		Short:             "checks, downloads and installs application updates",
		SilenceUsage:      true,
		PersistentPreRunE: preRun,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "updater config file location (JSON or YAML)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "sets updater log level")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "console", "sets updater log path. If console is specified the log will be output to stdout")
	rootCmd.PersistentFlags().StringVar(&baseURL, baseURLFlag, "", "update server URL [http|https]://[host]:[port]")
	rootCmd.PersistentFlags().StringVar(&appID, appIDFlag, "", "application identifier known to the update server")
	rootCmd.PersistentFlags().StringVar(&channel, channelFlag, "", fmt.Sprintf("release channel (default %q)", updatemanager.DefaultChannel))
	rootCmd.PersistentFlags().StringVar(&dialectName, dialectFlag, "", "version response format [hub|generic]")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "directory for the last install result (default <user cache>/<app-id>/state)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func preRun(cmd *cobra.Command, _ []string) error {
	util.SetFlagsFromEnvVars(cmd.Root())
	cmd.SetOut(cmd.OutOrStdout())

	if err := util.InitLog(logLevel, logFile); err != nil {
		return fmt.Errorf("failed initializing log %v", err)
	}
	return nil
}

// loadConfig reads the config file, if any, and applies flag overrides on top
func loadConfig() (updatemanager.Config, error) {
	var cfg updatemanager.Config
	if configPath != "" {
		var err error
		cfg, err = updatemanager.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
	}

	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if appID != "" {
		cfg.AppID = appID
	}
	if channel != "" {
		cfg.Channel = channel
	}
	if dialectName != "" {
		cfg.Dialect = dialect.Kind(dialectName)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func resultDir(cfg updatemanager.Config) (string, error) {
	if stateDir != "" {
		return stateDir, nil
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve state directory: %w", err)
	}
	return filepath.Join(cacheDir, cfg.AppID, "state"), nil
}

// newManager builds and initializes a manager from the config file and flags
func newManager(cmd *cobra.Command, opts ...updatemanager.Option) (*updatemanager.Manager, *installer.ResultHandler, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	dir, err := resultDir(cfg)
	if err != nil {
		return nil, nil, err
	}
	results := installer.NewResultHandler(dir)

	opts = append([]updatemanager.Option{updatemanager.WithInstallResults(results)}, opts...)
	m, err := updatemanager.NewManager(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := m.Initialize(cmd.Context()); err != nil {
		return nil, nil, err
	}
	return m, results, nil
}

// SetupCloseHandler cancels ctx on SIGINT or SIGTERM
func SetupCloseHandler(ctx context.Context, cancel context.CancelFunc) {
	termCh := make(chan os.Signal, 1)
	signal.Notify(termCh, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(termCh)
		select {
		case <-ctx.Done():
		case <-termCh:
			log.Info("shutdown signal received")
			cancel()
		}
	}()
}

// WithBackOff execute function in backoff cycle.
func WithBackOff(ctx context.Context, retries uint64, bf func() error) error {
	bo := backoff.WithContext(backoff.WithMaxRetries(newCLIBackOff(), retries), ctx)
	return backoff.RetryNotify(bf, bo, func(err error, duration time.Duration) {
		log.Warnf("retrying update check in %v due to error %v", duration, err)
	})
}

// newCLIBackOff returns the default backoff settings for CLI commands.
func newCLIBackOff() *backoff.ExponentialBackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     time.Second,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         10 * time.Second,
		MaxElapsedTime:      30 * time.Second,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
}
