package cmd

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/netbirdio/updater/client/internal/updatemanager"
	"github.com/netbirdio/updater/client/internal/updatemanager/types"
)

var (
	watchPeriod time.Duration

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "checks for updates periodically until interrupted",
		RunE:  watchFunc,
	}
)

func init() {
	watchCmd.Flags().DurationVar(&watchPeriod, "period", updatemanager.DefaultWatchPeriod, "time between update checks")
}

func watchFunc(cmd *cobra.Command, _ []string) error {
	m, _, err := newManager(cmd)
	if err != nil {
		return err
	}
	defer m.Dispose()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	SetupCloseHandler(ctx, cancel)

	w := updatemanager.NewWatcher(m)
	w.SetOnUpdateListener(func(info types.VersionInfo) {
		cmd.Printf("Update available: %s (%s)\n", info.DisplayVersion, info.ArtifactURL)
	})

	log.Infof("watching for updates every %s", watchPeriod)
	w.StartWatch(ctx, watchPeriod)
	<-ctx.Done()
	w.StopWatch()
	return nil
}
