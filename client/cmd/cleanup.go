package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cleanupResults bool

	cleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "removes downloaded artifacts",
		RunE:  cleanupFunc,
	}
)

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupResults, "results", false, "also remove the last install result")
}

func cleanupFunc(cmd *cobra.Command, _ []string) error {
	m, results, err := newManager(cmd)
	if err != nil {
		return err
	}
	defer m.Dispose()

	m.CleanupDownloads()

	if cleanupResults {
		if err := results.Cleanup(); err != nil {
			return err
		}
	}

	cmd.Println("Downloads cleaned up.")
	return nil
}
