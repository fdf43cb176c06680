package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netbirdio/updater/client/internal/updatemanager/types"
)

var (
	checkRetries uint64

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "checks whether a newer build is available",
		RunE:  checkFunc,
	}
)

func init() {
	checkCmd.Flags().Uint64Var(&checkRetries, "retries", 0, "retry failed checks caused by network or server errors this many times")
}

func checkFunc(cmd *cobra.Command, _ []string) error {
	m, _, err := newManager(cmd)
	if err != nil {
		return err
	}
	defer m.Dispose()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	SetupCloseHandler(ctx, cancel)

	var result types.CheckResult
	err = WithBackOff(ctx, checkRetries, func() error {
		result = m.CheckForUpdate(ctx)
		if result.Kind == types.CheckError && retryable(result.Err) {
			return result.Err
		}
		return nil
	})
	if err != nil && result.Kind != types.CheckError {
		return err
	}

	return printCheckResult(cmd, result)
}

func retryable(err error) bool {
	return errors.Is(err, types.ErrNetworkFailure) || errors.Is(err, types.ErrServerFailure)
}

func printCheckResult(cmd *cobra.Command, result types.CheckResult) error {
	switch result.Kind {
	case types.CheckAvailable:
		info := result.Info
		cmd.Printf("Update available: %s\n", info.DisplayVersion)
		cmd.Printf("Artifact: %s\n", info.ArtifactURL)
		if info.IsRequired {
			cmd.Println("This update is required.")
		}
		if info.ReleaseNotes != "" {
			cmd.Printf("Release notes:\n%s\n", info.ReleaseNotes)
		}
	case types.CheckNotAvailable:
		cmd.Println("No update available.")
	case types.CheckDisabled:
		cmd.Println("Update checks are disabled.")
	case types.CheckError:
		return fmt.Errorf("update check failed: %s", result.Message())
	}
	return nil
}
