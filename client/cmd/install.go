package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/netbirdio/updater/client/internal/updatemanager"
	"github.com/netbirdio/updater/client/internal/updatemanager/types"
)

var (
	assumeYes bool

	installCmd = &cobra.Command{
		Use:   "install <artifact>",
		Short: "hands a downloaded artifact to the platform installer",
		Args:  cobra.ExactArgs(1),
		RunE:  installFunc,
	}
)

func init() {
	installCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "install without asking for confirmation")
}

func installFunc(cmd *cobra.Command, args []string) error {
	path := args[0]

	var opts []updatemanager.Option
	if !assumeYes {
		opts = append(opts, updatemanager.WithPermissionGate(consoleGate(cmd, path)))
	}

	m, _, err := newManager(cmd, opts...)
	if err != nil {
		return err
	}
	defer m.Dispose()

	result := m.InstallArtifact(cmd.Context(), path)
	switch result.Kind {
	case types.InstallSuccess:
		cmd.Printf("Installation of %s started.\n", path)
	case types.InstallManualRequired:
		cmd.Printf("Automatic installation is not available. Install %s manually.\n", result.Path)
	case types.InstallPermissionDenied:
		cmd.Println("Installation cancelled.")
	case types.InstallError:
		return fmt.Errorf("installation failed: %s", result.Message())
	}
	return nil
}

// consoleGate asks for confirmation on the command input
func consoleGate(cmd *cobra.Command, path string) updatemanager.PermissionGate {
	return updatemanager.PermissionGateFunc(func(context.Context) (bool, error) {
		cmd.Printf("Install %s? [y/N] ", path)
		answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && answer == "" {
			return false, fmt.Errorf("read confirmation: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	})
}
