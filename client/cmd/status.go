package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/netbirdio/updater/client/internal/updatemanager/installer"
)

var (
	statusWait    bool
	statusTimeout time.Duration

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "shows the result of the last installation",
		RunE:  statusFunc,
	}
)

func init() {
	statusCmd.Flags().BoolVarP(&statusWait, "wait", "w", false, "wait until an install result is written")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 0, "give up waiting after this duration (0 waits until interrupted)")
}

func statusFunc(cmd *cobra.Command, _ []string) error {
	dir := stateDir
	if dir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if dir, err = resultDir(cfg); err != nil {
			return err
		}
	}
	rh := installer.NewResultHandler(dir)

	var err error

	var result installer.Result
	if statusWait {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		if statusTimeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, statusTimeout)
			defer cancel()
		}
		SetupCloseHandler(ctx, cancel)

		result, err = rh.Watch(ctx)
	} else {
		result, err = rh.Read()
	}

	switch {
	case errors.Is(err, os.ErrNotExist):
		cmd.Println("No installation recorded.")
		return nil
	case err != nil:
		return fmt.Errorf("read install result: %w", err)
	}

	cmd.Printf("Last installation: %s\n", result.Kind)
	cmd.Printf("Artifact: %s\n", result.Path)
	if !result.ExecutedAt.IsZero() {
		cmd.Printf("At: %s\n", result.ExecutedAt.Local().Format(time.RFC1123))
	}
	if result.Error != "" {
		cmd.Printf("Error: %s\n", result.Error)
	}
	return nil
}
