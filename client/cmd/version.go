package cmd

import (
	"github.com/spf13/cobra"

	"github.com/netbirdio/updater/version"
)

var (
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "prints updater version",
		// the version command needs neither config nor logging
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.Println(version.Info{Version: version.Version(), Build: version.RawBuild()})
		},
	}
)
