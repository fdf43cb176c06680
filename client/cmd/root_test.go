package cmd

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbirdio/updater/client/internal/updatemanager"
	"github.com/netbirdio/updater/client/internal/updatemanager/testutil"
	"github.com/netbirdio/updater/util"
)

func TestInitCommands(t *testing.T) {
	helpFlag := "-h"
	commandArgs := [][]string{{"root", helpFlag}}
	for _, command := range rootCmd.Commands() {
		commandArgs = append(commandArgs, []string{command.Name(), command.Name(), helpFlag})
	}

	for _, args := range commandArgs {
		t.Run(fmt.Sprintf("Testing Command %s", args[0]), func(t *testing.T) {
			defer func() {
				err := recover()
				if err != nil {
					t.Fatalf("got an panic error while running the command: %s -h. Error: %s", args[0], err)
				}
			}()

			rootCmd.SetArgs(args[1:])
			rootCmd.SetOut(io.Discard)
			if err := rootCmd.Execute(); err != nil {
				t.Errorf("expected no error while running %s command, got %v", args[0], err)
				return
			}
		})
	}
}

func TestCheckCommand(t *testing.T) {
	hub := testutil.NewHub(t, updatemanager.DefaultVersionPath, testutil.JSON(http.StatusOK,
		`{"hasUpdate":true,"latestVersion":{"version":"2.0.0","build":42,"isRequired":true},"download":{"url":"/d/a.apk"}}`))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"check", "--base-url", hub.URL(), "--app-id", "com.example.app", "--state-dir", t.TempDir(), "--log-level", "error"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "Update available: 2.0.0+42")
	assert.Contains(t, out.String(), hub.URL()+"/d/a.apk")
	assert.Contains(t, out.String(), "This update is required.")
	assert.Equal(t, int32(1), hub.VersionCalls.Load())
}

func TestCheckCommand_ServerFailure(t *testing.T) {
	hub := testutil.NewHub(t, updatemanager.DefaultVersionPath, testutil.JSON(http.StatusNotFound, `{}`))

	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"check", "--base-url", hub.URL(), "--app-id", "unknown.app", "--state-dir", t.TempDir(), "--log-level", "error"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update check failed")
}

func TestCheckCommand_FlagsFromEnvironment(t *testing.T) {
	hub := testutil.NewHub(t, updatemanager.DefaultVersionPath, testutil.JSON(http.StatusOK, `{"hasUpdate":false}`))

	t.Setenv("NB_UPDATER_CHANNEL", "beta")
	t.Cleanup(func() { channel = "" })

	rootCmd.SetOut(io.Discard)
	rootCmd.SetArgs([]string{"check", "--base-url", hub.URL(), "--app-id", "com.example.app", "--state-dir", t.TempDir(), "--log-level", "error"})
	require.NoError(t, rootCmd.Execute())

	requests := hub.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "beta", requests[0].Query.Get("channel"))
}

func TestStatusCommand(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"status", "--state-dir", dir, "--log-level", "error"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "No installation recorded.")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "result.json"),
		[]byte(`{"kind":"manual-required","path":"/d/a.apk","executedAt":"2026-10-01T10:00:00Z"}`), 0o600))

	out.Reset()
	rootCmd.SetArgs([]string{"status", "--state-dir", dir, "--log-level", "error"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Last installation: manual-required")
	assert.Contains(t, out.String(), "Artifact: /d/a.apk")
}

func TestSetFlagsFromEnvVars(t *testing.T) {
	var cmd = &cobra.Command{
		Use:          "updater",
		Long:         "test",
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			util.SetFlagsFromEnvVars(cmd)
		},
	}

	var (
		url     string
		channel string
	)
	cmd.PersistentFlags().StringVar(&url, "base-url", "", "update server URL")
	cmd.PersistentFlags().StringVar(&channel, "channel", "stable", "release channel")

	t.Setenv("NB_UPDATER_BASE_URL", "https://updates.example.com")
	t.Setenv("NB_UPDATER_CHANNEL", "beta")

	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "https://updates.example.com", url)
	assert.Equal(t, "beta", channel)
}
