package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/netbirdio/updater/client/internal/updatemanager"
	"github.com/netbirdio/updater/client/internal/updatemanager/types"
)

var (
	noProgress bool

	downloadCmd = &cobra.Command{
		Use:   "download",
		Short: "checks for an update and downloads its artifact",
		RunE:  downloadFunc,
	}
)

func init() {
	downloadCmd.Flags().BoolVar(&noProgress, "no-progress", false, "do not render a progress bar")
}

func downloadFunc(cmd *cobra.Command, _ []string) error {
	m, _, err := newManager(cmd)
	if err != nil {
		return err
	}
	defer m.Dispose()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	SetupCloseHandler(ctx, cancel)

	check := m.CheckForUpdate(ctx)
	if check.Kind != types.CheckAvailable {
		return printCheckResult(cmd, check)
	}
	info := *check.Info
	cmd.Printf("Downloading %s\n", info.DisplayVersion)

	var result types.DownloadResult
	if noProgress {
		result = m.DownloadArtifact(ctx, info, nil)
	} else {
		result = downloadWithBar(ctx, cmd, m, info)
	}

	switch result.Kind {
	case types.DownloadSuccess:
		size := ""
		if stat, err := os.Stat(result.Path); err == nil {
			size = " (" + humanize.IBytes(uint64(stat.Size())) + ")"
		}
		cmd.Printf("Downloaded to %s%s\n", result.Path, size)
	case types.DownloadCancelled:
		cmd.Println("Download cancelled.")
	case types.DownloadError:
		return fmt.Errorf("download failed: %s", result.Message())
	}
	return nil
}

func downloadWithBar(ctx context.Context, cmd *cobra.Command, m *updatemanager.Manager, info types.VersionInfo) types.DownloadResult {
	p := mpb.New(mpb.WithWidth(64), mpb.WithRefreshRate(100*time.Millisecond), mpb.WithOutput(cmd.OutOrStdout()))

	name := info.DisplayVersion
	bar := p.New(info.Size,
		mpb.BarStyle().Lbound("╢").Filler("█").Tip("█").Padding("░").Rbound("╟"),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			decor.OnComplete(
				decor.AverageETA(decor.ET_STYLE_GO, decor.WC{W: 4}), "Complete",
			),
		),
		mpb.AppendDecorators(
			decor.AverageSpeed(decor.SizeB1024(0), "% .2f"),
		),
	)

	task := m.StartDownload(ctx, info)
	for progress := range task.Progress() {
		if progress.TotalBytes > 0 {
			bar.SetTotal(progress.TotalBytes, false)
		}
		bar.SetCurrent(progress.DownloadedBytes)
	}

	result := task.Wait()
	if result.Kind == types.DownloadSuccess {
		bar.SetTotal(-1, true)
	} else {
		bar.Abort(false)
	}
	p.Wait()
	return result
}
