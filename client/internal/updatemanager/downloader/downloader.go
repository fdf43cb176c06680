package downloader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/netbirdio/updater/client/internal/updatemanager/storage"
	"github.com/netbirdio/updater/client/internal/updatemanager/types"
)

const (
	chunkSize     = 32 * 1024
	partialPrefix = ".partial-"
)

// Request describes one artifact transfer
type Request struct {
	URL      string
	FileName string
	Headers  map[string]string

	// optional, taken from the version response
	ExpectedSHA256 string
	ExpectedSize   int64
}

// Downloader streams artifacts into the downloads directory of a Storage.
// It keeps no state between calls; single-flight is the caller's concern.
type Downloader struct {
	client    *http.Client
	storage   *storage.Storage
	userAgent string
}

func New(client *http.Client, st *storage.Storage, userAgent string) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{
		client:    client,
		storage:   st,
		userAgent: userAgent,
	}
}

// Download transfers req.URL and reports progress after every chunk. Cancelling ctx aborts
// the transfer, drops the received bytes and yields a Cancelled result.
func (d *Downloader) Download(ctx context.Context, req Request, onProgress types.ProgressFunc) types.DownloadResult {
	if onProgress == nil {
		onProgress = func(types.DownloadProgress) {}
	}

	logger := log.WithContext(ctx)

	path, err := d.download(ctx, req, onProgress)
	if err != nil {
		if ctx.Err() != nil {
			logger.Infof("download of %s cancelled", req.URL)
			return types.Cancelled()
		}
		logger.Errorf("download of %s failed: %v", req.URL, err)
		return types.DownloadFailed(err)
	}

	logger.Infof("successfully downloaded file to %s", path)
	return types.Downloaded(path)
}

func (d *Downloader) download(ctx context.Context, req Request, onProgress types.ProgressFunc) (string, error) {
	if req.FileName == "" || strings.ContainsAny(req.FileName, `/\`) {
		return "", fmt.Errorf("%w: invalid file name %q", types.ErrIOFailure, req.FileName)
	}

	dir, err := d.storage.Dir(storage.Downloads)
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrIOFailure, err)
	}

	log.Debugf("starting download from %s", req.URL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if d.userAgent != "" {
		httpReq.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: failed to perform HTTP request: %w", types.ErrNetworkFailure, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warnf("error closing response body: %v", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", &types.StatusError{StatusCode: resp.StatusCode}
	}

	total := resp.ContentLength
	if total <= 0 {
		total = req.ExpectedSize
	}
	if total < 0 {
		total = 0
	}

	if err := storage.CheckDiskSpace(dir, total); err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrIOFailure, err)
	}

	partial, err := afero.TempFile(d.storage.Fs, dir, partialPrefix+"*")
	if err != nil {
		return "", fmt.Errorf("%w: create partial file: %w", types.ErrIOFailure, err)
	}
	partialName := partial.Name()

	var success bool
	defer func() {
		if success {
			return
		}
		_ = partial.Close()
		if err := d.storage.Fs.Remove(partialName); err != nil {
			log.Warnf("failed to remove partial download %s: %v", partialName, err)
		}
	}()

	hasher := sha256.New()
	downloaded, err := copyWithProgress(ctx, io.MultiWriter(partial, hasher), resp.Body, total, onProgress)
	if err != nil {
		return "", err
	}

	if err := partial.Close(); err != nil {
		return "", fmt.Errorf("%w: close partial file: %w", types.ErrIOFailure, err)
	}

	if req.ExpectedSize > 0 && downloaded != req.ExpectedSize {
		return "", fmt.Errorf("%w: size mismatch, expected %d bytes, got %d", types.ErrIOFailure, req.ExpectedSize, downloaded)
	}

	if err := verifyChecksum(hasher, req.ExpectedSHA256); err != nil {
		return "", err
	}

	target := filepath.Join(dir, req.FileName)
	if err := d.storage.Fs.Rename(partialName, target); err != nil {
		return "", fmt.Errorf("%w: move download to %s: %w", types.ErrIOFailure, target, err)
	}
	success = true

	log.Debugf("received %d bytes for %s", downloaded, target)
	return target, nil
}

func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, onProgress types.ProgressFunc) (int64, error) {
	buf := make([]byte, chunkSize)
	var downloaded int64

	for {
		if ctx.Err() != nil {
			return downloaded, ctx.Err()
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return downloaded, fmt.Errorf("%w: write response body: %w", types.ErrIOFailure, err)
			}
			downloaded += int64(n)
			p := types.NewDownloadProgress(downloaded, total, "")
			p.Status = statusText(p.DownloadedBytes, p.TotalBytes)
			onProgress(p)
		}

		if errors.Is(rerr, io.EOF) {
			return downloaded, nil
		}
		if rerr != nil {
			return downloaded, fmt.Errorf("%w: read response body: %w", types.ErrNetworkFailure, rerr)
		}
	}
}

func verifyChecksum(h hash.Hash, expected string) error {
	if expected == "" {
		return nil
	}
	actual := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(actual, strings.TrimSpace(expected)) {
		return fmt.Errorf("%w: checksum mismatch, expected %s, got %s", types.ErrIOFailure, expected, actual)
	}
	return nil
}

func statusText(downloaded, total int64) string {
	if total <= 0 {
		return humanize.Bytes(uint64(downloaded))
	}
	return fmt.Sprintf("%s / %s", humanize.Bytes(uint64(downloaded)), humanize.Bytes(uint64(total)))
}
