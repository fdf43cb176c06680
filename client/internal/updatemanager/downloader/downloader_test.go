package downloader

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbirdio/updater/client/internal/updatemanager/storage"
	"github.com/netbirdio/updater/client/internal/updatemanager/types"
)

const downloadDir = "/cache/app/downloads"

func newTestDownloader(t *testing.T, client *http.Client) (*Downloader, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	st := &storage.Storage{Fs: fs, Resolver: storage.DirResolver{Root: "/cache/app"}}
	return New(client, st, "test-agent/1.0"), fs
}

func chunkedHandler(chunks [][]byte, withLength bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var total int
		for _, c := range chunks {
			total += len(c)
		}
		if withLength {
			w.Header().Set("Content-Length", strconv.Itoa(total))
		}
		w.WriteHeader(http.StatusOK)
		for _, c := range chunks {
			_, _ = w.Write(c)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}

func TestDownload_ProgressReachesOne(t *testing.T) {
	chunks := [][]byte{
		bytes.Repeat([]byte("a"), 10_000),
		bytes.Repeat([]byte("b"), 50_000),
		bytes.Repeat([]byte("c"), 7),
		bytes.Repeat([]byte("d"), 40_000),
	}
	server := httptest.NewServer(chunkedHandler(chunks, true))
	defer server.Close()

	d, fs := newTestDownloader(t, server.Client())

	var reports []types.DownloadProgress
	result := d.Download(context.Background(), Request{URL: server.URL + "/a.apk", FileName: "app.apk"}, func(p types.DownloadProgress) {
		reports = append(reports, p)
	})

	require.Equal(t, types.DownloadSuccess, result.Kind, result.Message())
	assert.Equal(t, filepath.Join(downloadDir, "app.apk"), result.Path)

	require.NotEmpty(t, reports)
	for i := 1; i < len(reports); i++ {
		assert.GreaterOrEqual(t, reports[i].DownloadedBytes, reports[i-1].DownloadedBytes)
		assert.GreaterOrEqual(t, reports[i].Progress, reports[i-1].Progress)
	}
	last := reports[len(reports)-1]
	assert.False(t, last.Indeterminate)
	assert.Equal(t, int64(100_007), last.TotalBytes)
	assert.Equal(t, int64(100_007), last.DownloadedBytes)
	assert.Equal(t, 1.0, last.Progress)
	assert.NotEmpty(t, last.Status)

	content, err := afero.ReadFile(fs, result.Path)
	require.NoError(t, err)
	assert.Len(t, content, 100_007)
}

func TestDownload_UnknownLengthIsIndeterminate(t *testing.T) {
	server := httptest.NewServer(chunkedHandler([][]byte{[]byte("hello"), []byte("world")}, false))
	defer server.Close()

	d, _ := newTestDownloader(t, server.Client())

	var reports []types.DownloadProgress
	result := d.Download(context.Background(), Request{URL: server.URL, FileName: "a.bin"}, func(p types.DownloadProgress) {
		reports = append(reports, p)
	})

	require.Equal(t, types.DownloadSuccess, result.Kind, result.Message())
	require.NotEmpty(t, reports)
	for _, p := range reports {
		assert.True(t, p.Indeterminate)
		assert.Zero(t, p.TotalBytes)
	}
	assert.Equal(t, int64(10), reports[len(reports)-1].DownloadedBytes)
}

func TestDownload_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("denied"))
	}))
	defer server.Close()

	d, fs := newTestDownloader(t, server.Client())

	var called bool
	result := d.Download(context.Background(), Request{URL: server.URL, FileName: "a.apk"}, func(types.DownloadProgress) {
		called = true
	})

	require.Equal(t, types.DownloadError, result.Kind)
	assert.ErrorIs(t, result.Err, types.ErrServerFailure)
	assert.False(t, called)

	entries, err := afero.ReadDir(fs, downloadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownload_CancelMidStream(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "200000")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(bytes.Repeat([]byte("x"), 1000))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	d, fs := newTestDownloader(t, server.Client())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var progressCalls atomic.Int32
	result := d.Download(ctx, Request{URL: server.URL, FileName: "a.apk"}, func(types.DownloadProgress) {
		progressCalls.Add(1)
		cancel()
	})

	assert.Equal(t, types.DownloadCancelled, result.Kind)
	assert.GreaterOrEqual(t, progressCalls.Load(), int32(1))

	exists, err := afero.Exists(fs, filepath.Join(downloadDir, "a.apk"))
	require.NoError(t, err)
	assert.False(t, exists)

	entries, err := afero.ReadDir(fs, downloadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial files must be removed")
}

func TestDownload_Checksum(t *testing.T) {
	payload := []byte("artifact-bytes")
	sum := sha256.Sum256(payload)

	server := httptest.NewServer(chunkedHandler([][]byte{payload}, true))
	defer server.Close()

	t.Run("match", func(t *testing.T) {
		d, _ := newTestDownloader(t, server.Client())
		result := d.Download(context.Background(), Request{URL: server.URL, FileName: "a.apk", ExpectedSHA256: hex.EncodeToString(sum[:])}, nil)
		assert.Equal(t, types.DownloadSuccess, result.Kind, result.Message())
	})

	t.Run("mismatch", func(t *testing.T) {
		d, fs := newTestDownloader(t, server.Client())
		result := d.Download(context.Background(), Request{URL: server.URL, FileName: "a.apk", ExpectedSHA256: "deadbeef"}, nil)
		require.Equal(t, types.DownloadError, result.Kind)
		assert.ErrorIs(t, result.Err, types.ErrIOFailure)

		exists, err := afero.Exists(fs, filepath.Join(downloadDir, "a.apk"))
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestDownload_AnnouncedSizeMismatch(t *testing.T) {
	chunks := [][]byte{
		bytes.Repeat([]byte("a"), 40_000),
		bytes.Repeat([]byte("b"), 40_000),
	}
	server := httptest.NewServer(chunkedHandler(chunks, false))
	defer server.Close()

	d, fs := newTestDownloader(t, server.Client())

	var reports []types.DownloadProgress
	result := d.Download(context.Background(), Request{URL: server.URL, FileName: "a.apk", ExpectedSize: 1000}, func(p types.DownloadProgress) {
		reports = append(reports, p)
	})

	require.Equal(t, types.DownloadError, result.Kind)
	assert.ErrorIs(t, result.Err, types.ErrIOFailure)

	require.NotEmpty(t, reports)
	for _, p := range reports {
		assert.False(t, p.Indeterminate)
		assert.GreaterOrEqual(t, p.Progress, 0.0)
		assert.LessOrEqual(t, p.Progress, 1.0)
	}

	entries, err := afero.ReadDir(fs, downloadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no artifact or partial file may remain")
}

func TestDownload_AnnouncedSizeMatches(t *testing.T) {
	payload := bytes.Repeat([]byte("z"), 5000)
	server := httptest.NewServer(chunkedHandler([][]byte{payload}, false))
	defer server.Close()

	d, _ := newTestDownloader(t, server.Client())

	var last types.DownloadProgress
	result := d.Download(context.Background(), Request{URL: server.URL, FileName: "a.apk", ExpectedSize: int64(len(payload))}, func(p types.DownloadProgress) {
		last = p
	})

	require.Equal(t, types.DownloadSuccess, result.Kind, result.Message())
	assert.Equal(t, 1.0, last.Progress)
}

func TestDownload_HeadersAndUserAgent(t *testing.T) {
	var gotAuth, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	d, _ := newTestDownloader(t, server.Client())
	result := d.Download(context.Background(), Request{
		URL:      server.URL,
		FileName: "a.apk",
		Headers:  map[string]string{"Authorization": "Bearer token"},
	}, nil)

	require.Equal(t, types.DownloadSuccess, result.Kind, result.Message())
	assert.Equal(t, "Bearer token", gotAuth)
	assert.Equal(t, "test-agent/1.0", gotAgent)
}

func TestDownload_InvalidFileName(t *testing.T) {
	d, _ := newTestDownloader(t, http.DefaultClient)
	result := d.Download(context.Background(), Request{URL: "http://127.0.0.1:1", FileName: "../evil"}, nil)
	require.Equal(t, types.DownloadError, result.Kind)
	assert.ErrorIs(t, result.Err, types.ErrIOFailure)
}

func TestDownload_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	d, _ := newTestDownloader(t, http.DefaultClient)
	result := d.Download(context.Background(), Request{URL: url, FileName: "a.apk"}, nil)
	require.Equal(t, types.DownloadError, result.Kind)
	assert.ErrorIs(t, result.Err, types.ErrNetworkFailure)
}
