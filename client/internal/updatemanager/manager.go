package updatemanager

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	nberrors "github.com/netbirdio/updater/client/errors"
	"github.com/netbirdio/updater/client/internal/updatemanager/checker"
	"github.com/netbirdio/updater/client/internal/updatemanager/dialect"
	"github.com/netbirdio/updater/client/internal/updatemanager/downloader"
	"github.com/netbirdio/updater/client/internal/updatemanager/installer"
	"github.com/netbirdio/updater/client/internal/updatemanager/storage"
	"github.com/netbirdio/updater/client/internal/updatemanager/types"
	"github.com/netbirdio/updater/client/system"
	"github.com/netbirdio/updater/util"
	"github.com/netbirdio/updater/version"
)

// LocalVersionSource reports the version and raw build of the running installation
type LocalVersionSource interface {
	Current() (version.Info, error)
}

// PermissionGate asks for consent before an installation is started
type PermissionGate interface {
	RequestPermission(ctx context.Context) (bool, error)
}

// PermissionGateFunc adapts a function to PermissionGate
type PermissionGateFunc func(ctx context.Context) (bool, error)

func (f PermissionGateFunc) RequestPermission(ctx context.Context) (bool, error) {
	return f(ctx)
}

type state int

const (
	stateIdle state = iota
	stateChecking
	stateDownloading
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateChecking:
		return "checking"
	case stateDownloading:
		return "downloading"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Option customizes the collaborators of a Manager
type Option func(*Manager)

func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) { m.client = client }
}

func WithStorage(st *storage.Storage) Option {
	return func(m *Manager) { m.storage = st }
}

func WithPlatform(p installer.Platform) Option {
	return func(m *Manager) { m.platform = p }
}

// WithPermissionGate makes InstallArtifact ask gate before every installation
func WithPermissionGate(gate PermissionGate) Option {
	return func(m *Manager) { m.gate = gate }
}

// WithInstallResults persists install outcomes through rh
func WithInstallResults(rh *installer.ResultHandler) Option {
	return func(m *Manager) { m.results = rh }
}

func WithLocalVersionSource(src LocalVersionSource) Option {
	return func(m *Manager) { m.versionSource = src }
}

func WithArchDetector(d system.ArchDetector) Option {
	return func(m *Manager) { m.archDetector = d }
}

// Manager runs check, download and install cycles for one application.
// At most one check or download is in flight at any time.
type Manager struct {
	config Config
	parser dialect.Parser

	client        *http.Client
	storage       *storage.Storage
	platform      installer.Platform
	gate          PermissionGate
	results       *installer.ResultHandler
	versionSource LocalVersionSource
	archDetector  system.ArchDetector

	checker    *checker.Checker
	downloader *downloader.Downloader
	installer  *installer.Installer

	mu          sync.Mutex
	initialized bool
	state       state
	local       checker.Local
	// cancels the running check or download
	cancel context.CancelFunc
}

// NewManager validates cfg and wires the default collaborators. Initialize must be called before use.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	cfg = cfg.clone()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	parser, err := dialect.New(cfg.Dialect, cfg.BaseURL, cfg.FieldMapping)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	m := &Manager{
		config: cfg,
		parser: parser,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.client == nil {
		m.client = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	if m.versionSource == nil {
		m.versionSource = version.Local{}
	}
	if m.archDetector == nil {
		m.archDetector = system.RuntimeArch{}
	}
	if m.storage == nil {
		resolver, err := m.defaultResolver()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		m.storage = storage.NewOsStorage(resolver)
	}

	return m, nil
}

func (m *Manager) defaultResolver() (storage.Resolver, error) {
	if m.config.DownloadDir != "" {
		return storage.StaticResolver(m.config.DownloadDir), nil
	}
	if m.config.Disabled && m.config.AppID == "" {
		return storage.StaticResolver(""), nil
	}
	return storage.DefaultResolver(m.config.AppID)
}

// Config returns a copy of the configuration the manager was built with
func (m *Manager) Config() Config {
	return m.config.clone()
}

// Initialize captures the local version and architecture. Calls after the first successful one are no-ops.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	current, err := m.versionSource.Current()
	if err != nil {
		return fmt.Errorf("read local version: %w", err)
	}

	arch := system.Arch(m.config.Arch)
	if arch == "" {
		arch = m.archDetector.Arch()
	}

	m.local = checker.Local{
		Current:         current,
		NormalizedBuild: version.NormalizeBuild(current.Build, string(arch)),
		Arch:            arch,
	}

	userAgent := fmt.Sprintf("%s-updater/%s", m.config.AppID, current.Version)
	m.checker = checker.New(m.client, m.parser, checker.Options{
		BaseURL:     m.config.BaseURL,
		VersionPath: m.config.VersionPath,
		AppID:       m.config.AppID,
		Channel:     m.config.Channel,
		SendArch:    m.config.SendArch,
		Headers:     m.config.Headers,
		Timeout:     m.config.CheckTimeout.Duration,
		UserAgent:   userAgent,
	})
	m.downloader = downloader.New(m.client, m.storage, userAgent)
	m.installer = installer.New(m.platform, m.storage.Fs, m.results)
	m.initialized = true

	log.WithContext(ctx).Infof("update manager initialized for %s: version %s, build %d (raw %d), arch %q, dialect %s",
		m.config.AppID, current.Version, m.local.NormalizedBuild, current.Build, arch, m.parser.Kind())
	return nil
}

// Local returns the snapshot taken by Initialize
func (m *Manager) Local() checker.Local {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mustBeInitialized("Local")
	return m.local
}

// CheckForUpdate queries the update server once. It never queues: a call made while
// a check or download is running fails with ErrAlreadyInProgress without network traffic.
func (m *Manager) CheckForUpdate(ctx context.Context) types.CheckResult {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	local, err := m.begin("CheckForUpdate", stateChecking, cancel)
	if errors.Is(err, errDisabled) {
		log.Debugf("update check is disabled for %s", m.config.AppID)
		return types.Disabled()
	}
	if err != nil {
		log.Debugf("update check rejected: %v", err)
		return types.CheckFailed(err)
	}
	defer m.finish()

	return m.checker.Check(m.logContext(ctx), local)
}

// RequestInstallPermission asks gate for consent. A nil gate grants it.
func (m *Manager) RequestInstallPermission(ctx context.Context, gate PermissionGate) types.InstallResult {
	if gate == nil {
		return types.Installed()
	}

	allowed, err := gate.RequestPermission(ctx)
	if err != nil {
		log.Warnf("install permission request failed: %v", err)
		return types.InstallFailed(fmt.Errorf("request install permission: %w", err))
	}
	if !allowed {
		log.Infof("install permission denied")
		return types.PermissionDenied()
	}
	return types.Installed()
}

// DownloadArtifact downloads the artifact announced by info into the downloads directory.
// onProgress runs on the calling goroutine. CancelDownload aborts the transfer.
func (m *Manager) DownloadArtifact(ctx context.Context, info types.VersionInfo, onProgress types.ProgressFunc) types.DownloadResult {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if _, err := m.begin("DownloadArtifact", stateDownloading, cancel); err != nil {
		log.Debugf("download rejected: %v", err)
		return types.DownloadFailed(err)
	}
	defer m.finish()

	if info.ArtifactURL == "" {
		return types.DownloadFailed(fmt.Errorf("%w: no artifact url", types.ErrParseFailure))
	}

	name := downloader.FileName(m.config.FileNamePattern, downloader.FileNameValues{
		AppID:       m.config.AppID,
		Version:     info.Version,
		Build:       strconv.Itoa(info.Build),
		Environment: m.config.Channel,
		ArtifactURL: info.ArtifactURL,
	})

	return m.downloader.Download(m.logContext(ctx), downloader.Request{
		URL:            info.ArtifactURL,
		FileName:       name,
		Headers:        m.config.Headers,
		ExpectedSHA256: info.SHA256,
		ExpectedSize:   info.Size,
	}, onProgress)
}

// CancelDownload aborts the running download, if any
func (m *Manager) CancelDownload() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != stateDownloading || m.cancel == nil {
		return
	}
	log.Infof("cancelling download")
	m.cancel()
}

// InstallArtifact hands path to the platform installer after consulting the configured permission gate
func (m *Manager) InstallArtifact(ctx context.Context, path string) types.InstallResult {
	m.ensureInitialized("InstallArtifact")

	if m.gate != nil {
		if result := m.RequestInstallPermission(ctx, m.gate); result.Kind != types.InstallSuccess {
			return result
		}
	}

	return m.installer.Install(ctx, path)
}

// CleanupDownloads removes downloaded artifacts and stale partial files.
// Failures are logged only.
func (m *Manager) CleanupDownloads() {
	m.mu.Lock()
	busy := m.state == stateDownloading
	m.mu.Unlock()
	if busy {
		log.Warnf("skipping download cleanup: download in progress")
		return
	}

	dir, err := m.storage.Resolver.Resolve(storage.Downloads)
	if err != nil {
		log.Warnf("skipping download cleanup: %v", err)
		return
	}

	entries, err := afero.ReadDir(m.storage.Fs, dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warnf("failed to list downloads in %s: %v", dir, err)
		}
		return
	}

	var merr *multierror.Error
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := m.storage.Fs.Remove(filepath.Join(dir, entry.Name())); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("remove %s: %w", entry.Name(), err))
			continue
		}
		removed++
	}

	if err := nberrors.FormatErrorOrNil(merr); err != nil {
		log.Warnf("download cleanup incomplete: %v", err)
	}
	log.Infof("removed %d downloaded file(s) from %s", removed, dir)
}

// Dispose cancels a running check or download and releases idle connections
func (m *Manager) Dispose() {
	m.mu.Lock()
	if m.cancel != nil {
		log.Infof("cancelling %s", m.state)
		m.cancel()
	}
	m.mu.Unlock()

	m.client.CloseIdleConnections()
}

var errDisabled = errors.New("updates disabled")

// begin moves the manager from idle into next. It is the only place the state leaves idle.
func (m *Manager) begin(op string, next state, cancel context.CancelFunc) (checker.Local, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mustBeInitialized(op)
	if m.config.Disabled {
		return checker.Local{}, errDisabled
	}
	if m.state != stateIdle {
		return checker.Local{}, fmt.Errorf("%w: %s while %s", types.ErrAlreadyInProgress, op, m.state)
	}

	m.state = next
	m.cancel = cancel
	return m.local, nil
}

// logContext tags log entries made with ctx with the application id
func (m *Manager) logContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, util.AppIDKey, m.config.AppID)
}

func (m *Manager) finish() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = stateIdle
	m.cancel = nil
}

func (m *Manager) ensureInitialized(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mustBeInitialized(op)
}

// mustBeInitialized panics on use before Initialize. The caller holds mu.
func (m *Manager) mustBeInitialized(op string) {
	if !m.initialized {
		panic(fmt.Sprintf("updatemanager: %s called before Initialize", op))
	}
}
