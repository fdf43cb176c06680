package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/updater/client/internal/updatemanager/dialect"
	"github.com/netbirdio/updater/client/internal/updatemanager/types"
	"github.com/netbirdio/updater/client/system"
	"github.com/netbirdio/updater/util"
	"github.com/netbirdio/updater/version"
)

const (
	maxResponseSize = 1 << 20
	requestIDHeader = "X-Request-Id"
)

type Options struct {
	BaseURL     string
	VersionPath string
	AppID       string
	Channel     string
	SendArch    bool
	Headers     map[string]string
	Timeout     time.Duration
	UserAgent   string
}

// Local is the snapshot of the running installation a check is made for
type Local struct {
	Current         version.Info
	NormalizedBuild int
	Arch            system.Arch
}

// Checker queries the version endpoint once per call. It holds no per-call state.
type Checker struct {
	client *http.Client
	parser dialect.Parser
	opts   Options
}

func New(client *http.Client, parser dialect.Parser, opts Options) *Checker {
	if client == nil {
		client = http.DefaultClient
	}
	return &Checker{
		client: client,
		parser: parser,
		opts:   opts,
	}
}

// RequestURL builds {baseUrl}/{versionPath}/{appId}?version=&build=&channel=[&arch=]
func (c *Checker) RequestURL(local Local) (string, error) {
	base, err := url.Parse(strings.TrimRight(c.opts.BaseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", c.opts.BaseURL, err)
	}

	segments := []string{strings.TrimRight(base.Path, "/")}
	if p := strings.Trim(c.opts.VersionPath, "/"); p != "" {
		segments = append(segments, p)
	}
	segments = append(segments, c.opts.AppID)
	base.RawPath = ""
	base.Path = strings.Join(segments, "/")

	q := url.Values{}
	q.Set("version", local.Current.Version)
	q.Set("build", strconv.Itoa(local.NormalizedBuild))
	q.Set("channel", c.opts.Channel)
	if c.opts.SendArch && local.Arch != "" {
		q.Set("arch", string(local.Arch))
	}
	base.RawQuery = q.Encode()

	return base.String(), nil
}

// Check asks the server whether a newer build than local exists.
// Every failure is reported as a CheckError result.
func (c *Checker) Check(ctx context.Context, local Local) types.CheckResult {
	requestID := uuid.NewString()
	ctx = context.WithValue(ctx, util.RequestIDKey, requestID)
	logger := log.WithContext(ctx)

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	body, err := c.fetch(ctx, local, requestID)
	if err != nil {
		logger.Warnf("update check failed: %v", err)
		return types.CheckFailed(err)
	}

	decision, err := c.parser.Parse(body)
	if err != nil {
		logger.Warnf("failed to parse %s version response: %v", c.parser.Kind(), err)
		return types.CheckFailed(err)
	}

	return c.decide(local, decision, logger)
}

func (c *Checker) fetch(ctx context.Context, local Local, requestID string) ([]byte, error) {
	reqURL, err := c.RequestURL(local)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for k, v := range c.opts.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	log.WithContext(ctx).Debugf("checking for update: %s", reqURL)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: request timed out after %s: %w", types.ErrNetworkFailure, c.opts.Timeout, err)
		}
		return nil, fmt.Errorf("%w: %w", types.ErrNetworkFailure, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warnf("error closing response body: %v", cerr)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound && c.parser.Kind() == dialect.KindHub:
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, c.opts.AppID)
	default:
		return nil, &types.StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %w", types.ErrNetworkFailure, err)
	}
	if len(body) > maxResponseSize {
		return nil, &types.ParseError{Reason: fmt.Sprintf("response larger than %d bytes", maxResponseSize)}
	}
	return body, nil
}

func (c *Checker) decide(local Local, decision dialect.Decision, logger *log.Entry) types.CheckResult {
	if decision.Asserted {
		if !decision.HasUpdate {
			logger.Debugf("server reports no update for %s", local.Current)
			return types.NotAvailable()
		}
		return c.available(local, *decision.Info, logger)
	}

	current := version.Info{Version: local.Current.Version, Build: local.NormalizedBuild}
	candidate := version.Info{
		Version: decision.Info.Version,
		Build:   version.NormalizeBuild(decision.Info.Build, string(local.Arch)),
	}
	if !version.IsNewer(current, candidate) {
		logger.Debugf("candidate %s is not newer than %s", candidate, current)
		return types.NotAvailable()
	}
	return c.available(local, *decision.Info, logger)
}

func (c *Checker) available(local Local, info types.VersionInfo, logger *log.Entry) types.CheckResult {
	if info.MinVersion != "" && version.CompareVersions(local.Current.Version, info.MinVersion) < 0 {
		info.IsRequired = true
	}
	logger.Infof("update available: %s (current %s, required %t)", info.DisplayVersion, local.Current, info.IsRequired)
	return types.Available(info)
}
