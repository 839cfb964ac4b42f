package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"circl/metrics"
	"circl/models"

	"go.uber.org/zap"
)

const (
	// DefaultResourcePath is the upstream path every quiz domain uses unless overridden.
	DefaultResourcePath = "legal-resources/"
	maxResponseBytes    = 4 << 20
)

// ResourceFetcher turns quiz answers into a list of resources.
type ResourceFetcher interface {
	Fetch(ctx context.Context, answers models.QuizAnswers) Result
}

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Result is the outcome of one fetch. Resources is never nil; on failure it is empty
// and Failure names the cause.
type Result struct {
	Domain    models.QuizDomain `json:"domain"`
	Keyword   string            `json:"keyword"`
	Location  string            `json:"location"`
	Resources []models.Resource `json:"resources"`
	Failure   FailureKind       `json:"failure,omitempty"`
	Err       error             `json:"-"`
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool {
	return r.Failure == FailureNone
}

// FetcherConfig configures an HTTPFetcher.
type FetcherConfig struct {
	BaseURL string
	Timeout time.Duration
	// Paths overrides DefaultResourcePath per domain.
	Paths map[string]string
	// Client replaces the default *http.Client; Timeout is ignored when set.
	Client HTTPDoer
}

// HTTPFetcher issues one unauthenticated GET per fetch against the discovery API.
type HTTPFetcher struct {
	client  HTTPDoer
	baseURL string
	paths   map[string]string
	logger  *zap.Logger
}

func NewHTTPFetcher(cfg FetcherConfig, logger *zap.Logger) *HTTPFetcher {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	base := cfg.BaseURL
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	paths := make(map[string]string, len(cfg.Paths))
	for k, v := range cfg.Paths {
		paths[k] = v
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPFetcher{
		client:  client,
		baseURL: base,
		paths:   paths,
		logger:  logger.Named("discovery.fetcher"),
	}
}

// encodeComponent percent-encodes s for use as a query value. Spaces become %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (f *HTTPFetcher) pathFor(domain models.QuizDomain) string {
	if p, ok := f.paths[string(domain)]; ok && p != "" {
		return p
	}
	return DefaultResourcePath
}

// RequestURL builds the upstream URL for answers.
func (f *HTTPFetcher) RequestURL(answers models.QuizAnswers) (string, error) {
	keyword, location := answers.Keyword(), answers.Location()
	if !utf8.ValidString(keyword) || !utf8.ValidString(location) {
		return "", errors.New("answers are not valid UTF-8")
	}

	base, err := url.Parse(f.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("base url %q is not absolute", f.baseURL)
	}
	ref, err := url.Parse(f.pathFor(answers.Domain()))
	if err != nil {
		return "", fmt.Errorf("parse resource path: %w", err)
	}

	u := base.ResolveReference(ref)
	u.RawQuery = "keyword=" + encodeComponent(keyword) + "&location=" + encodeComponent(location)
	return u.String(), nil
}

// Fetch never returns an error: every failure is logged and degrades to an empty list.
func (f *HTTPFetcher) Fetch(ctx context.Context, answers models.QuizAnswers) Result {
	res := Result{
		Domain:    answers.Domain(),
		Keyword:   answers.Keyword(),
		Location:  answers.Location(),
		Resources: []models.Resource{},
	}
	log := f.logger.With(zap.String("domain", string(res.Domain)), zap.String("keyword", res.Keyword))
	start := time.Now()
	defer func() {
		metrics.ObserveFetch(string(res.Domain), string(res.Failure), time.Since(start))
	}()

	fail := func(kind FailureKind, err error) Result {
		log.Warn("resource fetch failed", zap.String("failure", string(kind)), zap.Error(err))
		res.Failure = kind
		res.Err = newFetchError(kind, err)
		return res
	}

	endpoint, err := f.RequestURL(answers)
	if err != nil {
		return fail(FailureMalformedInput, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fail(FailureMalformedInput, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fail(FailureTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fail(FailureStatus, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fail(FailureTransport, err)
	}
	var envelope models.ResourcesResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fail(FailureDecode, err)
	}
	if envelope.Places != nil {
		res.Resources = envelope.Places
	}

	log.Debug("resource fetch complete", zap.Int("count", len(res.Resources)))
	return res
}
