// Package session is the HTTP client a probe uses to talk to one storefront.
// A session keeps its own cookie jar, so it must not be shared between probe runs.
package session

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync/atomic"
	"time"
	"wcprobe/internal/components/assert"
	"wcprobe/internal/components/telemetry"
	libtelemetry "wcprobe/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_get  = "client.get"
	report_client_post = "client.post"
)

const (
	DefaultTimeout   = 20 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"
)

// ErrStatus is returned (wrapped) when the server answers with an error status.
var ErrStatus = errors.New("unexpected status")

// Session is what the probe needs from an HTTP client.
type Session interface {
	Get(ctx context.Context, url string) (string, error)
	Post(ctx context.Context, url string, form map[string]string) (string, error)
}

// Factory creates a fresh session for each probe run.
type Factory func() (Session, error)

type Options struct {
	Timeout   time.Duration
	UserAgent string
	// RequestsPerSecond paces requests when > 0.
	RequestsPerSecond float64
	CloudflareBypass  bool
	// Dump receives every HTTP exchange when not nil.
	Dump telemetry.MessageOutput
}

// Client implements Session on top of resty.
type Client struct {
	http *resty.Client
	tel  telemetry.API
}

func New(opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel, "tel")
	tel = telemetry.NewScopedAPI("session", tel)

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	var roundTripper http.RoundTripper = transport
	if opts.CloudflareBypass {
		// replaces the transport's tls config, so certificate checks are turned off afterwards
		roundTripper = cloudflarebp.AddCloudFlareByPass(transport)
	}
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	}
	// storefronts regularly serve self-signed or expired certificates
	transport.TLSClientConfig.InsecureSkipVerify = true

	httpClient := resty.New()
	httpClient.SetTransport(roundTripper)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetHeader("user-agent", opts.UserAgent)

	if opts.RequestsPerSecond > 0 {
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel, opts.Dump)
	libtelemetry.InstrumentResty(httpClient, "session")

	return &Client{http: httpClient, tel: tel}, nil
}

// NewFactory returns a Factory creating sessions with the given options.
func NewFactory(opts Options, tel telemetry.API) Factory {
	var count uint64
	return func() (Session, error) {
		sessionOpts := opts
		if opts.Dump != nil {
			n := atomic.AddUint64(&count, 1)
			sessionOpts.Dump = prefixedOutput{prefix: fmt.Sprintf("session-%d-", n), inner: opts.Dump}
		}
		return New(sessionOpts, tel)
	}
}

func checkResponse(res *resty.Response) error {
	if res.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("%w: %s", ErrStatus, res.Status())
	}
	return nil
}

func (c *Client) Get(ctx context.Context, url string) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", url, err)
	}
	err = checkResponse(res)
	if err != nil {
		c.tel.ReportDebug(report_client_get, url, err)
		return "", fmt.Errorf("get %s: %w", url, err)
	}
	return res.String(), nil
}

func (c *Client) Post(ctx context.Context, url string, form map[string]string) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(url)
	if err != nil {
		return "", fmt.Errorf("post %s: %w", url, err)
	}
	err = checkResponse(res)
	if err != nil {
		c.tel.ReportDebug(report_client_post, url, err)
		return "", fmt.Errorf("post %s: %w", url, err)
	}
	return res.String(), nil
}

type prefixedOutput struct {
	prefix string
	inner  telemetry.MessageOutput
}

func (p prefixedOutput) Write(id string, contents string) {
	p.inner.Write(p.prefix+id, contents)
}
