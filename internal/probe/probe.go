package probe

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"wcprobe/internal/components/assert"
	"wcprobe/internal/components/telemetry"
	"wcprobe/internal/session"
	"wcprobe/pkg/htmlutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_prober_new_session    = "prober.new-session"
	report_prober_fetch_home     = "prober.fetch-home"
	report_prober_crawl          = "prober.crawl"
	report_prober_add_to_cart    = "prober.add-to-cart"
	report_prober_fetch_checkout = "prober.fetch-checkout"
)

var tracer = otel.Tracer("wcprobe/internal/probe")

var meter = otel.Meter("wcprobe/internal/probe")
var probeCounter, _ = meter.Int64Counter("probes")
var captchaCounter, _ = meter.Int64Counter("captcha_detected")
var checkoutCounter, _ = meter.Int64Counter("checkout_reached")

// Prober runs probes. It holds no per-probe state and can be used concurrently, each
// probe gets its own session.
type Prober struct {
	newSession     session.Factory
	tel            telemetry.API
	candidatePaths []string
}

type Option func(p *Prober)

// WithCandidatePaths replaces the catalog pages tried when the home page has no product.
func WithCandidatePaths(paths []string) Option {
	return func(p *Prober) {
		p.candidatePaths = paths
	}
}

func NewProber(newSession session.Factory, tel telemetry.API, opts ...Option) *Prober {
	assert.NotNil(newSession, "newSession")
	assert.NotNil(tel, "tel")

	p := &Prober{
		newSession:     newSession,
		tel:            telemetry.NewScopedAPI("probe", tel),
		candidatePaths: DefaultCandidatePaths,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe fingerprints the storefront at `rawUrl`. The only error returned for an
// unreachable storefront is ErrBadSite, every other failure along the way shows up as a
// missing signal in the result.
func (p *Prober) Probe(ctx context.Context, rawUrl string) (Result, error) {
	ctx, span := tracer.Start(ctx, "Probe")
	defer span.End()
	span.SetAttributes(attribute.String("target", rawUrl))

	target, err := ParseTarget(rawUrl)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		probeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "invalid")))
		return Result{}, err
	}

	sess, err := p.newSession()
	if err != nil {
		span.SetStatus(codes.Error, "failed to create session")
		p.tel.ReportBroken(report_prober_new_session, err)
		probeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "bad_site")))
		return Result{}, fmt.Errorf("%w: create session: %w", ErrBadSite, err)
	}

	r := &run{
		prober:  p,
		session: sess,
		result:  Result{Target: target, ProductIDs: []string{}},
	}
	result, err := r.execute(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		probeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "bad_site")))
		return Result{}, err
	}

	probeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "ok")))
	if result.Captcha {
		captchaCounter.Add(ctx, 1)
	}
	if result.CheckoutReached {
		checkoutCounter.Add(ctx, 1)
	}
	span.SetAttributes(
		attribute.Bool("captcha", result.Captcha),
		attribute.StringSlice("product_ids", result.ProductIDs),
		attribute.Bool("checkout_reached", result.CheckoutReached),
		attribute.StringSlice("payment_methods", result.PaymentMethods),
	)
	return result, nil
}

// run is the state of a single probe.
type run struct {
	prober  *Prober
	session session.Session
	result  Result
}

func (r *run) enter(step Step) {
	r.result.Steps = append(r.result.Steps, step)
}

func (r *run) execute(ctx context.Context) (Result, error) {
	tel := r.prober.tel
	target := r.result.Target

	r.enter(StepFetchHome)
	homeBody, err := r.session.Get(ctx, target.Raw)
	if err != nil {
		tel.ReportWarning(report_prober_fetch_home, err, target.Raw)
		return Result{}, fmt.Errorf("%w: %w", ErrBadSite, err)
	}
	home := htmlutil.Parse(homeBody)

	r.enter(StepDetectCaptchaHome)
	r.result.Captcha = DetectCaptcha(home)

	r.enter(StepExtractProductID)
	r.result.ProductIDs = ExtractProductIDs(home)

	if len(r.result.ProductIDs) == 0 {
		r.enter(StepFallbackCrawl)
		r.result.ProductIDs = r.crawl(ctx)
	}
	if len(r.result.ProductIDs) == 0 {
		tel.ReportDebug("no product found", target.Raw)
		r.enter(StepDone)
		return r.result, nil
	}

	r.enter(StepAddToCart)
	if !r.addToCart(ctx, r.result.ProductIDs[0]) {
		r.enter(StepDone)
		return r.result, nil
	}

	r.enter(StepFetchCheckout)
	checkoutUrl := target.resolve("/checkout/")
	checkoutBody, err := r.session.Get(ctx, checkoutUrl)
	if err != nil {
		tel.ReportWarning(report_prober_fetch_checkout, err, checkoutUrl)
		r.enter(StepDone)
		return r.result, nil
	}
	checkout := htmlutil.Parse(checkoutBody)
	r.result.CheckoutReached = true

	r.enter(StepDetectCaptchaCheckout)
	r.result.Captcha = DetectCaptcha(checkout)

	r.enter(StepExtractPaymentMethods)
	r.result.PaymentMethods = ExtractPaymentMethods(checkout)

	r.enter(StepDone)
	return r.result, nil
}

// crawl fetches candidate catalog pages in order and stops at the first one with a product.
func (r *run) crawl(ctx context.Context) []string {
	for _, path := range r.prober.candidatePaths {
		pageUrl := r.result.Target.resolve(path)
		r.result.CrawledPages++

		body, err := r.session.Get(ctx, pageUrl)
		if err != nil {
			r.prober.tel.ReportDebug(report_prober_crawl, pageUrl, err)
			continue
		}
		ids := ExtractProductIDs(htmlutil.Parse(body))
		if len(ids) > 0 {
			r.prober.tel.ReportDebug(report_prober_crawl, pageUrl, ids)
			return ids
		}
	}
	return []string{}
}

// addToCart tries the AJAX endpoint first and falls back to the classic query parameter
// form. It reports whether the last attempt got a response, the cart content itself is
// not verified.
func (r *run) addToCart(ctx context.Context, productId string) bool {
	target := r.result.Target

	ajaxUrl := target.resolve("/?wc-ajax=add_to_cart")
	body, err := r.session.Post(ctx, ajaxUrl, map[string]string{
		"product_id": productId,
		"quantity":   "1",
	})
	if err == nil && strings.Contains(body, "cart") {
		return true
	}
	if err != nil {
		r.prober.tel.ReportDebug(report_prober_add_to_cart, ajaxUrl, err)
	}

	standardUrl := fmt.Sprintf("%s/?add-to-cart=%s", target.NormalizedBase, url.QueryEscape(productId))
	_, err = r.session.Post(ctx, standardUrl, map[string]string{
		"add-to-cart": productId,
	})
	if err != nil {
		r.prober.tel.ReportWarning(report_prober_add_to_cart, err, standardUrl)
		return false
	}
	return true
}
