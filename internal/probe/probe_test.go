package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"wcprobe/internal/components/telemetry"
	"wcprobe/internal/session"

	"github.com/stretchr/testify/require"
)

type call struct {
	method string
	url    string
	form   map[string]string
}

type fakeResponse struct {
	body string
	err  error
}

// fakeSession serves canned responses and remembers every call. Unknown urls fail.
type fakeSession struct {
	mutex     sync.Mutex
	responses map[string]fakeResponse
	calls     []call
}

func newFakeSession(responses map[string]fakeResponse) *fakeSession {
	return &fakeSession{responses: responses}
}

func (f *fakeSession) respond(c call) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls = append(f.calls, c)

	res, ok := f.responses[c.method+" "+c.url]
	if !ok {
		return "", fmt.Errorf("%w: 404 Not Found", session.ErrStatus)
	}
	return res.body, res.err
}

func (f *fakeSession) Get(_ context.Context, url string) (string, error) {
	return f.respond(call{method: http.MethodGet, url: url})
}

func (f *fakeSession) Post(_ context.Context, url string, form map[string]string) (string, error) {
	return f.respond(call{method: http.MethodPost, url: url, form: form})
}

func (f *fakeSession) urls(method string) []string {
	var out []string
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c.url)
		}
	}
	return out
}

func proberFor(sess session.Session) *Prober {
	return NewProber(func() (session.Session, error) { return sess, nil }, &telemetry.RecorderAPI{})
}

func marshal(t *testing.T, v any) string {
	out, err := json.Marshal(v)
	require.NoError(t, err)
	return string(out)
}

const shop = "https://shop.example"

func TestProbeHomeFailureIsBadSite(t *testing.T) {
	sess := newFakeSession(map[string]fakeResponse{
		"GET " + shop: {err: errors.New("dial tcp: connection refused")},
	})

	result, err := proberFor(sess).Probe(context.Background(), shop)
	require.ErrorIs(t, err, ErrBadSite)
	require.Equal(t, `{"error":"Bad site"}`, marshal(t, Report(result, err)))
	require.Len(t, sess.calls, 1)
}

func TestProbeSessionFailureIsBadSite(t *testing.T) {
	tel := &telemetry.RecorderAPI{}
	prober := NewProber(func() (session.Session, error) {
		return nil, errors.New("cookie jar unavailable")
	}, tel)

	result, err := prober.Probe(context.Background(), shop)
	require.ErrorIs(t, err, ErrBadSite)
	require.Equal(t, `{"error":"Bad site"}`, marshal(t, Report(result, err)))
	require.Len(t, tel.Reports(telemetry.KindBroken), 1)
}

func TestProbeInvalidTargetIsBadSite(t *testing.T) {
	sess := newFakeSession(nil)
	for _, target := range []string{"shop.example", "ftp://shop.example", "https://", ""} {
		result, err := proberFor(sess).Probe(context.Background(), target)
		require.ErrorIs(t, err, ErrInvalidTarget)
		require.Equal(t, `{"error":"Bad site"}`, marshal(t, Report(result, err)))
	}
	require.Empty(t, sess.calls)
}

func TestProbeFallbackCrawlStopsAtFirstHit(t *testing.T) {
	hit := DefaultCandidatePaths[6]
	sess := newFakeSession(map[string]fakeResponse{
		"GET " + shop + "/":                      {body: plainPage},
		"GET " + shop + "/shop/":                 {body: plainPage},
		"GET " + shop + hit:                      {body: productAnchorPage},
		"GET " + shop + "/catalog/":              {body: productPriorityPage},
		"POST " + shop + "/?wc-ajax=add_to_cart": {err: errors.New("timeout")},
	})

	result, err := proberFor(sess).Probe(context.Background(), shop+"/")
	require.NoError(t, err)
	require.Equal(t, []string{"123"}, result.ProductIDs)
	require.Equal(t, 7, result.CrawledPages)

	gets := sess.urls(http.MethodGet)
	expected := []string{shop + "/"}
	for _, path := range DefaultCandidatePaths[:7] {
		expected = append(expected, shop+path)
	}
	require.Equal(t, expected, gets)

	// both cart attempts failed, so the checkout is never requested
	require.Equal(t, []string{
		shop + "/?wc-ajax=add_to_cart",
		shop + "/?add-to-cart=123",
	}, sess.urls(http.MethodPost))
	require.False(t, result.CheckoutReached)
	require.Equal(t, `{"captcha":"no","productid":["123"]}`, marshal(t, result))
}

func TestProbeCrawlExhausted(t *testing.T) {
	sess := newFakeSession(map[string]fakeResponse{
		"GET " + shop: {body: plainPage},
	})

	result, err := proberFor(sess).Probe(context.Background(), shop)
	require.NoError(t, err)
	require.Empty(t, result.ProductIDs)
	require.Len(t, sess.urls(http.MethodGet), 1+len(DefaultCandidatePaths))
	require.Empty(t, sess.urls(http.MethodPost))
	require.Equal(t, `{"captcha":"no","productid":[]}`, marshal(t, result))
	require.Equal(t, []Step{StepFetchHome, StepDetectCaptchaHome, StepExtractProductID, StepFallbackCrawl, StepDone}, result.Steps)
}

func TestProbeCustomCandidatePaths(t *testing.T) {
	sess := newFakeSession(map[string]fakeResponse{
		"GET " + shop:              {body: plainPage},
		"GET " + shop + "/winkel/": {body: productAnchorPage},
	})

	prober := NewProber(
		func() (session.Session, error) { return sess, nil },
		&telemetry.RecorderAPI{},
		WithCandidatePaths([]string{"/tienda/", "/winkel/"}),
	)
	result, err := prober.Probe(context.Background(), shop)
	require.NoError(t, err)
	require.Equal(t, []string{"123"}, result.ProductIDs)
	require.Equal(t, 2, result.CrawledPages)
}

func TestProbeAjaxCartSkipsFallback(t *testing.T) {
	sess := newFakeSession(map[string]fakeResponse{
		"GET " + shop + "/en/":                   {body: productAnchorPage},
		"POST " + shop + "/?wc-ajax=add_to_cart": {body: `{"fragments":{"div.widget_shopping_cart_content":"..."},"cart_hash":"x"}`},
		"GET " + shop + "/checkout/":             {body: checkoutPage + captchaPage},
	})

	result, err := proberFor(sess).Probe(context.Background(), shop+"/en/")
	require.NoError(t, err)
	require.Equal(t, []string{shop + "/?wc-ajax=add_to_cart"}, sess.urls(http.MethodPost))
	require.Equal(t, map[string]string{"product_id": "123", "quantity": "1"}, sess.calls[1].form)
	require.True(t, result.Captcha)
	require.Equal(t, `{"captcha":"yes","productid":["123"],"paymentmethod":["stripe","paypal"]}`, marshal(t, result))
}

func TestProbeCheckoutCaptchaOverridesHome(t *testing.T) {
	sess := newFakeSession(map[string]fakeResponse{
		"GET " + shop:                            {body: captchaPage + productAnchorPage},
		"POST " + shop + "/?wc-ajax=add_to_cart": {body: "added to cart"},
		"GET " + shop + "/checkout/":             {body: checkoutPage},
	})

	result, err := proberFor(sess).Probe(context.Background(), shop)
	require.NoError(t, err)
	require.False(t, result.Captcha)
	require.True(t, result.CheckoutReached)
}

func TestProbeCheckoutFailureKeepsHomeSignals(t *testing.T) {
	sess := newFakeSession(map[string]fakeResponse{
		"GET " + shop:                            {body: captchaPage + productAnchorPage},
		"POST " + shop + "/?wc-ajax=add_to_cart": {body: "cart"},
	})

	result, err := proberFor(sess).Probe(context.Background(), shop)
	require.NoError(t, err)
	require.Equal(t, `{"captcha":"yes","productid":["123"]}`, marshal(t, result))
	require.Equal(t, []Step{
		StepFetchHome, StepDetectCaptchaHome, StepExtractProductID,
		StepAddToCart, StepFetchCheckout, StepDone,
	}, result.Steps)
}

func TestProbeCheckoutWithoutMethods(t *testing.T) {
	sess := newFakeSession(map[string]fakeResponse{
		"GET " + shop:                            {body: productAnchorPage},
		"POST " + shop + "/?wc-ajax=add_to_cart": {body: "cart"},
		"GET " + shop + "/checkout/":             {body: plainPage},
	})

	result, err := proberFor(sess).Probe(context.Background(), shop)
	require.NoError(t, err)
	require.Equal(t, `{"captcha":"no","productid":["123"],"paymentmethod":[]}`, marshal(t, result))
}

// storefront is a minimal WooCommerce-like shop: the AJAX endpoint answers without the
// cart fragment, the classic add-to-cart post sets the cart cookie, and the checkout
// only lists payment methods when the cookie is present.
func storefront() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Query().Get("wc-ajax") == "add_to_cart":
			w.Write([]byte(`{"error":true}`))
		case r.Method == http.MethodPost && r.URL.Query().Get("add-to-cart") != "":
			if r.ParseForm() != nil || r.PostForm.Get("add-to-cart") != "42" {
				http.Error(w, "bad form", http.StatusBadRequest)
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "woocommerce_items_in_cart", Value: "1", Path: "/"})
			w.Write([]byte(`<html><body>Added</body></html>`))
		default:
			w.Write([]byte(`<html><body><a href="/?add-to-cart=42" class="button">Add to basket</a></body></html>`))
		}
	})
	mux.HandleFunc("/checkout/", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("woocommerce_items_in_cart"); err != nil {
			w.Write([]byte(`<html><body>Your cart is currently empty.</body></html>`))
			return
		}
		w.Write([]byte(`<html><body><div id="payment"><ul class="wc_payment_methods">
			<li><input type="radio" name="payment_method" value="cod"></li>
			<li><input type="radio" name="payment_method" value="bacs"></li>
		</ul></div></body></html>`))
	})
	return httptest.NewServer(mux)
}

func TestProbeStorefrontEndToEnd(t *testing.T) {
	server := storefront()
	defer server.Close()

	tel := &telemetry.RecorderAPI{}
	prober := NewProber(session.NewFactory(session.Options{}, tel), tel)

	result, err := prober.Probe(context.Background(), server.URL+"/")
	require.NoError(t, err)
	require.Equal(t, `{"captcha":"no","productid":["42"],"paymentmethod":["cod","bacs"]}`, marshal(t, Report(result, err)))
}

func TestProbeStorefrontWithMessageDump(t *testing.T) {
	server := storefront()
	defer server.Close()

	dir := t.TempDir()
	output, err := telemetry.NewFilesystemOutput(dir)
	require.NoError(t, err)

	tel := &telemetry.RecorderAPI{}
	prober := NewProber(session.NewFactory(session.Options{Dump: output}, tel), tel)

	result, err := prober.Probe(context.Background(), server.URL+"/")
	require.NoError(t, err)
	require.Equal(t, []string{"cod", "bacs"}, result.PaymentMethods)

	// home, ajax cart, classic cart, checkout
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	home, err := os.ReadFile(filepath.Join(dir, "session-1-1.txt"))
	require.NoError(t, err)
	require.Contains(t, string(home), "<NO BODY AVAILABLE>")

	cart, err := os.ReadFile(filepath.Join(dir, "session-1-3.txt"))
	require.NoError(t, err)
	require.Contains(t, string(cart), "add-to-cart=42")
}

func TestProbeUnreachableStorefront(t *testing.T) {
	server := storefront()
	url := server.URL
	server.Close()

	tel := &telemetry.RecorderAPI{}
	prober := NewProber(session.NewFactory(session.Options{}, tel), tel)

	result, err := prober.Probe(context.Background(), url)
	require.ErrorIs(t, err, ErrBadSite)
	require.Equal(t, `{"error":"Bad site"}`, marshal(t, Report(result, err)))
	require.NotEmpty(t, tel.Reports(telemetry.KindWarning))
}

func TestRunBatch(t *testing.T) {
	server := storefront()
	defer server.Close()

	tel := &telemetry.RecorderAPI{}
	prober := NewProber(session.NewFactory(session.Options{}, tel), tel)

	targets := []string{server.URL, "not a url", server.URL + "/"}
	var seen []string
	RunBatch(context.Background(), prober, targets, 1, func(target string, result Result, err error) {
		seen = append(seen, target)
		if strings.HasPrefix(target, "http") {
			require.NoError(t, err)
			require.Equal(t, []string{"cod", "bacs"}, result.PaymentMethods)
			return
		}
		require.ErrorIs(t, err, ErrBadSite)
	})
	require.Equal(t, targets, seen)

	var count int
	RunBatch(context.Background(), prober, targets, 3, func(string, Result, error) {
		count++
	})
	require.Equal(t, len(targets), count)
}
