package probe

import (
	"errors"
	"fmt"
)

var (
	// ErrBadSite means the storefront's home page could not be fetched, no signal is available.
	ErrBadSite = errors.New("bad site")
	// ErrInvalidTarget is a url that cannot be probed, it is a kind of ErrBadSite.
	ErrInvalidTarget = fmt.Errorf("%w: invalid target url", ErrBadSite)
)

// Step is a state the probe went through.
type Step string

const (
	StepFetchHome             Step = "FETCH_HOME"
	StepDetectCaptchaHome     Step = "DETECT_CAPTCHA_HOME"
	StepExtractProductID      Step = "EXTRACT_PRODUCT_ID"
	StepFallbackCrawl         Step = "FALLBACK_CRAWL"
	StepAddToCart             Step = "ADD_TO_CART"
	StepFetchCheckout         Step = "FETCH_CHECKOUT"
	StepDetectCaptchaCheckout Step = "DETECT_CAPTCHA_CHECKOUT"
	StepExtractPaymentMethods Step = "EXTRACT_PAYMENT_METHODS"
	StepDone                  Step = "DONE"
)

// Result holds the signals gathered by one probe.
type Result struct {
	Target Target
	// Captcha is the checkout page's captcha flag when the checkout was reached, the
	// home page's otherwise.
	Captcha    bool
	ProductIDs []string
	// CheckoutReached tells whether PaymentMethods is meaningful.
	CheckoutReached bool
	PaymentMethods  []string
	// CrawledPages is the number of candidate catalog pages fetched.
	CrawledPages int
	Steps        []Step
}
