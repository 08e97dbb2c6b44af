package probe

import "wcprobe/pkg/htmlutil"

var captchaIndicators = []string{
	`//iframe[contains(@src, "recaptcha")]`,
	`//div[contains(@class, "g-recaptcha")]`,
	`//div[contains(@class, "h-captcha")]`,
	`//script[contains(@src, "recaptcha")]`,
	`//script[contains(@src, "hcaptcha")]`,
	`//noscript[contains(text(), "captcha")]`,
	`//input[@name="g-recaptcha-response"]`,
	`//input[@name="h-captcha-response"]`,
	`//div[@id="px-captcha"]`,
	`//div[contains(@class, "captcha")]`,
	`//input[contains(@id, "captcha")]`,
	`//div[contains(@class, "cf-captcha-container")]`,
	`//input[@type="hidden" and @name="cf-turnstile-response"]`,
	`//input[@type="hidden" and @name="captcha"]`,
}

// DetectCaptcha reports whether the page carries any known captcha marker.
func DetectCaptcha(doc *htmlutil.Document) bool {
	return anyMatch(doc, captchaIndicators)
}
