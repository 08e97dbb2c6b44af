package probe

import (
	"strings"
	"wcprobe/pkg/htmlutil"
)

// values of saved-card toggles ("use a new card", "save card") rendered as radio inputs
var paymentMethodSentinels = map[string]struct{}{
	"new":  {},
	"true": {},
}

func paymentMethodValue(value string) string {
	value = strings.TrimSpace(value)
	if _, ok := paymentMethodSentinels[value]; ok {
		return ""
	}
	return value
}

func paymentQuery(name, query string) heuristic {
	return heuristic{name: name, query: query, extract: paymentMethodValue}
}

// themes and checkout plugins render the same radio list with different containers,
// so every variant is evaluated and the results are merged.
var paymentMethodCascade = []heuristic{
	paymentQuery("payment-list", `//*[@id="payment"]//ul[contains(@class, "wc_payment_methods")]//input[@type="radio"]/@value`),
	paymentQuery("payment-container", `//*[@id="payment"]//input[@type="radio" and @name="payment_method"]/@value`),
	paymentQuery("payment-id-container", `//*[contains(@id, "payment")]//input[@type="radio" and @name="payment_method"]/@value`),
	paymentQuery("payment-method-radio", `//input[@type="radio" and @name="payment_method"]/@value`),

	paymentQuery("payment-container-named", `//*[@id="payment"]//input[contains(@name, "payment") and @type="radio"]/@value`),
	paymentQuery("payment-id-container-named", `//*[contains(@id, "payment")]//input[contains(@name, "payment") and @type="radio"]/@value`),
	paymentQuery("payment-named-radio", `//input[contains(@name, "payment") and @type="radio"]/@value`),
	paymentQuery("payment-id-container-method", `//*[contains(@id, "payment")]//input[contains(@name, "method") and @type="radio"]/@value`),

	paymentQuery("payment-list-class", `//*[contains(@class, "wc_payment_methods")]//input[@type="radio" and contains(@name, "payment")]/@value`),
	paymentQuery("payment-method-block", `//*[@id="payment"]//div[contains(@class, "payment_method")]//input[@type="radio"]/@value`),
	paymentQuery("checkout-payment-block", `//*[contains(@class, "woocommerce-checkout-payment")]//input[@type="radio" and @name]/@value`),
	paymentQuery("payment-methods-block", `//*[contains(@class, "woocommerce-payment-methods")]//input[@type="radio" and @name]/@value`),

	paymentQuery("payment-method-id", `//input[@type="radio" and contains(@id, "payment_method")]/@value`),
	paymentQuery("payment-name", `//input[@type="radio" and contains(@name, "payment")]/@value`),
	paymentQuery("payment-class", `//input[@type="radio" and contains(@class, "payment")]/@value`),
}

// ExtractPaymentMethods returns every payment method offered on a checkout page in the
// order they were first found.
func ExtractPaymentMethods(doc *htmlutil.Document) []string {
	return aggregate(doc, paymentMethodCascade)
}
