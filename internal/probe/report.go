package probe

import (
	"encoding/json"
)

// BadSiteMessage is the error text of a storefront that could not be reached.
const BadSiteMessage = "Bad site"

// ErrorRecord is what a failed probe is reported as.
type ErrorRecord struct {
	Error string `json:"error"`
}

type resultRecord struct {
	Captcha        string    `json:"captcha"`
	ProductIDs     []string  `json:"productid"`
	PaymentMethods *[]string `json:"paymentmethod,omitempty"`
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// MarshalJSON encodes the result the way it is served: `paymentmethod` is only present
// when the checkout page was reached.
func (r Result) MarshalJSON() ([]byte, error) {
	record := resultRecord{
		Captcha:    yesNo(r.Captcha),
		ProductIDs: r.ProductIDs,
	}
	if record.ProductIDs == nil {
		record.ProductIDs = []string{}
	}
	if r.CheckoutReached {
		methods := r.PaymentMethods
		if methods == nil {
			methods = []string{}
		}
		record.PaymentMethods = &methods
	}
	return json.Marshal(record)
}

// Report returns the record to serialize for the outcome of a probe. Any failure is
// reported as a bad site, the error itself only goes to telemetry.
func Report(result Result, err error) any {
	if err != nil {
		return ErrorRecord{Error: BadSiteMessage}
	}
	return result
}
