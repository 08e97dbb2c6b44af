package probe

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
	"strings"
	"wcprobe/pkg/htmlutil"
)

var addToCartParam = regexp.MustCompile(`add-to-cart=(\d+)`)

func addToCartID(value string) string {
	groups := addToCartParam.FindStringSubmatch(value)
	if len(groups) < 2 {
		return ""
	}
	return groups[1]
}

// productIDCascade is ordered by trust: links and forms that add a product to the cart
// directly come first, structured data last.
var productIDCascade = []heuristic{
	{
		name:    "add-to-cart-anchor",
		query:   `//a[contains(@href, "add-to-cart=")]/@href`,
		extract: addToCartID,
	},
	{
		name:    "add-to-cart-input",
		query:   `//input[@name="add-to-cart" or @name="product_id"]/@value`,
		extract: strings.TrimSpace,
	},
	{
		name:    "data-product-id",
		query:   `//*[@data-product_id or @data-product-id]/@data-product_id | //*[@data-product_id or @data-product-id]/@data-product-id`,
		extract: strings.TrimSpace,
	},
	{
		name:    "add-to-cart-form",
		query:   `//form[contains(@action, "add-to-cart=")]/@action`,
		extract: addToCartID,
	},
	{
		name:    "structured-data",
		collect: structuredDataSKUs,
		extract: strings.TrimSpace,
	},
}

// ExtractProductIDs returns the product ids found by the first heuristic that finds any.
// It stops at the first id: ids further down the page tend to belong to related-product
// widgets rather than the page's own product.
func ExtractProductIDs(doc *htmlutil.Document) []string {
	id, ok := firstMatch(doc, productIDCascade)
	if !ok {
		return []string{}
	}
	return []string{id}
}

func structuredDataSKUs(doc *htmlutil.Document) []string {
	var skus []string
	for _, script := range doc.Find(`script[type="application/ld+json"]`).Nodes {
		text := strings.TrimSpace(htmlutil.GetText(script))

		decoder := json.NewDecoder(bytes.NewBufferString(text))
		decoder.UseNumber()
		var data any
		if err := decoder.Decode(&data); err != nil {
			continue
		}
		// the block must hold exactly one json value
		if _, err := decoder.Token(); err != io.EOF {
			continue
		}
		skus = append(skus, productSKUs(data)...)
	}
	return skus
}

// productSKUs walks a decoded JSON-LD value: a single object, a list of objects or an
// object holding an `@graph` list.
func productSKUs(data any) []string {
	switch value := data.(type) {
	case []any:
		var out []string
		for _, item := range value {
			out = append(out, productSKUs(item)...)
		}
		return out
	case map[string]any:
		var out []string
		if isProductType(value["@type"]) {
			if sku := skuString(value["sku"]); sku != "" {
				out = append(out, sku)
			}
		}
		if graph, ok := value["@graph"].([]any); ok {
			out = append(out, productSKUs(graph)...)
		}
		return out
	}
	return nil
}

func isProductType(t any) bool {
	switch value := t.(type) {
	case string:
		return value == "Product"
	case []any:
		for _, item := range value {
			if s, ok := item.(string); ok && s == "Product" {
				return true
			}
		}
	}
	return false
}

func skuString(sku any) string {
	switch value := sku.(type) {
	case string:
		return value
	case json.Number:
		return value.String()
	}
	return ""
}
