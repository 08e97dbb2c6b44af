package commands

import (
	"io"
	"strings"
	"wcprobe/internal/probe"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}

func renderResult(out io.Writer, result probe.Result, err error) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Signal", "Value"})
	if err != nil {
		t.AppendRow(table.Row{"error", err.Error()})
		t.Render()
		return
	}

	steps := make([]string, len(result.Steps))
	for i, s := range result.Steps {
		steps[i] = string(s)
	}

	payment := "checkout not reached"
	if result.CheckoutReached {
		payment = joinOrDash(result.PaymentMethods)
	}

	t.AppendRows([]table.Row{
		{"target", result.Target.Origin},
		{"captcha", yesNo(result.Captcha)},
		{"product ids", joinOrDash(result.ProductIDs)},
		{"payment methods", payment},
		{"crawled pages", result.CrawledPages},
		{"steps", strings.Join(steps, " > ")},
	})
	t.Render()
}
