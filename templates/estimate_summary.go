// Package templates renders the estimator's HTML views as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"softwareestimator/services"
)

// EstimateSummaryData is the view model for the read-only estimate page.
type EstimateSummaryData struct {
	EstimateID string
	Export     services.ExportData
	// OtherBasis is the basis the page links to for comparison.
	OtherBasis services.CostBasis
}

// EstimateSummaryPage renders a complete HTML page summarizing one estimate:
// header, cost breakdown, functional and non-functional tables.
func EstimateSummaryPage(data EstimateSummaryData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		d := data.Export

		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		fmt.Fprintf(&b, `<title>%s</title>`, esc(d.Title))
		b.WriteString(`<link rel="stylesheet" href="/static/css/estimate.css"></head><body>`)

		// ── Header ───────────────────────────────────────────────
		b.WriteString(`<header class="estimate-header">`)
		fmt.Fprintf(&b, `<h1>%s</h1>`, esc(d.Title))
		fmt.Fprintf(&b, `<p class="meta">Client: %s &middot; Version %d &middot; #%s &middot; %s</p>`,
			esc(orDash(d.Client)), d.Version, esc(d.DocumentNumber()), esc(d.CreatedDate))
		fmt.Fprintf(&b, `<p class="meta">Basis: %s &middot; <a href="/estimates/%s?basis=%s">view %s basis</a></p>`,
			esc(string(d.Basis)), esc(data.EstimateID), esc(string(data.OtherBasis)), esc(string(data.OtherBasis)))
		b.WriteString(`</header>`)

		if d.HasDeviations {
			b.WriteString(`<div class="alert alert-warning">Some lines deviate from their pattern average and need review.</div>`)
		}

		// ── Cost breakdown ───────────────────────────────────────
		b.WriteString(`<section><h2>Cost breakdown</h2><dl class="totals">`)
		summary := []struct{ label, value string }{
			{"Functional work", services.FormatMoney(d.FunctionalSubtotal)},
			{"Non-functional work", services.FormatMoney(d.NonFunctionalSubtotal)},
			{"Subtotal", services.FormatMoney(d.Subtotal)},
			{"Contingency (" + services.FormatPercent(d.ContingencyPercent) + ")", services.FormatMoney(d.ContingencyAmount)},
			{"Total estimate", services.FormatMoney(d.Total)},
		}
		for _, s := range summary {
			fmt.Fprintf(&b, `<dt>%s</dt><dd>%s</dd>`, esc(s.label), esc(s.value))
		}
		b.WriteString(`</dl></section>`)

		// ── Functional lines ─────────────────────────────────────
		b.WriteString(`<section><h2>Functional work</h2>`)
		if len(d.FunctionalRows) == 0 {
			b.WriteString(`<p class="empty">No functional lines.</p>`)
		} else {
			b.WriteString(`<table><thead><tr><th>#</th><th>Title</th><th>Sprints</th><th>Cost</th><th>Status</th></tr></thead><tbody>`)
			for _, r := range d.FunctionalRows {
				status, class := "Approved", ""
				if r.Flagged {
					status, class = "Review", ` class="flagged"`
				}
				fmt.Fprintf(&b, `<tr%s><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
					class, esc(r.Index), esc(r.Title), esc(services.FormatQuantity(r.Quantity)),
					esc(services.FormatMoney(r.Cost)), status)
			}
			b.WriteString(`</tbody></table>`)
		}
		b.WriteString(`</section>`)

		// ── Non-functional items ─────────────────────────────────
		b.WriteString(`<section><h2>Non-functional work</h2>`)
		if len(d.NonFunctionalRows) == 0 {
			b.WriteString(`<p class="empty">No non-functional items.</p>`)
		} else {
			b.WriteString(`<table><thead><tr><th>#</th><th>Item / Role</th><th>Hours</th><th>Rate</th><th>Cost</th></tr></thead><tbody>`)
			for _, r := range d.NonFunctionalRows {
				if r.Level == 0 {
					fmt.Fprintf(&b, `<tr class="item"><td>%s</td><td>%s</td><td></td><td></td><td>%s</td></tr>`,
						esc(r.Index), esc(r.Title), esc(services.FormatMoney(r.Cost)))
					continue
				}
				fmt.Fprintf(&b, `<tr class="allocation"><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
					esc(r.Index), esc(r.Detail), esc(services.FormatQuantity(r.Quantity)),
					esc(services.FormatMoney(r.Rate)), esc(services.FormatMoney(r.Cost)))
			}
			b.WriteString(`</tbody></table>`)
		}
		b.WriteString(`</section>`)

		// ── Team ─────────────────────────────────────────────────
		fmt.Fprintf(&b, `<footer><p>Team: %d FTE, %d contractor(s). Prepared by %s.</p></footer>`,
			d.FTECount(), d.ContractorCount(), esc(orDash(d.PreparedBy)))
		b.WriteString(`</body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func esc(s string) string {
	return templ.EscapeString(s)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
