package services

import (
	"fmt"
	"sort"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	brandColor  = &props.Color{Red: 0, Green: 83, Blue: 88}
	mutedColor  = &props.Color{Red: 90, Green: 90, Blue: 90}
	reviewColor = &props.Color{Red: 194, Green: 84, Blue: 0}
	white       = &props.Color{Red: 255, Green: 255, Blue: 255}
	stripeBg    = &props.Cell{BackgroundColor: &props.Color{Red: 245, Green: 245, Blue: 245}}
)

// GeneratePDF renders an estimate proposal using maroto/v2 and returns the
// raw PDF bytes.
func GeneratePDF(data ExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addHeader(m, data)
	addCostBreakdown(m, data)
	addComposition(m, data)
	addFunctionalTable(m, data.FunctionalRows)
	addNonFunctionalTable(m, data.NonFunctionalRows)
	if data.HasDeviations {
		addDeviationWarning(m)
	}
	addFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// addHeader adds the title, document number, client and date.
func addHeader(m core.Maroto, data ExportData) {
	m.AddRows(
		row.New(12).Add(
			col.New(8).Add(
				text.New(data.Title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Color: brandColor,
				}),
			),
			col.New(4).Add(
				text.New("#"+data.DocumentNumber(), props.Text{
					Size:  10,
					Style: fontstyle.Bold,
					Align: align.Right,
				}),
			),
		),
	)

	meta := props.Text{Size: 9, Color: mutedColor}
	metaRight := meta
	metaRight.Align = align.Right

	m.AddRows(
		row.New(6).Add(
			col.New(6).Add(text.New("Client: "+data.Client, meta)),
			col.New(6).Add(text.New("Date: "+data.CreatedDate, metaRight)),
		),
		row.New(6).Add(
			col.New(6).Add(text.New("Prepared by: "+orDash(data.PreparedBy), meta)),
			col.New(6).Add(text.New(fmt.Sprintf("Version %d", data.Version), metaRight)),
		),
	)
	m.AddRows(row.New(4))
}

// addCostBreakdown adds the subtotal, contingency and total block.
func addCostBreakdown(m core.Maroto, data ExportData) {
	addSectionTitle(m, "Cost Breakdown")

	label := props.Text{Size: 9, Align: align.Left}
	value := props.Text{Size: 9, Align: align.Right}
	lines := []struct {
		label, value string
	}{
		{"Functional work", FormatMoney(data.FunctionalSubtotal)},
		{"Non-functional work", FormatMoney(data.NonFunctionalSubtotal)},
		{"Subtotal", FormatMoney(data.Subtotal)},
		{fmt.Sprintf("Contingency (%s)", FormatPercent(data.ContingencyPercent)), FormatMoney(data.ContingencyAmount)},
	}
	for _, l := range lines {
		m.AddRows(row.New(6).Add(
			col.New(8).Add(text.New(l.label, label)),
			col.New(4).Add(text.New(l.value, value)),
		))
	}

	totalCell := &props.Cell{BackgroundColor: brandColor}
	totalText := props.Text{Size: 11, Style: fontstyle.Bold, Color: white}
	totalRight := totalText
	totalRight.Align = align.Right
	m.AddRows(row.New(9).Add(
		col.New(8).Add(text.New("Total Estimate", totalText)).WithStyle(totalCell),
		col.New(4).Add(text.New(FormatMoney(data.Total), totalRight)).WithStyle(totalCell),
	))
	m.AddRows(row.New(4))
}

// addComposition adds the squad summary and the rate table.
func addComposition(m core.Maroto, data ExportData) {
	addSectionTitle(m, "Team Composition")

	m.AddRows(row.New(6).Add(
		col.New(12).Add(text.New(
			fmt.Sprintf("Total team size: %d (FTE: %d, Contractors: %d)  Sprint length: %d days  Squad cost per sprint: %s",
				len(data.Rates), data.FTECount(), data.ContractorCount(), data.SprintLengthDays, FormatMoney(data.SquadCostPerSprint)),
			props.Text{Size: 8, Color: mutedColor},
		)),
	))

	addTableHeader(m, []string{"Role", "Type", "Daily Rate", "Hourly Rate"}, []int{6, 2, 2, 2})
	for i, r := range data.Rates {
		addTableRow(m, i, []int{6, 2, 2, 2}, []cellText{
			cell(r.Role, align.Left),
			cell(string(r.Type), align.Center),
			cell(FormatMoney(r.DailyRate), align.Right),
			cell(FormatMoney(r.HourlyRate), align.Right),
		})
	}
	m.AddRows(row.New(4))
}

// addFunctionalTable lists functional lines, largest first.
func addFunctionalTable(m core.Maroto, rows []ExportRow) {
	addSectionTitle(m, "Functional Requirements")
	if len(rows) == 0 {
		addEmptyNote(m, "No functional requirements.")
		return
	}

	sorted := make([]ExportRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Quantity.GreaterThan(sorted[j].Quantity)
	})

	widths := []int{6, 2, 2, 2}
	addTableHeader(m, []string{"Requirement", "Sprints", "Cost", "Status"}, widths)
	for i, r := range sorted {
		status := cell("APPROVED", align.Center)
		if r.Flagged {
			status = cellText{value: "REVIEW", align: align.Center, color: reviewColor}
		}
		addTableRow(m, i, widths, []cellText{
			cell(r.Title, align.Left),
			cell(FormatQuantity(r.Quantity), align.Right),
			cell(FormatMoney(r.Cost), align.Right),
			status,
		})
	}
	m.AddRows(row.New(4))
}

// addNonFunctionalTable lists each non-functional item with its allocations
// indented underneath.
func addNonFunctionalTable(m core.Maroto, rows []ExportRow) {
	addSectionTitle(m, "Non-Functional Work")
	if len(rows) == 0 {
		addEmptyNote(m, "No non-functional work.")
		return
	}

	widths := []int{5, 3, 1, 1, 2}
	addTableHeader(m, []string{"Item", "Role", "Hours", "Rate", "Cost"}, widths)
	for i, r := range rows {
		if r.Level == 0 {
			m.AddRows(row.New(7).Add(
				col.New(10).Add(text.New(r.Title, props.Text{Size: 8, Style: fontstyle.Bold})),
				col.New(2).Add(text.New(FormatMoney(r.Cost), props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right})),
			))
			continue
		}
		addTableRow(m, i, widths, []cellText{
			cell("", align.Left),
			cell(r.Detail, align.Left),
			cell(FormatQuantity(r.Quantity), align.Right),
			cell(FormatMoney(r.Rate), align.Right),
			cell(FormatMoney(r.Cost), align.Right),
		})
	}
	m.AddRows(row.New(4))
}

func addDeviationWarning(m core.Maroto) {
	m.AddRows(row.New(8).Add(
		col.New(12).Add(text.New(
			"Some requirements deviate significantly from their pattern average and are marked REVIEW.",
			props.Text{Size: 9, Style: fontstyle.Bold, Color: reviewColor},
		)),
	))
}

// addFooter adds the generated-date line at the bottom.
func addFooter(m core.Maroto, data ExportData) {
	m.AddRows(row.New(6))
	m.AddRows(
		row.New(6).Add(
			col.New(12).Add(
				text.New(
					fmt.Sprintf("Estimate %s generated on %s", data.DocumentNumber(), data.CreatedDate),
					props.Text{
						Size:  7,
						Align: align.Left,
						Color: &props.Color{Red: 140, Green: 140, Blue: 140},
					},
				),
			),
		),
	)
}

// ── Table helpers ───────────────────────────────────────────────────────

type cellText struct {
	value string
	align align.Type
	color *props.Color
}

func cell(value string, a align.Type) cellText {
	return cellText{value: value, align: a}
}

func addSectionTitle(m core.Maroto, title string) {
	m.AddRows(row.New(8).Add(
		col.New(12).Add(text.New(title, props.Text{Size: 11, Style: fontstyle.Bold, Color: brandColor})),
	))
}

func addEmptyNote(m core.Maroto, note string) {
	m.AddRows(row.New(6).Add(
		col.New(12).Add(text.New(note, props.Text{Size: 8, Style: fontstyle.Italic, Color: mutedColor})),
	))
	m.AddRows(row.New(4))
}

func addTableHeader(m core.Maroto, headers []string, widths []int) {
	headerCell := &props.Cell{BackgroundColor: brandColor}
	cols := make([]core.Col, len(headers))
	for i, h := range headers {
		cols[i] = col.New(widths[i]).Add(
			text.New(h, props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Center, Color: white}),
		).WithStyle(headerCell)
	}
	m.AddRows(row.New(7).Add(cols...))
}

// addTableRow adds one striped data row.
func addTableRow(m core.Maroto, index int, widths []int, cells []cellText) {
	cols := make([]core.Col, len(cells))
	for i, c := range cells {
		style := props.Text{Size: 8, Align: c.align, Color: c.color}
		if c.color != nil {
			style.Style = fontstyle.Bold
		}
		cols[i] = col.New(widths[i]).Add(text.New(c.value, style))
		if index%2 == 1 {
			cols[i] = cols[i].WithStyle(stripeBg)
		}
	}
	m.AddRows(row.New(6).Add(cols...))
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
