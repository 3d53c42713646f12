package reports

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fdg312/dietplan/internal/mealplans"
	"github.com/fdg312/dietplan/internal/validation"
	"github.com/jung-kurt/gofpdf"
)

const (
	fontFamily = "Helvetica"

	pageMargin = 10.0
	dayColumn  = 32.0
	cellPad    = 2.0
	lineHeight = 4.5
	headerRow  = 9.0

	hydrationNote = "Hydration: drink 2-3 litres of water spread across the day."
)

// Renderer draws accepted plans. The zero value is ready to use.
type Renderer struct {
	// Compress toggles stream compression in the PDF output.
	Compress bool
}

func NewRenderer() *Renderer {
	return &Renderer{Compress: true}
}

// column is one slot column of the table.
type column struct {
	Header string
	Slots  []mealplans.Slot
}

// columns lists the table columns for plan. When the plan carries a single
// snack slot, whatever its number, it is shown under "Snack".
func columns(plan *mealplans.DietPlan) []column {
	slots := plan.Slots()
	snacks := 0
	for _, s := range slots {
		if s.IsSnack() {
			snacks++
		}
	}
	out := make([]column, 0, len(slots))
	for _, s := range slots {
		header := string(s)
		if s.IsSnack() && snacks == 1 {
			header = string(mealplans.Snack)
		}
		out = append(out, column{Header: header, Slots: []mealplans.Slot{s}})
	}
	return out
}

// PDF renders plan as a landscape A4 table with one row per day.
func (r *Renderer) PDF(plan *mealplans.DietPlan, meta Meta) ([]byte, error) {
	if plan == nil || len(plan.Days) == 0 {
		return nil, ErrEmptyPlan
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(r.Compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetCatalogSort(true)
	if !meta.GeneratedAt.IsZero() {
		pdf.SetCreationDate(meta.GeneratedAt)
	}
	pdf.SetTitle("Personalized 7-Day Diet Plan", false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, 10, "Personalized 7-Day Diet Plan", "", 1, "C", false, 0, "")
	if name := strings.TrimSpace(meta.Name); name != "" {
		pdf.SetFont(fontFamily, "", 11)
		pdf.CellFormat(0, 6, tr("Prepared for "+name), "", 1, "C", false, 0, "")
	}
	writeTargets(pdf, meta)
	pdf.Ln(3)

	pageW, pageH := pdf.GetPageSize()
	cols := columns(plan)
	usable := pageW - 2*pageMargin
	slotW := (usable - dayColumn) / float64(len(cols))
	widths := make([]float64, 0, len(cols)+1)
	widths = append(widths, dayColumn)
	for range cols {
		widths = append(widths, slotW)
	}

	headers := make([]string, 0, len(cols)+1)
	headers = append(headers, "Day")
	for _, c := range cols {
		headers = append(headers, c.Header)
	}
	drawHeader(pdf, headers, widths)

	reports := dayReports(meta.Report)
	pdf.SetFont(fontFamily, "", 9)
	for i, day := range plan.Days {
		cells := make([]string, 0, len(widths))
		cells = append(cells, tr(dayCell(day, reports, i)))
		for _, c := range cols {
			cells = append(cells, tr(slotCell(day, c.Slots)))
		}

		rowH := rowHeight(pdf, cells, widths)
		if pdf.GetY()+rowH > pageH-pageMargin {
			pdf.AddPage()
			drawHeader(pdf, headers, widths)
			pdf.SetFont(fontFamily, "", 9)
		}
		drawRow(pdf, cells, widths, rowH)
	}

	pdf.Ln(4)
	writeSummary(pdf, plan.Summary)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTargets(pdf *gofpdf.Fpdf, meta Meta) {
	t := meta.Targets
	if t.CalorieGoal == 0 {
		return
	}
	pdf.SetFont(fontFamily, "", 10)
	line := fmt.Sprintf("Daily target: %d kcal | Protein %.0fg | Carbs %.0fg | Fat %.0fg",
		t.CalorieGoal, t.Macros.ProteinG, t.Macros.CarbsG, t.Macros.FatG)
	pdf.CellFormat(0, 5, line, "", 1, "C", false, 0, "")
	if len(meta.Report.Days) > 0 {
		within := fmt.Sprintf("%d of %d days within %.0f kcal of target",
			meta.Report.WithinCount(), len(meta.Report.Days), meta.Report.Tolerance)
		if meta.Relaxation != "" && meta.Relaxation != "none" {
			within += " (relaxed: " + strings.ReplaceAll(meta.Relaxation, "_", " ") + ")"
		}
		pdf.CellFormat(0, 5, within, "", 1, "C", false, 0, "")
	}
}

func drawHeader(pdf *gofpdf.Fpdf, headers []string, widths []float64) {
	pdf.SetFont(fontFamily, "B", 11)
	pdf.SetFillColor(230, 240, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], headerRow, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func rowHeight(pdf *gofpdf.Fpdf, cells []string, widths []float64) float64 {
	maxLines := 1
	for i, text := range cells {
		n := 0
		for _, para := range strings.Split(text, "\n") {
			n += max(1, len(pdf.SplitLines([]byte(para), widths[i]-2*cellPad)))
		}
		if n > maxLines {
			maxLines = n
		}
	}
	return float64(maxLines)*lineHeight + 2*cellPad
}

func drawRow(pdf *gofpdf.Fpdf, cells []string, widths []float64, rowH float64) {
	x, y := pdf.GetX(), pdf.GetY()
	left := x
	for i, text := range cells {
		pdf.Rect(x, y, widths[i], rowH, "D")
		pdf.SetXY(x+cellPad, y+cellPad)
		pdf.MultiCell(widths[i]-2*cellPad, lineHeight, text, "", "L", false)
		x += widths[i]
	}
	pdf.SetXY(left, y+rowH)
}

func dayReports(rep validation.CalorieReport) map[string]validation.DayReport {
	out := make(map[string]validation.DayReport, len(rep.Days))
	for _, d := range rep.Days {
		out[d.Day] = d
	}
	return out
}

func dayCell(day mealplans.DayPlan, reports map[string]validation.DayReport, i int) string {
	label := day.Label
	if label == "" {
		label = fmt.Sprintf("Day %d", i+1)
	}
	text := fmt.Sprintf("%s\n%.0f kcal", label, day.Totals().Calories)
	if rep, ok := reports[day.Label]; ok {
		if rep.WithinRange {
			text += "\non target"
		} else {
			text += fmt.Sprintf("\n%+.0f kcal", rep.Difference)
		}
	}
	return text
}

// slotCell lists every dish of the slots, one per paragraph.
func slotCell(day mealplans.DayPlan, slots []mealplans.Slot) string {
	var parts []string
	for _, s := range slots {
		meal, ok := day.Meal(s)
		if !ok {
			continue
		}
		for _, it := range meal.Items {
			parts = append(parts, selectionText(it))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "\n")
}

func selectionText(s mealplans.Selection) string {
	text := s.Name
	if q := strings.TrimSpace(s.Quantity); q != "" {
		text += " - " + q
	}
	return text + fmt.Sprintf(" (%.0f kcal, P%.0f C%.0f F%.0f)", s.Calories, s.Protein, s.Carbs, s.Fats)
}

func writeSummary(pdf *gofpdf.Fpdf, s mealplans.Summary) {
	pdf.SetFont(fontFamily, "B", 11)
	pdf.CellFormat(0, 6, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("Average calories: %d kcal/day", s.AverageCalories), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Average macros: Protein %dg, Carbs %dg, Fats %dg",
		s.AverageProtein, s.AverageCarbs, s.AverageFats), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, hydrationNote, "", 1, "L", false, 0, "")
}
