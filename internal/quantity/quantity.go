// Package quantity models serving sizes such as "2 rotis (90g)" as structured
// amounts. Free text is parsed and formatted only at the edges.
package quantity

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

type Unit string

const (
	UnitNone       Unit = ""
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
)

// Absolute reports whether the unit is a measurable mass or volume.
func (u Unit) Absolute() bool {
	return u != UnitNone
}

// base converts an amount in u to grams or milliliters.
func (u Unit) base(amount float64) float64 {
	switch u {
	case UnitKilogram, UnitLiter:
		return amount * 1000
	default:
		return amount
	}
}

// Part is one "count label (amount unit)" segment of a serving description.
type Part struct {
	CountText string  // as written, e.g. "1", "1/2"
	Count     float64 // parsed CountText, 0 when absent
	Label     string  // e.g. "bowl", "medium bowl dal"
	Amount    float64
	Unit      Unit
	bare      bool // amount written without a label, e.g. "150g"
}

type Quantity struct {
	Parts []Part
}

var (
	partPattern = regexp.MustCompile(`^(?:(\d+(?:\.\d+)?|\d+/\d+)\s+)?(.*?)\s*(?:\(\s*(\d+(?:\.\d+)?)\s*([A-Za-z]+)\s*\))?$`)
	barePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([A-Za-z]+)$`)
	joinPattern = regexp.MustCompile(`\s+\+\s+`)
)

// Parse reads a serving description. Text it cannot interpret is kept as a label.
func Parse(s string) Quantity {
	s = strings.TrimSpace(s)
	if s == "" {
		return Quantity{}
	}
	segments := joinPattern.Split(s, -1)
	q := Quantity{Parts: make([]Part, 0, len(segments))}
	for _, seg := range segments {
		q.Parts = append(q.Parts, parsePart(strings.TrimSpace(seg)))
	}
	return q
}

func parsePart(seg string) Part {
	if m := barePattern.FindStringSubmatch(seg); m != nil {
		if unit, ok := parseUnit(m[2]); ok {
			amount, _ := strconv.ParseFloat(m[1], 64)
			return Part{Amount: amount, Unit: unit, bare: true}
		}
	}

	m := partPattern.FindStringSubmatch(seg)
	if m == nil {
		return Part{Label: seg}
	}
	p := Part{CountText: m[1], Label: m[2]}
	if p.CountText != "" {
		p.Count = parseCount(p.CountText)
	}
	if m[3] != "" {
		unit, ok := parseUnit(m[4])
		if !ok {
			return Part{Label: seg}
		}
		p.Amount, _ = strconv.ParseFloat(m[3], 64)
		p.Unit = unit
	}
	return p
}

func parseCount(s string) float64 {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0
		}
		return n / d
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseUnit(s string) (Unit, bool) {
	switch strings.ToLower(s) {
	case "g", "gm", "gms", "gram", "grams":
		return UnitGram, true
	case "kg", "kgs":
		return UnitKilogram, true
	case "ml", "mls":
		return UnitMilliliter, true
	case "l", "ltr", "litre", "liter":
		return UnitLiter, true
	default:
		return UnitNone, false
	}
}

// Scale multiplies absolute amounts by m. Relative counts ("1 bowl") stay as they are.
func (q Quantity) Scale(m float64) Quantity {
	out := Quantity{Parts: make([]Part, len(q.Parts))}
	for i, p := range q.Parts {
		if p.Unit.Absolute() {
			p.Amount = round1(p.Amount * m)
		}
		out.Parts[i] = p
	}
	return out
}

// Grams totals the absolute amounts in grams (or milliliters).
func (q Quantity) Grams() float64 {
	var total float64
	for _, p := range q.Parts {
		if p.Unit.Absolute() {
			total += p.Unit.base(p.Amount)
		}
	}
	return total
}

// HasAbsolute reports whether any part carries a measurable amount.
func (q Quantity) HasAbsolute() bool {
	for _, p := range q.Parts {
		if p.Unit.Absolute() {
			return true
		}
	}
	return false
}

// BelowMinimum reports a serving too small to be meaningful: under minBase
// grams/milliliters in total, or under half of a discrete unit.
func (q Quantity) BelowMinimum(minBase float64) bool {
	if q.HasAbsolute() {
		return q.Grams() < minBase
	}
	for _, p := range q.Parts {
		if p.CountText != "" && p.Count < 0.5 {
			return true
		}
	}
	return false
}

func (q Quantity) String() string {
	parts := make([]string, 0, len(q.Parts))
	for _, p := range q.Parts {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, " + ")
}

func (p Part) String() string {
	if p.bare {
		return formatAmount(p.Amount) + string(p.Unit)
	}
	var b strings.Builder
	if p.CountText != "" {
		b.WriteString(p.CountText)
		if p.Label != "" {
			b.WriteByte(' ')
		}
	}
	b.WriteString(p.Label)
	if p.Unit.Absolute() {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("(")
		b.WriteString(formatAmount(p.Amount))
		b.WriteString(string(p.Unit))
		b.WriteString(")")
	}
	return b.String()
}

// ScaleString is the boundary helper: parse, scale, format.
func ScaleString(s string, m float64) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	return Parse(s).Scale(m).String()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(round1(v), 'f', -1, 64)
}
