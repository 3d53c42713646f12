package reports

import (
	"errors"
	"time"

	"github.com/fdg312/dietplan/internal/nutrition"
	"github.com/fdg312/dietplan/internal/validation"
)

const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
	FormatZip = "zip"
)

var ErrEmptyPlan = errors.New("plan has no days")

// Meta is the header information printed above the plan table.
type Meta struct {
	Name        string
	Targets     nutrition.Targets
	Report      validation.CalorieReport
	Relaxation  string
	GeneratedAt time.Time
}

// File is one entry of a zip bundle.
type File struct {
	Name string
	Data []byte
}
