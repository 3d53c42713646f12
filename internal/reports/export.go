package reports

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/fdg312/dietplan/internal/mealplans"
)

// CSV exports one row per selected dish.
func (r *Renderer) CSV(plan *mealplans.DietPlan) ([]byte, error) {
	if plan == nil || len(plan.Days) == 0 {
		return nil, ErrEmptyPlan
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"day", "slot", "dish", "quantity", "calories", "protein_g", "carbs_g", "fats_g"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, day := range plan.Days {
		for _, meal := range day.Meals {
			for _, it := range meal.Items {
				row := []string{
					day.Label,
					string(meal.Slot),
					it.Name,
					it.Quantity,
					formatNumber(it.Calories),
					formatNumber(it.Protein),
					formatNumber(it.Carbs),
					formatNumber(it.Fats),
				}
				if err := w.Write(row); err != nil {
					return nil, err
				}
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Bundle zips files in the given order. Entry names must be unique.
func Bundle(files []File) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if f.Name == "" || seen[f.Name] {
			return nil, fmt.Errorf("bundle: invalid or duplicate entry %q", f.Name)
		}
		seen[f.Name] = true

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
