package batch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrEmptySelection = errors.New("select at least one row")

// ParseSelection reads row indices from form values or command-line input.
// Values may be comma separated. "ALL" anywhere selects every row and is
// returned as nil.
func ParseSelection(values []string) ([]int, error) {
	var out []int
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if strings.EqualFold(part, "all") {
				return nil, nil
			}
			n, err := strconv.Atoi(part)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid row %q", part)
			}
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptySelection
	}
	return out, nil
}
