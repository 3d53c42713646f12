package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultAPIBase = "http://localhost:8080"
	defaultTimeout = 15 * time.Minute
)

var (
	apiBase string
	client  *http.Client
)

// smokeProfile is a profile every catalog can serve.
var smokeProfile = map[string]interface{}{
	"name":           "Smoke Test",
	"age":            35,
	"gender":         "female",
	"weight_kg":      64,
	"height_cm":      162,
	"activity_level": "3",
	"goal":           "General wellness",
	"diet_type":      "Vegetarian",
	"meal_frequency": 4,
	"dislikes":       []string{"okra"},
}

func main() {
	fmt.Println("=== Diet Plan API Smoke Test ===")
	fmt.Println()

	apiBase = strings.TrimRight(getEnv("API_BASE_URL", defaultAPIBase), "/")
	client = &http.Client{Timeout: timeoutFromEnv()}

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Timeout: %s\n", client.Timeout)
	fmt.Println()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Create Plan", testCreatePlan},
		{"Invalid Profile", testInvalidProfile},
		{"Metrics", testMetrics},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		start := time.Now()
		if err := step.fn(); err != nil {
			fmt.Printf("FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("OK (%s)\n", time.Since(start).Round(time.Millisecond))
	}

	fmt.Println()
	if failed {
		fmt.Println("SMOKE TEST FAILED")
		os.Exit(1)
	}
	fmt.Println("ALL SMOKE TESTS PASSED")
}

func testHealthz() error {
	resp, err := client.Get(apiBase + "/healthz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusOK)
}

func testCreatePlan() error {
	resp, err := postJSON("/v1/plans", smokeProfile)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var result struct {
		Plan struct {
			Days []map[string]json.RawMessage `json:"7DayPlan"`
		} `json:"plan"`
		CalorieReport struct {
			Days []struct {
				WithinRange bool `json:"within_range"`
			} `json:"days"`
		} `json:"calorie_report"`
		Attempts   []json.RawMessage `json:"attempts"`
		Relaxation string            `json:"relaxation"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if len(result.Plan.Days) != 7 {
		return fmt.Errorf("expected 7 days, got %d", len(result.Plan.Days))
	}
	within := 0
	for _, d := range result.CalorieReport.Days {
		if d.WithinRange {
			within++
		}
	}
	fmt.Printf("(%d/7 days on target, %d attempts, relaxation=%s) ", within, len(result.Attempts), result.Relaxation)
	return nil
}

func testInvalidProfile() error {
	resp, err := postJSON("/v1/plans", map[string]interface{}{"name": "x", "age": 3})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusBadRequest); err != nil {
		return err
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if body.Error.Code != "invalid_profile" {
		return fmt.Errorf("expected code=invalid_profile, got %q", body.Error.Code)
	}
	return nil
}

func testMetrics() error {
	resp, err := client.Get(apiBase + "/metrics")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if !bytes.Contains(body, []byte("dietplan_acquisition_attempts_total")) {
		return fmt.Errorf("acquisition metrics missing")
	}
	return nil
}

func postJSON(path string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, apiBase+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return client.Do(req)
}

func expectStatus(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
}

func timeoutFromEnv() time.Duration {
	v := getEnv("SMOKE_TIMEOUT_SECONDS", "")
	if v == "" {
		return defaultTimeout
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultTimeout
	}
	return time.Duration(n) * time.Second
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
