package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdg312/dietplan/internal/acquisition"
	"github.com/fdg312/dietplan/internal/ai"
	"github.com/fdg312/dietplan/internal/batch"
	"github.com/fdg312/dietplan/internal/blob"
	"github.com/fdg312/dietplan/internal/config"
	"github.com/fdg312/dietplan/internal/metrics"
	"github.com/fdg312/dietplan/internal/planner"
	"github.com/fdg312/dietplan/internal/profiles"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:        8080,
		UploadMaxMB: 1,
		AIMode:      config.AIModeMock,
		CatalogPath: "data/dishes.csv",
		Blob: config.BlobConfig{
			Mode: config.BlobModeLocal,
			S3:   config.S3Config{PresignTTLSeconds: 900},
		},
	}
}

func mockPlanner() *planner.Planner {
	engine := acquisition.New(ai.NewMockProvider(), acquisition.Options{
		Config:   config.DefaultAcquisition(),
		Defaults: ai.Request{System: config.DefaultSystemInstruction},
	})
	return planner.New(engine, planner.Options{})
}

func newTestServer(t *testing.T, gen batch.Generator) *Server {
	t.Helper()
	store, err := blob.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	srv, err := New(testConfig(), Deps{Planner: gen, Store: store, Metrics: metrics.New(nil)})
	require.NoError(t, err)
	return srv
}

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Error.Code
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, mockPlanner())
	w := do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status=ok, got %s", resp["status"])
	}
}

func TestHealthzMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, mockPlanner())
	w := do(srv, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestNewRequiresPlannerAndStore(t *testing.T) {
	_, err := New(testConfig(), Deps{})
	assert.Error(t, err)
}

const ashaJSON = `{
	"name": "Asha",
	"age": 34,
	"gender": "female",
	"weight_kg": 62,
	"height_cm": 160,
	"activity_level": "3",
	"goal": "Fat loss",
	"diet_type": "veg",
	"meal_frequency": 4,
	"dislikes": ["okra"]
}`

func TestCreatePlan(t *testing.T) {
	srv := newTestServer(t, mockPlanner())
	req := httptest.NewRequest(http.MethodPost, "/v1/plans", strings.NewReader(ashaJSON))
	req.Header.Set("Content-Type", "application/json")
	w := do(srv, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Plan          map[string]json.RawMessage `json:"plan"`
		Targets       struct {
			CalorieGoal int `json:"calorie_goal"`
		} `json:"targets"`
		CalorieReport struct {
			Days []struct {
				WithinRange bool `json:"within_range"`
			} `json:"days"`
		} `json:"calorie_report"`
		Attempts   []attemptView `json:"attempts"`
		Relaxation string        `json:"relaxation"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	assert.Contains(t, resp.Plan, "7DayPlan")
	assert.Contains(t, resp.Plan, "Summary")
	assert.Positive(t, resp.Targets.CalorieGoal)
	assert.Len(t, resp.CalorieReport.Days, 7)
	require.Len(t, resp.Attempts, 1)
	assert.Equal(t, "accepted", resp.Attempts[0].Outcome)
	assert.Equal(t, "none", resp.Relaxation)
}

func TestCreatePlanErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		gen    batch.Generator
		status int
		code   string
	}{
		{"bad json", `{"name":`, mockPlanner(), http.StatusBadRequest, "invalid_json"},
		{"unknown field", `{"name":"A","shoe_size":9}`, mockPlanner(), http.StatusBadRequest, "invalid_json"},
		{"invalid profile", `{"name":"A","age":5,"weight_kg":60,"height_cm":160}`, mockPlanner(), http.StatusBadRequest, "invalid_profile"},
		{"exhausted", ashaJSON, failingGenerator{err: &acquisition.ExhaustedError{Attempts: 5}}, http.StatusBadGateway, "plan_exhausted"},
		{"timeout", ashaJSON, failingGenerator{err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "timeout"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, tc.gen)
			w := do(srv, httptest.NewRequest(http.MethodPost, "/v1/plans", strings.NewReader(tc.body)))
			if w.Code != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if code := errorCode(t, w); code != tc.code {
				t.Errorf("expected code=%s, got %s", tc.code, code)
			}
		})
	}
}

type failingGenerator struct{ err error }

func (f failingGenerator) Generate(ctx context.Context, p profiles.UserProfile) (*planner.Result, error) {
	return &planner.Result{Attempts: []acquisition.Attempt{{Number: 1}}}, f.err
}

const uploadCSV = `Name of the employee(s),Official Email address,Age,Gender,Current body Weight,Current Height (in cm),Diet type,Would you be interested in a personalized diet plan
Asha,asha@example.com,34,Female,62,160,Vegetarian,Yes
Ravi,ravi@example.com,45,Male,80,175,Vegetarian,No
Meena,meena@example.com,29,Female,55,158,Vegetarian,yes
`

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("csv", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

var (
	uploadIDRe = regexp.MustCompile(`name="upload_id" value="([0-9a-f-]{36})"`)
	bundleRe   = regexp.MustCompile(`href="/download/([0-9a-f-]{36})"`)
)

func TestUploadGenerateDownload(t *testing.T) {
	srv := newTestServer(t, mockPlanner())

	w := do(srv, uploadRequest(t, "survey.csv", uploadCSV))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := w.Body.String()
	assert.Contains(t, page, "Asha")
	assert.Contains(t, page, "Meena")
	assert.NotContains(t, page, "Ravi")

	m := uploadIDRe.FindStringSubmatch(page)
	require.NotNil(t, m, "upload id missing from selection page")

	w = do(srv, formRequest("/generate", url.Values{"upload_id": {m[1]}, "rows": {"ALL"}}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page = w.Body.String()
	assert.Contains(t, page, "2 of 2 plans generated")
	assert.Contains(t, page, "Asha.pdf")

	run := bundleRe.FindStringSubmatch(page)
	require.NotNil(t, run, "bundle link missing from results page")

	w = do(srv, httptest.NewRequest(http.MethodGet, "/download/"+run[1], nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	w = do(srv, httptest.NewRequest(http.MethodGet, "/download/"+run[1]+"/Meena.pdf", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = do(srv, httptest.NewRequest(http.MethodGet, "/v1/runs/"+run[1], nil))
	require.Equal(t, http.StatusOK, w.Code)
	var rep batch.Report
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rep))
	assert.Equal(t, run[1], rep.RunID)
	assert.Equal(t, 2, rep.Succeeded())
}

func TestGenerateSelectedRows(t *testing.T) {
	srv := newTestServer(t, mockPlanner())
	w := do(srv, uploadRequest(t, "survey.csv", uploadCSV))
	m := uploadIDRe.FindStringSubmatch(w.Body.String())
	require.NotNil(t, m)

	w = do(srv, formRequest("/generate", url.Values{"upload_id": {m[1]}, "rows": {"2"}}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "1 of 1 plans generated")

	w = do(srv, formRequest("/generate", url.Values{"upload_id": {m[1]}, "rows": {"1"}}))
	assert.Equal(t, http.StatusBadRequest, w.Code, "filtered-out row must be unknown")
}

func TestUploadRejections(t *testing.T) {
	srv := newTestServer(t, mockPlanner())

	w := do(srv, uploadRequest(t, "survey.xlsx", uploadCSV))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Only .csv files")

	w = do(srv, uploadRequest(t, "empty.csv", "Name,Would you be interested in a personalized diet plan\nA,No\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	big := strings.Repeat("x", 2<<20)
	w = do(srv, uploadRequest(t, "big.csv", big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestGenerateUnknownUpload(t *testing.T) {
	srv := newTestServer(t, mockPlanner())
	w := do(srv, formRequest("/generate", url.Values{"upload_id": {"nope"}, "rows": {"ALL"}}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadErrors(t *testing.T) {
	srv := newTestServer(t, mockPlanner())

	w := do(srv, httptest.NewRequest(http.MethodGet, "/download/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	missing := "0b7c2f4e-4f2a-4a53-9d8e-3f1c0d6a2b11"
	w = do(srv, httptest.NewRequest(http.MethodGet, "/download/"+missing, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(srv, httptest.NewRequest(http.MethodGet, "/download/"+missing+"/report.json", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(srv, httptest.NewRequest(http.MethodGet, "/v1/runs/"+missing, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", errorCode(t, w))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, mockPlanner())
	do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	w := do(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `dietplan_http_requests_total{code="200",method="GET"} 1`)
}

func TestUploadStoreExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	s := newUploadStore(time.Hour, 2)
	s.now = func() time.Time { return now }

	a := s.put("a.csv", &batch.Survey{})
	now = now.Add(time.Minute)
	b := s.put("b.csv", &batch.Survey{})
	now = now.Add(time.Minute)
	s.put("c.csv", &batch.Survey{})

	_, ok := s.get(a.ID)
	assert.False(t, ok, "oldest upload evicted past the limit")
	_, ok = s.get(b.ID)
	assert.True(t, ok)

	now = now.Add(2 * time.Hour)
	_, ok = s.get(b.ID)
	assert.False(t, ok, "upload expired")
}
