package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BlobModeLocal = "local"
	BlobModeS3    = "s3"
	BlobModeAuto  = "auto"
)

const (
	AIModeMock   = "mock"
	AIModeOpenAI = "openai"
	AIModeGemini = "gemini"
)

const DefaultSystemInstruction = "You return only valid JSON diet plans."

type S3Config struct {
	Endpoint          string
	Region            string
	Bucket            string
	AccessKeyID       string
	SecretAccessKey   string
	PublicBaseURL     string
	PresignTTLSeconds int
}

func (c S3Config) MissingRequired() []string {
	missing := make([]string, 0, 6)
	if strings.TrimSpace(c.Endpoint) == "" {
		missing = append(missing, "S3_ENDPOINT")
	}
	if strings.TrimSpace(c.Region) == "" {
		missing = append(missing, "S3_REGION")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if strings.TrimSpace(c.AccessKeyID) == "" {
		missing = append(missing, "S3_ACCESS_KEY_ID")
	}
	if strings.TrimSpace(c.SecretAccessKey) == "" {
		missing = append(missing, "S3_SECRET_ACCESS_KEY")
	}
	return missing
}

func (c S3Config) IsConfigured() bool {
	return len(c.MissingRequired()) == 0
}

func (c S3Config) Diagnostics() (level string, code string, msg string) {
	allEmpty := strings.TrimSpace(c.Endpoint) == "" &&
		strings.TrimSpace(c.Region) == "" &&
		strings.TrimSpace(c.Bucket) == "" &&
		strings.TrimSpace(c.AccessKeyID) == "" &&
		strings.TrimSpace(c.SecretAccessKey) == ""

	if allEmpty {
		return "INFO", "s3_not_configured", "not configured (all empty)"
	}

	missing := c.MissingRequired()
	if len(missing) > 0 {
		return "WARN", "s3_partial_config", fmt.Sprintf("partial config, missing=%v", missing)
	}

	return "INFO", "s3_ready", "ready"
}

// DiagnosticsSummary returns a one-line description of the S3 settings without secrets.
func (c S3Config) DiagnosticsSummary() string {
	return fmt.Sprintf("endpoint=%s region=%s bucket=%s public_base_url=%s presign_ttl=%ds access_key_id=%s secret_access_key=%s",
		nonEmptyOrDash(c.Endpoint),
		nonEmptyOrDash(c.Region),
		nonEmptyOrDash(c.Bucket),
		nonEmptyOrDash(c.PublicBaseURL),
		c.PresignTTLSeconds,
		setOrNot(c.AccessKeyID),
		setOrNot(c.SecretAccessKey),
	)
}

func nonEmptyOrDash(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "-"
	}
	return v
}

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

type BlobConfig struct {
	Mode      string // local|s3|auto
	OutputDir string // root for the local store
	S3        S3Config
}

// AcquisitionConfig bounds the call/validate/retry loop.
type AcquisitionConfig struct {
	MaxAttempts          int
	MaxTransientAttempts int
	BaseBackoff          time.Duration
	MaxBackoff           time.Duration
	JitterFraction       float64
	CalorieToleranceKcal float64
	MinDaysWithin        int
}

// GateConfig describes the process-wide spacing between generative-service calls.
type GateConfig struct {
	MaxCallsPerMinute int
	Safety            time.Duration
}

// Interval is the minimum delay between two calls: 60s/N plus the safety margin.
func (g GateConfig) Interval() time.Duration {
	if g.MaxCallsPerMinute <= 0 {
		return 0
	}
	return time.Minute/time.Duration(g.MaxCallsPerMinute) + g.Safety
}

type Config struct {
	Env      string // local | staging | production
	Port     int
	LogLevel string

	// CORS
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	// Rate Limiting (HTTP, per IP)
	RateLimitRPS   int
	RateLimitBurst int

	Blob BlobConfig

	UploadMaxMB int

	// Catalog
	CatalogPath     string
	CatalogSlotCap  int
	PlanTimeoutSecs int

	// AI
	AIMode              string // mock | openai | gemini
	AIMaxOutputTokens   int
	AITemperature       float64
	AITimeoutSeconds    int
	AISystemInstruction string
	OpenAIAPIKey        string
	OpenAIModel         string
	OpenAIBaseURL       string
	GeminiAPIKey        string
	GeminiModel         string

	Gate        GateConfig
	Acquisition AcquisitionConfig
}

// PlanTimeout is the caller-level time limit for one user's plan, relaxation steps included.
func (c *Config) PlanTimeout() time.Duration {
	if c.PlanTimeoutSecs <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.PlanTimeoutSecs) * time.Second
}

// ModelName returns the model id used by the active AI mode.
func (c *Config) ModelName() string {
	switch c.AIMode {
	case AIModeOpenAI:
		return c.OpenAIModel
	case AIModeGemini:
		return c.GeminiModel
	default:
		return "mock"
	}
}

// Load reads configuration from the environment.
func Load() *Config {
	// APP_ENV (fallback to ENV for backward compat, default: local)
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = os.Getenv("ENV")
	}
	if env == "" {
		env = "local"
	}

	port := envInt("PORT", 8080)

	logLevel := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if logLevel == "" {
		logLevel = "debug"
	}

	// ---------- CORS ----------
	corsOrigins := parseCORSOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"), env)
	corsAllowCreds := parseBoolEnv("CORS_ALLOW_CREDENTIALS")

	// ---------- Rate Limiting ----------
	rateLimitRPS := envInt("RATE_LIMIT_RPS", 0)
	rateLimitBurst := envInt("RATE_LIMIT_BURST", 0)

	// ---------- Blob / S3 ----------
	blobMode := parseBlobMode("BLOB_MODE", BlobModeLocal)

	s3PresignTTL := envInt("S3_PRESIGN_TTL_SECONDS", 900)
	if s3PresignTTL <= 0 {
		s3PresignTTL = 900
	}

	outputDir := strings.TrimSpace(os.Getenv("OUTPUT_DIR"))
	if outputDir == "" {
		outputDir = "generated_plans"
	}

	blobCfg := BlobConfig{
		Mode:      blobMode,
		OutputDir: outputDir,
		S3: S3Config{
			Endpoint:          strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
			Region:            strings.TrimSpace(os.Getenv("S3_REGION")),
			Bucket:            strings.TrimSpace(os.Getenv("S3_BUCKET")),
			AccessKeyID:       strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
			SecretAccessKey:   strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
			PublicBaseURL:     strings.TrimSpace(os.Getenv("S3_PUBLIC_BASE_URL")),
			PresignTTLSeconds: s3PresignTTL,
		},
	}

	uploadMaxMB := envInt("UPLOAD_MAX_MB", 10)
	if uploadMaxMB <= 0 {
		uploadMaxMB = 10
	}

	// ---------- Catalog ----------
	catalogPath := strings.TrimSpace(os.Getenv("CATALOG_PATH"))
	if catalogPath == "" {
		catalogPath = "data/dishes.csv"
	}
	slotCap := envInt("CATALOG_SLOT_CAP", 25)
	if slotCap <= 0 {
		log.Printf("WARNING: CATALOG_SLOT_CAP=%d must be positive, fallback to 25", slotCap)
		slotCap = 25
	}
	planTimeout := envInt("PLAN_TIMEOUT_SECONDS", 900)

	// ---------- AI ----------
	aiMode := strings.ToLower(strings.TrimSpace(os.Getenv("AI_MODE")))
	if aiMode == "" {
		aiMode = AIModeMock
	}
	if aiMode != AIModeMock && aiMode != AIModeOpenAI && aiMode != AIModeGemini {
		log.Printf("WARNING: unknown AI_MODE=%q, fallback to mock", aiMode)
		aiMode = AIModeMock
	}

	aiMaxOutputTokens := envInt("AI_MAX_OUTPUT_TOKENS", 4096)
	if aiMaxOutputTokens <= 0 {
		aiMaxOutputTokens = 4096
	}

	aiTemperature := envFloat("AI_TEMPERATURE", 0.2)
	if aiTemperature < 0 {
		aiTemperature = 0
	}
	if aiTemperature > 2 {
		aiTemperature = 2
	}

	aiTimeoutSeconds := envInt("AI_TIMEOUT_SECONDS", 90)
	if aiTimeoutSeconds <= 0 {
		aiTimeoutSeconds = 90
	}

	systemInstruction := strings.TrimSpace(os.Getenv("AI_SYSTEM_INSTRUCTION"))
	if systemInstruction == "" {
		systemInstruction = DefaultSystemInstruction
	}

	openAIAPIKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	openAIModel := strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if openAIModel == "" {
		openAIModel = "gpt-4.1-mini"
	}
	openAIBaseURL := strings.TrimRight(strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")), "/")
	if openAIBaseURL == "" {
		openAIBaseURL = "https://api.openai.com/v1"
	}

	geminiAPIKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	geminiModel := strings.TrimSpace(os.Getenv("GEMINI_MODEL"))
	if geminiModel == "" {
		geminiModel = "gemini-1.5-flash"
	}

	if aiMode == AIModeOpenAI && openAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY is required when AI_MODE=openai")
	}
	if aiMode == AIModeGemini && geminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY is required when AI_MODE=gemini")
	}

	// ---------- Gate ----------
	maxCallsPerMinute := envInt("AI_MAX_CALLS_PER_MINUTE", 3)
	if maxCallsPerMinute < 0 {
		maxCallsPerMinute = 0
	}
	gateSafety := envInt("AI_CALL_SAFETY_SECONDS", 2)
	if gateSafety < 0 {
		gateSafety = 0
	}

	// ---------- Acquisition ----------
	acq := AcquisitionConfig{
		MaxAttempts:          envInt("ACQ_MAX_ATTEMPTS", 5),
		MaxTransientAttempts: envInt("ACQ_MAX_TRANSIENT_ATTEMPTS", 3),
		BaseBackoff:          envMillis("ACQ_BASE_BACKOFF_MS", 2000),
		MaxBackoff:           envMillis("ACQ_MAX_BACKOFF_MS", 60000),
		JitterFraction:       envFloat("ACQ_JITTER_FRACTION", 0.2),
		CalorieToleranceKcal: envFloat("ACQ_CALORIE_TOLERANCE_KCAL", 150),
		MinDaysWithin:        envInt("ACQ_MIN_DAYS_WITHIN", 4),
	}
	acq = acq.normalized()

	return &Config{
		Env:      env,
		Port:     port,
		LogLevel: logLevel,

		CORSAllowedOrigins:   corsOrigins,
		CORSAllowCredentials: corsAllowCreds,

		RateLimitRPS:   rateLimitRPS,
		RateLimitBurst: rateLimitBurst,

		Blob:        blobCfg,
		UploadMaxMB: uploadMaxMB,

		CatalogPath:     catalogPath,
		CatalogSlotCap:  slotCap,
		PlanTimeoutSecs: planTimeout,

		AIMode:              aiMode,
		AIMaxOutputTokens:   aiMaxOutputTokens,
		AITemperature:       aiTemperature,
		AITimeoutSeconds:    aiTimeoutSeconds,
		AISystemInstruction: systemInstruction,
		OpenAIAPIKey:        openAIAPIKey,
		OpenAIModel:         openAIModel,
		OpenAIBaseURL:       openAIBaseURL,
		GeminiAPIKey:        geminiAPIKey,
		GeminiModel:         geminiModel,

		Gate: GateConfig{
			MaxCallsPerMinute: maxCallsPerMinute,
			Safety:            time.Duration(gateSafety) * time.Second,
		},
		Acquisition: acq,
	}
}

// DefaultAcquisition returns the acquisition bounds used when nothing is configured.
func DefaultAcquisition() AcquisitionConfig {
	return AcquisitionConfig{
		MaxAttempts:          5,
		MaxTransientAttempts: 3,
		BaseBackoff:          2 * time.Second,
		MaxBackoff:           time.Minute,
		JitterFraction:       0.2,
		CalorieToleranceKcal: 150,
		MinDaysWithin:        4,
	}
}

func (a AcquisitionConfig) normalized() AcquisitionConfig {
	def := DefaultAcquisition()
	if a.MaxAttempts <= 0 {
		log.Printf("WARNING: ACQ_MAX_ATTEMPTS=%d must be positive, fallback to %d", a.MaxAttempts, def.MaxAttempts)
		a.MaxAttempts = def.MaxAttempts
	}
	if a.MaxTransientAttempts <= 0 {
		a.MaxTransientAttempts = def.MaxTransientAttempts
	}
	if a.MaxTransientAttempts > a.MaxAttempts {
		a.MaxTransientAttempts = a.MaxAttempts
	}
	if a.BaseBackoff < 0 {
		a.BaseBackoff = def.BaseBackoff
	}
	if a.MaxBackoff < a.BaseBackoff {
		a.MaxBackoff = a.BaseBackoff
	}
	if a.JitterFraction < 0 || a.JitterFraction > 1 {
		log.Printf("WARNING: ACQ_JITTER_FRACTION=%v out of [0,1], fallback to %v", a.JitterFraction, def.JitterFraction)
		a.JitterFraction = def.JitterFraction
	}
	if a.CalorieToleranceKcal <= 0 {
		a.CalorieToleranceKcal = def.CalorieToleranceKcal
	}
	if a.MinDaysWithin <= 0 || a.MinDaysWithin > 7 {
		log.Printf("WARNING: ACQ_MIN_DAYS_WITHIN=%d out of 1..7, fallback to %d", a.MinDaysWithin, def.MinDaysWithin)
		a.MinDaysWithin = def.MinDaysWithin
	}
	return a
}

// parseCORSOrigins parses CORS_ALLOWED_ORIGINS env var.
// In local mode, defaults to localhost origins if empty.
func parseCORSOrigins(raw, env string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if env == "local" {
			return []string{"http://localhost:3000", "http://localhost:8080"}
		}
		return nil
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func parseBlobMode(key string, defaultVal string) string {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if mode == "" {
		return defaultVal
	}
	switch mode {
	case BlobModeLocal, BlobModeS3, BlobModeAuto:
		return mode
	default:
		log.Printf("WARNING: unknown %s=%q, fallback to %s", key, mode, defaultVal)
		return defaultVal
	}
}

// envInt reads an int env var with a default value.
func envInt(key string, defaultVal int) int {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("WARNING: invalid %s=%q, fallback to %d", key, s, defaultVal)
		return defaultVal
	}
	return v
}

func envFloat(key string, defaultVal float64) float64 {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return defaultVal
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Printf("WARNING: invalid %s=%q, fallback to %v", key, s, defaultVal)
		return defaultVal
	}
	return v
}

func envMillis(key string, defaultMillis int) time.Duration {
	return time.Duration(envInt(key, defaultMillis)) * time.Millisecond
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
