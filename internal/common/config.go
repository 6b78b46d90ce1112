package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Ledger  LedgerConfig
	Server  ServerConfig
	OCR     OCRConfig
	Catalog CatalogConfig
}

// LedgerConfig selects and configures the ledger backend.
type LedgerConfig struct {
	Backend         string // xlsx | postgres | sqlite
	Path            string // workbook path (xlsx) or database file (sqlite)
	Sheet           string
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
	SerialWrites    bool
	WriteTimeout    time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr    string
	HTTPAddr    string
	CORSOrigins []string
	SessionTTL  time.Duration
}

// OCRConfig holds document-reading configuration
type OCRConfig struct {
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	TessdataDir   string
	DPI           int
}

// CatalogConfig points at the static YAML catalog. Empty path means built-in defaults.
type CatalogConfig struct {
	Path string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Ledger: LedgerConfig{
			Backend:         strings.ToLower(getEnv("LEDGER_BACKEND", "xlsx")),
			Path:            getEnv("LEDGER_PATH", "계약관리DB.xlsx"),
			Sheet:           getEnv("LEDGER_SHEET", "Sheet1"),
			DSN:             getEnv("DB_URL", ""),
			Table:           getEnv("LEDGER_TABLE", "ledger_cells"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			SerialWrites:    getEnvAsBool("LEDGER_SERIAL_WRITES", false),
			WriteTimeout:    getEnvAsDuration("LEDGER_WRITE_TIMEOUT", 30*time.Second),
		},
		Server: ServerConfig{
			GRPCAddr:    getEnv("GRPC_ADDR", ":8080"),
			HTTPAddr:    getEnv("HTTP_ADDR", ":8081"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"*"}),
			SessionTTL:  getEnvAsDuration("SESSION_TTL", 12*time.Hour),
		},
		OCR: OCRConfig{
			Pdftoppm:      getEnv("PDFTOPPM", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "kor+eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 150),
		},
		Catalog: CatalogConfig{
			Path: getEnv("CATALOG_PATH", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Ledger.Backend {
	case "xlsx", "sqlite":
		if c.Ledger.Path == "" {
			return NewAppError("CONFIG_ERROR", "LEDGER_PATH is required", ErrInvalidInput)
		}
	case "postgres":
		if c.Ledger.DSN == "" {
			return NewAppError("CONFIG_ERROR", "DB_URL is required for the postgres ledger", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "LEDGER_BACKEND must be one of xlsx, postgres, sqlite", ErrInvalidInput)
	}
	if c.Ledger.Backend != "xlsx" && c.Ledger.Table == "" {
		return NewAppError("CONFIG_ERROR", "LEDGER_TABLE is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.OCR.DPI <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_DPI must be positive", ErrInvalidInput)
	}
	return nil
}
