// Package config loads runtime configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Scanner input modes.
const (
	ModeStdin  = "stdin"
	ModeDevice = "device"
	ModeHTTP   = "http"
)

// Config holds every knob of the scan pipeline.
type Config struct {
	Username string `env:"OURGROCERIES_USERNAME" validate:"required"`
	Password string `env:"OURGROCERIES_PASSWORD" validate:"required"`
	ListID   string `env:"OURGROCERIES_LIST_ID" validate:"required"`

	GroceryBaseURL string `env:"OURGROCERIES_BASE_URL" envDefault:"https://www.ourgroceries.com" validate:"required,url"`
	LookupBaseURL  string `env:"OPENFOODFACTS_BASE_URL" envDefault:"https://world.openfoodfacts.org" validate:"required,url"`
	UserAgent      string `env:"OPENFOODFACTS_USER_AGENT" envDefault:"BarcodeScannerGroceryList/0.1"`

	Mode         string        `env:"SCANNER_MODE" envDefault:"stdin" validate:"oneof=stdin device http"`
	DeviceName   string        `env:"SCANNER_DEVICE_NAME" envDefault:"barcode"`
	Grab         bool          `env:"SCANNER_GRAB" envDefault:"false"`
	PollInterval time.Duration `env:"SCANNER_POLL_INTERVAL" envDefault:"10ms" validate:"gt=0"`

	DebounceSeconds float64 `env:"DEBOUNCE_SECONDS" envDefault:"2" validate:"gte=0"`
	ItemNote        string  `env:"ITEM_NOTE" envDefault:"barcode scanned"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFile  string `env:"LOG_FILE"`

	QueueURL         string `env:"SCAN_QUEUE_URL"`
	HistoryTable     string `env:"SCAN_HISTORY_TABLE"`
	MetricsNamespace string `env:"METRICS_NAMESPACE"`
}

// Debounce returns the debounce window as a duration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceSeconds * float64(time.Second))
}

// UsesAWS reports whether any AWS-backed component is enabled.
func (c Config) UsesAWS() bool {
	return c.QueueURL != "" || c.HistoryTable != "" || c.MetricsNamespace != ""
}

// Load reads an optional .env file and then parses the process environment.
// Values already present in the environment win over the .env file.
func Load(dotenvFiles ...string) (Config, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks required credentials and value ranges. The returned error names every
// offending environment variable.
func (c Config) Validate() error {
	v := validatorv10.New()
	err := v.Struct(c)
	if err == nil {
		return nil
	}
	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	problems := make([]string, 0, len(ve))
	for _, fe := range ve {
		name := envName(fe.StructField())
		if fe.Tag() == "required" {
			problems = append(problems, name+" is not set")
			continue
		}
		problems = append(problems, fmt.Sprintf("%s is invalid (%s)", name, fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

var envNames = map[string]string{
	"Username":        "OURGROCERIES_USERNAME",
	"Password":        "OURGROCERIES_PASSWORD",
	"ListID":          "OURGROCERIES_LIST_ID",
	"GroceryBaseURL":  "OURGROCERIES_BASE_URL",
	"LookupBaseURL":   "OPENFOODFACTS_BASE_URL",
	"Mode":            "SCANNER_MODE",
	"PollInterval":    "SCANNER_POLL_INTERVAL",
	"DebounceSeconds": "DEBOUNCE_SECONDS",
	"LogLevel":        "LOG_LEVEL",
}

func envName(field string) string {
	if n, ok := envNames[field]; ok {
		return n
	}
	return field
}
