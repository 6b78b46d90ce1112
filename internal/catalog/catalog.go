// Package catalog loads the static configuration: label synonyms, form options,
// mail settings and locale strings. It is read once at process start.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/contracts-tracker/internal/common"
	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
	"github.com/joseph-ayodele/contracts-tracker/internal/mail"
)

//go:embed default.yaml
var defaultYAML []byte

//go:embed schema.json
var schemaJSON []byte

type Mail struct {
	BaseURL   string `yaml:"base_url"`
	Recipient string `yaml:"recipient"`
}

type Locale struct {
	NotFound      string `yaml:"not_found"`
	DepositPair   string `yaml:"deposit_pair"`
	DepositSingle string `yaml:"deposit_single"`
	Additional    string `yaml:"additional"`
	Referral      string `yaml:"referral"`
}

// Catalog is the static configuration shared by every session.
type Catalog struct {
	LedgerName   string              `yaml:"ledger_name"`
	ExtractPage  int                 `yaml:"extract_page"`
	PreviewPage  int                 `yaml:"preview_page"`
	YTolerance   float64             `yaml:"y_tolerance"`
	ModelMarkers []string            `yaml:"model_markers"`
	Labels       []extract.LabelSpec `yaml:"labels"`
	Offices      []string            `yaml:"offices"`
	Channels     []string            `yaml:"channels"`
	Mail         Mail                `yaml:"mail"`
	Locale       Locale              `yaml:"locale"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog: %v", err))
	}
	return c
}

// Load reads path, or the built-in catalog when path is empty.
func Load(path string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		logger.Info("catalog.loaded", "source", "built-in")
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("read catalog %q", path), err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog.loaded", "source", path, "labels", len(c.Labels), "offices", len(c.Offices), "channels", len(c.Channels))
	return c, nil
}

// Parse validates YAML against the catalog schema and decodes it.
func Parse(data []byte) (*Catalog, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, common.NewAppError(common.CodeConfig, "catalog is not valid YAML", err)
	}
	if err := validate(raw); err != nil {
		return nil, common.NewAppError(common.CodeConfig, err.Error(), common.ErrInvalidInput)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, common.NewAppError(common.CodeConfig, "decode catalog", err)
	}
	c.applyDefaults()
	return &c, nil
}

func validate(raw any) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("catalog.json", bytes.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("catalog.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	// round-trip through JSON so numbers and maps have the types the validator expects
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("catalog does not match schema: %w", err)
	}
	return nil
}

func (c *Catalog) applyDefaults() {
	if c.LedgerName == "" {
		c.LedgerName = "계약관리DB"
	}
	if c.ExtractPage == 0 {
		c.ExtractPage = 2
	}
	if c.PreviewPage == 0 {
		c.PreviewPage = 2
	}
	if c.YTolerance == 0 {
		c.YTolerance = extract.DefaultYTolerance
	}
	if c.Locale.NotFound == "" {
		c.Locale.NotFound = extract.NotFound
	}
	defaults := mail.DefaultLabels()
	if c.Locale.Additional == "" {
		c.Locale.Additional = defaults.Additional
	}
	if c.Locale.Referral == "" {
		c.Locale.Referral = defaults.Referral
	}
}

// Extractor builds the proximity extractor described by the catalog.
func (c *Catalog) Extractor(logger *slog.Logger) (*extract.Extractor, error) {
	s, err := extract.NewSummarizer(c.ModelMarkers)
	if err != nil {
		return nil, common.NewAppError(common.CodeConfig, err.Error(), common.ErrInvalidInput)
	}
	return extract.NewExtractor(c.Labels, extract.Options{
		YTolerance:    c.YTolerance,
		NotFound:      c.Locale.NotFound,
		DepositPair:   c.Locale.DepositPair,
		DepositSingle: c.Locale.DepositSingle,
		Summarizer:    s,
	}, logger)
}

// Composer builds the mail-link composer described by the catalog.
func (c *Catalog) Composer() *mail.Composer {
	labels := mail.DefaultLabels()
	labels.Additional = c.Locale.Additional
	labels.Referral = c.Locale.Referral
	return mail.NewComposer(c.Mail.BaseURL, c.Mail.Recipient, &labels)
}

// ValidOffice reports whether office is one of the configured reception offices.
func (c *Catalog) ValidOffice(office string) bool {
	return slices.Contains(c.Offices, office)
}

// ValidChannel reports whether channel is one of the configured inflow channels.
func (c *Catalog) ValidChannel(channel string) bool {
	return slices.Contains(c.Channels, channel)
}
