package extract

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/contracts-tracker/internal/common"
)

// DefaultYTolerance is the maximum vertical-center distance (exclusive) between a label and its value.
const DefaultYTolerance = 5.0

var (
	reAmount    = regexp.MustCompile(`\d[\d,]*`)
	reAmountAll = regexp.MustCompile(`\d{1,3}(?:,\d{3})*|\d+`)
)

// Options tunes the proximity extractor. Zero values take the defaults.
type Options struct {
	YTolerance float64
	NotFound   string
	// DepositPair formats two amounts, DepositSingle one.
	DepositPair   string
	DepositSingle string
	Summarizer    *Summarizer
}

// Extractor locates labelled values by spatial proximity to their label.
type Extractor struct {
	labels []LabelSpec
	opts   Options
	logger *slog.Logger
}

// NewExtractor validates the label table and fills option defaults.
func NewExtractor(labels []LabelSpec, opts Options, logger *slog.Logger) (*Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := validateLabels(labels); err != nil {
		return nil, common.NewAppError(common.CodeConfig, err.Error(), common.ErrInvalidInput)
	}
	if opts.YTolerance <= 0 {
		opts.YTolerance = DefaultYTolerance
	}
	if opts.NotFound == "" {
		opts.NotFound = NotFound
	}
	if opts.DepositPair == "" {
		opts.DepositPair = "보증금: %s / 선납금: %s"
	}
	if opts.DepositSingle == "" {
		opts.DepositSingle = "보증금/선납금: %s"
	}
	if opts.Summarizer == nil {
		s, err := NewSummarizer(nil)
		if err != nil {
			return nil, err
		}
		opts.Summarizer = s
	}
	return &Extractor{labels: labels, opts: opts, logger: logger}, nil
}

// Labels returns the configured label table.
func (e *Extractor) Labels() []LabelSpec {
	return e.labels
}

// Extract resolves every configured field from one page of fragments.
// A panic anywhere in the scan discards the partial result and is returned as ErrExtraction.
func (e *Extractor) Extract(fragments []Fragment) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extract.panic", "recovered", r)
			res = Result{notFound: e.opts.NotFound}
			err = common.NewAppError(common.CodeExtraction,
				fmt.Sprintf("문서 처리 중 오류 발생: %v", r), common.ErrExtraction)
		}
	}()

	res = Result{Fields: make([]FieldValue, 0, len(e.labels)), notFound: e.opts.NotFound}
	for _, spec := range e.labels {
		fv := FieldValue{Field: spec.Field}
		if anchor, ok := findAnchor(spec.Synonyms, fragments); ok {
			fv.Value, fv.Found = e.selectValue(spec.Rule, e.candidates(anchor, fragments))
		}
		if !fv.Found {
			e.logger.Debug("extract.field.not_found", "field", spec.Field)
		}
		res.Fields = append(res.Fields, fv)
	}
	e.logger.Debug("extract.ok", "fragments", len(fragments), "found", res.FoundCount(), "fields", len(res.Fields))
	return res, nil
}

// findAnchor tries synonyms in listed order; within a synonym the first fragment in document order wins.
func findAnchor(synonyms []string, fragments []Fragment) (Fragment, bool) {
	for _, label := range synonyms {
		for _, f := range fragments {
			if strings.Contains(f.Text, label) {
				return f, true
			}
		}
	}
	return Fragment{}, false
}

// candidates are fragments right of the anchor on the same visual row, nearest first.
func (e *Extractor) candidates(anchor Fragment, fragments []Fragment) []Fragment {
	cy := anchor.Box.CenterY()
	var out []Fragment
	for _, f := range fragments {
		if f.Box.Left > anchor.Box.Right && math.Abs(f.Box.CenterY()-cy) < e.opts.YTolerance {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Box.Left < out[j].Box.Left })
	return out
}

func (e *Extractor) selectValue(rule Rule, cands []Fragment) (string, bool) {
	switch rule {
	case RuleNumeric:
		for _, c := range cands {
			if t := strings.TrimSpace(c.Text); isAllDigits(t) {
				return t, true
			}
		}
	case RuleCurrency:
		for _, c := range cands {
			if m := reAmount.FindString(c.Text); m != "" {
				return m, true
			}
		}
	case RuleDualCurrency:
		var amounts []string
		for _, c := range cands {
			amounts = append(amounts, reAmountAll.FindAllString(c.Text, -1)...)
		}
		switch {
		case len(amounts) >= 2:
			return fmt.Sprintf(e.opts.DepositPair, amounts[0], amounts[1]), true
		case len(amounts) == 1:
			return fmt.Sprintf(e.opts.DepositSingle, amounts[0]), true
		}
	case RuleModel:
		if len(cands) > 0 {
			return e.opts.Summarizer.Summarize(cands[0].Text), true
		}
	default:
		if len(cands) > 0 {
			return cands[0].Text, true
		}
	}
	return "", false
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
