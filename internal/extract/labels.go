package extract

import "fmt"

// Rule selects how a value is taken from the candidates next to a label.
type Rule string

const (
	RuleText         Rule = "text"
	RuleModel        Rule = "model"
	RuleNumeric      Rule = "numeric"
	RuleCurrency     Rule = "currency"
	RuleDualCurrency Rule = "dual_currency"
)

// Field names produced by the default label table.
const (
	FieldCustomer = "고객명"
	FieldModel    = "대여차종"
	FieldPeriod   = "대여기간"
	FieldFee      = "월대여료"
	FieldPrice    = "차량 소비자 가격"
	FieldDeposit  = "보증금 / 선납금"
)

// LabelSpec maps a field to the label strings that mark it in a document.
type LabelSpec struct {
	Field    string   `yaml:"field" json:"field"`
	Synonyms []string `yaml:"synonyms" json:"synonyms"`
	Rule     Rule     `yaml:"rule" json:"rule"`
}

// DefaultLabels is the label table of the Lotte rental quotation.
func DefaultLabels() []LabelSpec {
	return []LabelSpec{
		{Field: FieldCustomer, Synonyms: []string{"고객명", "법인명"}, Rule: RuleText},
		{Field: FieldModel, Synonyms: []string{"대여차종"}, Rule: RuleModel},
		{Field: FieldPeriod, Synonyms: []string{"대여기간"}, Rule: RuleNumeric},
		{Field: FieldFee, Synonyms: []string{"월 대여료(VAT포함)(1)"}, Rule: RuleCurrency},
		{Field: FieldPrice, Synonyms: []string{"차량 소비자 가격", "차량소비자 가격"}, Rule: RuleCurrency},
		{Field: FieldDeposit, Synonyms: []string{"보증금 / 선납금"}, Rule: RuleDualCurrency},
	}
}

// ValidRule reports whether r is a known rule.
func ValidRule(r Rule) bool {
	switch r {
	case RuleText, RuleModel, RuleNumeric, RuleCurrency, RuleDualCurrency:
		return true
	}
	return false
}

func validateLabels(labels []LabelSpec) error {
	seen := make(map[string]struct{}, len(labels))
	for i, l := range labels {
		if l.Field == "" {
			return fmt.Errorf("label %d: field is required", i)
		}
		if _, dup := seen[l.Field]; dup {
			return fmt.Errorf("label %q: duplicate field", l.Field)
		}
		seen[l.Field] = struct{}{}
		if len(l.Synonyms) == 0 {
			return fmt.Errorf("label %q: at least one synonym is required", l.Field)
		}
		if !ValidRule(l.Rule) {
			return fmt.Errorf("label %q: unknown rule %q", l.Field, l.Rule)
		}
	}
	return nil
}
