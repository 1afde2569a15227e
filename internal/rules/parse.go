package rules

import (
	"encoding/json"
	"fmt"
	"strings"

	"BankSentinel/internal/model"
)

// Wire shape of the remote rule-set document.
type ruleDocument struct {
	Banks                []bankEntry `json:"banks"`
	GlobalIgnorePatterns []string    `json:"globalIgnorePatterns"`
}

type bankEntry struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	PackageName string      `json:"packageName"`
	Enabled     *bool       `json:"enabled"`
	TitleFilter string      `json:"titleFilter"`
	Rules       []ruleEntry `json:"rules"`
}

type ruleEntry struct {
	Name               string `json:"name"`
	Type               string `json:"type"`
	TitleMatch         string `json:"titleMatch"`
	BodyMatch          string `json:"bodyMatch"`
	BodyExclude        string `json:"bodyExclude"`
	AmountPattern      string `json:"amountPattern"`
	DescriptionPattern string `json:"descriptionPattern"`
}

// ParseDocument parses a rule-set document into an immutable RuleSet.
// Disabled banks are dropped from the result entirely. Empty or literal
// "null" pattern strings count as absent fields; a non-empty pattern that
// fails to compile invalidates the whole document, so a broken remote
// document can never partially replace a good one.
func ParseDocument(data []byte) (*model.RuleSet, error) {
	var doc ruleDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode rule document: %w", err)
	}

	banks := make([]*model.BankDefinition, 0, len(doc.Banks))
	for i, entry := range doc.Banks {
		bank, err := parseBank(entry)
		if err != nil {
			return nil, fmt.Errorf("bank %d: %w", i, err)
		}
		if !bank.Enabled {
			continue
		}
		banks = append(banks, bank)
	}

	ignore := make([]string, 0, len(doc.GlobalIgnorePatterns))
	for _, p := range doc.GlobalIgnorePatterns {
		ignore = append(ignore, strings.ToLower(p))
	}

	return model.NewRuleSet(banks, ignore), nil
}

func parseBank(entry bankEntry) (*model.BankDefinition, error) {
	if entry.ID == "" {
		return nil, fmt.Errorf("missing id")
	}
	if entry.Name == "" {
		return nil, fmt.Errorf("bank %q: missing name", entry.ID)
	}
	if entry.PackageName == "" {
		return nil, fmt.Errorf("bank %q: missing packageName", entry.ID)
	}
	if entry.Rules == nil {
		return nil, fmt.Errorf("bank %q: missing rules", entry.ID)
	}

	titleFilter, err := compileOptional(entry.TitleFilter)
	if err != nil {
		return nil, fmt.Errorf("bank %q: titleFilter: %w", entry.ID, err)
	}

	rules := make([]model.NotificationRule, 0, len(entry.Rules))
	for i, re := range entry.Rules {
		rule, err := parseRule(re)
		if err != nil {
			return nil, fmt.Errorf("bank %q: rule %d: %w", entry.ID, i, err)
		}
		rules = append(rules, rule)
	}

	enabled := true
	if entry.Enabled != nil {
		enabled = *entry.Enabled
	}

	return &model.BankDefinition{
		ID:          entry.ID,
		Name:        entry.Name,
		PackageName: entry.PackageName,
		Enabled:     enabled,
		TitleFilter: titleFilter,
		Rules:       rules,
	}, nil
}

func parseRule(entry ruleEntry) (model.NotificationRule, error) {
	ruleType, err := parseType(entry.Type)
	if err != nil {
		return model.NotificationRule{}, err
	}

	rule := model.NotificationRule{
		Name: entry.Name,
		Type: ruleType,
	}

	if rule.TitleMatch, err = compileOptional(entry.TitleMatch); err != nil {
		return model.NotificationRule{}, fmt.Errorf("titleMatch: %w", err)
	}
	if rule.BodyMatch, err = compileOptional(entry.BodyMatch); err != nil {
		return model.NotificationRule{}, fmt.Errorf("bodyMatch: %w", err)
	}
	if rule.BodyExclude, err = compileOptional(entry.BodyExclude); err != nil {
		return model.NotificationRule{}, fmt.Errorf("bodyExclude: %w", err)
	}
	if rule.AmountPattern, err = compileOptional(entry.AmountPattern); err != nil {
		return model.NotificationRule{}, fmt.Errorf("amountPattern: %w", err)
	}
	if rule.DescriptionPattern, err = compileOptional(entry.DescriptionPattern); err != nil {
		return model.NotificationRule{}, fmt.Errorf("descriptionPattern: %w", err)
	}

	return rule, nil
}

func parseType(s string) (model.TransactionType, error) {
	switch s {
	case "":
		return model.TypeAuto, nil
	case string(model.TypeAuto):
		return model.TypeAuto, nil
	case string(model.TypeExpense):
		return model.TypeExpense, nil
	case string(model.TypeIncome):
		return model.TypeIncome, nil
	default:
		return "", fmt.Errorf("unknown rule type %q", s)
	}
}

// compileOptional treats empty and literal "null" strings as field absent,
// which is how sloppy rule documents encode missing patterns.
func compileOptional(expr string) (*model.Pattern, error) {
	if expr == "" || expr == "null" {
		return nil, nil
	}
	return model.CompilePattern(expr)
}
