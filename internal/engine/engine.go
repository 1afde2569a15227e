// Package engine turns a (source, title, text) notification triple into at
// most one transaction record by evaluating the live rule set. Classification
// is pure pattern matching: no I/O, nothing blocking, safe to call on the
// event delivery path.
package engine

import (
	"log"
	"strconv"
	"strings"
	"time"

	"BankSentinel/internal/model"
)

// Direction keywords for "auto" rules whose amount pattern carries no sign
// group. Expense keywords take precedence when both appear.
var (
	expenseKeywords = []string{"trừ", "ghi nợ", "chi"}
	incomeKeywords  = []string{"cộng", "ghi có", "nhận"}
)

// descriptionLimit caps the default description taken from the raw text.
const descriptionLimit = 100

// Both thousands and decimal separators are stripped identically before the
// numeric parse: the rule documents describe integer-valued VND amounts.
var separatorReplacer = strings.NewReplacer(",", "", ".", "")

// Classify locates the bank definition for sourceKey and evaluates its rules
// in declared order, returning the record from the first rule that matches,
// or nil when the event is unsupported, ignored or matched by no rule.
func Classify(rs *model.RuleSet, sourceKey, title, text string) *model.TransactionRecord {
	bank, ok := rs.Lookup(sourceKey)
	if !ok {
		return nil
	}

	fullText := title + " " + text

	// Global ignore check dominates everything else: OTP codes, promotions
	// and other noise never reach rule evaluation.
	folded := strings.ToLower(fullText)
	for _, ignore := range rs.IgnorePatterns {
		if strings.Contains(folded, ignore) {
			log.Printf("[DEBUG] %s: ignored, matched global ignore pattern %q", bank.Name, ignore)
			return nil
		}
	}

	if bank.TitleFilter != nil && !bank.TitleFilter.Search(title) {
		log.Printf("[DEBUG] %s: ignored, title does not match filter", bank.Name)
		return nil
	}

	for i := range bank.Rules {
		if rec := applyRule(bank, &bank.Rules[i], title, text, fullText, folded); rec != nil {
			log.Printf("[DEBUG] %s: matched rule %q", bank.Name, rec.RuleName)
			return rec
		}
	}

	log.Printf("[DEBUG] %s: no rule matched: %s | %s", bank.Name, title, text)
	return nil
}

func applyRule(bank *model.BankDefinition, rule *model.NotificationRule, title, text, fullText, folded string) *model.TransactionRecord {
	if rule.TitleMatch != nil && !rule.TitleMatch.Search(title) {
		return nil
	}
	if rule.BodyMatch != nil && !rule.BodyMatch.Search(fullText) {
		return nil
	}
	if rule.BodyExclude != nil && rule.BodyExclude.Search(fullText) {
		return nil
	}

	// A rule without an amount pattern can never match; it is effectively
	// disabled, not an error.
	if rule.AmountPattern == nil {
		return nil
	}
	match, ok := rule.AmountPattern.Find(fullText)
	if !ok {
		return nil
	}

	txType, amount, ok := resolveAmount(rule, match, folded)
	if !ok {
		return nil
	}
	if amount <= 0 {
		return nil
	}

	description := defaultDescription(text)
	if rule.DescriptionPattern != nil {
		if m, found := rule.DescriptionPattern.Find(fullText); found && len(m) > 1 {
			if desc := strings.TrimSpace(m[1]); desc != "" {
				description = desc
			}
		}
	}

	return &model.TransactionRecord{
		Source:      bank.ID,
		Type:        txType,
		Amount:      amount,
		Description: description,
		RawTitle:    title,
		RawText:     text,
		BankName:    bank.Name,
		RuleName:    rule.Name,
		Timestamp:   time.Now(),
	}
}

// resolveAmount extracts the numeric amount and resolves the transaction
// direction according to the rule's declared type and the shape of its
// amount pattern.
func resolveAmount(rule *model.NotificationRule, match []string, folded string) (model.TransactionType, float64, bool) {
	groups := rule.AmountPattern.Groups()

	if rule.Type != model.TypeAuto {
		// Fixed direction: group 1 is the amount.
		if groups < 1 {
			return "", 0, false
		}
		amount, ok := parseAmount(match[1])
		if !ok {
			return "", 0, false
		}
		return rule.Type, amount, true
	}

	switch {
	case groups >= 3 || (groups == 2 && isSignToken(match[1])):
		// Groups encode (sign)(amount)(currency), or just (sign)(amount)
		// when the rule leaves the currency token uncaptured. A missing
		// sign group counts as "-", the common case for expense-only
		// layouts.
		sign := match[1]
		if sign == "" {
			sign = "-"
		}
		amount, ok := parseAmount(match[2])
		if !ok {
			return "", 0, false
		}
		if sign == "-" {
			return model.TypeExpense, amount, true
		}
		return model.TypeIncome, amount, true

	case groups >= 1:
		// No sign group: amount is group 1, direction comes from keywords
		// in the folded text, defaulting to expense.
		amount, ok := parseAmount(match[1])
		if !ok {
			return "", 0, false
		}
		return keywordDirection(folded), amount, true

	default:
		// No capture groups at all: the amount cannot be resolved.
		return "", 0, false
	}
}

// isSignToken reports whether a captured value is a sign marker rather than
// an amount. An empty value means the optional sign group did not
// participate.
func isSignToken(s string) bool {
	return s == "" || s == "-" || s == "+"
}

func keywordDirection(folded string) model.TransactionType {
	for _, kw := range expenseKeywords {
		if strings.Contains(folded, kw) {
			return model.TypeExpense
		}
	}
	for _, kw := range incomeKeywords {
		if strings.Contains(folded, kw) {
			return model.TypeIncome
		}
	}
	return model.TypeExpense
}

func parseAmount(raw string) (float64, bool) {
	cleaned := separatorReplacer.Replace(raw)
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

func defaultDescription(text string) string {
	runes := []rune(text)
	if len(runes) > descriptionLimit {
		return string(runes[:descriptionLimit])
	}
	return text
}
