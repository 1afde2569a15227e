package model

import "sort"

// TransactionType classifies the direction of a transaction.
type TransactionType string

const (
	TypeExpense TransactionType = "expense"
	TypeIncome  TransactionType = "income"
	// TypeAuto means the direction is resolved per event, from the sign
	// capture group or from keywords in the notification text. It never
	// appears on an emitted record.
	TypeAuto TransactionType = "auto"
)

// NotificationRule matches one notification layout of a bank and describes
// how to extract a transaction from it.
type NotificationRule struct {
	Name        string
	Type        TransactionType
	TitleMatch  *Pattern // optional, must match the raw title
	BodyMatch   *Pattern // optional, must match title+" "+text
	BodyExclude *Pattern // optional, rejects the rule when it matches
	// AmountPattern carries 1-3 capture groups encoding sign/amount/currency
	// or amount only. A rule without it can never match.
	AmountPattern      *Pattern
	DescriptionPattern *Pattern // optional, group 1 overrides the description
}

// BankDefinition is one source's full configuration: identity, an optional
// title gate, and its ordered rules. Rule order is significant, the first
// matching rule wins.
type BankDefinition struct {
	ID          string
	Name        string
	PackageName string
	Enabled     bool
	TitleFilter *Pattern
	Rules       []NotificationRule
}

// RuleSet is the immutable, fully parsed rule collection. It is replaced
// wholesale on refresh and never mutated, so a classification in flight
// always sees one consistent snapshot.
type RuleSet struct {
	Banks []*BankDefinition
	// IgnorePatterns are case-folded substrings whose presence anywhere in
	// the folded title+text suppresses classification outright.
	IgnorePatterns []string

	bySource map[string]*BankDefinition
}

// NewRuleSet builds a rule set from enabled bank definitions. Disabled
// definitions must already be filtered out by the parser. When two
// definitions share a source key the later one wins, matching document
// order.
func NewRuleSet(banks []*BankDefinition, ignorePatterns []string) *RuleSet {
	index := make(map[string]*BankDefinition, len(banks))
	for _, b := range banks {
		index[b.PackageName] = b
	}
	return &RuleSet{
		Banks:          banks,
		IgnorePatterns: ignorePatterns,
		bySource:       index,
	}
}

// EmptyRuleSet returns a rule set that matches nothing. It is the state
// before any document has been loaded.
func EmptyRuleSet() *RuleSet {
	return NewRuleSet(nil, nil)
}

// Lookup returns the bank definition registered for a source key.
func (rs *RuleSet) Lookup(sourceKey string) (*BankDefinition, bool) {
	b, ok := rs.bySource[sourceKey]
	return b, ok
}

// SourceKeys returns the supported source keys in sorted order.
func (rs *RuleSet) SourceKeys() []string {
	keys := make([]string, 0, len(rs.bySource))
	for k := range rs.bySource {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
