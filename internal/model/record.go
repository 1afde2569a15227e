package model

import "time"

// TransactionRecord is the classified output for one notification event.
// Type is always TypeExpense or TypeIncome and Amount is always positive;
// the matcher never emits anything else.
type TransactionRecord struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	RawTitle    string          `json:"rawTitle"`
	RawText     string          `json:"rawText"`
	BankName    string          `json:"bankName"`
	RuleName    string          `json:"ruleName"`
	// Timestamp is the processing time of the event, not the time the
	// message claims the transaction happened.
	Timestamp time.Time `json:"timestamp"`
}
