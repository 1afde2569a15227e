package notifier

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"BankSentinel/internal/model"
)

// FormatRecordSummary renders a record as a short display line, e.g.
// "💸 Vietcombank -50,000 ₫ | Thanh toan tai ABC".
func FormatRecordSummary(rec *model.TransactionRecord) string {
	var b strings.Builder

	if rec.Type == model.TypeIncome {
		b.WriteString("💰 ")
	} else {
		b.WriteString("💸 ")
	}
	b.WriteString(rec.BankName)

	sign := "-"
	if rec.Type == model.TypeIncome {
		sign = "+"
	}
	b.WriteString(fmt.Sprintf(" %s%s ₫", sign, humanize.Commaf(rec.Amount)))

	if rec.Description != "" {
		b.WriteString(" | ")
		b.WriteString(rec.Description)
	}

	return b.String()
}
