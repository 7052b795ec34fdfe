package settlement

import (
	"fmt"
	"strings"
	"time"

	"github.com/settle-hub/settle-hub/internal/domain/message"
	"github.com/settle-hub/settle-hub/internal/domain/settlement"
)

// RenderStatusText produces the exact chat text for a settlement status
// message. Pure function; the manager calls it before every message store
// write so the progress text stays reproducible independent of storage and
// transport.
func RenderStatusText(kind message.Kind, completed, total int, acct settlement.StoreAccount, amountPerPerson int64, deadline time.Time) string {
	var b strings.Builder

	switch kind {
	case message.KindSettlementStart:
		b.WriteString("💸 정산이 시작되었어요\n")
	default:
		b.WriteString("💸 정산 진행 중\n")
	}

	fmt.Fprintf(&b, "%s %s (%s)\n", acct.BankName, acct.AccountNumber, acct.HolderName)
	fmt.Fprintf(&b, "1인당 %s원\n", formatAmount(amountPerPerson))
	fmt.Fprintf(&b, "진행 상황: %d/%d\n", completed, total)
	fmt.Fprintf(&b, "마감: %s", deadline.Format("2006-01-02 15:04"))

	return b.String()
}

// formatAmount renders a smallest-unit amount with thousands separators,
// e.g. 5000 -> "5,000".
func formatAmount(v int64) string {
	s := fmt.Sprintf("%d", v)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
