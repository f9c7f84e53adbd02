package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/jasonb194/MAMManager/internal/model"
)

var actionLabels = map[model.ActionName]string{
	model.ActionDonateVault: "Donate to vault",
	model.ActionBuyVIP:      "Buy VIP",
	model.ActionBuyCredit:   "Buy upload credit",
}

// FormatStatusReport formats the latest account snapshot plus the
// automation state for display.
func FormatStatusReport(snap *model.AccountSnapshot, st model.AutomationState, fetchErr error) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📚 <b>MAM status</b> | %s UTC\n\n", time.Now().UTC().Format("2006-01-02 15:04")))
	if snap == nil {
		b.WriteString("No account snapshot yet.\n")
	} else {
		b.WriteString(fmt.Sprintf("User: <b>%s</b> (%s)\n", snap.Username, snap.Classname))
		b.WriteString(fmt.Sprintf("Ratio: %.2f\n", snap.Ratio))
		b.WriteString(fmt.Sprintf("Up: %s | Down: %s\n", snap.Uploaded, snap.Downloaded))
		b.WriteString(fmt.Sprintf("Seedbonus: %d | Wedges: %d\n", snap.Seedbonus, snap.Wedges))
		b.WriteString(fmt.Sprintf("Notifications: %d\n", snap.Notifications))
		b.WriteString(fmt.Sprintf("Donated today: %v\n", snap.DonatedToday))
		b.WriteString(fmt.Sprintf("Fetched: %s UTC\n", snap.FetchedAt.UTC().Format("15:04:05")))
	}
	if fetchErr != nil {
		b.WriteString(fmt.Sprintf("\n⚠️ Last refresh failed: %v\n", fetchErr))
	}
	b.WriteString("\n")
	b.WriteString(FormatActionState(st))
	return b.String()
}

// FormatActionState formats the automation toggles and last run dates.
func FormatActionState(st model.AutomationState) string {
	var b strings.Builder
	b.WriteString("🗓 <b>Daily automations</b>\n")
	for _, a := range model.Actions {
		mark := "off"
		if st.Toggles.Enabled(a) {
			mark = "on"
		}
		last := st.LastRunDates[a]
		if last == "" {
			last = "never"
		}
		b.WriteString(fmt.Sprintf("  %s: %s, last run %s\n", actionLabels[a], mark, last))
	}
	cycle := st.LastCycleDate
	if cycle == "" {
		cycle = "never"
	}
	b.WriteString(fmt.Sprintf("Last cycle: %s\n", cycle))
	return b.String()
}
