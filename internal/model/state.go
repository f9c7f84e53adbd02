package model

import "time"

// ActionName identifies one of the once-daily automations.
type ActionName string

const (
	ActionDonateVault ActionName = "donate_vault"
	ActionBuyVIP      ActionName = "buy_vip"
	ActionBuyCredit   ActionName = "buy_credit"
)

// Actions lists the automations in execution order.
var Actions = []ActionName{ActionDonateVault, ActionBuyVIP, ActionBuyCredit}

// Toggles are the automation enable switches. They seed from config on
// first run and can be flipped at runtime.
type Toggles struct {
	DonateVault bool `json:"donate_vault"`
	BuyVIP      bool `json:"buy_vip"`
	BuyCredit   bool `json:"buy_credit"`
}

// Enabled reports whether the switch for the given action is on.
func (t Toggles) Enabled(a ActionName) bool {
	switch a {
	case ActionDonateVault:
		return t.DonateVault
	case ActionBuyVIP:
		return t.BuyVIP
	case ActionBuyCredit:
		return t.BuyCredit
	}
	return false
}

// AutomationState is the persisted daemon state: the rotating mam_id
// session cookie, the per-action last successful run dates (UTC calendar
// days, YYYY-MM-DD — the sole idempotence key), and the date the daily
// cycle last completed. It must survive process restarts.
type AutomationState struct {
	Credential    string                `json:"credential"`
	LastRunDates  map[ActionName]string `json:"last_run_dates"`
	LastCycleDate string                `json:"last_cycle_date"`
	Toggles       Toggles               `json:"toggles"`
	UpdatedAt     time.Time             `json:"updated_at"`
}
