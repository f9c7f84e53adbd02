package action

import (
	"context"
	"strings"

	"github.com/jasonb194/MAMManager/internal/model"
)

// Seedbonus thresholds below which an automation is skipped (MAM rules /
// safety margin).
const (
	MinSeedbonusForVIP    = 5000
	MinSeedbonusForCredit = 25000
)

// vipClassnames are the account classes allowed to auto-buy VIP
// (case-insensitive).
var vipClassnames = map[string]bool{
	"vip":        true,
	"power user": true,
}

// API is the remote call surface shared by the executors.
type API interface {
	DonateVault(ctx context.Context) error
	BuyVIP(ctx context.Context) error
	BuyCredit(ctx context.Context) error
}

// Executor is one once-daily automation step. Eligible is a pure predicate
// over the latest snapshot, the automation toggle and the "already ran
// today" flag; Execute performs the single remote call. The scheduler, not
// the executor, stamps the run date on success.
type Executor interface {
	Name() model.ActionName
	Eligible(snap *model.AccountSnapshot, enabled, doneToday bool) bool
	Execute(ctx context.Context) error
}

// DonateVault contributes bonus points to the millionaire's vault once a
// day. The remote status payload is authoritative on whether a donation
// already happened today; the local run date is a cross-check.
type DonateVault struct {
	api API
}

func NewDonateVault(api API) *DonateVault { return &DonateVault{api: api} }

func (d *DonateVault) Name() model.ActionName { return model.ActionDonateVault }

func (d *DonateVault) Eligible(snap *model.AccountSnapshot, enabled, doneToday bool) bool {
	if !enabled || doneToday || snap == nil {
		return false
	}
	return !snap.DonatedToday
}

func (d *DonateVault) Execute(ctx context.Context) error { return d.api.DonateVault(ctx) }

// BuyVIP spends bonus points on VIP time, only for classes where that is
// worthwhile and only above the seedbonus floor.
type BuyVIP struct {
	api API
}

func NewBuyVIP(api API) *BuyVIP { return &BuyVIP{api: api} }

func (b *BuyVIP) Name() model.ActionName { return model.ActionBuyVIP }

func (b *BuyVIP) Eligible(snap *model.AccountSnapshot, enabled, doneToday bool) bool {
	if !enabled || doneToday || snap == nil {
		return false
	}
	if !vipClassnames[strings.ToLower(strings.TrimSpace(snap.Classname))] {
		return false
	}
	return snap.Seedbonus >= MinSeedbonusForVIP
}

func (b *BuyVIP) Execute(ctx context.Context) error { return b.api.BuyVIP(ctx) }

// BuyCredit spends a fixed 50 bonus points on upload credit. The executor
// does not deduct points itself; the next refresh observes the debited
// balance.
type BuyCredit struct {
	api API
}

func NewBuyCredit(api API) *BuyCredit { return &BuyCredit{api: api} }

func (b *BuyCredit) Name() model.ActionName { return model.ActionBuyCredit }

func (b *BuyCredit) Eligible(snap *model.AccountSnapshot, enabled, doneToday bool) bool {
	if !enabled || doneToday || snap == nil {
		return false
	}
	return snap.Seedbonus >= MinSeedbonusForCredit
}

func (b *BuyCredit) Execute(ctx context.Context) error { return b.api.BuyCredit(ctx) }

// SkipReason names why an executor was not eligible, for logs and reports.
func SkipReason(e Executor, snap *model.AccountSnapshot, enabled, doneToday bool) string {
	switch {
	case !enabled:
		return "disabled"
	case doneToday:
		return "already ran today"
	case snap == nil:
		return "no account snapshot"
	}
	switch e.Name() {
	case model.ActionDonateVault:
		return "already donated today"
	case model.ActionBuyVIP:
		if !vipClassnames[strings.ToLower(strings.TrimSpace(snap.Classname))] {
			return "class " + snap.Classname + " not eligible"
		}
		return "seedbonus below threshold"
	case model.ActionBuyCredit:
		return "seedbonus below threshold"
	}
	return "not eligible"
}
