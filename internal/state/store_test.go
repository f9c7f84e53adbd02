package state

import (
	"path/filepath"
	"testing"

	"github.com/jasonb194/MAMManager/internal/model"
)

func TestStore_PersistsAcrossReload(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state.json")

	s, err := NewStore(file, "cookie-1", model.Toggles{DonateVault: true})
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	s.StampRun(model.ActionBuyVIP, "2026-08-31")
	s.StampCycle("2026-08-31")
	s.SetCredential("cookie-2")

	re, err := NewStore(file, "cookie-from-config", model.Toggles{})
	if err != nil {
		t.Fatalf("reload store: %v", err)
	}
	if got := re.Credential(); got != "cookie-2" {
		t.Errorf("rotated cookie must survive restart, got %q", got)
	}
	if got := re.LastRun(model.ActionBuyVIP); got != "2026-08-31" {
		t.Errorf("buy_vip run date lost: %q", got)
	}
	if got := re.LastRun(model.ActionDonateVault); got != "" {
		t.Errorf("donate never ran, got date %q", got)
	}
	if got := re.LastCycleDate(); got != "2026-08-31" {
		t.Errorf("cycle date lost: %q", got)
	}
	if !re.Toggles().DonateVault {
		t.Error("persisted toggles must win over fresh defaults")
	}
}

func TestStore_FreshStateSeedsFromConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state.json")
	s, err := NewStore(file, "cookie-1", model.Toggles{BuyCredit: true})
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	if got := s.Credential(); got != "cookie-1" {
		t.Errorf("expected configured cookie, got %q", got)
	}
	tg := s.Toggles()
	if !tg.BuyCredit || tg.DonateVault || tg.BuyVIP {
		t.Errorf("unexpected seed toggles: %+v", tg)
	}
}

func TestStore_SetCredentialIgnoresEmpty(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "state.json"), "cookie-1", model.Toggles{})
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	s.SetCredential("")
	if got := s.Credential(); got != "cookie-1" {
		t.Errorf("empty rotation must not clear the cookie, got %q", got)
	}
}

func TestStore_SetToggle(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "state.json"), "cookie-1", model.Toggles{})
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	if err := s.SetToggle(model.ActionBuyVIP, true); err != nil {
		t.Fatalf("set toggle: %v", err)
	}
	if !s.Toggles().BuyVIP {
		t.Error("toggle not applied")
	}
	if err := s.SetToggle("bogus", true); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "state.json"), "cookie-1", model.Toggles{})
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	s.StampRun(model.ActionDonateVault, "2026-08-31")

	snap := s.Snapshot()
	snap.LastRunDates[model.ActionDonateVault] = "1999-01-01"

	if got := s.LastRun(model.ActionDonateVault); got != "2026-08-31" {
		t.Errorf("snapshot mutation leaked into the store: %q", got)
	}
}
