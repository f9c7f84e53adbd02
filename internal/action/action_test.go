package action

import (
	"context"
	"strings"
	"testing"

	"github.com/jasonb194/MAMManager/internal/model"
)

type fakeAPI struct {
	donates, vips, credits int
}

func (f *fakeAPI) DonateVault(context.Context) error { f.donates++; return nil }
func (f *fakeAPI) BuyVIP(context.Context) error      { f.vips++; return nil }
func (f *fakeAPI) BuyCredit(context.Context) error   { f.credits++; return nil }

func snap(classname string, seedbonus int64, donated bool) *model.AccountSnapshot {
	return &model.AccountSnapshot{
		Username:     "reader",
		Classname:    classname,
		Seedbonus:    seedbonus,
		DonatedToday: donated,
	}
}

func TestDonateVaultEligible(t *testing.T) {
	d := NewDonateVault(&fakeAPI{})
	tests := []struct {
		name      string
		snap      *model.AccountSnapshot
		enabled   bool
		doneToday bool
		want      bool
	}{
		{"enabled and not donated", snap("Member", 0, false), true, false, true},
		{"disabled", snap("Member", 0, false), false, false, false},
		{"remote says donated", snap("Member", 0, true), true, false, false},
		{"already ran today", snap("Member", 0, false), true, true, false},
		{"no snapshot", nil, true, false, false},
	}
	for _, tt := range tests {
		if got := d.Eligible(tt.snap, tt.enabled, tt.doneToday); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestBuyVIPEligible_Boundaries(t *testing.T) {
	b := NewBuyVIP(&fakeAPI{})
	tests := []struct {
		classname string
		seedbonus int64
		want      bool
	}{
		{"VIP", 4999, false},
		{"VIP", 5000, true},
		{"Power User", 5000, true},
		{"power user", 5000, true},
		{" VIP ", 5000, true},
		{"Member", 5000, false},
		{"Member", 1000000, false},
		{"", 1000000, false},
	}
	for _, tt := range tests {
		if got := b.Eligible(snap(tt.classname, tt.seedbonus, false), true, false); got != tt.want {
			t.Errorf("class %q seedbonus %d: expected %v, got %v", tt.classname, tt.seedbonus, tt.want, got)
		}
	}
}

func TestBuyVIPEligible_DisabledToggleWins(t *testing.T) {
	b := NewBuyVIP(&fakeAPI{})
	if b.Eligible(snap("VIP", 1000000, false), false, false) {
		t.Error("disabled toggle must be equivalent to permanent ineligibility")
	}
}

func TestBuyCreditEligible_Boundaries(t *testing.T) {
	b := NewBuyCredit(&fakeAPI{})
	tests := []struct {
		seedbonus int64
		want      bool
	}{
		{24999, false},
		{25000, true},
		{0, false},
	}
	for _, tt := range tests {
		if got := b.Eligible(snap("Member", tt.seedbonus, false), true, false); got != tt.want {
			t.Errorf("seedbonus %d: expected %v, got %v", tt.seedbonus, tt.want, got)
		}
	}
}

func TestExecuteCallsRemote(t *testing.T) {
	api := &fakeAPI{}
	ctx := context.Background()
	if err := NewDonateVault(api).Execute(ctx); err != nil {
		t.Fatalf("donate: %v", err)
	}
	if err := NewBuyVIP(api).Execute(ctx); err != nil {
		t.Fatalf("buy VIP: %v", err)
	}
	if err := NewBuyCredit(api).Execute(ctx); err != nil {
		t.Fatalf("buy credit: %v", err)
	}
	if api.donates != 1 || api.vips != 1 || api.credits != 1 {
		t.Errorf("expected one call each, got %d/%d/%d", api.donates, api.vips, api.credits)
	}
}

func TestSkipReason(t *testing.T) {
	b := NewBuyVIP(&fakeAPI{})
	if got := SkipReason(b, snap("Member", 9000, false), true, false); !strings.Contains(got, "class") {
		t.Errorf("expected class reason, got %q", got)
	}
	if got := SkipReason(b, snap("VIP", 100, false), true, false); got != "seedbonus below threshold" {
		t.Errorf("unexpected reason %q", got)
	}
	if got := SkipReason(b, nil, false, false); got != "disabled" {
		t.Errorf("unexpected reason %q", got)
	}
	if got := SkipReason(b, snap("VIP", 9000, false), true, true); got != "already ran today" {
		t.Errorf("unexpected reason %q", got)
	}
	d := NewDonateVault(&fakeAPI{})
	if got := SkipReason(d, snap("Member", 0, true), true, false); got != "already donated today" {
		t.Errorf("unexpected reason %q", got)
	}
}
