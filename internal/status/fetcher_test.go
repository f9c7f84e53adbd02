package status

import (
	"context"
	"errors"
	"testing"

	"github.com/jasonb194/MAMManager/internal/model"
)

type flakyAPI struct {
	fail bool
	snap *model.AccountSnapshot
}

func (f *flakyAPI) FetchStatus(context.Context) (*model.AccountSnapshot, error) {
	if f.fail {
		return nil, errors.New("boom")
	}
	return f.snap, nil
}

func TestFetcher_KeepsLastGoodSnapshot(t *testing.T) {
	api := &flakyAPI{snap: &model.AccountSnapshot{Username: "reader", Seedbonus: 100}}
	f := NewFetcher(api)

	if f.Latest() != nil {
		t.Error("expected nil before first refresh")
	}
	if _, err := f.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := f.Latest(); got == nil || got.Username != "reader" {
		t.Fatalf("unexpected latest %+v", got)
	}

	api.fail = true
	if _, err := f.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	if got := f.Latest(); got == nil || got.Seedbonus != 100 {
		t.Error("failed refresh must keep the previous snapshot")
	}
	if f.LastError() == nil {
		t.Error("expected last error to be recorded")
	}

	api.fail = false
	api.snap = &model.AccountSnapshot{Username: "reader", Seedbonus: 50}
	if _, err := f.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := f.Latest(); got.Seedbonus != 50 {
		t.Error("snapshot must be replaced wholesale on success")
	}
	if f.LastError() != nil {
		t.Error("last error must clear on success")
	}
}
