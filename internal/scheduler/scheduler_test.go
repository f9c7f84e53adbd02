package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jasonb194/MAMManager/internal/mam"
	"github.com/jasonb194/MAMManager/internal/model"
	"github.com/jasonb194/MAMManager/internal/recorder"
	"github.com/jasonb194/MAMManager/internal/state"
	"github.com/jasonb194/MAMManager/internal/status"
)

// fakeMAM serves the MAM endpoints with adjustable behavior and counts the
// calls it receives.
type fakeMAM struct {
	mu        sync.Mutex
	classname string
	seedbonus int64
	donated   bool

	rotate     []string // cookies handed out on successive status calls
	failDonate int      // HTTP status for donate, 0 = success

	statusCalls  int
	donateCalls  int
	vipCalls     int
	creditCalls  int
	vipCookie    string
	donateCookie string
}

func (f *fakeMAM) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/jsonLoad.php", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.statusCalls++
		if len(f.rotate) > 0 {
			http.SetCookie(w, &http.Cookie{Name: "mam_id", Value: f.rotate[0], Path: "/"})
			f.rotate = f.rotate[1:]
		}
		json.NewEncoder(w).Encode(map[string]any{
			"username":      "reader",
			"classname":     f.classname,
			"ratio":         2.5,
			"seedbonus":     f.seedbonus,
			"vault_donated": f.donated,
		})
	})
	mux.HandleFunc("/millionaires/donate.php", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.donateCalls++
		f.donateCookie = r.Header.Get("Cookie")
		if f.failDonate != 0 {
			w.WriteHeader(f.failDonate)
			return
		}
		f.donated = true
	})
	mux.HandleFunc("/json/bonusBuy.php/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.URL.Query().Get("spendtype") {
		case "VIP":
			f.vipCalls++
			f.vipCookie = r.Header.Get("Cookie")
		case "upload":
			f.creditCalls++
		}
		fmt.Fprint(w, `{"success": true}`)
	})
	return mux
}

func allOn() model.Toggles {
	return model.Toggles{DonateVault: true, BuyVIP: true, BuyCredit: true}
}

func newTestScheduler(t *testing.T, f *fakeMAM, toggles model.Toggles) (*Scheduler, *state.Store) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	store, err := state.NewStore(filepath.Join(t.TempDir(), "state.json"), "cookie-1", toggles)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	client := mam.NewClient(srv.URL, "1234", 2000, store, "")
	fetcher := status.NewFetcher(client)
	return NewScheduler(context.Background(), fetcher, store, client, nil, recorder.NewNoopRecorder()), store
}

func TestDailyCycle_FullRun(t *testing.T) {
	f := &fakeMAM{classname: "VIP", seedbonus: 30000}
	s, store := newTestScheduler(t, f, allOn())

	s.RunCycleIfDue()

	if f.donateCalls != 1 || f.vipCalls != 1 || f.creditCalls != 1 {
		t.Fatalf("expected one call each, got donate=%d vip=%d credit=%d", f.donateCalls, f.vipCalls, f.creditCalls)
	}
	if f.statusCalls != 3 {
		t.Errorf("expected initial + two mid-cycle refreshes, got %d", f.statusCalls)
	}
	today := utcToday()
	for _, a := range model.Actions {
		if got := store.LastRun(a); got != today {
			t.Errorf("%s not stamped for today, got %q", a, got)
		}
	}
	if store.LastCycleDate() != today {
		t.Error("cycle date not stamped")
	}
}

func TestDailyCycle_SameDayRerun(t *testing.T) {
	f := &fakeMAM{classname: "VIP", seedbonus: 30000}
	s, _ := newTestScheduler(t, f, allOn())

	s.RunCycleIfDue()
	after := f.statusCalls

	// A natural re-trigger the same day is gated off entirely.
	s.RunCycleIfDue()
	if f.statusCalls != after {
		t.Error("gated re-run must not touch the remote")
	}

	// A forced run still performs the unconditional refreshes but no
	// action calls: every action is already stamped for today.
	s.RunCycleNow()
	if f.donateCalls != 1 || f.vipCalls != 1 || f.creditCalls != 1 {
		t.Errorf("actions must run at most once per day, got donate=%d vip=%d credit=%d", f.donateCalls, f.vipCalls, f.creditCalls)
	}
	if f.statusCalls != after+2 {
		t.Errorf("expected two unconditional refreshes, got %d", f.statusCalls-after)
	}
}

func TestDailyCycle_DonateFailureDoesNotAbort(t *testing.T) {
	f := &fakeMAM{classname: "Power User", seedbonus: 40000, failDonate: http.StatusInternalServerError}
	s, store := newTestScheduler(t, f, allOn())

	s.RunCycleIfDue()

	if f.donateCalls != 1 {
		t.Fatalf("expected one donate attempt, got %d", f.donateCalls)
	}
	if got := store.LastRun(model.ActionDonateVault); got != "" {
		t.Errorf("failed donate must not be stamped, got %q", got)
	}
	if f.vipCalls != 1 || f.creditCalls != 1 {
		t.Error("later steps must still run after a transient donate failure")
	}
	if store.LastCycleDate() != utcToday() {
		t.Error("cycle date stamps regardless of step failures")
	}
}

func TestDailyCycle_CookieRotationVisibleToNextStep(t *testing.T) {
	f := &fakeMAM{classname: "VIP", seedbonus: 30000, rotate: []string{"cookie-2", "cookie-3"}}
	s, store := newTestScheduler(t, f, allOn())

	s.RunCycleIfDue()

	// Initial refresh rotates to cookie-2, the refresh after donate
	// rotates to cookie-3; the BuyVIP call must already carry it.
	if f.donateCookie != "mam_id=cookie-2" {
		t.Errorf("donate used %q", f.donateCookie)
	}
	if f.vipCookie != "mam_id=cookie-3" {
		t.Errorf("buy VIP used stale cookie %q", f.vipCookie)
	}
	if store.Credential() != "cookie-3" {
		t.Errorf("store holds %q", store.Credential())
	}
}

func TestDailyCycle_DisabledTogglesSkipAllActions(t *testing.T) {
	f := &fakeMAM{classname: "VIP", seedbonus: 50000}
	s, store := newTestScheduler(t, f, model.Toggles{})

	s.RunCycleIfDue()

	if f.donateCalls+f.vipCalls+f.creditCalls != 0 {
		t.Error("disabled toggles must prevent all action calls")
	}
	if f.statusCalls != 3 {
		t.Errorf("refreshes stay unconditional, got %d", f.statusCalls)
	}
	if store.LastCycleDate() != utcToday() {
		t.Error("cycle date stamps even when every action was skipped")
	}
}

func TestDailyCycle_BelowThresholdSkipsPurchases(t *testing.T) {
	f := &fakeMAM{classname: "VIP", seedbonus: 4999, donated: true}
	s, _ := newTestScheduler(t, f, allOn())

	s.RunCycleIfDue()

	if f.donateCalls != 0 {
		t.Error("remote donated_today must block the donate call")
	}
	if f.vipCalls != 0 || f.creditCalls != 0 {
		t.Error("purchases below the seedbonus floor must be skipped")
	}
}

func TestHandleCommand(t *testing.T) {
	f := &fakeMAM{classname: "VIP", seedbonus: 30000}
	s, store := newTestScheduler(t, f, model.Toggles{})

	s.HandleCommand("/enable vip")
	if !store.Toggles().BuyVIP {
		t.Error("/enable vip did not flip the toggle")
	}
	s.HandleCommand("/disable vip")
	if store.Toggles().BuyVIP {
		t.Error("/disable vip did not flip the toggle")
	}

	if got := s.HandleCommand("/refresh"); !strings.Contains(got, "reader") {
		t.Errorf("unexpected /refresh reply: %q", got)
	}
	if got := s.HandleCommand("/status"); !strings.Contains(got, "Daily automations") {
		t.Errorf("unexpected /status reply: %q", got)
	}
	if got := s.HandleCommand("/enable bogus"); !strings.Contains(got, "Unknown action") {
		t.Errorf("unexpected reply: %q", got)
	}
	if got := s.HandleCommand("/help"); got != helpText {
		t.Errorf("unexpected help reply: %q", got)
	}
}
