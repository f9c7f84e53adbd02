package state

import (
	"fmt"
	"log"
	"sync"

	"github.com/jasonb194/MAMManager/internal/model"
)

// Store owns the persisted automation state: the mam_id session cookie,
// the per-action run dates and the last cycle date. All mutations are
// written through to disk under a single mutex; the lock is never held
// across a network call.
type Store struct {
	mu       sync.Mutex
	state    *model.AutomationState
	filePath string
}

// NewStore loads or initializes the state file. The configured session
// cookie is used only when no rotated cookie has been persisted yet, and
// the configured toggles seed a fresh state file only.
func NewStore(filePath, sessionCookie string, defaults model.Toggles) (*Store, error) {
	st, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	if st.LastRunDates == nil {
		st.LastRunDates = make(map[model.ActionName]string)
		st.Toggles = defaults
	}
	if st.Credential == "" {
		st.Credential = sessionCookie
	}

	s := &Store{state: st, filePath: filePath}
	if err := s.save(); err != nil {
		return nil, err
	}
	return s, nil
}

// Credential returns the current mam_id session cookie.
func (s *Store) Credential() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Credential
}

// SetCredential replaces the session cookie. Empty values and no-op
// rewrites are ignored; the cookie is never cleared by rotation.
func (s *Store) SetCredential(cookie string) {
	if cookie == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cookie == s.state.Credential {
		return
	}
	s.state.Credential = cookie
	if err := s.save(); err != nil {
		log.Printf("[ERROR] failed to save state after cookie rotation: %v", err)
	}
}

// LastRun returns the last successful run date for an action, or "" if it
// never ran.
func (s *Store) LastRun(a model.ActionName) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.LastRunDates[a]
}

// StampRun records a successful action run for the given UTC date.
func (s *Store) StampRun(a model.ActionName, date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastRunDates[a] = date
	if err := s.save(); err != nil {
		log.Printf("[ERROR] failed to save state after stamping %s: %v", a, err)
	}
}

// LastCycleDate returns the date the daily cycle last completed, or "".
func (s *Store) LastCycleDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.LastCycleDate
}

// StampCycle records that the daily cycle ran for the given UTC date,
// regardless of whether any individual action fired.
func (s *Store) StampCycle(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastCycleDate = date
	if err := s.save(); err != nil {
		log.Printf("[ERROR] failed to save state after stamping cycle: %v", err)
	}
}

// Toggles returns the current automation switches.
func (s *Store) Toggles() model.Toggles {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Toggles
}

// SetToggle flips one automation switch.
func (s *Store) SetToggle(a model.ActionName, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch a {
	case model.ActionDonateVault:
		s.state.Toggles.DonateVault = on
	case model.ActionBuyVIP:
		s.state.Toggles.BuyVIP = on
	case model.ActionBuyCredit:
		s.state.Toggles.BuyCredit = on
	default:
		return fmt.Errorf("unknown action %q", a)
	}
	if err := s.save(); err != nil {
		log.Printf("[ERROR] failed to save state after toggling %s: %v", a, err)
	}
	return nil
}

// Snapshot returns a copy of the current state for display.
func (s *Store) Snapshot() model.AutomationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.state
	cp.LastRunDates = make(map[model.ActionName]string, len(s.state.LastRunDates))
	for k, v := range s.state.LastRunDates {
		cp.LastRunDates[k] = v
	}
	return cp
}

func (s *Store) save() error {
	return SaveState(s.filePath, s.state)
}
