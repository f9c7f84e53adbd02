package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jasonb194/MAMManager/internal/action"
	"github.com/jasonb194/MAMManager/internal/mam"
	"github.com/jasonb194/MAMManager/internal/model"
	"github.com/jasonb194/MAMManager/internal/notifier"
	"github.com/jasonb194/MAMManager/internal/recorder"
	"github.com/jasonb194/MAMManager/internal/state"
	"github.com/jasonb194/MAMManager/internal/status"

	"github.com/robfig/cron/v3"
)

// StepResult is the outcome of one action step within a daily cycle.
type StepResult struct {
	Action   model.ActionName
	Executed bool
	Skipped  string
	Err      error
}

// Scheduler owns the once-per-UTC-day automation cycle and the
// short-interval display poll. The cycle runs the fixed sequence donate →
// refresh → buy VIP → refresh → buy credit; each step is independently
// skippable and a step failure never aborts the remaining steps.
type Scheduler struct {
	Cron     *cron.Cron
	Fetcher  *status.Fetcher
	Store    *state.Store
	Steps    []action.Executor
	Notifier *notifier.TelegramNotifier
	Recorder recorder.Recorder
	Ctx      context.Context

	// Idle/Running guard: at most one cycle at a time, steps strictly
	// sequential within it.
	runMu sync.Mutex

	// Set after an auth-failure alert so the poll doesn't repeat it every
	// tick; cleared by the next successful refresh.
	authAlerted atomic.Bool
}

// NewScheduler creates a Scheduler with the three executors in order.
func NewScheduler(ctx context.Context, fetcher *status.Fetcher, store *state.Store, api action.API, tn *notifier.TelegramNotifier, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		Fetcher: fetcher,
		Store:   store,
		Steps: []action.Executor{
			action.NewDonateVault(api),
			action.NewBuyVIP(api),
			action.NewBuyCredit(api),
		},
		Notifier: tn,
		Recorder: rec,
		Ctx:      ctx,
	}
}

// RegisterAll registers the daily cycle and the display poll.
func (s *Scheduler) RegisterAll(dailyCron, pollCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.RunCycleIfDue); err != nil {
		return fmt.Errorf("register daily cycle: %w", err)
	}
	if _, err := s.Cron.AddFunc(pollCron, s.pollTask); err != nil {
		return fmt.Errorf("register display poll: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

func utcToday() string {
	return time.Now().UTC().Format("2006-01-02")
}

// pollTask refreshes the snapshot for display only, then checks whether a
// missed daily trigger is due. It has no action side effects of its own.
func (s *Scheduler) pollTask() {
	if _, err := s.RefreshNow(); err != nil {
		log.Printf("[WARN] display refresh: %v", err)
		if errors.Is(err, mam.ErrAuth) && s.authAlerted.CompareAndSwap(false, true) {
			s.trySend(fmt.Sprintf("⚠️ <b>MAM session invalid</b>\n%v\nUpdate the mam_id cookie; automations keep the last known state.", err))
		}
	} else {
		s.authAlerted.Store(false)
	}
	s.RunCycleIfDue()
}

// RefreshNow fetches a fresh snapshot and records it. Exposed to the
// collaborator surface (/refresh command).
func (s *Scheduler) RefreshNow() (*model.AccountSnapshot, error) {
	snap, err := s.Fetcher.Refresh(s.Ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Recorder.RecordStatus(&recorder.StatusRecord{
		Username:        snap.Username,
		Classname:       snap.Classname,
		Ratio:           snap.Ratio,
		UploadedBytes:   snap.UploadedBytes,
		DownloadedBytes: snap.DownloadedBytes,
		Seedbonus:       snap.Seedbonus,
		Wedges:          snap.Wedges,
		DonatedToday:    snap.DonatedToday,
	}); err != nil {
		log.Printf("[ERROR] record status: %v", err)
	}
	return snap, nil
}

// LatestSnapshot returns the most recent successful snapshot, or nil.
func (s *Scheduler) LatestSnapshot() *model.AccountSnapshot {
	return s.Fetcher.Latest()
}

// DailyActionState returns a copy of the persisted automation state.
func (s *Scheduler) DailyActionState() model.AutomationState {
	return s.Store.Snapshot()
}

// RunCycleIfDue runs the daily cycle when the current UTC date is newer
// than the last recorded cycle date. Fired by the daily cron, at startup
// and on every poll tick, so a trigger missed while the process was down
// still fires exactly once.
func (s *Scheduler) RunCycleIfDue() {
	s.runCycle(false)
}

// RunCycleNow executes the fixed sequence regardless of the cycle-date
// gate. Each action keeps its own per-day stamp, so a forced run performs
// no duplicate purchases.
func (s *Scheduler) RunCycleNow() {
	s.runCycle(true)
}

func (s *Scheduler) runCycle(force bool) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	today := utcToday()
	// ISO dates compare lexically; >= also skips after a clock step back.
	if !force && s.Store.LastCycleDate() >= today {
		return
	}

	log.Printf("[INFO] starting daily automation cycle for %s", today)

	// Step 1 evaluates against the most recent snapshot; fetch one first
	// on a cold start.
	snap := s.Fetcher.Latest()
	if snap == nil {
		fresh, err := s.Fetcher.Refresh(s.Ctx)
		if err != nil {
			log.Printf("[WARN] initial cycle refresh: %v", err)
		} else {
			snap = fresh
		}
	}

	var results []StepResult
	for i, step := range s.Steps {
		results = append(results, s.runStep(step, snap, today))

		// Refresh between actions even when the step was skipped:
		// seedbonus and donated-today may have changed. On failure the
		// remaining steps keep the last-known-good snapshot.
		if i < len(s.Steps)-1 {
			fresh, err := s.Fetcher.Refresh(s.Ctx)
			if err != nil {
				log.Printf("[WARN] mid-cycle refresh: %v", err)
			} else {
				snap = fresh
			}
		}
	}

	// The per-day gate is "did the cycle run", independent of whether
	// each sub-action fired.
	s.Store.StampCycle(today)

	executed, skipped, failed := tally(results)
	if err := s.Recorder.RecordCycle(&recorder.CycleRun{
		CycleDate: today, Executed: executed, Skipped: skipped, Failed: failed,
	}); err != nil {
		log.Printf("[ERROR] record cycle: %v", err)
	}
	log.Printf("[INFO] daily cycle complete: %d executed, %d skipped, %d failed", executed, skipped, failed)

	if executed > 0 || failed > 0 {
		s.trySend(formatCycleReport(today, results))
	}
}

func (s *Scheduler) runStep(step action.Executor, snap *model.AccountSnapshot, today string) StepResult {
	name := step.Name()
	// Toggles are read fresh at each step so a switch flipped between
	// ticks applies without restart.
	enabled := s.Store.Toggles().Enabled(name)
	done := s.Store.LastRun(name) == today

	if !step.Eligible(snap, enabled, done) {
		reason := action.SkipReason(step, snap, enabled, done)
		log.Printf("[INFO] %s skipped (%s)", name, reason)
		return StepResult{Action: name, Skipped: reason}
	}

	if err := step.Execute(s.Ctx); err != nil {
		log.Printf("[ERROR] %s failed: %v", name, err)
		if recErr := s.Recorder.RecordAction(&recorder.ActionEvent{
			Action: string(name), Outcome: outcomeFor(err), Detail: err.Error(),
		}); recErr != nil {
			log.Printf("[ERROR] record action: %v", recErr)
		}
		return StepResult{Action: name, Err: err}
	}

	// Stamp immediately after the verified-successful call; a crash in
	// between loses at most this one stamp, never double-counts.
	s.Store.StampRun(name, today)
	log.Printf("[INFO] %s completed for today", name)
	if err := s.Recorder.RecordAction(&recorder.ActionEvent{
		Action: string(name), Outcome: "success",
	}); err != nil {
		log.Printf("[ERROR] record action: %v", err)
	}
	return StepResult{Action: name, Executed: true}
}

var actionAliases = map[string]model.ActionName{
	"donate": model.ActionDonateVault,
	"vip":    model.ActionBuyVIP,
	"credit": model.ActionBuyCredit,
}

const helpText = "Commands:\n• /status\n• /refresh\n• /actions\n• /run\n• /enable donate|vip|credit\n• /disable donate|vip|credit"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch fields[0] {
	case "/status":
		return notifier.FormatStatusReport(s.Fetcher.Latest(), s.Store.Snapshot(), s.Fetcher.LastError())
	case "/refresh":
		snap, err := s.RefreshNow()
		if err != nil {
			return fmt.Sprintf("Refresh failed: %v", err)
		}
		return notifier.FormatStatusReport(snap, s.Store.Snapshot(), nil)
	case "/actions":
		return notifier.FormatActionState(s.Store.Snapshot())
	case "/run":
		go s.RunCycleNow()
		return "Daily cycle started."
	case "/enable", "/disable":
		if len(fields) < 2 {
			return "Usage: " + fields[0] + " donate|vip|credit"
		}
		name, ok := actionAliases[fields[1]]
		if !ok {
			return "Unknown action: " + fields[1]
		}
		if err := s.Store.SetToggle(name, fields[0] == "/enable"); err != nil {
			return err.Error()
		}
		return notifier.FormatActionState(s.Store.Snapshot())
	default:
		return helpText
	}
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, mam.ErrRejected):
		return "rejected"
	case errors.Is(err, mam.ErrAuth):
		return "auth"
	default:
		return "error"
	}
}

func tally(results []StepResult) (executed, skipped, failed int) {
	for _, r := range results {
		switch {
		case r.Executed:
			executed++
		case r.Err != nil:
			failed++
		default:
			skipped++
		}
	}
	return
}

func formatCycleReport(date string, results []StepResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🌙 <b>MAM daily automations</b> | %s\n\n", date))
	for _, r := range results {
		switch {
		case r.Executed:
			b.WriteString(fmt.Sprintf("✅ %s\n", r.Action))
		case r.Err != nil:
			b.WriteString(fmt.Sprintf("❌ %s: %v\n", r.Action, r.Err))
		default:
			b.WriteString(fmt.Sprintf("➖ %s (%s)\n", r.Action, r.Skipped))
		}
	}
	return b.String()
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
