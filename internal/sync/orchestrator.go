// Package sync drives a single backend sync cycle per client session.
//
// The backend reports no completion event for a sync, so a cycle ends
// after a fixed settle delay measured from the moment the start request
// returns. Slow ingestion can therefore appear finished early; re-running
// the search picks up anything that lands afterwards.
package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/onebox/internal/model"
	"github.com/nhle/onebox/internal/store"
)

var (
	ErrNoAccount  = errors.New("select an account before syncing")
	ErrInProgress = errors.New("a sync is already in progress")
)

// State is the phase of the current sync cycle.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateWaitingForIngest
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateWaitingForIngest:
		return "waiting for ingest"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Starter issues the start-sync request to the backend.
type Starter interface {
	StartSync(ctx context.Context, accountID string, days int) error
}

// StartedMsg is a tea.Msg sent when the start request returns.
type StartedMsg struct {
	Cycle     uint64
	AccountID string
	Err       error
}

// SettledMsg is a tea.Msg sent when the settle delay of a cycle expires.
type SettledMsg struct {
	Cycle     uint64
	AccountID string
	StartErr  error
}

// Options configures an Orchestrator. Non-positive Days and Timeout and a
// negative SettleDelay fall back to defaults.
type Options struct {
	Days        int
	SettleDelay time.Duration
	Timeout     time.Duration
	Journal     store.Store
	Logger      logrus.FieldLogger
}

const (
	DefaultDays        = 30
	DefaultSettleDelay = 2 * time.Second

	defaultTimeout = 30 * time.Second
)

// Orchestrator tracks the Idle -> Requesting -> WaitingForIngest -> Idle
// cycle. Its methods are called from the Bubble Tea update loop; the
// returned commands carry plain values and never touch its fields.
type Orchestrator struct {
	starter Starter
	opts    Options
	log     logrus.FieldLogger

	mu          gosync.Mutex
	state       State
	cycle       uint64
	accountID   string
	lastErr     error
	lastSettled time.Time
}

// New creates an Orchestrator that starts syncs through starter.
func New(starter Starter, opts Options) *Orchestrator {
	if opts.Days <= 0 {
		opts.Days = DefaultDays
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Orchestrator{
		starter: starter,
		opts:    opts,
		log:     log.WithField("component", "sync"),
	}
}

// Start begins a cycle for accountID. The orchestrator reports syncing
// as soon as Start returns; the returned command performs the request.
// No request is made when an error is returned.
func (o *Orchestrator) Start(accountID string) (tea.Cmd, error) {
	if accountID == "" {
		return nil, ErrNoAccount
	}

	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return nil, ErrInProgress
	}
	o.cycle++
	o.state = StateRequesting
	o.accountID = accountID
	o.lastErr = nil
	cycle := o.cycle
	o.mu.Unlock()

	o.log.WithFields(logrus.Fields{
		"cycle":      cycle,
		"account_id": accountID,
		"days":       o.opts.Days,
	}).Info("sync requested")

	starter, days, timeout, journal := o.starter, o.opts.Days, o.opts.Timeout, o.opts.Journal
	log := o.log

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := starter.StartSync(ctx, accountID, days)

		entry := model.Activity{
			Kind:      model.ActivitySyncStarted,
			AccountID: accountID,
			Message:   fmt.Sprintf("sync requested (%d days)", days),
		}
		store.Record(context.Background(), journal, log, entry, err)

		return StartedMsg{Cycle: cycle, AccountID: accountID, Err: err}
	}, nil
}

// Started moves a cycle into WaitingForIngest once its start request has
// returned, whether or not it succeeded, and schedules the settle timer.
// Messages for any other cycle are ignored and yield a nil command.
func (o *Orchestrator) Started(msg StartedMsg) tea.Cmd {
	o.mu.Lock()
	if msg.Cycle != o.cycle || o.state != StateRequesting {
		o.mu.Unlock()
		return nil
	}
	o.state = StateWaitingForIngest
	o.lastErr = msg.Err
	delay := o.opts.SettleDelay
	o.mu.Unlock()

	entry := o.log.WithFields(logrus.Fields{
		"cycle":      msg.Cycle,
		"account_id": msg.AccountID,
	})
	if msg.Err != nil {
		entry.WithError(msg.Err).Warn("sync start failed, waiting anyway")
	} else {
		entry.Debug("sync accepted")
	}

	settled := SettledMsg{Cycle: msg.Cycle, AccountID: msg.AccountID, StartErr: msg.Err}
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return settled
	})
}

// Settle ends the cycle named by msg. It reports false, with a nil
// command, when msg belongs to a cycle that is not waiting. The command
// returned on success records the cycle in the journal.
func (o *Orchestrator) Settle(msg SettledMsg) (bool, tea.Cmd) {
	o.mu.Lock()
	if msg.Cycle != o.cycle || o.state != StateWaitingForIngest {
		o.mu.Unlock()
		return false, nil
	}
	o.state = StateIdle
	o.lastSettled = time.Now()
	o.mu.Unlock()

	o.log.WithFields(logrus.Fields{
		"cycle":      msg.Cycle,
		"account_id": msg.AccountID,
	}).Info("sync settled")

	journal, log := o.opts.Journal, o.log
	if journal == nil {
		return true, nil
	}

	entry := model.Activity{
		Kind:      model.ActivitySyncSettled,
		AccountID: msg.AccountID,
		Message:   "sync window elapsed",
	}
	return true, func() tea.Msg {
		store.Record(context.Background(), journal, log, entry, msg.StartErr)
		return nil
	}
}

// Syncing reports whether a cycle is in flight.
func (o *Orchestrator) Syncing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state != StateIdle
}

// State returns the current phase.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// AccountID returns the account of the current or most recent cycle.
func (o *Orchestrator) AccountID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.accountID
}

// LastSettled returns when the most recent cycle ended, or the zero time.
func (o *Orchestrator) LastSettled() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastSettled
}

// LastError returns the start error of the most recent cycle.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Days returns the lookback window sent with each start request.
func (o *Orchestrator) Days() int {
	return o.opts.Days
}
