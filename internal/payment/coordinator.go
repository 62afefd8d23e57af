package payment

import (
	"errors"
	"sync"
	"time"
)

// State of a checkout attempt's payment intent.
type State string

const (
	StateIdle                 State = "idle"
	StateRequestingIntent     State = "requesting_intent"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateSucceeded            State = "succeeded"
	StateFailed               State = "failed"
)

// ErrInvalidAmount rejects non-positive charge amounts before the processor
// ever sees them.
var ErrInvalidAmount = errors.New("amount must be a positive number")

// DefaultConfirmTimeout bounds how long an intent may sit unconfirmed before
// it is failed. The processor's hosted UI gives no terminal signal when the
// customer walks away.
const DefaultConfirmTimeout = 15 * time.Minute

// Coordinator drives the intent lifecycle
// (Idle -> RequestingIntent -> AwaitingConfirmation -> Succeeded | Failed)
// and guarantees the success path submits an order exactly once, even when
// the processor delivers duplicate success callbacks.
//
// Terminal records are evicted after one confirmTimeout so the map stays
// bounded; past that window the order store's unique intent constraint is
// the dedupe authority, same as after a restart.
type Coordinator struct {
	mu             sync.Mutex
	client         *Client
	confirmTimeout time.Duration
	intents        map[string]*intentRecord
}

type intentRecord struct {
	state      State
	amount     int64
	currency   string
	failureMsg string
	submitted  bool
	timer      *time.Timer
}

func NewCoordinator(client *Client, confirmTimeout time.Duration) *Coordinator {
	if confirmTimeout <= 0 {
		confirmTimeout = DefaultConfirmTimeout
	}
	return &Coordinator{
		client:         client,
		confirmTimeout: confirmTimeout,
		intents:        make(map[string]*intentRecord),
	}
}

// Begin requests an authorization for amount minor units and moves the new
// intent to AwaitingConfirmation. On failure nothing is registered and the
// caller may retry from Idle.
func (co *Coordinator) Begin(amount int64, currency string, metadata map[string]string) (*Intent, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var intent *Intent
	err := co.client.RetryWithBackoff(func() error {
		var err error
		intent, err = co.client.CreateIntent(amount, currency, metadata)
		return err
	}, 3)
	if err != nil {
		return nil, err
	}

	co.mu.Lock()
	rec := &intentRecord{
		state:    StateAwaitingConfirmation,
		amount:   intent.Amount,
		currency: intent.Currency,
	}
	rec.timer = time.AfterFunc(co.confirmTimeout, func() { co.expire(intent.ID) })
	co.intents[intent.ID] = rec
	co.mu.Unlock()

	return intent, nil
}

// ConfirmSucceeded runs submit exactly once for the intent. Redelivered
// success callbacks after a completed submission are no-ops. If submit fails
// the one-shot guard is released so a later redelivery can retry; the order
// store's unique intent constraint keeps that safe.
func (co *Coordinator) ConfirmSucceeded(intentID string, submit func() error) (bool, error) {
	co.mu.Lock()
	rec, ok := co.intents[intentID]
	if !ok {
		// Intent created before a restart; track it so the guard still holds.
		rec = &intentRecord{state: StateAwaitingConfirmation}
		co.intents[intentID] = rec
	}
	if rec.submitted {
		co.mu.Unlock()
		return false, nil
	}
	rec.submitted = true
	if rec.timer != nil {
		rec.timer.Stop()
	}
	co.mu.Unlock()

	if err := submit(); err != nil {
		co.mu.Lock()
		rec.submitted = false
		co.mu.Unlock()
		return false, err
	}

	co.mu.Lock()
	rec.state = StateSucceeded
	co.scheduleEvict(intentID)
	co.mu.Unlock()
	return true, nil
}

// ConfirmFailed records a terminal failure from the processor. The draft is
// untouched, so the customer can retry without re-uploading anything.
func (co *Coordinator) ConfirmFailed(intentID, message string) {
	co.mu.Lock()
	defer co.mu.Unlock()
	rec, ok := co.intents[intentID]
	if !ok {
		rec = &intentRecord{}
		co.intents[intentID] = rec
	}
	if rec.state == StateSucceeded {
		return
	}
	if rec.timer != nil {
		rec.timer.Stop()
	}
	rec.state = StateFailed
	rec.failureMsg = message
	co.scheduleEvict(intentID)
}

// State reports the current state of an intent and, when failed, the
// processor's message. Unknown intents are Idle.
func (co *Coordinator) State(intentID string) (State, string) {
	co.mu.Lock()
	defer co.mu.Unlock()
	rec, ok := co.intents[intentID]
	if !ok {
		return StateIdle, ""
	}
	return rec.state, rec.failureMsg
}

func (co *Coordinator) expire(intentID string) {
	co.mu.Lock()
	defer co.mu.Unlock()
	rec, ok := co.intents[intentID]
	if !ok || rec.state != StateAwaitingConfirmation || rec.submitted {
		return
	}
	rec.state = StateFailed
	rec.failureMsg = "payment confirmation timed out"
	co.scheduleEvict(intentID)
}

// scheduleEvict drops a terminal record after one confirmTimeout. Caller
// holds co.mu; the eviction itself re-checks the state because a released
// guard may have restarted the submission in between.
func (co *Coordinator) scheduleEvict(intentID string) {
	timeout := co.confirmTimeout
	time.AfterFunc(timeout, func() {
		co.mu.Lock()
		defer co.mu.Unlock()
		rec, ok := co.intents[intentID]
		if !ok {
			return
		}
		if rec.state == StateSucceeded || rec.state == StateFailed {
			delete(co.intents, intentID)
		}
	})
}
