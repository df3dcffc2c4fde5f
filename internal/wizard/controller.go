// internal/wizard/controller.go
package wizard

import (
	"context"
	"sync"
	"time"

	apperrors "receptionist-onboarding/internal/common/errors"
	"receptionist-onboarding/internal/common/logger"
	"receptionist-onboarding/internal/common/metrics"
	"receptionist-onboarding/internal/common/observability"
	"receptionist-onboarding/internal/models"

	"github.com/google/uuid"
)

// Provisioner records the finalized payload for account/agent creation.
type Provisioner interface {
	Provision(ctx context.Context, userID string, payload *Payload) error
}

// Notifier delivers the post-provisioning welcome messages. Delivery is
// best-effort and never blocks finalization.
type Notifier interface {
	SendWelcome(ctx context.Context, payload *Payload) error
}

// Controller orchestrates one wizard session per browser client: it owns the
// session registry, routes actions through the reducer, runs the sequencer
// decision at the FAQ step, and reacts to the identity provider's
// authenticated event by finalizing and provisioning.
type Controller struct {
	mu       sync.RWMutex
	sessions map[string]State

	reducer     *Reducer
	store       Store
	finalizer   *Finalizer
	provisioner Provisioner
	notifier    Notifier
	obs         *observability.Observability
	logger      logger.Logger
}

// ControllerOption customizes optional collaborators.
type ControllerOption func(*Controller)

func WithProvisioner(p Provisioner) ControllerOption {
	return func(c *Controller) { c.provisioner = p }
}

func WithNotifier(n Notifier) ControllerOption {
	return func(c *Controller) { c.notifier = n }
}

func WithObservability(o *observability.Observability) ControllerOption {
	return func(c *Controller) { c.obs = o }
}

func NewController(store Store, finalStore FinalWriter, log logger.Logger, opts ...ControllerOption) *Controller {
	c := &Controller{
		sessions:  make(map[string]State),
		reducer:   NewReducer(store, log),
		store:     store,
		finalizer: NewFinalizer(finalStore, log),
		logger:    log.WithFields(map[string]interface{}{"component": "wizard-controller"}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartSession opens (or resumes) a wizard session. A non-empty requestedID
// rehydrates any previously saved model so a reload or an identity-provider
// redirect does not lose progress.
func (c *Controller) StartSession(ctx context.Context, requestedID string) (string, State) {
	sessionID := requestedID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if st, ok := c.sessions[sessionID]; ok {
		return sessionID, st
	}

	st := InitialState()
	if saved, err := c.store.Load(ctx, sessionID); err != nil {
		metrics.PersistenceFailures.WithLabelValues("load").Inc()
		c.logger.Warn("wizard state load failed, starting empty", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
	} else if saved != nil {
		st.Data = saved
	}

	c.sessions[sessionID] = st
	metrics.SessionsStarted.Inc()
	return sessionID, st
}

// Get returns the current state of a session.
func (c *Controller) Get(sessionID string) (State, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.sessions[sessionID]
	if !ok {
		return State{}, apperrors.NewSessionNotFound(sessionID)
	}
	return st, nil
}

// Dispatch routes one action through the reducer. GOTO targets are clamped
// against the sequencer's current step count here, since the reducer itself
// owns no step-count awareness.
func (c *Controller) Dispatch(ctx context.Context, sessionID string, action Action) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.sessions[sessionID]
	if !ok {
		return State{}, apperrors.NewSessionNotFound(sessionID)
	}

	if action.Type == ActionGoto {
		if action.Step < 1 {
			action.Step = 1
		}
		if action.Step > len(st.Sequence) {
			action.Step = len(st.Sequence)
		}
	}

	next := c.reducer.Reduce(ctx, sessionID, st, action)
	c.sessions[sessionID] = next

	if c.obs != nil {
		c.obs.RecordAction(ctx, string(action.Type))
	}
	return next, nil
}

// Sequence returns the ordered active steps for a session.
func (c *Controller) Sequence(sessionID string) ([]StepID, error) {
	st, err := c.Get(sessionID)
	if err != nil {
		return nil, err
	}
	seq := make([]StepID, len(st.Sequence))
	copy(seq, st.Sequence)
	return seq, nil
}

// CompleteStep validates the current step and advances. Completing the FAQ
// step is the sequencer's decision point: the remaining sequence is decided
// there, from the business record's phone number, and stays decided until
// the user passes this point again going forward.
func (c *Controller) CompleteStep(ctx context.Context, sessionID string) (State, error) {
	c.mu.Lock()
	st, ok := c.sessions[sessionID]
	if !ok {
		c.mu.Unlock()
		return State{}, apperrors.NewSessionNotFound(sessionID)
	}

	current := StepAt(st.Sequence, st.CurrentStep)
	if err := ValidateStep(current, st.Data); err != nil {
		c.mu.Unlock()
		metrics.ValidationFailures.WithLabelValues(string(current)).Inc()
		return st, err
	}

	if current == StepFAQ {
		st.Sequence = DecideSequence(st.Data)
		c.sessions[sessionID] = st
	}
	c.mu.Unlock()

	metrics.StepsCompleted.WithLabelValues(string(current)).Inc()
	return c.Dispatch(ctx, sessionID, Next())
}

// HandleAuthenticated reacts to the identity provider's authenticated event.
// The event only counts while the session sits on the signup step; anything
// else is a stale callback from an abandoned attempt and is rejected without
// touching storage. On success the finalized payload is provisioned and the
// welcome notification fired.
func (c *Controller) HandleAuthenticated(ctx context.Context, sessionID, userID string) (*Payload, error) {
	started := time.Now()

	st, err := c.Get(sessionID)
	if err != nil {
		return nil, err
	}
	current := StepAt(st.Sequence, st.CurrentStep)
	if current != StepSignup {
		return nil, apperrors.NewStaleAuthEvent(sessionID, string(current))
	}

	st, err = c.Dispatch(ctx, sessionID, UpdateStep(models.SlicePostAuthID, userID))
	if err != nil {
		return nil, err
	}

	payload, err := c.finalizer.Finalize(ctx, sessionID, st.Data)
	if err != nil {
		metrics.Finalizations.WithLabelValues("failure").Inc()
		if c.obs != nil {
			c.obs.RecordFinalizeDuration(ctx, time.Since(started), "failure")
		}
		// Missing data forces backward navigation to the owning step.
		if owning := apperrors.OwningStep(err); owning != "" {
			if idx := StepIndex(st.Sequence, StepID(owning)); idx > 0 {
				if _, gotoErr := c.Dispatch(ctx, sessionID, Goto(idx)); gotoErr != nil {
					c.logger.Warn("backward navigation failed", map[string]interface{}{
						"sessionId": sessionID,
						"error":     gotoErr.Error(),
					})
				}
			}
		}
		return nil, err
	}

	if c.provisioner != nil {
		if err := c.provisioner.Provision(ctx, userID, payload); err != nil {
			metrics.Finalizations.WithLabelValues("failure").Inc()
			return nil, err
		}
	}

	if c.notifier != nil {
		if err := c.notifier.SendWelcome(ctx, payload); err != nil {
			c.logger.Warn("welcome notification failed", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
		}
	}

	metrics.Finalizations.WithLabelValues("success").Inc()
	if c.obs != nil {
		c.obs.RecordFinalizeDuration(ctx, time.Since(started), "success")
	}

	c.logger.Info("onboarding finalized", map[string]interface{}{
		"sessionId": sessionID,
		"userId":    userID,
		"plan":      string(payload.Step5.SelectedPlan),
	})
	return payload, nil
}
