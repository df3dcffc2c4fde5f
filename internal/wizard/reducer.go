// internal/wizard/reducer.go
package wizard

import (
	"context"
	"encoding/json"
	"fmt"

	"receptionist-onboarding/internal/common/logger"
	"receptionist-onboarding/internal/common/metrics"
	"receptionist-onboarding/internal/models"
)

// State is the wizard machine state. CurrentStep is 1-based and owned
// exclusively by the reducer; Sequence is owned by the sequencer decision
// made at the FAQ step.
type State struct {
	CurrentStep int              `json:"currentStep"`
	Sequence    []StepID         `json:"sequence"`
	Data        *models.StepData `json:"data"`
	IsLoading   bool             `json:"isLoading"`
}

// InitialState returns a fresh wizard at step 1 with empty data and the base
// three-step sequence.
func InitialState() State {
	return State{
		CurrentStep: 1,
		Sequence:    BaseSequence(),
		Data:        models.NewStepData(),
	}
}

// Reducer computes wizard state transitions. Transitions never mutate the
// input state or its data; every UPDATE_STEP produces a freshly built model.
// The persistence adapter is an injected dependency: UPDATE_STEP saves the
// new model and RESET clears storage, with storage failures swallowed here
// so a broken store never blocks the wizard (progress just may not survive
// a reload).
type Reducer struct {
	store  Store
	logger logger.Logger
}

func NewReducer(store Store, log logger.Logger) *Reducer {
	return &Reducer{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "wizard-reducer"}),
	}
}

// Reduce applies one action. sessionID keys the persistence side effects.
func (r *Reducer) Reduce(ctx context.Context, sessionID string, s State, a Action) State {
	switch a.Type {
	case ActionNext:
		next := s
		if next.CurrentStep < len(s.Sequence) {
			next.CurrentStep = s.CurrentStep + 1
		}
		return next

	case ActionPrev:
		next := s
		if next.CurrentStep > 1 {
			next.CurrentStep = s.CurrentStep - 1
		}
		return next

	case ActionGoto:
		// No bounds validation here: callers validate the target against the
		// sequencer's current step count before dispatching.
		next := s
		next.CurrentStep = a.Step
		return next

	case ActionSetLoading:
		next := s
		next.IsLoading = a.Loading
		return next

	case ActionUpdateStep:
		data, err := mergeSlice(s.Data, a.Slice, a.Patch)
		if err != nil {
			r.logger.Warn("dropping malformed step patch", map[string]interface{}{
				"sessionId": sessionID,
				"slice":     string(a.Slice),
				"error":     err.Error(),
			})
			return s
		}
		next := s
		next.Data = data
		if err := r.store.Save(ctx, sessionID, data); err != nil {
			metrics.PersistenceFailures.WithLabelValues("save").Inc()
			r.logger.Warn("wizard state save failed", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
		}
		return next

	case ActionReset:
		if err := r.store.Clear(ctx, sessionID); err != nil {
			metrics.PersistenceFailures.WithLabelValues("clear").Inc()
			r.logger.Warn("wizard state clear failed", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
		}
		return InitialState()

	default:
		return s
	}
}

// mergeSlice shallow-merges a patch into the named slice of the model.
// Merging happens only at the top level of the slice: nested objects in the
// patch replace the stored value for that key wholesale. Scalar slices
// (planSelection, postAuthId) are replaced outright.
func mergeSlice(data *models.StepData, slice models.SliceID, patch json.RawMessage) (*models.StepData, error) {
	if len(patch) == 0 {
		return nil, fmt.Errorf("empty patch for slice %q", slice)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	var patchVal interface{}
	if err := json.Unmarshal(patch, &patchVal); err != nil {
		return nil, fmt.Errorf("invalid patch for slice %q: %w", slice, err)
	}

	curMap, curOK := doc[string(slice)].(map[string]interface{})
	patchMap, patchOK := patchVal.(map[string]interface{})
	if curOK && patchOK {
		merged := make(map[string]interface{}, len(curMap)+len(patchMap))
		for k, v := range curMap {
			merged[k] = v
		}
		for k, v := range patchMap {
			merged[k] = v
		}
		doc[string(slice)] = merged
	} else {
		doc[string(slice)] = patchVal
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var next models.StepData
	if err := json.Unmarshal(out, &next); err != nil {
		return nil, fmt.Errorf("patch produced unreadable model for slice %q: %w", slice, err)
	}
	next.PlanSelection = models.NormalizePlan(string(next.PlanSelection))
	return &next, nil
}
