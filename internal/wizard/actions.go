// internal/wizard/actions.go
package wizard

import (
	"encoding/json"

	"receptionist-onboarding/internal/models"
)

// ActionType enumerates the wizard state transitions.
type ActionType string

const (
	ActionNext       ActionType = "NEXT"
	ActionPrev       ActionType = "PREV"
	ActionGoto       ActionType = "GOTO"
	ActionUpdateStep ActionType = "UPDATE_STEP"
	ActionSetLoading ActionType = "SET_LOADING"
	ActionReset      ActionType = "RESET"
)

// Action is one dispatched wizard transition. Only the fields relevant to
// Type are set.
type Action struct {
	Type    ActionType      `json:"type"`
	Step    int             `json:"step,omitempty"`
	Slice   models.SliceID  `json:"slice,omitempty"`
	Patch   json.RawMessage `json:"patch,omitempty"`
	Loading bool            `json:"loading,omitempty"`
}

func Next() Action { return Action{Type: ActionNext} }

func Prev() Action { return Action{Type: ActionPrev} }

func Goto(step int) Action { return Action{Type: ActionGoto, Step: step} }

// UpdateStep builds an UPDATE_STEP action targeting one slice. The patch is
// shallow-merged at the top level of the slice; nested objects are replaced
// wholesale by whatever the patch supplies.
func UpdateStep(slice models.SliceID, patch interface{}) Action {
	raw, _ := json.Marshal(patch)
	return Action{Type: ActionUpdateStep, Slice: slice, Patch: raw}
}

func SetLoading(loading bool) Action { return Action{Type: ActionSetLoading, Loading: loading} }

func Reset() Action { return Action{Type: ActionReset} }
