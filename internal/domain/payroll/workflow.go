package payroll

import "slices"

// Transition is one legal move of the payroll run state machine. Any of the
// listed capabilities may perform it.
type Transition struct {
	From         string
	Action       string
	To           string
	Capabilities []string
}

// ChangesStatus reports whether the transition moves the run.
func (t Transition) ChangesStatus() bool {
	return t.From != t.To
}

type transitionKey struct {
	status string
	action string
}

var acknowledgers = []string{CapBilling, CapAgency, CapFinance}

var transitions = map[transitionKey]Transition{}

func init() {
	table := []Transition{
		{From: StatusDraft, Action: ActionSnapshot, To: StatusDraft, Capabilities: []string{CapOperator}},
		{From: StatusDraft, Action: ActionSubmit, To: StatusOperatorSubmitted, Capabilities: []string{CapOperator}},
		{From: StatusOperatorSubmitted, Action: ActionApprove, To: StatusBillingApproved, Capabilities: []string{CapBilling}},
		{From: StatusBillingApproved, Action: ActionApprove, To: StatusAgencyApproved, Capabilities: []string{CapAgency}},
		{From: StatusAgencyApproved, Action: ActionApprove, To: StatusFinanceApproved, Capabilities: []string{CapFinance}},
		{From: StatusFinanceApproved, Action: ActionLock, To: StatusLocked, Capabilities: []string{CapFinance}},
	}
	for _, status := range []string{StatusOperatorSubmitted, StatusBillingApproved, StatusAgencyApproved, StatusFinanceApproved, StatusLocked} {
		table = append(table, Transition{From: status, Action: ActionAcknowledge, To: status, Capabilities: acknowledgers})
	}
	for _, t := range table {
		transitions[transitionKey{status: t.From, action: t.Action}] = t
	}
}

// NextTransition looks up the move for action from status.
func NextTransition(runID, status, action string) (Transition, error) {
	t, ok := transitions[transitionKey{status: status, action: action}]
	if !ok {
		return Transition{}, &InvalidStatusTransitionError{RunID: runID, Status: status, Action: action}
	}
	return t, nil
}

// Authorize checks that actor holds one of the transition's capabilities.
func (t Transition) Authorize(runID string, actor Actor) error {
	if slices.ContainsFunc(t.Capabilities, actor.Has) {
		return nil
	}
	return &CapabilityError{RunID: runID, Action: t.Action, Role: actor.Role, Required: t.Capabilities}
}

// AllowedActions lists the actions actor may take on a run in status.
func AllowedActions(status string, actor Actor) []string {
	var out []string
	for _, action := range Actions {
		t, ok := transitions[transitionKey{status: status, action: action}]
		if ok && t.Authorize("", actor) == nil {
			out = append(out, action)
		}
	}
	return out
}
