package app

import "fmt"

// State is a step of the per-request dispatch state machine.
type State int

const (
	StateUninitialized State = iota
	StateDispatched
	StateResolved
	StateRendered
	StateTerminatedNotFound
	StateTerminatedInstaller
	StateTerminatedSubRouted
)

var stateNames = map[State]string{
	StateUninitialized:       "uninitialized",
	StateDispatched:          "dispatched",
	StateResolved:            "resolved",
	StateRendered:            "rendered",
	StateTerminatedNotFound:  "terminated_not_found",
	StateTerminatedInstaller: "terminated_installer",
	StateTerminatedSubRouted: "terminated_sub_routed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// IsTerminal reports whether the request ends in s.
func (s State) IsTerminal() bool {
	switch s {
	case StateRendered, StateTerminatedNotFound, StateTerminatedInstaller, StateTerminatedSubRouted:
		return true
	default:
		return false
	}
}

var transitions = map[State][]State{
	StateUninitialized: {StateDispatched},
	StateDispatched:    {StateResolved, StateTerminatedNotFound, StateTerminatedInstaller, StateTerminatedSubRouted},
	StateResolved:      {StateRendered},
}

type lifecycle struct {
	state State
}

func (l *lifecycle) advance(to State) error {
	for _, allowed := range transitions[l.state] {
		if allowed == to {
			l.state = to
			return nil
		}
	}
	return fmt.Errorf("illegal dispatch transition %s -> %s", l.state, to)
}
