package trigger

import "github.com/hupe1980/cimesh/core"

// Policy declares which events start a pipeline run.
type Policy struct {
	// Kinds lists the accepted event kinds.
	Kinds []core.EventKind

	// Branches is the target-branch allow-list.
	Branches []string
}

// DefaultPolicy accepts push and pull_request events targeting main.
var DefaultPolicy = Policy{
	Kinds:    []core.EventKind{core.EventPush, core.EventPullRequest},
	Branches: []string{"main"},
}

// Router gates pipeline runs on incoming events. It carries no mutable state
// and is safe for concurrent use.
type Router struct {
	policy Policy
}

// NewRouter constructs a router for the given policy. A zero policy accepts
// nothing; use DefaultPolicy for the conventional main-branch gate.
func NewRouter(policy Policy) *Router {
	return &Router{policy: policy}
}

// ShouldRun reports whether the event starts a pipeline run: the kind must be
// recognized by the policy and the target branch must be on the allow-list.
// It has no side effects and never fails.
func (r *Router) ShouldRun(ev core.TriggerEvent) bool {
	kindOK := false
	for _, k := range r.policy.Kinds {
		if ev.Kind == k {
			kindOK = true
			break
		}
	}
	if !kindOK {
		return false
	}
	for _, b := range r.policy.Branches {
		if ev.Branch == b {
			return true
		}
	}
	return false
}
