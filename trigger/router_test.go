package trigger

import (
	"testing"

	"github.com/hupe1980/cimesh/core"
	"github.com/stretchr/testify/assert"
)

func TestRouter_ShouldRun(t *testing.T) {
	r := NewRouter(DefaultPolicy)

	tests := []struct {
		name  string
		event core.TriggerEvent
		want  bool
	}{
		{"push to main", core.TriggerEvent{Kind: core.EventPush, Branch: "main"}, true},
		{"pull request to main", core.TriggerEvent{Kind: core.EventPullRequest, Branch: "main"}, true},
		{"push to develop", core.TriggerEvent{Kind: core.EventPush, Branch: "develop"}, false},
		{"pull request to feature branch", core.TriggerEvent{Kind: core.EventPullRequest, Branch: "feature/x"}, false},
		{"unrecognized kind", core.TriggerEvent{Kind: "tag", Branch: "main"}, false},
		{"empty event", core.TriggerEvent{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ShouldRun(tt.event))
		})
	}
}

func TestRouter_CustomPolicy(t *testing.T) {
	r := NewRouter(Policy{
		Kinds:    []core.EventKind{core.EventPush},
		Branches: []string{"main", "release"},
	})

	assert.True(t, r.ShouldRun(core.TriggerEvent{Kind: core.EventPush, Branch: "release"}))
	assert.False(t, r.ShouldRun(core.TriggerEvent{Kind: core.EventPullRequest, Branch: "main"}))
}

func TestRouter_ZeroPolicyAcceptsNothing(t *testing.T) {
	r := NewRouter(Policy{})
	assert.False(t, r.ShouldRun(core.TriggerEvent{Kind: core.EventPush, Branch: "main"}))
}
