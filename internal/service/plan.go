package service

import (
	"sort"

	"github.com/sitescope/sitescope/internal/core"
)

// Registry holds the closed set of agents for a run. Registration order
// is preserved so reports list modules deterministically.
type Registry struct {
	agents map[string]core.Agent
	order  []string
}

// NewRegistry creates an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[string]core.Agent),
	}
}

// Register adds an agent. Registering the same name twice is a
// configuration bug and fails the plan.
func (r *Registry) Register(a core.Agent) error {
	name := a.Name()
	if _, exists := r.agents[name]; exists {
		return core.ErrValidation(core.CodeDuplicateAgent, "agent "+name+" registered twice")
	}
	r.agents[name] = a
	r.order = append(r.order, name)
	return nil
}

// Get returns a registered agent by name.
func (r *Registry) Get(name string) (core.Agent, bool) {
	a, ok := r.agents[name]
	return a, ok
}

// Names returns agent names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	return len(r.order)
}

// BuildPlan validates the dependency graph and groups agents into phases.
// Every agent in a phase has all its dependencies in strictly earlier
// phases, so agents within one phase can run concurrently. The plan is
// computed once per run and never mutated.
func BuildPlan(r *Registry) (*core.ExecutionPlan, error) {
	for _, name := range r.order {
		for _, dep := range r.agents[name].Dependencies() {
			if _, ok := r.agents[dep]; !ok {
				return nil, core.ErrUnknownDependency(name, dep)
			}
			if dep == name {
				return nil, core.ErrCycle([]string{name})
			}
		}
	}

	assigned := make(map[string]bool, len(r.order))
	var phases [][]string

	for len(assigned) < len(r.order) {
		var phase []string
		for _, name := range r.order {
			if assigned[name] {
				continue
			}
			ready := true
			for _, dep := range r.agents[name].Dependencies() {
				if !assigned[dep] {
					ready = false
					break
				}
			}
			if ready {
				phase = append(phase, name)
			}
		}

		// No agent became ready: everything left is on a cycle.
		if len(phase) == 0 {
			var remaining []string
			for _, name := range r.order {
				if !assigned[name] {
					remaining = append(remaining, name)
				}
			}
			sort.Strings(remaining)
			return nil, core.ErrCycle(remaining)
		}

		for _, name := range phase {
			assigned[name] = true
		}
		phases = append(phases, phase)
	}

	return &core.ExecutionPlan{Phases: phases}, nil
}
