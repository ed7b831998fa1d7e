package learnpath

import (
	"slices"
	"sort"

	"github.com/abhisek/sentrypath/internal/catalog"
)

// Step is a path step annotated for one learner.
type Step struct {
	catalog.Step
	IsCompleted bool
	IsUnlocked  bool
}

// Path is a role's learning path annotated for one learner. Steps are in
// ascending priority order.
type Path struct {
	Role  catalog.Role
	Steps []Step
}

// Recommendation points the learner at the next step to take.
type Recommendation struct {
	ModuleID     string
	StepID       string
	Priority     int
	Reasoning    string
	TimeEstimate string
}

// Summary counts step states on a resolved path.
type Summary struct {
	Completed int
	Unlocked  int
	Total     int
	Percent   int
}

// Resolve annotates the role's path template with the learner's completed
// steps. It returns nil when role is empty or has no path.
//
// A step is unlocked when it is completed, when every step of strictly lower
// priority is completed, or when its priority is 1. The template is never
// modified; each call builds a fresh copy.
func Resolve(cat *catalog.Catalog, role catalog.Role, completedStepIDs []string) *Path {
	if role == "" {
		return nil
	}
	tmpl, ok := cat.PathFor(role)
	if !ok {
		return nil
	}

	done := make(map[string]bool, len(completedStepIDs))
	for _, id := range completedStepIDs {
		done[id] = true
	}

	steps := make([]Step, len(tmpl.Steps))
	for i, s := range tmpl.Steps {
		steps[i] = Step{Step: s, IsCompleted: done[s.ID]}
	}
	// Stable so equal priorities keep template order.
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Priority < steps[j].Priority
	})

	// lowerDone tracks whether every step of strictly lower priority than the
	// current group is completed.
	lowerDone := true
	for i := 0; i < len(steps); {
		j := i
		groupDone := true
		for j < len(steps) && steps[j].Priority == steps[i].Priority {
			s := &steps[j]
			firstIncomplete := !s.IsCompleted && lowerDone
			s.IsUnlocked = s.IsCompleted || firstIncomplete || s.Priority == 1
			if !s.IsCompleted {
				groupDone = false
			}
			j++
		}
		lowerDone = lowerDone && groupDone
		i = j
	}

	return &Path{Role: role, Steps: steps}
}

// actionable returns the steps that are unlocked but not completed, sorted
// by priority.
func (p *Path) actionable() []Step {
	if p == nil {
		return nil
	}
	var out []Step
	for _, s := range p.Steps {
		if !s.IsCompleted && s.IsUnlocked {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// CurrentStep returns the lowest-priority unlocked step that is not yet
// completed, or nil when there is none.
func (p *Path) CurrentStep() *Step {
	a := p.actionable()
	if len(a) == 0 {
		return nil
	}
	s := a[0]
	s.Modules = slices.Clone(s.Modules)
	return &s
}

// NextRecommendation returns what to work on next, or nil when no step is
// both unlocked and incomplete.
func (p *Path) NextRecommendation() *Recommendation {
	a := p.actionable()
	if len(a) == 0 {
		return nil
	}
	s := a[0]
	rec := &Recommendation{
		StepID:       s.ID,
		Priority:     s.Priority,
		Reasoning:    s.Description,
		TimeEstimate: s.EstimatedTime,
	}
	if len(s.Modules) > 0 {
		rec.ModuleID = s.Modules[0]
	}
	return rec
}

// Step returns the annotated step with the given ID.
func (p *Path) Step(id string) (Step, bool) {
	if p == nil {
		return Step{}, false
	}
	for _, s := range p.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}

// Summary counts completed and unlocked steps.
func (p *Path) Summary() Summary {
	if p == nil {
		return Summary{}
	}
	sum := Summary{Total: len(p.Steps)}
	for _, s := range p.Steps {
		if s.IsCompleted {
			sum.Completed++
		}
		if s.IsUnlocked {
			sum.Unlocked++
		}
	}
	if sum.Total > 0 {
		sum.Percent = sum.Completed * 100 / sum.Total
	}
	return sum
}
