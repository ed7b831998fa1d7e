package progress

import (
	"time"

	"github.com/abhisek/sentrypath/internal/catalog"
)

// The Apply functions are the single definition of how each mutation changes
// a record. The reconciler uses them for its optimistic overlay and the store
// uses them for the canonical write, so both sides agree unless the store
// rejects or clamps a value. None of them mutate their input.

// ApplyUpdate merges a partial update into p and stamps LastActiveDate.
func ApplyUpdate(p UserProgress, u Update, now time.Time) UserProgress {
	out := p.Clone()
	if u.Role != nil {
		out.Role = *u.Role
	}
	if u.CurrentStep != nil {
		out.CurrentStep = *u.CurrentStep
	}
	out.CompletedSteps = union(out.CompletedSteps, u.CompletedSteps)
	out.CompletedModules = union(out.CompletedModules, u.CompletedModules)
	out.CompletedFeatures = union(out.CompletedFeatures, u.CompletedFeatures)
	if u.OnboardingCompleted != nil {
		out.OnboardingCompleted = *u.OnboardingCompleted
	}
	if u.PreferredContentType != nil {
		out.PreferredContentType = *u.PreferredContentType
	}
	if u.HasSeenOnboarding != nil {
		out.HasSeenOnboarding = *u.HasSeenOnboarding
	}
	out.LastActiveDate = now
	return out
}

// ApplyRoleChange sets the role and folds in what the selected features map
// to. Selecting a role finishes onboarding.
func ApplyRoleChange(p UserProgress, cat *catalog.Catalog, role catalog.Role, selected []string, now time.Time) UserProgress {
	m := MapFeaturesToProgress(cat, role, selected)
	done := true
	return ApplyUpdate(p, Update{
		Role:                &role,
		CompletedSteps:      m.CompletedStepIDs,
		CompletedModules:    m.CompletedModules,
		CompletedFeatures:   m.CompletedFeatures,
		OnboardingCompleted: &done,
		HasSeenOnboarding:   &done,
	}, now)
}

// ApplyModuleCompletion marks moduleID completed. Completing a module that is
// already done leaves the set unchanged. Any step on the learner's path whose
// modules are now all completed is marked completed too.
func ApplyModuleCompletion(p UserProgress, cat *catalog.Catalog, moduleID string, now time.Time) UserProgress {
	out := ApplyUpdate(p, Update{CompletedModules: []string{moduleID}}, now)
	out.CompletedSteps = union(out.CompletedSteps, StepsCoveredByModules(cat, out))
	return out
}

// StepsCoveredByModules returns the steps of p's role path whose modules are
// all in p.CompletedModules.
func StepsCoveredByModules(cat *catalog.Catalog, p UserProgress) []string {
	if !p.HasRole() {
		return nil
	}
	path, ok := cat.PathFor(p.Role)
	if !ok {
		return nil
	}
	var ids []string
	for _, s := range path.Steps {
		covered := len(s.Modules) > 0
		for _, m := range s.Modules {
			if !p.HasModule(m) {
				covered = false
				break
			}
		}
		if covered {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// Reset returns the default record stamped with now.
func Reset(now time.Time) UserProgress {
	p := Defaults()
	p.LastActiveDate = now
	return p
}
