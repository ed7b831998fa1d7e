package progress

import "github.com/abhisek/sentrypath/internal/catalog"

// MapFeaturesToProgress translates the features a learner says they already
// know into completed modules, features and steps for role.
//
// Any non-empty selection implies basic error tracking is already set up, so
// the error-tracking feature, its modules and the role's error-tracking steps
// come first, whether or not error-tracking was selected. Roles without an
// error-tracking step get no implied contribution. The remaining selected
// features follow in input order; unknown keys contribute nothing and a role
// without a step for a feature contributes no step. Results are not
// de-duplicated.
func MapFeaturesToProgress(cat *catalog.Catalog, role catalog.Role, selected []string) Mapped {
	out := Mapped{
		CompletedModules:  []string{},
		CompletedFeatures: []catalog.Feature{},
		CompletedStepIDs:  []string{},
	}
	if len(selected) == 0 {
		return out
	}

	if et, ok := cat.Mapping(catalog.FeatureErrorTracking); ok {
		if steps := et.Steps[role]; len(steps) > 0 {
			out.CompletedFeatures = append(out.CompletedFeatures, et.Feature)
			out.CompletedModules = append(out.CompletedModules, et.Modules...)
			out.CompletedStepIDs = append(out.CompletedStepIDs, steps...)
		}
	}

	for _, key := range selected {
		f := catalog.Feature(key)
		if f == catalog.FeatureErrorTracking {
			continue
		}
		m, ok := cat.Mapping(f)
		if !ok {
			continue
		}
		out.CompletedFeatures = append(out.CompletedFeatures, m.Feature)
		out.CompletedModules = append(out.CompletedModules, m.Modules...)
		out.CompletedStepIDs = append(out.CompletedStepIDs, m.Steps[role]...)
	}

	return out
}
