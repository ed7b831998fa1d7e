package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownRole is returned when a role is not defined by the catalog.
var ErrUnknownRole = errors.New("unknown role")

// ValidationError lists every structural problem found in a catalog.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog validation failed:\n  %s", strings.Join(e.Problems, "\n  "))
}

// Validate checks the catalog for structural issues.
func (c *Catalog) Validate() error {
	return validateCatalog(c)
}

// validateCatalog performs all structural checks on c.
// Returns a *ValidationError describing all problems found, or nil if valid.
func validateCatalog(c *Catalog) error {
	var errs []string

	featureSet := make(map[Feature]bool, len(c.features))
	for _, f := range c.features {
		if !IsKnownFeature(f.ID) {
			errs = append(errs, fmt.Sprintf("unknown feature %q", f.ID))
		}
		if featureSet[f.ID] {
			errs = append(errs, fmt.Sprintf("duplicate feature: %q", f.ID))
		}
		featureSet[f.ID] = true
	}

	seenRoles := make(map[Role]int)
	stepOwners := make(map[string][]Role)
	for _, r := range c.roleOrder {
		seenRoles[r]++
	}
	for _, r := range sortedRoles(seenRoles) {
		if !IsKnownRole(r) {
			errs = append(errs, fmt.Sprintf("unknown role %q", r))
		}
		for _, f := range c.roleFeatures[r] {
			if !featureSet[f] {
				errs = append(errs, fmt.Sprintf("role %q offers undescribed feature %q", r, f))
			}
		}

		p := c.paths[r]
		priorities := make(map[int]string, len(p.Steps))
		hasEntry := false
		for _, s := range p.Steps {
			stepOwners[s.ID] = append(stepOwners[s.ID], r)
			if s.Priority < 1 {
				errs = append(errs, fmt.Sprintf("step %q: priority must be >= 1, got %d", s.ID, s.Priority))
			}
			if prev, dup := priorities[s.Priority]; dup {
				errs = append(errs, fmt.Sprintf("role %q: steps %q and %q share priority %d", r, prev, s.ID, s.Priority))
			}
			priorities[s.Priority] = s.ID
			if s.Priority == 1 {
				hasEntry = true
			}
			if len(s.Modules) == 0 {
				errs = append(errs, fmt.Sprintf("step %q has no modules", s.ID))
			}
		}
		if !hasEntry {
			errs = append(errs, fmt.Sprintf("role %q has no entry step (priority 1)", r))
		}
	}
	for r, n := range seenRoles {
		if n > 1 {
			errs = append(errs, fmt.Sprintf("duplicate role: %q", r))
		}
	}

	stepIDs := make([]string, 0, len(stepOwners))
	for id := range stepOwners {
		stepIDs = append(stepIDs, id)
	}
	sort.Strings(stepIDs)
	for _, id := range stepIDs {
		if len(stepOwners[id]) > 1 {
			errs = append(errs, fmt.Sprintf("duplicate step ID: %q", id))
		}
	}

	mapped := make([]Feature, 0, len(c.mappings))
	for f := range c.mappings {
		mapped = append(mapped, f)
	}
	sort.Slice(mapped, func(i, j int) bool { return mapped[i] < mapped[j] })
	for _, f := range mapped {
		m := c.mappings[f]
		if !featureSet[f] {
			errs = append(errs, fmt.Sprintf("mapping references undescribed feature %q", f))
		}
		for r, ids := range m.Steps {
			p, ok := c.paths[r]
			if !ok {
				errs = append(errs, fmt.Sprintf("mapping %q references role %q with no path", f, r))
				continue
			}
			for _, id := range ids {
				if !pathHasStep(p, id) {
					errs = append(errs, fmt.Sprintf("mapping %q: role %q has no step %q", f, r, id))
				}
			}
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}
	return nil
}

func pathHasStep(p Path, id string) bool {
	for _, s := range p.Steps {
		if s.ID == id {
			return true
		}
	}
	return false
}

func sortedRoles(m map[Role]int) []Role {
	out := make([]Role, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
