package progress

import (
	"slices"
	"time"

	"github.com/abhisek/sentrypath/internal/catalog"
)

// ContentType is the learner's preferred style of material.
type ContentType string

const (
	ContentHandsOn    ContentType = "hands-on"
	ContentConceptual ContentType = "conceptual"
	ContentMixed      ContentType = "mixed"
)

// UserProgress is the per-user progress record.
//
// Role is empty when the learner has not picked one yet. The three completed
// sets are kept sorted and free of duplicates; they only grow, except through
// a full reset.
type UserProgress struct {
	Role                 catalog.Role      `json:"role,omitempty"`
	CurrentStep          int               `json:"currentStep"`
	CompletedSteps       []string          `json:"completedSteps"`
	CompletedModules     []string          `json:"completedModules"`
	CompletedFeatures    []catalog.Feature `json:"completedFeatures"`
	OnboardingCompleted  bool              `json:"onboardingCompleted"`
	PreferredContentType ContentType       `json:"preferredContentType"`
	HasSeenOnboarding    bool              `json:"hasSeenOnboarding"`
	LastActiveDate       time.Time         `json:"lastActiveDate"`
}

// Defaults returns the record a new user starts with and a reset returns to.
func Defaults() UserProgress {
	return UserProgress{
		CompletedSteps:       []string{},
		CompletedModules:     []string{},
		CompletedFeatures:    []catalog.Feature{},
		PreferredContentType: ContentMixed,
	}
}

// HasRole reports whether a role has been selected.
func (p UserProgress) HasRole() bool {
	return p.Role != ""
}

// HasStep reports whether the step ID is completed.
func (p UserProgress) HasStep(id string) bool {
	_, ok := slices.BinarySearch(p.CompletedSteps, id)
	return ok
}

// HasModule reports whether the module ID is completed.
func (p UserProgress) HasModule(id string) bool {
	_, ok := slices.BinarySearch(p.CompletedModules, id)
	return ok
}

// HasFeature reports whether the feature is known.
func (p UserProgress) HasFeature(f catalog.Feature) bool {
	_, ok := slices.BinarySearch(p.CompletedFeatures, f)
	return ok
}

// Clone returns a deep copy of p.
func (p UserProgress) Clone() UserProgress {
	p.CompletedSteps = cloneNonNil(p.CompletedSteps)
	p.CompletedModules = cloneNonNil(p.CompletedModules)
	p.CompletedFeatures = cloneNonNil(p.CompletedFeatures)
	return p
}

// Equal reports whether two records hold the same values.
// LastActiveDate is compared with time.Time.Equal.
func (p UserProgress) Equal(o UserProgress) bool {
	return p.Role == o.Role &&
		p.CurrentStep == o.CurrentStep &&
		slices.Equal(p.CompletedSteps, o.CompletedSteps) &&
		slices.Equal(p.CompletedModules, o.CompletedModules) &&
		slices.Equal(p.CompletedFeatures, o.CompletedFeatures) &&
		p.OnboardingCompleted == o.OnboardingCompleted &&
		p.PreferredContentType == o.PreferredContentType &&
		p.HasSeenOnboarding == o.HasSeenOnboarding &&
		p.LastActiveDate.Equal(o.LastActiveDate)
}

// Normalize sorts and de-duplicates the completed sets, replacing nil sets
// with empty ones and an empty content type with the default.
func (p UserProgress) Normalize() UserProgress {
	p.CompletedSteps = union(nil, p.CompletedSteps)
	p.CompletedModules = union(nil, p.CompletedModules)
	p.CompletedFeatures = union(nil, p.CompletedFeatures)
	if p.PreferredContentType == "" {
		p.PreferredContentType = ContentMixed
	}
	return p
}

// Update is a partial change to a UserProgress. Nil scalar fields are left
// unchanged. Set fields are added to the existing sets.
type Update struct {
	Role                 *catalog.Role     `json:"role,omitempty"`
	CurrentStep          *int              `json:"currentStep,omitempty" validate:"omitempty,gte=0"`
	CompletedSteps       []string          `json:"completedSteps,omitempty" validate:"dive,required"`
	CompletedModules     []string          `json:"completedModules,omitempty" validate:"dive,required"`
	CompletedFeatures    []catalog.Feature `json:"completedFeatures,omitempty" validate:"dive,required"`
	OnboardingCompleted  *bool             `json:"onboardingCompleted,omitempty"`
	PreferredContentType *ContentType      `json:"preferredContentType,omitempty" validate:"omitempty,oneof=hands-on conceptual mixed"`
	HasSeenOnboarding    *bool             `json:"hasSeenOnboarding,omitempty"`
}

// IsEmpty reports whether u changes nothing.
func (u Update) IsEmpty() bool {
	return u.Role == nil &&
		u.CurrentStep == nil &&
		len(u.CompletedSteps) == 0 &&
		len(u.CompletedModules) == 0 &&
		len(u.CompletedFeatures) == 0 &&
		u.OnboardingCompleted == nil &&
		u.PreferredContentType == nil &&
		u.HasSeenOnboarding == nil
}

// Mapped is what prior feature knowledge translates to for one role.
// Lists keep input order and may contain duplicates.
type Mapped struct {
	CompletedModules  []string
	CompletedFeatures []catalog.Feature
	CompletedStepIDs  []string
}

func cloneNonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}

// union returns the sorted, de-duplicated union of base and add.
func union[T ~string](base, add []T) []T {
	out := make([]T, 0, len(base)+len(add))
	out = append(out, base...)
	out = append(out, add...)
	slices.Sort(out)
	return slices.Compact(out)
}
