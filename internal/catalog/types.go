package catalog

import "slices"

// Role is the engineer persona a learner picks during onboarding.
type Role string

const (
	RoleFrontend  Role = "frontend"
	RoleBackend   Role = "backend"
	RoleSRE       Role = "sre"
	RoleFullstack Role = "fullstack"
	RoleAIML      Role = "ai-ml"
	RolePMManager Role = "pm-manager"
)

// AllRoles returns all roles in display order.
func AllRoles() []Role {
	return []Role{
		RoleFrontend,
		RoleBackend,
		RoleSRE,
		RoleFullstack,
		RoleAIML,
		RolePMManager,
	}
}

// IsKnownRole reports whether r is one of the fixed roles.
func IsKnownRole(r Role) bool {
	return slices.Contains(AllRoles(), r)
}

// RoleDisplayName returns a human-readable name for a role.
func RoleDisplayName(r Role) string {
	switch r {
	case RoleFrontend:
		return "Frontend"
	case RoleBackend:
		return "Backend"
	case RoleSRE:
		return "SRE"
	case RoleFullstack:
		return "Full-Stack"
	case RoleAIML:
		return "AI/ML"
	case RolePMManager:
		return "PM / Manager"
	default:
		return string(r)
	}
}

// Feature is a capability area a learner may already know.
type Feature string

const (
	FeatureErrorTracking         Feature = "error-tracking"
	FeaturePerformanceMonitoring Feature = "performance-monitoring"
	FeatureLogging               Feature = "logging"
	FeatureSessionReplay         Feature = "session-replay"
	FeatureDistributedTracing    Feature = "distributed-tracing"
	FeatureReleaseHealth         Feature = "release-health"
	FeatureDashboardsAlerts      Feature = "dashboards-alerts"
	FeatureIntegrations          Feature = "integrations"
	FeatureUserFeedback          Feature = "user-feedback"
	FeatureSeerMCP               Feature = "seer-mcp"
	FeatureCustomMetrics         Feature = "custom-metrics"
	FeatureMetricsInsights       Feature = "metrics-insights"
	FeatureStakeholderReporting  Feature = "stakeholder-reporting"
)

// AllFeatures returns the closed set of features.
func AllFeatures() []Feature {
	return []Feature{
		FeatureErrorTracking,
		FeaturePerformanceMonitoring,
		FeatureLogging,
		FeatureSessionReplay,
		FeatureDistributedTracing,
		FeatureReleaseHealth,
		FeatureDashboardsAlerts,
		FeatureIntegrations,
		FeatureUserFeedback,
		FeatureSeerMCP,
		FeatureCustomMetrics,
		FeatureMetricsInsights,
		FeatureStakeholderReporting,
	}
}

// IsKnownFeature reports whether f belongs to the feature set.
func IsKnownFeature(f Feature) bool {
	return slices.Contains(AllFeatures(), f)
}

// FeatureInfo describes a feature for display.
type FeatureInfo struct {
	ID          Feature
	Name        string
	Description string
}

// Step is one learning step of a role's path template.
type Step struct {
	ID            string
	Description   string
	Priority      int
	Modules       []string
	EstimatedTime string
}

// Path is the ordered step template for one role.
type Path struct {
	Role  Role
	Steps []Step
}

// FeatureMapping says what prior knowledge of a feature counts as done:
// the feature itself, a set of modules, and per-role step IDs.
// Roles absent from Steps have no step for the feature.
type FeatureMapping struct {
	Feature Feature
	Modules []string
	Steps   map[Role][]string
}

func cloneStep(s Step) Step {
	s.Modules = slices.Clone(s.Modules)
	return s
}

func clonePath(p Path) Path {
	steps := make([]Step, len(p.Steps))
	for i, s := range p.Steps {
		steps[i] = cloneStep(s)
	}
	return Path{Role: p.Role, Steps: steps}
}

func cloneMapping(m FeatureMapping) FeatureMapping {
	steps := make(map[Role][]string, len(m.Steps))
	for r, ids := range m.Steps {
		steps[r] = slices.Clone(ids)
	}
	return FeatureMapping{
		Feature: m.Feature,
		Modules: slices.Clone(m.Modules),
		Steps:   steps,
	}
}
