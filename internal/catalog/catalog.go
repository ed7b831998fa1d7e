package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"slices"
)

//go:embed data/catalog.json
var defaultCatalogJSON []byte

// Catalog holds the role path templates and the feature mapping table.
// A Catalog is immutable after construction; accessors return copies.
type Catalog struct {
	version      string
	features     []FeatureInfo
	roleNames    map[Role]string
	roleOrder    []Role
	roleFeatures map[Role][]Feature
	paths        map[Role]Path
	mappings     map[Feature]FeatureMapping
	stepIndex    map[string]Role
}

// def is the package-level default catalog, set by init().
var def *Catalog

func init() {
	c, err := Load(bytes.NewReader(defaultCatalogJSON))
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	def = c
}

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	return def
}

// Version returns the catalog's semantic version.
func (c *Catalog) Version() string {
	return c.version
}

// Roles returns the roles that have a definition, in catalog order.
func (c *Catalog) Roles() []Role {
	return slices.Clone(c.roleOrder)
}

// RoleName returns the catalog's long name for a role.
func (c *Catalog) RoleName(r Role) string {
	if n, ok := c.roleNames[r]; ok {
		return n
	}
	return RoleDisplayName(r)
}

// IsRole reports whether the catalog defines r.
func (c *Catalog) IsRole(r Role) bool {
	_, ok := c.roleNames[r]
	return ok
}

// IsFeature reports whether the catalog describes f.
func (c *Catalog) IsFeature(f Feature) bool {
	for _, fi := range c.features {
		if fi.ID == f {
			return true
		}
	}
	return false
}

// Features returns all described features in catalog order.
func (c *Catalog) Features() []FeatureInfo {
	return slices.Clone(c.features)
}

// Feature returns the description of f.
func (c *Catalog) Feature(f Feature) (FeatureInfo, bool) {
	for _, fi := range c.features {
		if fi.ID == f {
			return fi, true
		}
	}
	return FeatureInfo{}, false
}

// FeaturesForRole returns the features offered to learners of role r during
// onboarding, in catalog order.
func (c *Catalog) FeaturesForRole(r Role) []FeatureInfo {
	var out []FeatureInfo
	for _, f := range c.roleFeatures[r] {
		if fi, ok := c.Feature(f); ok {
			out = append(out, fi)
		}
	}
	return out
}

// PathFor returns a copy of the path template for r.
func (c *Catalog) PathFor(r Role) (Path, bool) {
	p, ok := c.paths[r]
	if !ok {
		return Path{}, false
	}
	return clonePath(p), true
}

// Mapping returns the feature mapping entry for f.
func (c *Catalog) Mapping(f Feature) (FeatureMapping, bool) {
	m, ok := c.mappings[f]
	if !ok {
		return FeatureMapping{}, false
	}
	return cloneMapping(m), true
}

// StepRole returns the role whose path contains the step ID.
func (c *Catalog) StepRole(stepID string) (Role, bool) {
	r, ok := c.stepIndex[stepID]
	return r, ok
}
