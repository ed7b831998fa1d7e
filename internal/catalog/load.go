package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
)

// SupportedMajor is the catalog document major version this build understands.
const SupportedMajor = "v1"

const schemaURL = "schema://sentrypath/catalog.json"

//go:embed data/schema.json
var catalogSchemaJSON []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// document is the on-disk catalog shape.
type document struct {
	Version  string            `json:"version"`
	Features []featureDoc      `json:"features"`
	Roles    []roleDoc         `json:"roles"`
	Mappings []mappingDocEntry `json:"mappings"`
}

type featureDoc struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type roleDoc struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Features []string  `json:"features"`
	Path     []stepDoc `json:"path"`
}

type stepDoc struct {
	ID            string   `json:"id"`
	Priority      int      `json:"priority"`
	Modules       []string `json:"modules"`
	EstimatedTime string   `json:"estimatedTime"`
	Description   string   `json:"description"`
}

type mappingDocEntry struct {
	Feature string              `json:"feature"`
	Modules []string            `json:"modules"`
	Steps   map[string][]string `json:"steps"`
}

// LoadFile reads and validates a catalog document from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Load parses a catalog document, checks it against the catalog JSON schema
// and the supported version, and validates its structure.
func Load(r io.Reader) (*Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	if err := checkVersion(doc.Version); err != nil {
		return nil, err
	}

	c := build(doc)
	if err := validateCatalog(c); err != nil {
		return nil, err
	}
	return c, nil
}

func checkVersion(v string) error {
	if !semver.IsValid(v) {
		return fmt.Errorf("catalog version %q is not a valid semantic version", v)
	}
	if major := semver.Major(v); major != SupportedMajor {
		return fmt.Errorf("catalog version %s: unsupported major %s (want %s)", v, major, SupportedMajor)
	}
	return nil
}

func validateSchema(raw []byte) error {
	schema, err := catalogSchema()
	if err != nil {
		return fmt.Errorf("compile catalog schema: %w", err)
	}

	// The jsonschema library expects a parsed JSON value (any), not raw bytes.
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid catalog JSON: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("catalog schema validation failed: %w", err)
	}
	return nil
}

func catalogSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		def, err := jsonschema.UnmarshalJSON(bytes.NewReader(catalogSchemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// build converts a decoded document into a Catalog with its lookup indices.
// Structural problems are left for validateCatalog to report.
func build(doc document) *Catalog {
	c := &Catalog{
		version:      doc.Version,
		roleNames:    make(map[Role]string, len(doc.Roles)),
		roleFeatures: make(map[Role][]Feature, len(doc.Roles)),
		paths:        make(map[Role]Path, len(doc.Roles)),
		mappings:     make(map[Feature]FeatureMapping, len(doc.Mappings)),
		stepIndex:    make(map[string]Role),
	}

	for _, f := range doc.Features {
		c.features = append(c.features, FeatureInfo{
			ID:          Feature(f.ID),
			Name:        f.Name,
			Description: f.Description,
		})
	}

	for _, rd := range doc.Roles {
		role := Role(rd.ID)
		// Duplicates stay in roleOrder so validateCatalog can report them.
		c.roleOrder = append(c.roleOrder, role)
		c.roleNames[role] = rd.Name

		feats := make([]Feature, 0, len(rd.Features))
		for _, f := range rd.Features {
			feats = append(feats, Feature(f))
		}
		c.roleFeatures[role] = feats

		p := Path{Role: role, Steps: make([]Step, 0, len(rd.Path))}
		for _, sd := range rd.Path {
			p.Steps = append(p.Steps, Step{
				ID:            sd.ID,
				Description:   sd.Description,
				Priority:      sd.Priority,
				Modules:       sd.Modules,
				EstimatedTime: sd.EstimatedTime,
			})
			if _, seen := c.stepIndex[sd.ID]; !seen {
				c.stepIndex[sd.ID] = role
			}
		}
		c.paths[role] = p
	}

	for _, md := range doc.Mappings {
		m := FeatureMapping{
			Feature: Feature(md.Feature),
			Modules: md.Modules,
			Steps:   make(map[Role][]string, len(md.Steps)),
		}
		for r, ids := range md.Steps {
			m.Steps[Role(r)] = ids
		}
		c.mappings[m.Feature] = m
	}

	return c
}
