// Package catalog holds the static list of datasets an ingest run processes.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Descriptor identifies one remote dataset.
type Descriptor struct {
	Name        string `yaml:"name"`        // unique logical name, also the staging directory
	Ref         string `yaml:"ref"`         // remote locator, "owner/slug"
	Description string `yaml:"description"`
}

// Catalog is an ordered, immutable list of descriptors.
type Catalog struct {
	entries []Descriptor
}

type catalogFile struct {
	Datasets []Descriptor `yaml:"datasets"`
}

// ErrEmptyCatalog is returned when a catalog file lists no datasets.
var ErrEmptyCatalog = errors.New("catalog contains no datasets")

// New builds a catalog from descriptors and validates it. Names and refs are
// trimmed, since names become staging directories and drive classification.
func New(entries []Descriptor) (Catalog, error) {
	c := Catalog{entries: make([]Descriptor, len(entries))}
	for i, d := range entries {
		d.Name = strings.TrimSpace(d.Name)
		d.Ref = strings.TrimSpace(d.Ref)
		c.entries[i] = d
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() Catalog {
	return Catalog{entries: []Descriptor{
		{
			Name:        "heart-disease-dataset",
			Ref:         "johnsmith88/heart-disease-dataset",
			Description: "Heart disease prediction dataset",
		},
		{
			Name:        "diabetes-dataset",
			Ref:         "kandij/diabetes-dataset",
			Description: "Diabetes prediction dataset",
		},
		{
			Name:        "medical-appointment-no-shows",
			Ref:         "joniarroba/noshowappointments",
			Description: "Medical appointment no-shows dataset",
		},
		{
			Name:        "medical-cost-personal-datasets",
			Ref:         "mirichoi0218/insurance",
			Description: "Medical insurance cost dataset",
		},
		{
			Name:        "stroke-prediction-dataset",
			Ref:         "fedesoriano/stroke-prediction-dataset",
			Description: "Stroke prediction dataset",
		},
	}}
}

// Load reads a YAML catalog from path. An empty path yields Default.
//
//	datasets:
//	  - name: heart-disease-dataset
//	    ref: johnsmith88/heart-disease-dataset
//	    description: Heart disease prediction dataset
func Load(path string) (Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(content, &f); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(f.Datasets) == 0 {
		return Catalog{}, fmt.Errorf("%s: %w", path, ErrEmptyCatalog)
	}

	return New(f.Datasets)
}

// Validate checks names are present and unique and refs look like owner/slug.
func (c Catalog) Validate() error {
	var errs []string
	seen := make(map[string]bool, len(c.entries))

	for i, d := range c.entries {
		name := strings.TrimSpace(d.Name)
		switch {
		case name == "":
			errs = append(errs, fmt.Sprintf("entry %d: name is required", i))
		case seen[name]:
			errs = append(errs, fmt.Sprintf("entry %d: duplicate name %q", i, name))
		case strings.ContainsAny(name, `/\`) || name == "." || name == "..":
			errs = append(errs, fmt.Sprintf("entry %d: name %q is not a valid directory name", i, name))
		}
		seen[name] = true

		owner, slug, ok := strings.Cut(d.Ref, "/")
		if !ok || owner == "" || slug == "" || strings.Contains(slug, "/") {
			errs = append(errs, fmt.Sprintf("entry %d (%s): ref %q must be owner/slug", i, name, d.Ref))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid catalog:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Entries returns a copy of the descriptors in catalog order.
func (c Catalog) Entries() []Descriptor {
	return append([]Descriptor(nil), c.entries...)
}

// Len returns the number of descriptors.
func (c Catalog) Len() int {
	return len(c.entries)
}
