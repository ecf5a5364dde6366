//
// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package config loads the description of an (ε,δ)-differential privacy
// criterion from YAML.
//
// A configuration looks like:
//
//	epsilon: 1
//	delta: 1e-5
//	dataset_size: 1000
//	degree: medium
//	attributes:
//	  - name: age
//	    degree: high
//	    hierarchy: {min: 0, max: 10}
//	  - name: zip
//	    level: 2
//	    hierarchy: {min: 1, max: 5}
//	  - name: sex
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/deidentifier/sdgs/checks"
	"github.com/deidentifier/sdgs/criteria"
	"github.com/deidentifier/sdgs/generalization"
	"github.com/deidentifier/sdgs/rand"
	"gopkg.in/yaml.v3"
)

// Config describes a criterion and the dataset it is applied to.
type Config struct {
	Epsilon     float64                `yaml:"epsilon"`
	Delta       float64                `yaml:"delta"`
	DatasetSize int                    `yaml:"dataset_size"`
	Degree      *generalization.Degree `yaml:"degree,omitempty"`
	Attributes  []Attribute            `yaml:"attributes"`
}

// Attribute configures the generalization of one quasi-identifier. Level
// takes precedence over Degree. Attributes without Hierarchy are never
// generalized.
type Attribute struct {
	Name      string                 `yaml:"name"`
	Degree    *generalization.Degree `yaml:"degree,omitempty"`
	Level     *int                   `yaml:"level,omitempty"`
	Hierarchy *Hierarchy             `yaml:"hierarchy,omitempty"`
}

// Hierarchy holds the generalization levels permitted for an attribute.
type Hierarchy struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Load reads the configuration in the YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: couldn't read %s: %w", path, err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse reads a YAML configuration from r. Unknown fields are rejected.
func Parse(r io.Reader) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("config.Parse: couldn't parse YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the attributes of c. The privacy budget is checked when the
// criterion is built.
func (c *Config) Validate() error {
	if err := checks.CheckDatasetSize("config.Validate", c.DatasetSize); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Attributes))
	for i, a := range c.Attributes {
		if a.Name == "" {
			return fmt.Errorf("config.Validate: attribute %d has no name", i)
		}
		if seen[a.Name] {
			return fmt.Errorf("config.Validate: attribute %q is configured twice", a.Name)
		}
		seen[a.Name] = true
		if a.Level != nil {
			if err := checks.CheckGeneralizationLevel("config.Validate", *a.Level); err != nil {
				return err
			}
		}
		if h := a.Hierarchy; h != nil {
			if err := checks.CheckHierarchyBounds("config.Validate", a.Name, h.Min, h.Max); err != nil {
				return err
			}
		}
	}
	return nil
}

// Scheme returns the generalization scheme described by c.
func (c *Config) Scheme() (*generalization.Scheme, error) {
	names := make([]string, len(c.Attributes))
	for i, a := range c.Attributes {
		names[i] = a.Name
	}
	s := generalization.NewScheme(names)
	if c.Degree != nil {
		if err := s.Generalize(*c.Degree); err != nil {
			return nil, err
		}
	}
	for _, a := range c.Attributes {
		if a.Degree != nil {
			if err := s.GeneralizeAttribute(a.Name, *a.Degree); err != nil {
				return nil, err
			}
		}
		if a.Level != nil {
			if err := s.GeneralizeAttributeLevel(a.Name, *a.Level); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// Hierarchies returns the hierarchy bounds of the configured attributes.
func (c *Config) Hierarchies() generalization.Hierarchies {
	h := make(generalization.Hierarchies, len(c.Attributes))
	for _, a := range c.Attributes {
		if a.Hierarchy == nil {
			h[a.Name] = generalization.Bounds{}
			continue
		}
		h[a.Name] = generalization.Bounds{HasHierarchy: true, Min: a.Hierarchy.Min, Max: a.Hierarchy.Max}
	}
	return h
}

// Criterion returns the criterion described by c. A nil src draws research
// subsets from the secure source.
func (c *Config) Criterion(src rand.Source) (*criteria.EDDifferentialPrivacy, error) {
	s, err := c.Scheme()
	if err != nil {
		return nil, err
	}
	return criteria.NewEDDifferentialPrivacy(&criteria.EDDifferentialPrivacyOptions{
		Epsilon: c.Epsilon,
		Delta:   c.Delta,
		Scheme:  s,
		Source:  src,
	})
}
