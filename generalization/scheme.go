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

// Package generalization contains generalization schemes, which determine
// how far each attribute of a dataset is generalized along its hierarchy.
package generalization

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/deidentifier/sdgs/checks"
)

var (
	// ErrUnknownAttribute is returned when an override references an attribute
	// that is not part of the scheme.
	ErrUnknownAttribute = errors.New("unknown attribute")
	// ErrInvalidLevel is returned for negative generalization levels.
	ErrInvalidLevel = errors.New("invalid generalization level")
)

// Bounds describes the hierarchy of a single attribute.
type Bounds struct {
	HasHierarchy bool
	// Min and Max are the lowest and highest generalization levels the
	// hierarchy allows.
	Min, Max int
}

// Definition gives access to the hierarchies of a dataset's attributes.
type Definition interface {
	IsHierarchyAvailable(attribute string) bool
	MinimumGeneralization(attribute string) int
	MaximumGeneralization(attribute string) int
}

// Hierarchies is a Definition backed by a map. Attributes without an entry
// have no hierarchy.
type Hierarchies map[string]Bounds

// IsHierarchyAvailable implements Definition.
func (h Hierarchies) IsHierarchyAvailable(attribute string) bool {
	return h[attribute].HasHierarchy
}

// MinimumGeneralization implements Definition.
func (h Hierarchies) MinimumGeneralization(attribute string) int {
	return h[attribute].Min
}

// MaximumGeneralization implements Definition.
func (h Hierarchies) MaximumGeneralization(attribute string) int {
	return h[attribute].Max
}

// BoundsOf returns the bounds of attribute as described by def.
func BoundsOf(attribute string, def Definition) Bounds {
	return Bounds{
		HasHierarchy: def.IsHierarchyAvailable(attribute),
		Min:          def.MinimumGeneralization(attribute),
		Max:          def.MaximumGeneralization(attribute),
	}
}

// Scheme selects a generalization level for every attribute of a dataset.
//
// In order of precedence, the level of an attribute is given by an explicit
// level for the attribute, a degree for the attribute, or a degree for all
// attributes. Without any of these, the attribute is not generalized.
//
// A Scheme is not safe for concurrent modification. Once configured, it may
// be read concurrently.
type Scheme struct {
	attributes map[string]bool
	levels     map[string]int
	degrees    map[string]Degree
	degree     Degree
	hasDegree  bool
}

// NewScheme returns a scheme without overrides for the given attributes.
func NewScheme(attributes []string) *Scheme {
	s := &Scheme{
		attributes: make(map[string]bool, len(attributes)),
		levels:     make(map[string]int),
		degrees:    make(map[string]Degree),
	}
	for _, a := range attributes {
		s.attributes[a] = true
	}
	return s
}

// NewSchemeWithDegree returns a scheme for the given attributes that
// generalizes all of them to degree.
func NewSchemeWithDegree(attributes []string, degree Degree) (*Scheme, error) {
	s := NewScheme(attributes)
	if err := s.Generalize(degree); err != nil {
		return nil, err
	}
	return s, nil
}

// Generalize sets the degree applied to attributes without a more specific
// override.
func (s *Scheme) Generalize(degree Degree) error {
	if !degree.valid() {
		return fmt.Errorf("generalization.Generalize: %v is not a generalization degree", degree)
	}
	s.degree = degree
	s.hasDegree = true
	return nil
}

// GeneralizeAttribute sets the degree to which attribute is generalized.
func (s *Scheme) GeneralizeAttribute(attribute string, degree Degree) error {
	if err := s.check(attribute); err != nil {
		return err
	}
	if !degree.valid() {
		return fmt.Errorf("generalization.GeneralizeAttribute: %v is not a generalization degree", degree)
	}
	s.degrees[attribute] = degree
	return nil
}

// GeneralizeAttributeLevel sets the level to which attribute is generalized.
func (s *Scheme) GeneralizeAttributeLevel(attribute string, level int) error {
	if err := s.check(attribute); err != nil {
		return err
	}
	if err := checks.CheckGeneralizationLevel("generalization.GeneralizeAttributeLevel", level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	s.levels[attribute] = level
	return nil
}

func (s *Scheme) check(attribute string) error {
	if !s.attributes[attribute] {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, attribute)
	}
	return nil
}

// Attributes returns the attributes of the scheme in lexical order.
func (s *Scheme) Attributes() []string {
	attributes := make([]string, 0, len(s.attributes))
	for a := range s.attributes {
		attributes = append(attributes, a)
	}
	sort.Strings(attributes)
	return attributes
}

// Degree returns the degree applied to all attributes, if one is set.
func (s *Scheme) Degree() (Degree, bool) {
	return s.degree, s.hasDegree
}

// Resolve returns the generalization level for attribute, clamped to
// [b.Min, b.Max]. Attributes without a hierarchy resolve to level 0 before
// clamping, whatever their overrides.
func (s *Scheme) Resolve(attribute string, b Bounds) int {
	level := 0
	if b.HasHierarchy {
		if l, ok := s.levels[attribute]; ok {
			level = l
		} else if d, ok := s.degrees[attribute]; ok {
			level = levelOf(d, b.Max)
		} else if s.hasDegree {
			level = levelOf(s.degree, b.Max)
		}
	}
	if level < b.Min {
		level = b.Min
	}
	if level > b.Max {
		level = b.Max
	}
	return level
}

// Level returns the generalization level for attribute given the hierarchies
// described by def.
func (s *Scheme) Level(attribute string, def Definition) int {
	return s.Resolve(attribute, BoundsOf(attribute, def))
}

func levelOf(d Degree, maxLevel int) int {
	return int(math.Round(d.Factor() * float64(maxLevel)))
}

// encodableScheme can be encoded by the gob package.
type encodableScheme struct {
	Attributes []string
	Levels     map[string]int
	Degrees    map[string]Degree
	Degree     Degree
	HasDegree  bool
}

// GobEncode encodes Scheme.
func (s *Scheme) GobEncode() ([]byte, error) {
	enc := encodableScheme{
		Attributes: s.Attributes(),
		Levels:     s.levels,
		Degrees:    s.degrees,
		Degree:     s.degree,
		HasDegree:  s.hasDegree,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(enc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode decodes Scheme.
func (s *Scheme) GobDecode(data []byte) error {
	var enc encodableScheme
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&enc); err != nil {
		return fmt.Errorf("generalization.GobDecode: couldn't decode Scheme from bytes: %v", err)
	}
	decoded := NewScheme(enc.Attributes)
	if enc.HasDegree {
		if err := decoded.Generalize(enc.Degree); err != nil {
			return err
		}
	}
	for a, d := range enc.Degrees {
		if err := decoded.GeneralizeAttribute(a, d); err != nil {
			return err
		}
	}
	for a, l := range enc.Levels {
		if err := decoded.GeneralizeAttributeLevel(a, l); err != nil {
			return err
		}
	}
	*s = *decoded
	return nil
}
