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

package generalization

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Degree is an enum type. Its values are relative generalization levels,
// expressed as a fraction of the height of an attribute's hierarchy.
type Degree int

// Generalization degrees, from original values to complete generalization.
const (
	None Degree = iota
	Low
	LowMedium
	Medium
	MediumHigh
	High
	Complete
)

var degreeFactors = map[Degree]float64{
	None:       0,
	Low:        0.2,
	LowMedium:  0.4,
	Medium:     0.5,
	MediumHigh: 0.6,
	High:       0.8,
	Complete:   1,
}

var degreeNames = map[Degree]string{
	None:       "NONE",
	Low:        "LOW",
	LowMedium:  "LOW_MEDIUM",
	Medium:     "MEDIUM",
	MediumHigh: "MEDIUM_HIGH",
	High:       "HIGH",
	Complete:   "COMPLETE",
}

// Degrees returns all generalization degrees in ascending order.
func Degrees() []Degree {
	return []Degree{None, Low, LowMedium, Medium, MediumHigh, High, Complete}
}

// Factor returns the fraction of the maximum generalization level d stands for.
func (d Degree) Factor() float64 {
	return degreeFactors[d]
}

func (d Degree) valid() bool {
	_, ok := degreeFactors[d]
	return ok
}

func (d Degree) String() string {
	if name, ok := degreeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Degree(%d)", int(d))
}

// ParseDegree returns the degree with the given name, e.g. "MEDIUM_HIGH".
// Matching ignores case and accepts '-' in place of '_'.
func ParseDegree(name string) (Degree, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
	for _, d := range Degrees() {
		if degreeNames[d] == normalized {
			return d, nil
		}
	}
	return None, fmt.Errorf("unknown generalization degree %q", name)
}

// UnmarshalYAML decodes a degree from its name.
func (d *Degree) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseDegree(name)
	if err != nil {
		return fmt.Errorf("line %d: %v", value.Line, err)
	}
	*d = parsed
	return nil
}

// MarshalYAML encodes a degree as its name.
func (d Degree) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}
