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

// Package criteria contains privacy criteria that decide whether an
// equivalence class of a generalized dataset is anonymous.
//
// An anonymization engine holds a set of criteria, initializes each of them
// once per dataset and then asks every criterion, in turn, whether a class
// is anonymous.
package criteria

import (
	"errors"
	"strings"
)

// Requirement is a bit set of the per-class statistics a criterion needs the
// engine to maintain.
type Requirement int

// Statistics an engine may maintain for every equivalence class.
const (
	// RequirementCounter asks for the number of records in the class.
	RequirementCounter Requirement = 1 << iota
	// RequirementSecondaryCounter asks for a second count, e.g. of the records
	// of the class that belong to a research subset.
	RequirementSecondaryCounter
	// RequirementDistribution asks for the frequencies of sensitive values.
	RequirementDistribution
)

var requirementNames = []struct {
	r    Requirement
	name string
}{
	{RequirementCounter, "Counter"},
	{RequirementSecondaryCounter, "SecondaryCounter"},
	{RequirementDistribution, "Distribution"},
}

// Has returns whether all requirements in o are part of r.
func (r Requirement) Has(o Requirement) bool {
	return r&o == o
}

func (r Requirement) String() string {
	var names []string
	for _, n := range requirementNames {
		if r.Has(n.r) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, "|")
}

// ErrNilManager is returned when a criterion is initialized without a data manager.
var ErrNilManager = errors.New("data manager is nil")

// DataManager is the engine's handle on a dataset. Criteria compare
// managers with ==, so implementations must be comparable; pointers are.
type DataManager interface {
	// DatasetSize returns the number of records of the generalized dataset.
	DatasetSize() int
}

// EquivalenceClass is a set of records sharing the same generalized values.
type EquivalenceClass interface {
	// Count returns the number of records in the class.
	Count() int
}

// PrivacyCriterion is a privacy model an engine can enforce.
type PrivacyCriterion interface {
	// Requirements returns the statistics the criterion reads.
	Requirements() Requirement
	// Initialize prepares the criterion for the dataset of manager.
	Initialize(manager DataManager) error
	// IsAnonymous returns whether entry satisfies the criterion.
	IsAnonymous(entry EquivalenceClass) bool
	String() string
}

// IsAnonymous returns whether entry satisfies all criteria. Criteria are
// consulted in order and evaluation stops at the first violated one.
func IsAnonymous(entry EquivalenceClass, criteria ...PrivacyCriterion) bool {
	for _, c := range criteria {
		if !c.IsAnonymous(entry) {
			return false
		}
	}
	return true
}

// Requirements returns the union of the requirements of all criteria.
func Requirements(criteria ...PrivacyCriterion) Requirement {
	var r Requirement
	for _, c := range criteria {
		r |= c.Requirements()
	}
	return r
}

// Describe renders a set of criteria as "{c1, c2, ...}".
func Describe(criteria ...PrivacyCriterion) string {
	names := make([]string, len(criteria))
	for i, c := range criteria {
		names[i] = c.String()
	}
	return "{" + strings.Join(names, ", ") + "}"
}
