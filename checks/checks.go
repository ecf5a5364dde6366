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

// Package checks contains checks for the parameters of the (k,β)-SDGS
// differential privacy criterion and its generalization scheme.
package checks

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
)

// CheckEpsilonVeryStrict returns an error if ε is +∞, NaN or less than 2⁻⁵⁰.
//
// Passing this check does not make ε usable for calibration. Small values
// accepted here still put the first sample size of a calibration scan, about
// 1/(2ε), out of reach, and calibration then fails to converge.
func CheckEpsilonVeryStrict(label string, epsilon float64) error {
	if epsilon < math.Exp2(-50.0) || math.IsInf(epsilon, 0) || math.IsNaN(epsilon) {
		return fmt.Errorf("%s: Epsilon is %f, must be at least 2^-50 and finite", label, epsilon)
	}
	return nil
}

// CheckDeltaStrict returns an error if δ is nonpositive or greater than or equal to 1.
func CheckDeltaStrict(label string, delta float64) error {
	if math.IsNaN(delta) {
		return fmt.Errorf("%s: Delta is %e, cannot be NaN", label, delta)
	}
	if delta <= 0 {
		return fmt.Errorf("%s: Delta is %e, must be strictly positive", label, delta)
	}
	if delta >= 1 {
		return fmt.Errorf("%s: Delta is %e, must be strictly less than 1", label, delta)
	}
	return nil
}

// CheckSamplingProbability returns an error if p is not within [0, 1].
func CheckSamplingProbability(label string, p float64) error {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return fmt.Errorf("%s: Sampling probability is %f, must be within [0, 1]", label, p)
	}
	return nil
}

// CheckDatasetSize returns an error if size is negative.
func CheckDatasetSize(label string, size int) error {
	if size < 0 {
		return fmt.Errorf("%s: Dataset size is %d, must be at least 0", label, size)
	}
	return nil
}

// CheckGeneralizationLevel returns an error if level is negative.
func CheckGeneralizationLevel(label string, level int) error {
	if level < 0 {
		return fmt.Errorf("%s: Generalization level is %d, must be at least 0", label, level)
	}
	return nil
}

// CheckHierarchyBounds returns an error if the minimum generalization level of
// a hierarchy is negative or larger than its maximum.
func CheckHierarchyBounds(label, attribute string, lower, upper int) error {
	if lower < 0 {
		return fmt.Errorf("%s: Minimum generalization of %q is %d, must be at least 0", label, attribute, lower)
	}
	if lower > upper {
		return fmt.Errorf("%s: Maximum generalization of %q (%d) must be larger than minimum generalization (%d)", label, attribute, upper, lower)
	}
	if lower == upper {
		log.Warningf("%s: Minimum generalization of %q is equal to its maximum: the attribute will always be generalized to level %d", label, attribute, upper)
	}
	return nil
}
