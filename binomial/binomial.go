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

// Package binomial computes tail probabilities of binomial distributions.
package binomial

import (
	"math"

	"gonum.org/v1/gonum/mathext"
)

// TailSum returns P(X ≥ from) for X ~ Binomial(n, beta), i.e. the sum of
// P(X = j) for j in [from, n].
//
// A from of at most 0 yields 1 and a from larger than n yields 0, the empty
// sum. TailSum returns NaN if n is negative or beta is outside [0, 1].
//
// Instead of adding up the individual probabilities, the tail is evaluated in
// closed form through the regularized incomplete beta function:
//
//	P(X ≥ a) = I_beta(a, n-a+1)   for 1 ≤ a ≤ n.
//
// This keeps the cost independent of n and lets very small tails underflow
// to 0 rather than accumulate rounding errors.
func TailSum(n int, beta float64, from int) float64 {
	if n < 0 || math.IsNaN(beta) || beta < 0 || beta > 1 {
		return math.NaN()
	}
	if from <= 0 {
		return 1
	}
	if from > n {
		return 0
	}
	// Only P(X = n) has mass when beta is 1, only P(X = 0) when beta is 0.
	if beta == 0 {
		return 0
	}
	if beta == 1 {
		return 1
	}
	return mathext.RegIncBeta(float64(from), float64(n-from+1), beta)
}
