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

// Package calibration converts an (ε,δ)-differential privacy budget into the
// parameters of a (k,β)-sampled dataset generalization scheme (SDGS).
//
// A generalization scheme that samples each record with probability β and
// then suppresses every equivalence class with fewer than k records satisfies
// (ε,δ)-differential privacy for β = 1 - e^(-ε) and a large enough k. See
// Li, Qardaji and Su, "On sampling, anonymization, and differential privacy
// or, k-anonymization meets differential privacy", ASIACCS 2012.
//
// Writing γ = (e^ε - 1 + β) / e^ε, the δ induced by a threshold k is
//
//	Δ(k) = max_{n ≥ n_m(k)} a(n),   n_m(k) = ⌈k/γ - 1⌉,
//	a(n) = P(X > ⌊nγ⌋) for X ~ Binomial(n, β).
//
// The maximum is taken over an unbounded domain. It is evaluated by scanning n
// upwards and stopping once the Chernoff bound
//
//	c(n) = exp(-n (γ ln(γ/β) - (γ - β)))
//
// drops to the running maximum: c is decreasing and bounds every a(n') with
// n' ≥ n, so no later term can raise the maximum.
package calibration

import (
	"errors"
	"fmt"
	"math"

	"github.com/deidentifier/sdgs/binomial"
	"github.com/deidentifier/sdgs/checks"
	log "github.com/golang/glog"
)

const (
	// MaxK is the largest threshold CalculateK tries before giving up.
	MaxK = 1 << 20
	// MaxScan is the largest number of sample sizes n scanned for a single
	// Δ(k), and the largest sample size n_m(k) a scan may start at.
	MaxScan = 1 << 22
)

var (
	// ErrInvalidBudget is returned for ε or δ outside their valid ranges.
	ErrInvalidBudget = errors.New("invalid privacy budget")
	// ErrNonConvergence is returned when a scan exceeds MaxK or MaxScan, i.e.
	// when the budget is numerically unsatisfiable in practice.
	ErrNonConvergence = errors.New("calibration did not converge")
)

// Parameters holds the (k,β)-SDGS parameters derived from an (ε,δ) budget.
type Parameters struct {
	// Beta is the probability with which each record is sampled.
	Beta float64
	// K is the smallest equivalence class size considered anonymous.
	K int
}

// Beta returns the largest sampling probability 1 - e^(-ε) admissible for ε.
func Beta(epsilon float64) float64 {
	return 1 - math.Exp(-epsilon)
}

// Gamma returns (e^ε - 1 + β) / e^ε, evaluated as 1 - (1-β)e^(-ε) so that it
// stays finite for large ε.
func Gamma(epsilon, beta float64) float64 {
	return 1 - (1-beta)*math.Exp(-epsilon)
}

// CheckBudget returns an error wrapping ErrInvalidBudget if ε or δ are invalid.
func CheckBudget(label string, epsilon, delta float64) error {
	if err := checks.CheckEpsilonVeryStrict(label, epsilon); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBudget, err)
	}
	if err := checks.CheckDeltaStrict(label, delta); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBudget, err)
	}
	return nil
}

// Calibrate returns β and the smallest k such that Δ(k) ≤ δ.
func Calibrate(epsilon, delta float64) (Parameters, error) {
	if err := CheckBudget("calibration.Calibrate", epsilon, delta); err != nil {
		return Parameters{}, err
	}
	s := newSolver(epsilon)
	k, err := s.calculateK(delta)
	if err != nil {
		return Parameters{}, err
	}
	log.V(1).Infof("calibration: (%v,%v)-DP is achieved by (k,β)-SDGS with k %d, β %f", epsilon, delta, k, s.beta)
	return Parameters{Beta: s.beta, K: k}, nil
}

// CalculateK returns the smallest k such that Δ(k) ≤ δ.
func CalculateK(epsilon, delta float64) (int, error) {
	p, err := Calibrate(epsilon, delta)
	return p.K, err
}

// DeltaBound returns Δ(k) for β = Beta(ε).
func DeltaBound(k int, epsilon float64) (float64, error) {
	if err := checks.CheckEpsilonVeryStrict("calibration.DeltaBound", epsilon); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidBudget, err)
	}
	if k < 1 {
		return 0, fmt.Errorf("calibration.DeltaBound: K is %d, must be at least 1", k)
	}
	return newSolver(epsilon).deltaBound(k)
}

// solver memoizes a(n), which does not depend on k, across the Δ(k) scans of
// a single calibration.
type solver struct {
	beta  float64
	gamma float64
	// rate is the exponent of the Chernoff bound c(n) = exp(-n·rate).
	rate float64
	// a[i] holds a(first+i). first is the first sample size scanned.
	first int
	a     []float64
}

func newSolver(epsilon float64) *solver {
	beta := Beta(epsilon)
	gamma := Gamma(epsilon, beta)
	return &solver{
		beta:  beta,
		gamma: gamma,
		rate:  gamma*math.Log(gamma/beta) - (gamma - beta),
	}
}

func (s *solver) tailSum(n int) float64 {
	return binomial.TailSum(n, s.beta, int(math.Floor(float64(n)*s.gamma))+1)
}

func (s *solver) tail(n int) float64 {
	if s.a == nil {
		s.first = n
	}
	if n < s.first {
		return s.tailSum(n)
	}
	for i := n - s.first; len(s.a) <= i; {
		s.a = append(s.a, s.tailSum(s.first+len(s.a)))
	}
	return s.a[n-s.first]
}

func (s *solver) deltaBound(k int) (float64, error) {
	// 1-γ = e^(-2ε) is positive, but rounds to 0 for large ε. ⌊nγ⌋ then
	// overshoots n-1 and every a(n) would wrongly evaluate to 0.
	if s.gamma >= 1 {
		return 0, fmt.Errorf("%w: γ rounds to 1 for β %v, Δ(%d) cannot be evaluated", ErrNonConvergence, s.beta, k)
	}
	if !(s.rate > 0) {
		return 0, fmt.Errorf("%w: Chernoff bound exponent is %e for β %e, must be strictly positive", ErrNonConvergence, s.rate, s.beta)
	}
	start := math.Ceil(float64(k)/s.gamma - 1)
	if start > MaxScan {
		return 0, fmt.Errorf("%w: Δ(%d) starts at sample size %.0f for β %e, more than %d", ErrNonConvergence, k, start, s.beta, MaxScan)
	}
	n := int(math.Max(start, 0))
	delta := 0.0
	for i := 0; i < MaxScan; i, n = i+1, n+1 {
		delta = math.Max(delta, s.tail(n))
		if math.Exp(-float64(n)*s.rate) <= delta {
			return delta, nil
		}
	}
	return 0, fmt.Errorf("%w: Δ(%d) not bounded after scanning %d sample sizes", ErrNonConvergence, k, MaxScan)
}

func (s *solver) calculateK(delta float64) (int, error) {
	for k := 1; k <= MaxK; k++ {
		d, err := s.deltaBound(k)
		if err != nil {
			return 0, err
		}
		if d <= delta {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: no k up to %d achieves δ %e for β %f", ErrNonConvergence, MaxK, delta, s.beta)
}
