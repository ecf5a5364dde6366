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

package criteria

import (
	"bytes"
	"encoding/gob"
	"errors"
	"math"
	mathrand "math/rand"
	"testing"

	"github.com/deidentifier/sdgs/calibration"
	"github.com/deidentifier/sdgs/generalization"
	"github.com/deidentifier/sdgs/subset"
)

type testManager struct{ size int }

func (m *testManager) DatasetSize() int { return m.size }

// sliceManager cannot be compared with ==.
type sliceManager []int

func (m sliceManager) DatasetSize() int { return len(m) }

func testScheme(t *testing.T) *generalization.Scheme {
	t.Helper()
	s, err := generalization.NewSchemeWithDegree([]string{"age", "zip"}, generalization.Medium)
	if err != nil {
		t.Fatalf("NewSchemeWithDegree: %v", err)
	}
	return s
}

func newTestCriterion(t *testing.T, seed int64) *EDDifferentialPrivacy {
	t.Helper()
	c, err := NewEDDifferentialPrivacy(&EDDifferentialPrivacyOptions{
		Epsilon: 1,
		Delta:   1e-5,
		Scheme:  testScheme(t),
		Source:  mathrand.New(mathrand.NewSource(seed)),
	})
	if err != nil {
		t.Fatalf("NewEDDifferentialPrivacy: %v", err)
	}
	return c
}

func TestNewEDDifferentialPrivacy(t *testing.T) {
	c := newTestCriterion(t, 1)
	if got, want := c.K(), 61; got != want {
		t.Errorf("K() = %d, want %d", got, want)
	}
	if got, want := c.Beta(), 1-math.Exp(-1); math.Abs(got-want) > 1e-15 {
		t.Errorf("Beta() = %v, want %v", got, want)
	}
	if c.Epsilon() != 1 || c.Delta() != 1e-5 {
		t.Errorf("got (ε, δ) = (%v, %v), want (1, 1e-05)", c.Epsilon(), c.Delta())
	}
	if c.Scheme() == nil {
		t.Errorf("Scheme() is nil")
	}
	if c.Subset() != nil {
		t.Errorf("Subset() = %v before Initialize, want nil", c.Subset())
	}
	if c.State() != Uninitialized {
		t.Errorf("State() = %v, want %v", c.State(), Uninitialized)
	}
	if got, want := c.Requirements(), RequirementCounter|RequirementSecondaryCounter; got != want {
		t.Errorf("Requirements() = %v, want %v", got, want)
	}
	if got, want := c.String(), "(1,1e-05)-DP"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestNewEDDifferentialPrivacyDefaultSource(t *testing.T) {
	c, err := NewEDDifferentialPrivacy(&EDDifferentialPrivacyOptions{Epsilon: 2, Delta: 1e-6, Scheme: testScheme(t)})
	if err != nil {
		t.Fatalf("NewEDDifferentialPrivacy: %v", err)
	}
	if c.K() != 131 {
		t.Errorf("K() = %d, want 131", c.K())
	}
	if err := c.Initialize(&testManager{size: 50}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := c.Subset().DatasetSize(); got != 50 {
		t.Errorf("Subset().DatasetSize() = %d, want 50", got)
	}
}

func TestNewEDDifferentialPrivacyInvalid(t *testing.T) {
	scheme := testScheme(t)
	for _, tc := range []struct {
		desc       string
		opt        *EDDifferentialPrivacyOptions
		wantBudget bool
	}{
		{"nil options", nil, true},
		{"zero epsilon", &EDDifferentialPrivacyOptions{Epsilon: 0, Delta: 1e-5, Scheme: scheme}, true},
		{"negative epsilon", &EDDifferentialPrivacyOptions{Epsilon: -1, Delta: 1e-5, Scheme: scheme}, true},
		{"infinite epsilon", &EDDifferentialPrivacyOptions{Epsilon: math.Inf(1), Delta: 1e-5, Scheme: scheme}, true},
		{"zero delta", &EDDifferentialPrivacyOptions{Epsilon: 1, Delta: 0, Scheme: scheme}, true},
		{"delta of one", &EDDifferentialPrivacyOptions{Epsilon: 1, Delta: 1, Scheme: scheme}, true},
		{"NaN delta", &EDDifferentialPrivacyOptions{Epsilon: 1, Delta: math.NaN(), Scheme: scheme}, true},
		{"nil scheme", &EDDifferentialPrivacyOptions{Epsilon: 1, Delta: 1e-5}, false},
	} {
		_, err := NewEDDifferentialPrivacy(tc.opt)
		if err == nil {
			t.Errorf("NewEDDifferentialPrivacy: with %s got no error", tc.desc)
			continue
		}
		if got := errors.Is(err, calibration.ErrInvalidBudget); got != tc.wantBudget {
			t.Errorf("NewEDDifferentialPrivacy: with %s errors.Is(%v, ErrInvalidBudget) = %t, want %t", tc.desc, err, got, tc.wantBudget)
		}
	}
}

func TestIsAnonymous(t *testing.T) {
	c := newTestCriterion(t, 1)
	k := c.K()
	for _, tc := range []struct {
		count int
		want  bool
	}{
		{0, false},
		{1, false},
		{k - 1, false},
		{k, true},
		{k + 1, true},
		{10 * k, true},
	} {
		if got := c.IsAnonymous(countClass(tc.count)); got != tc.want {
			t.Errorf("IsAnonymous: for a class of %d records with k %d got %t, want %t", tc.count, k, got, tc.want)
		}
	}
}

func TestInitializeInvalidManager(t *testing.T) {
	c := newTestCriterion(t, 1)
	if err := c.Initialize(nil); !errors.Is(err, ErrNilManager) {
		t.Errorf("Initialize(nil): got %v, want ErrNilManager", err)
	}
	if err := c.Initialize(sliceManager{1, 2, 3}); err == nil {
		t.Errorf("Initialize: with a non-comparable manager got no error")
	}
	if c.State() != Uninitialized || c.Subset() != nil {
		t.Errorf("failed Initialize changed the criterion: state %v, subset %v", c.State(), c.Subset())
	}
}

func TestInitializeSameManagerKeepsSubset(t *testing.T) {
	c := newTestCriterion(t, 1)
	m := &testManager{size: 1000}
	if err := c.Initialize(m); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if c.State() != Bound {
		t.Errorf("State() = %v after Initialize, want %v", c.State(), Bound)
	}
	first := c.Subset()
	if got := first.DatasetSize(); got != 1000 {
		t.Errorf("Subset().DatasetSize() = %d, want 1000", got)
	}
	for run := 0; run < 3; run++ {
		if err := c.Initialize(m); err != nil {
			t.Fatalf("Initialize: run %d: %v", run, err)
		}
		if c.Subset() != first {
			t.Errorf("Initialize: run %d with the same manager drew a new subset", run)
		}
	}
}

func TestInitializeDifferentManagerResamples(t *testing.T) {
	c := newTestCriterion(t, 1)
	if err := c.Initialize(&testManager{size: 100}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	first := c.Subset()
	// Equal sizes: the managers differ by identity only.
	if err := c.Initialize(&testManager{size: 100}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if c.Subset() == first {
		t.Errorf("Initialize: with a different manager kept the old subset")
	}
	if err := c.Initialize(&testManager{size: 200}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := c.Subset().DatasetSize(); got != 200 {
		t.Errorf("Subset().DatasetSize() = %d, want 200", got)
	}
	if c.State() != Bound {
		t.Errorf("State() = %v, want %v", c.State(), Bound)
	}
}

func TestInitializeDeterministicWithSeed(t *testing.T) {
	c1 := newTestCriterion(t, 42)
	c2 := newTestCriterion(t, 42)
	if err := c1.Initialize(&testManager{size: 500}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := c2.Initialize(&testManager{size: 500}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !c1.Subset().Equal(c2.Subset()) {
		t.Errorf("Initialize: equal seeds drew different subsets %v and %v", c1.Subset(), c2.Subset())
	}
}

func roundTrip(t *testing.T, c *EDDifferentialPrivacy) *EDDifferentialPrivacy {
	t.Helper()
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		t.Fatalf("GobEncode: %v", err)
	}
	var got EDDifferentialPrivacy
	if err := gob.NewDecoder(&buf).Decode(&got); err != nil {
		t.Fatalf("GobDecode: %v", err)
	}
	return &got
}

func TestRestoredCriterionAdoptsFirstManager(t *testing.T) {
	c := newTestCriterion(t, 1)
	if err := c.Initialize(&testManager{size: 300}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	restored := roundTrip(t, c)

	if restored.State() != RestoredPendingManager {
		t.Fatalf("State() = %v after decoding, want %v", restored.State(), RestoredPendingManager)
	}
	if restored.K() != c.K() || restored.Beta() != c.Beta() || restored.Epsilon() != c.Epsilon() || restored.Delta() != c.Delta() {
		t.Errorf("decoded parameters (ε %v, δ %v, k %d, β %v), want (ε %v, δ %v, k %d, β %v)",
			restored.Epsilon(), restored.Delta(), restored.K(), restored.Beta(), c.Epsilon(), c.Delta(), c.K(), c.Beta())
	}
	if got, want := restored.Scheme().Attributes(), c.Scheme().Attributes(); len(got) != len(want) {
		t.Errorf("decoded scheme attributes %v, want %v", got, want)
	}
	want := c.Subset()

	m := &testManager{size: 300}
	if err := restored.Initialize(m); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if restored.State() != Bound {
		t.Errorf("State() = %v, want %v", restored.State(), Bound)
	}
	if !restored.Subset().Equal(want) {
		t.Errorf("restored criterion drew a new subset %v, want %v", restored.Subset(), want)
	}
	adopted := restored.Subset()
	if err := restored.Initialize(m); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if restored.Subset() != adopted {
		t.Errorf("Initialize: with the adopted manager drew a new subset")
	}
	if err := restored.Initialize(&testManager{size: 10}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := restored.Subset().DatasetSize(); got != 10 {
		t.Errorf("Initialize: with a different manager got subset of dataset size %d, want 10", got)
	}
}

func TestDecodeWithoutSubset(t *testing.T) {
	restored := roundTrip(t, newTestCriterion(t, 1))
	if restored.State() != Uninitialized {
		t.Errorf("State() = %v, want %v", restored.State(), Uninitialized)
	}
	if restored.Subset() != nil {
		t.Errorf("Subset() = %v, want nil", restored.Subset())
	}
	if err := restored.Initialize(&testManager{size: 20}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := restored.Subset().DatasetSize(); got != 20 {
		t.Errorf("Subset().DatasetSize() = %d, want 20", got)
	}
}

func TestGobDecodeInvalid(t *testing.T) {
	scheme := testScheme(t)
	s, err := subset.NewDataSubset(3, []int{1})
	if err != nil {
		t.Fatalf("NewDataSubset: %v", err)
	}
	for _, tc := range []struct {
		desc string
		enc  encodableEDDifferentialPrivacy
	}{
		{"zero epsilon", encodableEDDifferentialPrivacy{Epsilon: 0, Delta: 1e-5, K: 61, Beta: .5, Scheme: scheme, Subset: s}},
		{"zero k", encodableEDDifferentialPrivacy{Epsilon: 1, Delta: 1e-5, K: 0, Beta: .5, Scheme: scheme, Subset: s}},
		{"missing scheme", encodableEDDifferentialPrivacy{Epsilon: 1, Delta: 1e-5, K: 61, Beta: .5, Subset: s}},
	} {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(tc.enc); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		var c EDDifferentialPrivacy
		if err := c.GobDecode(buf.Bytes()); err == nil {
			t.Errorf("GobDecode: with %s got no error", tc.desc)
		}
	}
	var c EDDifferentialPrivacy
	if err := c.GobDecode([]byte("garbage")); err == nil {
		t.Errorf("GobDecode: of garbage got no error")
	}
}

func TestEDDifferentialPrivacyIsPrivacyCriterion(t *testing.T) {
	c := newTestCriterion(t, 1)
	k5 := thresholdCriterion{min: 5, req: RequirementCounter, name: "5-anonymity"}
	if got, want := Describe(k5, c), "{5-anonymity, (1,1e-05)-DP}"; got != want {
		t.Errorf("Describe: got %q, want %q", got, want)
	}
	if got, want := Requirements(k5, c), RequirementCounter|RequirementSecondaryCounter; got != want {
		t.Errorf("Requirements: got %v, want %v", got, want)
	}
	if IsAnonymous(countClass(c.K()-1), k5, c) {
		t.Errorf("IsAnonymous: class of k-1 records passed")
	}
	if !IsAnonymous(countClass(c.K()), k5, c) {
		t.Errorf("IsAnonymous: class of k records failed")
	}
}
