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
	"fmt"
	"reflect"

	"github.com/deidentifier/sdgs/calibration"
	"github.com/deidentifier/sdgs/generalization"
	"github.com/deidentifier/sdgs/rand"
	"github.com/deidentifier/sdgs/subset"
	log "github.com/golang/glog"
)

// EDDifferentialPrivacy enforces (ε,δ)-differential privacy through a
// (k,β)-sampled dataset generalization scheme: the engine generalizes a
// research subset, drawn by sampling every record with probability β,
// according to a data-independent generalization scheme and suppresses every
// equivalence class with fewer than k records.
//
// β and k are derived from ε and δ once, when the criterion is created.
//
// Not thread-safe.
type EDDifferentialPrivacy struct {
	// Parameters
	epsilon float64
	delta   float64
	k       int
	beta    float64
	scheme  *generalization.Scheme
	source  rand.Source

	// State variables
	subset  *subset.DataSubset
	state   InitState
	manager DataManager
}

// EDDifferentialPrivacyOptions contains the options necessary to initialize
// an EDDifferentialPrivacy.
type EDDifferentialPrivacyOptions struct {
	Epsilon float64                // Privacy parameter ε. Required.
	Delta   float64                // Privacy parameter δ. Required.
	Scheme  *generalization.Scheme // Generalization applied to every class. Required.
	// Randomness used to draw research subsets. Defaults to the
	// cryptographically secure source, which cannot be seeded.
	Source rand.Source
}

// NewEDDifferentialPrivacy returns a new EDDifferentialPrivacy with β and k
// calibrated to opt.Epsilon and opt.Delta.
func NewEDDifferentialPrivacy(opt *EDDifferentialPrivacyOptions) (*EDDifferentialPrivacy, error) {
	if opt == nil {
		opt = &EDDifferentialPrivacyOptions{}
	}
	if err := calibration.CheckBudget("criteria.NewEDDifferentialPrivacy", opt.Epsilon, opt.Delta); err != nil {
		return nil, err
	}
	if opt.Scheme == nil {
		return nil, fmt.Errorf("criteria.NewEDDifferentialPrivacy: Scheme is required")
	}
	params, err := calibration.Calibrate(opt.Epsilon, opt.Delta)
	if err != nil {
		return nil, err
	}
	src := opt.Source
	if src == nil {
		src = rand.Secure()
	}
	return &EDDifferentialPrivacy{
		epsilon: opt.Epsilon,
		delta:   opt.Delta,
		k:       params.K,
		beta:    params.Beta,
		scheme:  opt.Scheme,
		source:  src,
		state:   Uninitialized,
	}, nil
}

// Epsilon returns the ε parameter of (ε,δ)-differential privacy.
func (c *EDDifferentialPrivacy) Epsilon() float64 { return c.epsilon }

// Delta returns the δ parameter of (ε,δ)-differential privacy.
func (c *EDDifferentialPrivacy) Delta() float64 { return c.delta }

// K returns the k parameter of (k,β)-SDGS.
func (c *EDDifferentialPrivacy) K() int { return c.k }

// Beta returns the β parameter of (k,β)-SDGS.
func (c *EDDifferentialPrivacy) Beta() float64 { return c.beta }

// Scheme returns the generalization scheme of the criterion.
func (c *EDDifferentialPrivacy) Scheme() *generalization.Scheme { return c.scheme }

// Subset returns the research subset, or nil before the first Initialize.
func (c *EDDifferentialPrivacy) Subset() *subset.DataSubset { return c.subset }

// State returns the initialization state of the criterion.
func (c *EDDifferentialPrivacy) State() InitState { return c.state }

// Requirements returns the primary and secondary counters.
func (c *EDDifferentialPrivacy) Requirements() Requirement {
	return RequirementCounter | RequirementSecondaryCounter
}

// Initialize draws the research subset for the dataset of manager.
//
// The subset is drawn once per data manager. Initializing again with the
// same manager, e.g. for repeated runs on the same dataset, keeps the subset.
// A criterion decoded with a subset adopts the first manager it sees without
// drawing a new subset. Only a different manager causes a new draw.
func (c *EDDifferentialPrivacy) Initialize(manager DataManager) error {
	if manager == nil {
		return fmt.Errorf("criteria.Initialize: %w", ErrNilManager)
	}
	if t := reflect.TypeOf(manager); !t.Comparable() {
		return fmt.Errorf("criteria.Initialize: data manager of type %v is not comparable", t)
	}
	switch c.state {
	case RestoredPendingManager:
		c.manager = manager
		c.state = Bound
		return nil
	case Bound:
		if c.manager == manager {
			return nil
		}
		log.Warningf("%s: initialized with a different data manager, drawing a new research subset", c)
	}
	s, err := subset.Draw(manager.DatasetSize(), c.beta, c.source)
	if err != nil {
		return fmt.Errorf("criteria.Initialize: %v", err)
	}
	c.subset = s
	c.manager = manager
	c.state = Bound
	return nil
}

// IsAnonymous returns whether entry contains at least k records.
func (c *EDDifferentialPrivacy) IsAnonymous(entry EquivalenceClass) bool {
	return entry.Count() >= c.k
}

func (c *EDDifferentialPrivacy) String() string {
	return fmt.Sprintf("(%v,%v)-DP", c.epsilon, c.delta)
}

// encodableEDDifferentialPrivacy can be encoded by the gob package. The data
// manager is never encoded.
type encodableEDDifferentialPrivacy struct {
	Epsilon float64
	Delta   float64
	K       int
	Beta    float64
	Scheme  *generalization.Scheme
	Subset  *subset.DataSubset
}

// GobEncode encodes EDDifferentialPrivacy.
func (c *EDDifferentialPrivacy) GobEncode() ([]byte, error) {
	enc := encodableEDDifferentialPrivacy{
		Epsilon: c.epsilon,
		Delta:   c.delta,
		K:       c.k,
		Beta:    c.beta,
		Scheme:  c.scheme,
		Subset:  c.subset,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(enc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode decodes EDDifferentialPrivacy. A decoded criterion with a subset
// is in the RestoredPendingManager state and uses the secure randomness source.
func (c *EDDifferentialPrivacy) GobDecode(data []byte) error {
	var enc encodableEDDifferentialPrivacy
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&enc); err != nil {
		return fmt.Errorf("criteria.GobDecode: couldn't decode EDDifferentialPrivacy from bytes: %v", err)
	}
	if err := calibration.CheckBudget("criteria.GobDecode", enc.Epsilon, enc.Delta); err != nil {
		return err
	}
	if enc.K < 1 {
		return fmt.Errorf("criteria.GobDecode: K is %d, must be at least 1", enc.K)
	}
	if enc.Scheme == nil {
		return fmt.Errorf("criteria.GobDecode: Scheme is missing")
	}
	state := Uninitialized
	if enc.Subset != nil {
		state = RestoredPendingManager
	}
	*c = EDDifferentialPrivacy{
		epsilon: enc.Epsilon,
		delta:   enc.Delta,
		k:       enc.K,
		beta:    enc.Beta,
		scheme:  enc.Scheme,
		source:  rand.Secure(),
		subset:  enc.Subset,
		state:   state,
	}
	return nil
}
