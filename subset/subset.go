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

// Package subset contains research subsets, i.e. sets of record indices of a
// dataset against which the guarantees of a sampling-based privacy criterion
// are defined.
package subset

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/deidentifier/sdgs/checks"
	"github.com/deidentifier/sdgs/rand"
	log "github.com/golang/glog"
)

// DataSubset is an immutable set of record indices drawn from [0, N), where N
// is the number of records of the dataset it was drawn from.
//
// Membership queries only need N, not the dataset itself.
type DataSubset struct {
	size int
	bits *bitset.BitSet
}

// NewDataSubset returns the subset of a dataset with size records that
// contains the given indices. Duplicate indices are ignored.
func NewDataSubset(size int, indices []int) (*DataSubset, error) {
	if err := checks.CheckDatasetSize("subset.NewDataSubset", size); err != nil {
		return nil, err
	}
	bits := bitset.New(uint(size))
	for _, i := range indices {
		if i < 0 || i >= size {
			return nil, fmt.Errorf("subset.NewDataSubset: index %d is out of range [0, %d)", i, size)
		}
		bits.Set(uint(i))
	}
	return &DataSubset{size: size, bits: bits}, nil
}

// Draw returns a new subset of a dataset with size records that contains
// each index independently with probability beta.
//
// The number of records in the result is itself random, with mean beta·size.
func Draw(size int, beta float64, src rand.Source) (*DataSubset, error) {
	if err := checks.CheckDatasetSize("subset.Draw", size); err != nil {
		return nil, err
	}
	if err := checks.CheckSamplingProbability("subset.Draw", beta); err != nil {
		return nil, err
	}
	if src == nil {
		src = rand.Secure()
	}
	bits := bitset.New(uint(size))
	for i := 0; i < size; i++ {
		if rand.Bernoulli(src, beta) {
			bits.Set(uint(i))
		}
	}
	s := &DataSubset{size: size, bits: bits}
	log.V(1).Infof("subset.Draw: sampled %d of %d records with β %f", s.Len(), size, beta)
	return s, nil
}

// Contains returns whether record i belongs to the subset.
func (s *DataSubset) Contains(i int) bool {
	if i < 0 || i >= s.size {
		return false
	}
	return s.bits.Test(uint(i))
}

// Len returns the number of records in the subset.
func (s *DataSubset) Len() int {
	return int(s.bits.Count())
}

// DatasetSize returns the number of records of the dataset the subset was
// drawn from.
func (s *DataSubset) DatasetSize() int {
	return s.size
}

// Indices returns the indices of the subset in ascending order.
func (s *DataSubset) Indices() []int {
	indices := make([]int, 0, s.Len())
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		indices = append(indices, int(i))
	}
	return indices
}

// Equal returns whether s and s2 were drawn from datasets of the same size
// and contain the same indices.
func (s *DataSubset) Equal(s2 *DataSubset) bool {
	if s == nil || s2 == nil {
		return s == s2
	}
	return s.size == s2.size && s.bits.Equal(s2.bits)
}

func (s *DataSubset) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "DataSubset(%d of %d: [", s.Len(), s.size)
	for n, i := range s.Indices() {
		if n > 0 {
			b.WriteString(" ")
		}
		if n == 10 {
			b.WriteString("...")
			break
		}
		fmt.Fprintf(&b, "%d", i)
	}
	b.WriteString("])")
	return b.String()
}

// encodableDataSubset can be encoded by the gob package.
type encodableDataSubset struct {
	Size int
	Bits []byte
}

// GobEncode encodes DataSubset.
func (s *DataSubset) GobEncode() ([]byte, error) {
	bits, err := s.bits.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("subset.GobEncode: couldn't marshal indices: %v", err)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(encodableDataSubset{Size: s.size, Bits: bits}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode decodes DataSubset.
func (s *DataSubset) GobDecode(data []byte) error {
	var enc encodableDataSubset
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&enc); err != nil {
		return fmt.Errorf("subset.GobDecode: couldn't decode DataSubset from bytes: %v", err)
	}
	if err := checks.CheckDatasetSize("subset.GobDecode", enc.Size); err != nil {
		return err
	}
	bits := new(bitset.BitSet)
	if err := bits.UnmarshalBinary(enc.Bits); err != nil {
		return fmt.Errorf("subset.GobDecode: couldn't unmarshal indices: %v", err)
	}
	if bits.Len() != uint(enc.Size) {
		return fmt.Errorf("subset.GobDecode: indices cover %d records, want %d", bits.Len(), enc.Size)
	}
	*s = DataSubset{size: enc.Size, bits: bits}
	return nil
}
