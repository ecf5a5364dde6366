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

// Package rand provides the randomness used to draw research subsets.
//
// The default source reads from crypto/rand and cannot be seeded, so subsets
// drawn with it are not reproducible across process runs. Tests and
// simulations may substitute any Source, e.g. a seeded *math/rand.Rand.
package rand

import (
	"bufio"
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	"sync"

	log "github.com/golang/glog"
)

var (
	randBufLock sync.Mutex
	randBuf     io.Reader = bufio.NewReaderSize(cryptorand.Reader, 65536)
)

// Source is a source of uniformly distributed float64 values in [0, 1).
// *math/rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

func readRandBuf(b []byte) (int, error) {
	randBufLock.Lock()
	defer randBufLock.Unlock()
	return io.ReadFull(randBuf, b)
}

// U64 returns a uniformly random uint64.
func U64() uint64 {
	var r [8]uint8
	if _, err := readRandBuf(r[:]); err != nil {
		log.Fatalf("out of randomness, should never happen: %v", err)
	}
	return binary.LittleEndian.Uint64(r[:])
}

// Float64 returns a uniformly random float64 from [0, 1). Every multiple of
// 2⁻⁵³ in the interval is returned with equal probability.
func Float64() float64 {
	return float64(U64()>>11) / (1 << 53)
}

type secureSource struct{}

func (secureSource) Float64() float64 {
	return Float64()
}

// Secure returns the cryptographically secure Source. It is safe for
// concurrent use.
func Secure() Source {
	return secureSource{}
}

// Bernoulli returns true with probability p. Values of p outside [0, 1] are
// treated as 0 and 1 respectively.
func Bernoulli(src Source, p float64) bool {
	return src.Float64() < p
}
