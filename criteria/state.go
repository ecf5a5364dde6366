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

import "fmt"

// InitState tracks whether a sampling criterion owns a research subset and
// which data manager the subset was drawn for.
type InitState int

const (
	// Uninitialized criteria have neither a subset nor a data manager.
	Uninitialized InitState = iota
	// RestoredPendingManager criteria were decoded with a subset, but the data
	// manager it belongs to is not known yet.
	RestoredPendingManager
	// Bound criteria own a subset drawn for, or adopted by, a data manager.
	Bound
)

var stateName = map[InitState]string{
	Uninitialized:          "Uninitialized",
	RestoredPendingManager: "RestoredPendingManager",
	Bound:                  "Bound",
}

func (s InitState) String() string {
	if name, ok := stateName[s]; ok {
		return name
	}
	return fmt.Sprintf("InitState(%d)", int(s))
}
