// Licensed to NASA JPL under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. NASA JPL licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package flatverify

import (
	"math"

	"github.com/flatcheck/core/core/utils"
)

// Verdict - outcome of a slice or a whole run
type Verdict string

const (
	VerdictPass          Verdict = "PASS"
	VerdictFail          Verdict = "FAIL"
	VerdictIndeterminate Verdict = "INDETERMINATE"

	// VerdictConfigNotFound - run-level only: no reference product matched
	// the instrument setup, so nothing was verified. A skip, never a pass.
	VerdictConfigNotFound Verdict = "CONFIG_NOT_FOUND"
)

// SliceStats - mean/median/std-dev over one slice's valid samples
type SliceStats struct {
	Mean   float64
	Median float64
	StdDev float64
	Count  int
}

func makeSliceStats(vals []float64) SliceStats {
	finite := utils.FiniteOnly(vals)
	return SliceStats{
		Mean:   utils.Mean(finite),
		Median: utils.Median(finite),
		StdDev: utils.StdDev(finite),
		Count:  len(finite),
	}
}

// SliceResult - one slice's comparison outcome
type SliceResult struct {
	Name string

	// Pipeline-minus-computed differences for compared pixels. Excluded
	// pixels never enter this list.
	Differences []float64

	// Differences between the pipeline's error plane and the computed
	// errors. Diagnostic only, no bearing on the verdict.
	ErrDifferences []float64

	Excluded int
	Skipped  int

	Stats    SliceStats
	ErrStats SliceStats

	Verdict Verdict
}

// FinalizeSlice - computes statistics over the collected differences and
// applies the threshold rule. The threshold comparison is inclusive: a
// median exactly at the threshold passes.
func FinalizeSlice(result *SliceResult, threshold float64) {
	result.Stats = makeSliceStats(result.Differences)
	result.ErrStats = makeSliceStats(result.ErrDifferences)

	if result.Stats.Count == 0 || math.IsNaN(result.Stats.Median) || math.IsInf(result.Stats.Median, 0) {
		result.Verdict = VerdictIndeterminate
		return
	}

	if math.Abs(result.Stats.Median) <= threshold {
		result.Verdict = VerdictPass
	} else {
		result.Verdict = VerdictFail
	}
}

// ReduceVerdicts - run-level AND-reduction: every slice must pass for a
// pass; any fail is a fail; indeterminate slices are anomalies that block a
// pass but never force a fail on their own.
func ReduceVerdicts(slices []SliceResult) Verdict {
	verdict := VerdictPass
	for _, slice := range slices {
		if slice.Verdict == VerdictFail {
			return VerdictFail
		}
		if slice.Verdict == VerdictIndeterminate {
			verdict = VerdictIndeterminate
		}
	}
	return verdict
}
