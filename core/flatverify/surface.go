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

	"github.com/flatcheck/core/core/frame"
)

// CellState - what happened to one detector cell during the run. Replaces
// the older tooling's 999.0 magic value, which could collide with a
// legitimate (if absurd) correction.
type CellState uint8

const (
	// CellUnprocessed - no slice wrote this cell
	CellUnprocessed CellState = iota

	// CellExcluded - a slice visited the cell but excluded it from
	// comparison; it carries the neutral correction
	CellExcluded

	// CellComputed - the cell holds a computed correction and error
	CellComputed
)

// ExcludedSentinel - the numeric placeholder older verification tooling
// wrote for unprocessed/excluded cells. Kept for artifact compatibility
// only; it never enters statistics.
const ExcludedSentinel = 999.0

// Surface - detector-wide correction/error accumulation arena. Slices write
// disjoint coordinate sets, so independent slices could write concurrently
// without locking; nothing here depends on write order.
type Surface struct {
	Width  int
	Height int

	states      []CellState
	corrections []float64
	errs        []float64
}

func MakeSurface(width int, height int) *Surface {
	return &Surface{
		Width:       width,
		Height:      height,
		states:      make([]CellState, width*height),
		corrections: make([]float64, width*height),
		errs:        make([]float64, width*height),
	}
}

func (s *Surface) State(y int, x int) CellState {
	return s.states[y*s.Width+x]
}

func (s *Surface) Correction(y int, x int) float64 {
	i := y*s.Width + x
	if s.states[i] == CellUnprocessed {
		return ExcludedSentinel
	}
	return s.corrections[i]
}

func (s *Surface) Error(y int, x int) float64 {
	return s.errs[y*s.Width+x]
}

func (s *Surface) SetComputed(y int, x int, correction float64, err float64) {
	i := y*s.Width + x
	s.states[i] = CellComputed
	s.corrections[i] = correction
	s.errs[i] = err
}

// SetExcluded - excluded cells always carry the neutral correction
func (s *Surface) SetExcluded(y int, x int) {
	i := y*s.Width + x
	s.states[i] = CellExcluded
	s.corrections[i] = 1.0
	s.errs[i] = 0.0
}

// Finalize - publishes the correction and error planes. Cells no slice
// processed become correction 1.0 with undefined (NaN) error; the error NaN
// is coerced to 0 by consumers doing arithmetic, and serialises as null.
func (s *Surface) Finalize() (frame.Plane, frame.Plane) {
	correction := frame.MakePlane(s.Width, s.Height, 0)
	errPlane := frame.MakePlane(s.Width, s.Height, 0)

	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			i := y*s.Width + x
			if s.states[i] == CellUnprocessed {
				correction.Values[i] = 1.0
				errPlane.Values[i] = math.NaN()
			} else {
				correction.Values[i] = s.corrections[i]
				errPlane.Values[i] = s.errs[i]
			}
		}
	}

	return correction, errPlane
}
