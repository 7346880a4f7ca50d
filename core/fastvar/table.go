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

// Fast-variation tables: wavelength-sampled lookup tables capturing fine
// spectral structure within a flat correction component. A correction factor
// is obtained by band-averaging the table over the pixel's local bandwidth.
// The reference tables carry no error estimate, so the error contribution of
// these factors is always 0 - a documented limitation of the reference data,
// not an omission here.
package fastvar

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// RegionAny - generic region key used when no region-specific table exists
const RegionAny = "ANY"

// ErrTableEdge - the interpolation fallback landed on the first or last
// table entry, so there is no bracketing triple. Callers restrict the
// wavelength range or coerce the factor to neutral.
var ErrTableEdge = errors.New("wavelength at table edge, no bracketing entries")

// Table - ordered sequence of (wavelength, value) pairs. Entries are kept
// sorted ascending by wavelength regardless of the order they arrived in, so
// integration results don't depend on file ordering.
type Table struct {
	Wavelengths []float64
	Values      []float64
}

func MakeTable(wavelengths []float64, values []float64) (Table, error) {
	if len(wavelengths) != len(values) {
		return Table{}, fmt.Errorf("table has %v wavelengths but %v values", len(wavelengths), len(values))
	}

	t := Table{
		Wavelengths: make([]float64, len(wavelengths)),
		Values:      make([]float64, len(values)),
	}
	copy(t.Wavelengths, wavelengths)
	copy(t.Values, values)
	t.sortAscending()
	return t, nil
}

func (t Table) IsEmpty() bool {
	return len(t.Wavelengths) == 0
}

func (t *Table) sortAscending() {
	sort.Sort(byWavelength{t})
}

type byWavelength struct {
	t *Table
}

func (s byWavelength) Len() int { return len(s.t.Wavelengths) }
func (s byWavelength) Less(i, j int) bool {
	return s.t.Wavelengths[i] < s.t.Wavelengths[j]
}
func (s byWavelength) Swap(i, j int) {
	s.t.Wavelengths[i], s.t.Wavelengths[j] = s.t.Wavelengths[j], s.t.Wavelengths[i]
	s.t.Values[i], s.t.Values[j] = s.t.Values[j], s.t.Values[i]
}

// BandAverage - scalar contribution factor for a band centred on wavelength
// with the given half-bandwidth. With 3 or more table entries in band, this
// is the trapezoid integral of value over wavelength divided by the selected
// span; with fewer it falls back to InterpNear.
func (t Table) BandAverage(wavelength float64, halfWidth float64) (float64, error) {
	lo := wavelength - halfWidth
	hi := wavelength + halfWidth

	first := -1
	last := -1
	for i, w := range t.Wavelengths {
		if w >= lo && w <= hi {
			if first < 0 {
				first = i
			}
			last = i
		}
	}

	count := 0
	if first >= 0 {
		count = last - first + 1
	}
	if count < 3 {
		return t.InterpNear(wavelength)
	}

	span := t.Wavelengths[last] - t.Wavelengths[first]
	if span == 0 {
		// Degenerate selection (repeated wavelengths), can't normalise
		return t.InterpNear(wavelength)
	}

	integral := 0.0
	for i := first; i < last; i++ {
		dw := t.Wavelengths[i+1] - t.Wavelengths[i]
		integral += 0.5 * (t.Values[i] + t.Values[i+1]) * dw
	}

	return integral / span, nil
}

// InterpNear - linear interpolation at the given wavelength using the triple
// {previous, nearest, next} around the nearest table entry. Returns
// ErrTableEdge when the nearest entry is the first or last one.
func (t Table) InterpNear(wavelength float64) (float64, error) {
	if len(t.Wavelengths) == 0 {
		return 0, fmt.Errorf("empty table")
	}
	if len(t.Wavelengths) == 1 {
		return t.Values[0], nil
	}
	if len(t.Wavelengths) == 2 {
		// Too small for the bracketing triple, interpolate over the pair
		w0, w1 := t.Wavelengths[0], t.Wavelengths[1]
		v0, v1 := t.Values[0], t.Values[1]
		if wavelength <= w0 {
			return v0, nil
		}
		if wavelength >= w1 {
			return v1, nil
		}
		return v0 + (wavelength-w0)*(v1-v0)/(w1-w0), nil
	}

	nearest := 0
	nearestDist := math.Abs(t.Wavelengths[0] - wavelength)
	for i := 1; i < len(t.Wavelengths); i++ {
		dist := math.Abs(t.Wavelengths[i] - wavelength)
		if dist < nearestDist {
			nearest = i
			nearestDist = dist
		}
	}

	if nearest == 0 || nearest == len(t.Wavelengths)-1 {
		return 0, ErrTableEdge
	}

	wavTriple := t.Wavelengths[nearest-1 : nearest+2]
	valTriple := t.Values[nearest-1 : nearest+2]

	// Piecewise-linear with clamping outside the triple's range
	if wavelength <= wavTriple[0] {
		return valTriple[0], nil
	}
	if wavelength >= wavTriple[2] {
		return valTriple[2], nil
	}
	seg := 0
	if wavelength > wavTriple[1] {
		seg = 1
	}
	w0, w1 := wavTriple[seg], wavTriple[seg+1]
	v0, v1 := valTriple[seg], valTriple[seg+1]
	if w1 == w0 {
		return v0, nil
	}
	return v0 + (wavelength-w0)*(v1-v0)/(w1-w0), nil
}
