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

// Independently recomputes the flat-field correction per pixel from the
// three reference correction sources and compares it against the value the
// calibration pipeline applied.
package flatverify

import (
	"math"

	"github.com/flatcheck/core/core/fastvar"
	"github.com/flatcheck/core/core/frame"
	"github.com/flatcheck/core/core/logger"
	"github.com/flatcheck/core/core/refproduct"
	"github.com/flatcheck/core/core/utils"
	"github.com/flatcheck/core/core/wcsmodel"
)

// Instrument-valid wavelength range. Pixels mapped outside it are never
// compared.
const wavelengthMin = 0.6
const wavelengthMax = 5.3

// CorrectionComponent - one multiplicative term of the correction, with its
// absolute error estimate. Fast-variation terms always carry error 0, the
// reference tables have no error information.
type CorrectionComponent struct {
	Value float64
	Err   float64
}

var neutralComponent = CorrectionComponent{Value: 1.0, Err: 0.0}

// relErrSq - guarded (err/value)^2 term for the error propagation sum.
// Zero denominators and non-finite ratios contribute nothing rather than
// poisoning the sum.
func (c CorrectionComponent) relErrSq() float64 {
	term, ok := utils.SafeDiv(c.Err*c.Err, c.Value*c.Value)
	if !ok {
		return 0.0
	}
	return term
}

// Corrector - evaluates the recomputed correction for every pixel of a
// slice and accumulates the comparison against the pipeline's flat
type Corrector struct {
	refs   refproduct.ResolvedRefs
	obs    wcsmodel.Observation
	params Params
	log    logger.ILogger
}

func MakeCorrector(refs refproduct.ResolvedRefs, obs wcsmodel.Observation, params Params, log logger.ILogger) *Corrector {
	return &Corrector{refs: refs, obs: obs, params: params, log: log}
}

// EvaluateSlice - runs the per-pixel comparison for one slice, writing
// computed cells into the shared surface at true detector coordinates. The
// slice's writes are confined to its own subwindow.
func (c *Corrector) EvaluateSlice(slice wcsmodel.SliceGeometry, surf *Surface) SliceResult {
	result := SliceResult{Name: slice.Name}

	// Region-specific fast-variation tables when present, else the ANY
	// entry. A product with no usable table contributes the neutral factor
	// for every pixel.
	cubeFast := c.regionTable(c.refs.WaveCube.FastVariation, slice.Name, "wavelength-cube")
	planeFast := c.regionTable(c.refs.PixelPlane.FastVariation, slice.Name, "per-pixel plane")
	globalFast := c.regionTable(c.refs.GlobalTable.FastVariation, slice.Name, "global table")

	grid := slice.Wavelengths
	for yy := 0; yy < grid.Height; yy++ {
		for xx := 0; xx < grid.Width; xx++ {
			wav := grid.At(yy, xx)
			if math.IsNaN(wav) || math.IsInf(wav, 0) || wav < wavelengthMin || wav >= wavelengthMax {
				result.Skipped++
				continue
			}

			// 1-based subwindow origin to 0-based detector coordinates,
			// applied exactly once
			detY := slice.YStart - 1 + yy
			detX := slice.XStart - 1 + xx

			halfBand := 0.5 * c.bandwidth(grid, yy, xx)

			components := []CorrectionComponent{
				c.bandFactor(cubeFast, wav, halfBand),
				c.cubeComponent(detY, detX, wav),
				c.bandFactor(planeFast, wav, halfBand),
				c.planeComponent(detY, detX),
				c.globalFactor(globalFast, wav, halfBand),
			}

			correction := 1.0
			relErrSqSum := 0.0
			for _, component := range components {
				correction *= component.Value
				relErrSqSum += component.relErrSq()
			}
			correctionErr := correction * math.Sqrt(relErrSqSum)

			pipeValue := c.obs.PipeFlat.At(detY, detX)

			// A non-finite correction means at least one reference source
			// had nothing valid for this pixel; pipeline value exactly 1.0
			// marks pixels the pipeline left untouched (mainly inter-slice).
			// Either way the pixel is excluded and carries the neutral
			// correction, matching the pipeline's own output.
			if math.IsNaN(correction) || math.IsInf(correction, 0) || pipeValue == 1.0 {
				surf.SetExcluded(detY, detX)
				result.Excluded++
				continue
			}

			surf.SetComputed(detY, detX, correction, correctionErr)
			result.Differences = append(result.Differences, pipeValue-correction)

			pipeErr := 0.0
			if !c.obs.PipeFlatErr.IsEmpty() {
				pipeErr = c.obs.PipeFlatErr.At(detY, detX)
			}
			result.ErrDifferences = append(result.ErrDifferences, pipeErr-correctionErr)
		}
	}

	return result
}

// bandwidth - local bandwidth from the dispersion-axis neighbours' mapped
// wavelengths: centred difference inside a row, one-sided half-difference at
// a row boundary or beside an unmapped neighbour. Always >= 0.
func (c *Corrector) bandwidth(grid frame.Plane, yy int, xx int) float64 {
	wav := grid.At(yy, xx)

	leftOK := false
	left := 0.0
	if xx > 0 {
		left = grid.At(yy, xx-1)
		leftOK = !math.IsNaN(left) && !math.IsInf(left, 0)
	}

	rightOK := false
	right := 0.0
	if xx < grid.Width-1 {
		right = grid.At(yy, xx+1)
		rightOK = !math.IsNaN(right) && !math.IsInf(right, 0)
	}

	delw := 0.0
	switch {
	case leftOK && rightOK:
		delw = 0.5 * (right - left)
	case rightOK:
		delw = 0.5 * (right - wav)
	case leftOK:
		delw = 0.5 * (wav - left)
	}

	return math.Abs(delw)
}

// cubeComponent - per-plane wavelength interpolation of the reference cube
// at this pixel, gated by its quality flag
func (c *Corrector) cubeComponent(detY int, detX int, wav float64) CorrectionComponent {
	cube := c.refs.WaveCube
	if !cube.DQ.IsClean(detY, detX) {
		return neutralComponent
	}
	return CorrectionComponent{
		Value: cube.SCI.InterpAt(detY, detX, wav),
		Err:   cube.ERR.At(detY, detX),
	}
}

// planeComponent - direct per-pixel lookup, gated by its quality flag
func (c *Corrector) planeComponent(detY int, detX int) CorrectionComponent {
	plane := c.refs.PixelPlane
	if !plane.DQ.IsClean(detY, detX) {
		return neutralComponent
	}
	return CorrectionComponent{
		Value: plane.SCI.At(detY, detX),
		Err:   plane.ERR.At(detY, detX),
	}
}

// bandFactor - band-averaged fast-variation factor, neutral on any table
// fault so the run always reaches a verdict
func (c *Corrector) bandFactor(table fastvar.Table, wav float64, halfBand float64) CorrectionComponent {
	if table.IsEmpty() {
		return neutralComponent
	}

	value, err := table.BandAverage(wav, halfBand)
	if err != nil {
		c.log.Debugf("fast-variation factor coerced to neutral at wavelength %v: %v", wav, err)
		return neutralComponent
	}
	return CorrectionComponent{Value: value, Err: 0.0}
}

// globalFactor - like bandFactor, but subject to the optional wavelength
// floor: bands whose lower edge falls below the floor keep the neutral
// factor (the reference table is unreliable below its blue cutoff)
func (c *Corrector) globalFactor(table fastvar.Table, wav float64, halfBand float64) CorrectionComponent {
	if c.params.GlobalTableWaveFloor > 0 && wav-halfBand < c.params.GlobalTableWaveFloor {
		return neutralComponent
	}
	return c.bandFactor(table, wav, halfBand)
}

func (c *Corrector) regionTable(set fastvar.TableSet, region string, name string) fastvar.Table {
	table, err := set.Lookup(region)
	if err != nil {
		c.log.Debugf("no %v fast-variation table for region %v, using neutral factor: %v", name, region, err)
		return fastvar.Table{}
	}
	return table
}
