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

// The observation under test: instrument setup, the wavelength/geometry
// solution produced by an earlier pipeline stage (consumed here, never
// derived), the pipeline's flat correction and the pre/post-correction
// science planes.
package wcsmodel

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/flatcheck/core/core/fileaccess"
	"github.com/flatcheck/core/core/frame"
)

const defaultDetectorSize = 2048

// SliceGeometry - one spatial+spectral dispersion unit of the geometry
// solution, processed independently of the others
type SliceGeometry struct {
	Name string `json:"name"`

	// 1-based detector coordinates of the slice subwindow origin. The
	// corrector converts to 0-based exactly once when writing detector
	// coordinates.
	XStart int `json:"xstart"`
	YStart int `json:"ystart"`

	// Mapped wavelength per local pixel, NaN where no wavelength maps
	Wavelengths frame.Plane `json:"wavelengths"`
}

// Observation - everything a verification run consumes about the exposure
type Observation struct {
	Detector     string `json:"detector"`
	Grating      string `json:"grating"`
	Filter       string `json:"filter"`
	LampState    string `json:"lamp_state"`
	ExposureType string `json:"exposure_type"`

	DetectorWidth  int `json:"detector_width"`
	DetectorHeight int `json:"detector_height"`

	Slices []SliceGeometry `json:"slices"`

	// The pipeline's on-the-fly interpolated flat, full detector frame
	PipeFlat    frame.Plane `json:"pipe_flat"`
	PipeFlatErr frame.Plane `json:"pipe_flat_err"`

	// Pre-correction planes from the geometry-assignment stage, used only
	// by the error-budget reconciliation diagnostic
	PreSCI        frame.Plane `json:"pre_sci"`
	PreVarPoisson frame.Plane `json:"pre_var_poisson"`
	PreVarRnoise  frame.Plane `json:"pre_var_rnoise"`

	// Post-correction planes from the flat-field stage output, reported
	// alongside the reconciliation
	PostSCI frame.Plane `json:"post_sci"`
	PostErr frame.Plane `json:"post_err"`
}

// Mode - observing mode token derived from the exposure type
func (o Observation) Mode() string {
	if strings.Contains(strings.ToLower(o.ExposureType), "ifu") {
		return "IFU"
	}
	return strings.ToUpper(o.ExposureType)
}

// HasReconcilePlanes - whether the optional error-budget diagnostic has its
// inputs. Verification itself only needs the pipeline flat.
func (o Observation) HasReconcilePlanes() bool {
	return !o.PreSCI.IsEmpty() && !o.PreVarPoisson.IsEmpty() && !o.PreVarRnoise.IsEmpty()
}

func (o *Observation) Validate() error {
	if o.DetectorWidth == 0 {
		o.DetectorWidth = defaultDetectorSize
	}
	if o.DetectorHeight == 0 {
		o.DetectorHeight = defaultDetectorSize
	}

	if len(o.Detector) == 0 {
		return fmt.Errorf("observation has no detector id")
	}
	if len(o.Slices) == 0 {
		return fmt.Errorf("observation has no geometry slices")
	}
	if o.PipeFlat.Width != o.DetectorWidth || o.PipeFlat.Height != o.DetectorHeight {
		return fmt.Errorf("pipeline flat is %vx%v, detector is %vx%v",
			o.PipeFlat.Width, o.PipeFlat.Height, o.DetectorWidth, o.DetectorHeight)
	}
	if !o.PipeFlatErr.IsEmpty() && (o.PipeFlatErr.Width != o.DetectorWidth || o.PipeFlatErr.Height != o.DetectorHeight) {
		return fmt.Errorf("pipeline flat err is %vx%v, detector is %vx%v",
			o.PipeFlatErr.Width, o.PipeFlatErr.Height, o.DetectorWidth, o.DetectorHeight)
	}

	for _, slice := range o.Slices {
		if slice.Wavelengths.IsEmpty() {
			return fmt.Errorf("slice %v has no wavelength grid", slice.Name)
		}
		if slice.XStart < 1 || slice.YStart < 1 {
			return fmt.Errorf("slice %v subwindow origin (%v, %v) is not 1-based",
				slice.Name, slice.XStart, slice.YStart)
		}
		maxX := slice.XStart - 1 + slice.Wavelengths.Width
		maxY := slice.YStart - 1 + slice.Wavelengths.Height
		if maxX > o.DetectorWidth || maxY > o.DetectorHeight {
			return fmt.Errorf("slice %v extends to (%v, %v), outside the %vx%v detector",
				slice.Name, maxX, maxY, o.DetectorWidth, o.DetectorHeight)
		}
	}

	return nil
}

// LoadObservation - reads and validates the observation product
func LoadObservation(fs fileaccess.FileAccess, root string, path string) (Observation, error) {
	obs := Observation{}
	if err := fs.ReadJSON(root, path, &obs, false); err != nil {
		return obs, errors.Wrapf(err, "reading observation product %v", path)
	}
	if err := obs.Validate(); err != nil {
		return obs, errors.Wrapf(err, "validating observation product %v", path)
	}
	return obs, nil
}
