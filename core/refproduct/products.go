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

// The three reference correction sources a flat-field correction is rebuilt
// from, and the search that resolves them for an instrument configuration.
package refproduct

import (
	"fmt"

	"github.com/flatcheck/core/core/fastvar"
	"github.com/flatcheck/core/core/frame"
)

// WaveCubeProduct - per-wavelength correction cube with its quality flags,
// per-pixel error plane and nested fast-variation table. The cube's
// wavelength labels travel inside the SCI cube.
type WaveCubeProduct struct {
	SCI           frame.Cube       `json:"sci"`
	DQ            frame.FlagPlane  `json:"dq"`
	ERR           frame.Plane      `json:"err"`
	FastVariation fastvar.TableSet `json:"fast_variation"`
}

func (p WaveCubeProduct) Validate() error {
	if p.SCI.IsEmpty() {
		return fmt.Errorf("wavelength-cube product has no SCI cube")
	}
	if p.DQ.Width != p.SCI.Width || p.DQ.Height != p.SCI.Height {
		return fmt.Errorf("wavelength-cube DQ is %vx%v, SCI is %vx%v",
			p.DQ.Width, p.DQ.Height, p.SCI.Width, p.SCI.Height)
	}
	if p.ERR.Width != p.SCI.Width || p.ERR.Height != p.SCI.Height {
		return fmt.Errorf("wavelength-cube ERR is %vx%v, SCI is %vx%v",
			p.ERR.Width, p.ERR.Height, p.SCI.Width, p.SCI.Height)
	}
	return nil
}

// PixelPlaneProduct - per-pixel constant correction plane with quality
// flags, error plane and nested fast-variation table
type PixelPlaneProduct struct {
	SCI           frame.Plane      `json:"sci"`
	DQ            frame.FlagPlane  `json:"dq"`
	ERR           frame.Plane      `json:"err"`
	FastVariation fastvar.TableSet `json:"fast_variation"`
}

func (p PixelPlaneProduct) Validate() error {
	if p.SCI.IsEmpty() {
		return fmt.Errorf("per-pixel plane product has no SCI plane")
	}
	if p.DQ.Width != p.SCI.Width || p.DQ.Height != p.SCI.Height {
		return fmt.Errorf("per-pixel plane DQ is %vx%v, SCI is %vx%v",
			p.DQ.Width, p.DQ.Height, p.SCI.Width, p.SCI.Height)
	}
	if p.ERR.Width != p.SCI.Width || p.ERR.Height != p.SCI.Height {
		return fmt.Errorf("per-pixel plane ERR is %vx%v, SCI is %vx%v",
			p.ERR.Width, p.ERR.Height, p.SCI.Width, p.SCI.Height)
	}
	return nil
}

// GlobalTableProduct - global fast-variation correction, no spatial planes
type GlobalTableProduct struct {
	FastVariation fastvar.TableSet `json:"fast_variation"`
}

func (p GlobalTableProduct) Validate() error {
	if len(p.FastVariation) == 0 {
		return fmt.Errorf("global table product has no fast-variation table")
	}
	return nil
}
