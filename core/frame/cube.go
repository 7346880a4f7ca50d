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

package frame

import (
	"encoding/json"
	"fmt"
)

// Cube - 3D float64 array indexed (plane, y, x), with an ascending (not
// necessarily uniform) wavelength label per plane
type Cube struct {
	Depth       int
	Height      int
	Width       int
	Wavelengths []float64
	Values      []float64
}

func (c Cube) At(plane int, y int, x int) float64 {
	return c.Values[(plane*c.Height+y)*c.Width+x]
}

func (c Cube) IsEmpty() bool {
	return len(c.Values) == 0
}

// InterpAt - linear interpolation of the wavelength-vs-value relation at
// pixel (y, x). Clamps to the first/last plane value outside the labelled
// range, matching the behaviour the calibration pipeline uses.
func (c Cube) InterpAt(y int, x int, wavelength float64) float64 {
	if wavelength <= c.Wavelengths[0] {
		return c.At(0, y, x)
	}
	last := c.Depth - 1
	if wavelength >= c.Wavelengths[last] {
		return c.At(last, y, x)
	}

	hi := 1
	for hi < last && c.Wavelengths[hi] < wavelength {
		hi++
	}
	lo := hi - 1

	w0, w1 := c.Wavelengths[lo], c.Wavelengths[hi]
	v0, v1 := c.At(lo, y, x), c.At(hi, y, x)
	frac := (wavelength - w0) / (w1 - w0)
	return v0 + frac*(v1-v0)
}

type cubeJSON struct {
	Wavelengths []float64      `json:"wavelengths"`
	Planes      [][][]*float64 `json:"planes"`
}

func (c Cube) MarshalJSON() ([]byte, error) {
	out := cubeJSON{Wavelengths: c.Wavelengths}
	for p := 0; p < c.Depth; p++ {
		plane := Plane{Width: c.Width, Height: c.Height, Values: c.Values[p*c.Height*c.Width : (p+1)*c.Height*c.Width]}
		data, err := plane.MarshalJSON()
		if err != nil {
			return nil, err
		}
		var rows [][]*float64
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, err
		}
		out.Planes = append(out.Planes, rows)
	}
	return json.Marshal(out)
}

func (c *Cube) UnmarshalJSON(data []byte) error {
	var in cubeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	c.Depth = len(in.Planes)
	c.Wavelengths = in.Wavelengths
	c.Height = 0
	c.Width = 0
	c.Values = nil

	if c.Depth == 0 {
		return nil
	}
	if len(in.Wavelengths) != c.Depth {
		return fmt.Errorf("cube has %v planes but %v wavelength labels", c.Depth, len(in.Wavelengths))
	}

	for p, rows := range in.Planes {
		var plane Plane
		if err := plane.setFromRows(rows); err != nil {
			return fmt.Errorf("cube plane %v: %v", p, err)
		}
		if p == 0 {
			c.Height = plane.Height
			c.Width = plane.Width
		} else if plane.Height != c.Height || plane.Width != c.Width {
			return fmt.Errorf("cube plane %v is %vx%v, expected %vx%v", p, plane.Width, plane.Height, c.Width, c.Height)
		}
		c.Values = append(c.Values, plane.Values...)
	}

	for p := 1; p < c.Depth; p++ {
		if c.Wavelengths[p] <= c.Wavelengths[p-1] {
			return fmt.Errorf("cube wavelength labels not ascending at plane %v", p)
		}
	}

	return nil
}
