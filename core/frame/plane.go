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

// Dense detector-shaped arrays as stored in data products: 2D planes, 3D
// wavelength cubes and integer quality-flag planes. JSON cannot represent
// NaN, so cells serialise as null and decode back to NaN.
package frame

import (
	"encoding/json"
	"fmt"
	"math"
)

// Plane - 2D float64 array, row-major, indexed (y, x)
type Plane struct {
	Width  int
	Height int
	Values []float64
}

func MakePlane(width int, height int, fill float64) Plane {
	values := make([]float64, width*height)
	if fill != 0 {
		for i := range values {
			values[i] = fill
		}
	}
	return Plane{Width: width, Height: height, Values: values}
}

func (p Plane) At(y int, x int) float64 {
	return p.Values[y*p.Width+x]
}

func (p *Plane) Set(y int, x int, v float64) {
	p.Values[y*p.Width+x] = v
}

func (p Plane) IsEmpty() bool {
	return len(p.Values) == 0
}

// Contains - true if (y, x) is inside the plane bounds
func (p Plane) Contains(y int, x int) bool {
	return y >= 0 && y < p.Height && x >= 0 && x < p.Width
}

func (p Plane) MarshalJSON() ([]byte, error) {
	rows := make([][]*float64, p.Height)
	for y := 0; y < p.Height; y++ {
		row := make([]*float64, p.Width)
		for x := 0; x < p.Width; x++ {
			v := p.At(y, x)
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				vCopy := v
				row[x] = &vCopy
			}
		}
		rows[y] = row
	}
	return json.Marshal(rows)
}

func (p *Plane) UnmarshalJSON(data []byte) error {
	var rows [][]*float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	return p.setFromRows(rows)
}

func (p *Plane) setFromRows(rows [][]*float64) error {
	p.Height = len(rows)
	p.Width = 0
	p.Values = nil
	if p.Height == 0 {
		return nil
	}

	p.Width = len(rows[0])
	p.Values = make([]float64, 0, p.Width*p.Height)
	for y, row := range rows {
		if len(row) != p.Width {
			return fmt.Errorf("plane row %v has %v values, expected %v", y, len(row), p.Width)
		}
		for _, cell := range row {
			if cell == nil {
				p.Values = append(p.Values, math.NaN())
			} else {
				p.Values = append(p.Values, *cell)
			}
		}
	}
	return nil
}
