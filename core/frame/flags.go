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

// FlagPlane - 2D per-pixel quality flags. Zero means the pixel's spatial
// correction value is trusted.
type FlagPlane struct {
	Width  int
	Height int
	Flags  []int32
}

func MakeFlagPlane(width int, height int) FlagPlane {
	return FlagPlane{Width: width, Height: height, Flags: make([]int32, width*height)}
}

func (f FlagPlane) At(y int, x int) int32 {
	return f.Flags[y*f.Width+x]
}

func (f *FlagPlane) Set(y int, x int, v int32) {
	f.Flags[y*f.Width+x] = v
}

func (f FlagPlane) IsEmpty() bool {
	return len(f.Flags) == 0
}

// IsClean - quality gate used by the per-pixel corrector
func (f FlagPlane) IsClean(y int, x int) bool {
	return f.At(y, x) == 0
}

func (f FlagPlane) MarshalJSON() ([]byte, error) {
	rows := make([][]int32, f.Height)
	for y := 0; y < f.Height; y++ {
		rows[y] = f.Flags[y*f.Width : (y+1)*f.Width]
	}
	return json.Marshal(rows)
}

func (f *FlagPlane) UnmarshalJSON(data []byte) error {
	var rows [][]int32
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}

	f.Height = len(rows)
	f.Width = 0
	f.Flags = nil
	if f.Height == 0 {
		return nil
	}

	f.Width = len(rows[0])
	f.Flags = make([]int32, 0, f.Width*f.Height)
	for y, row := range rows {
		if len(row) != f.Width {
			return fmt.Errorf("flag plane row %v has %v values, expected %v", y, len(row), f.Width)
		}
		f.Flags = append(f.Flags, row...)
	}
	return nil
}
