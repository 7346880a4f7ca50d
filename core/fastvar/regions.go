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

package fastvar

import "fmt"

// RegionTable - one region's rows of a product's nested fast-variation
// table, as serialised in the product file
type RegionTable struct {
	SlitName   string    `json:"slit_name"`
	Wavelength []float64 `json:"wavelength"`
	Data       []float64 `json:"data"`
}

// TableSet - all regions' fast-variation rows from one product
type TableSet []RegionTable

// Lookup - the table for a region id, falling back to the generic ANY entry
// when no region-specific table exists
func (s TableSet) Lookup(region string) (Table, error) {
	for _, want := range []string{region, RegionAny} {
		for _, rt := range s {
			if rt.SlitName == want {
				return MakeTable(rt.Wavelength, rt.Data)
			}
		}
	}
	return Table{}, fmt.Errorf("no fast-variation table for region %v (and no %v entry)", region, RegionAny)
}
