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

// Exposes small helper functions shared across packages: generic slice
// search, guarded float division, sample statistics
package utils

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Simple Go helper functions
// stuff that you'd expect to be part of the std lib but aren't

func ItemInSlice[T comparable](a T, list []T) bool {
	for _, b := range list {
		if b == a {
			return true
		}
	}
	return false
}

func MinOf[T constraints.Ordered](a T, b T) T {
	if a < b {
		return a
	}
	return b
}

func MaxOf[T constraints.Ordered](a T, b T) T {
	if a > b {
		return a
	}
	return b
}

// SafeDiv - division that never faults. Returns 0 and false if the
// denominator is zero or either operand is non-finite, or if the quotient
// itself is non-finite.
func SafeDiv(num float64, den float64) (float64, bool) {
	if den == 0 || math.IsNaN(num) || math.IsInf(num, 0) || math.IsNaN(den) || math.IsInf(den, 0) {
		return 0, false
	}
	q := num / den
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0, false
	}
	return q, true
}
