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

package utils

import (
	"fmt"
	"math"
	"testing"
)

func Example_statsOddCount() {
	vals := []float64{3, 1, 2}
	fmt.Printf("%v %v %v\n", Mean(vals), Median(vals), StdDev(vals))

	// Output:
	// 2 2 0.816496580927726
}

func Example_statsEvenCount() {
	vals := []float64{4, 1, 3, 2}
	fmt.Printf("%v %v\n", Mean(vals), Median(vals))

	// Output:
	// 2.5 2.5
}

func TestStatsEmpty(t *testing.T) {
	if !math.IsNaN(Mean(nil)) || !math.IsNaN(Median(nil)) || !math.IsNaN(StdDev(nil)) {
		t.Errorf("Expected NaN stats for empty input")
	}
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	vals := []float64{5, 1, 3}
	Median(vals)
	if vals[0] != 5 || vals[1] != 1 || vals[2] != 3 {
		t.Errorf("Median modified its input: %v", vals)
	}
}

func TestSafeDiv(t *testing.T) {
	type divCase struct {
		num, den float64
		expVal   float64
		expOK    bool
	}

	cases := []divCase{
		{10, 4, 2.5, true},
		{1, 0, 0, false},
		{math.NaN(), 1, 0, false},
		{1, math.NaN(), 0, false},
		{math.Inf(1), 2, 0, false},
		{0, 5, 0, true},
	}

	for _, c := range cases {
		val, ok := SafeDiv(c.num, c.den)
		if val != c.expVal || ok != c.expOK {
			t.Errorf("SafeDiv(%v, %v) = %v, %v, expected %v, %v", c.num, c.den, val, ok, c.expVal, c.expOK)
		}
	}
}

func TestFiniteOnly(t *testing.T) {
	vals := []float64{1, math.NaN(), 2, math.Inf(1), 3, math.Inf(-1)}
	got := FiniteOnly(vals)
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("FiniteOnly returned %v", got)
	}
}
