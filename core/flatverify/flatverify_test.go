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

package flatverify

import (
	"math"
	"strings"
	"testing"

	"github.com/flatcheck/core/core/fastvar"
	"github.com/flatcheck/core/core/fileaccess"
	"github.com/flatcheck/core/core/frame"
	"github.com/flatcheck/core/core/logger"
	"github.com/flatcheck/core/core/refproduct"
	"github.com/flatcheck/core/core/timestamper"
	"github.com/flatcheck/core/core/wcsmodel"
)

const testDetSize = 8

// makeTestCube - 4 planes at wavelengths 1..4 with constant values 2..5, so
// interpolation at wavelength w yields w+1.5 between plane centres
func makeTestCube(size int) frame.Cube {
	cube := frame.Cube{
		Depth:       4,
		Height:      size,
		Width:       size,
		Wavelengths: []float64{1.0, 2.0, 3.0, 4.0},
		Values:      make([]float64, 4*size*size),
	}
	for plane := 0; plane < 4; plane++ {
		for i := 0; i < size*size; i++ {
			cube.Values[plane*size*size+i] = float64(plane) + 2.0
		}
	}
	return cube
}

func makeTestRefs() refproduct.ResolvedRefs {
	return refproduct.ResolvedRefs{
		WaveCube: refproduct.WaveCubeProduct{
			SCI: makeTestCube(testDetSize),
			DQ:  frame.MakeFlagPlane(testDetSize, testDetSize),
			ERR: frame.MakePlane(testDetSize, testDetSize, 0),
		},
		PixelPlane: refproduct.PixelPlaneProduct{
			SCI: frame.MakePlane(testDetSize, testDetSize, 1.0),
			DQ:  frame.MakeFlagPlane(testDetSize, testDetSize),
			ERR: frame.MakePlane(testDetSize, testDetSize, 0),
		},
		GlobalTable: refproduct.GlobalTableProduct{
			FastVariation: fastvar.TableSet{
				{SlitName: fastvar.RegionAny, Wavelength: []float64{1.0, 5.0}, Data: []float64{1.0, 1.0}},
			},
		},
	}
}

// makeTestSlice - a single-row slice whose 0-based detector window is row 2,
// columns 1..3
func makeTestSlice(wavelengths []float64) wcsmodel.SliceGeometry {
	grid := frame.MakePlane(len(wavelengths), 1, 0)
	for x, w := range wavelengths {
		grid.Set(0, x, w)
	}
	return wcsmodel.SliceGeometry{Name: "slice_01", XStart: 2, YStart: 3, Wavelengths: grid}
}

func makeTestObservation(slice wcsmodel.SliceGeometry) wcsmodel.Observation {
	return wcsmodel.Observation{
		Detector:       "NRS1",
		Grating:        "G140H",
		Filter:         "F100LP",
		ExposureType:   "NRS_IFU",
		DetectorWidth:  testDetSize,
		DetectorHeight: testDetSize,
		Slices:         []wcsmodel.SliceGeometry{slice},
		PipeFlat:       frame.MakePlane(testDetSize, testDetSize, 1.0),
	}
}

func TestCorrectorCleanPixels(t *testing.T) {
	slice := makeTestSlice([]float64{2.4, 2.5, 2.6})
	obs := makeTestObservation(slice)

	// Pipeline values match the expected cube interpolation exactly, so all
	// differences are zero
	obs.PipeFlat.Set(2, 1, 3.4)
	obs.PipeFlat.Set(2, 2, 3.5)
	obs.PipeFlat.Set(2, 3, 3.6)

	surf := MakeSurface(testDetSize, testDetSize)
	corrector := MakeCorrector(makeTestRefs(), obs, DefaultParams(), &logger.NullLogger{})

	result := corrector.EvaluateSlice(slice, surf)
	FinalizeSlice(&result, DefaultThreshold)

	if result.Stats.Count != 3 {
		t.Errorf("expected 3 compared pixels, got %v", result.Stats.Count)
	}
	if result.Excluded != 0 || result.Skipped != 0 {
		t.Errorf("expected no excluded/skipped pixels, got %v/%v", result.Excluded, result.Skipped)
	}
	if math.Abs(result.Stats.Median) > 1e-12 {
		t.Errorf("expected zero median difference, got %v", result.Stats.Median)
	}
	if result.Verdict != VerdictPass {
		t.Errorf("expected PASS, got %v", result.Verdict)
	}

	if got := surf.Correction(2, 2); math.Abs(got-3.5) > 1e-12 {
		t.Errorf("expected correction 3.5 at centre pixel, got %v", got)
	}
	if got := surf.Error(2, 2); got != 0 {
		t.Errorf("expected zero correction error, got %v", got)
	}
}

func TestCorrectorExclusions(t *testing.T) {
	slice := makeTestSlice([]float64{2.4, 2.5, 2.6})
	obs := makeTestObservation(slice)
	refs := makeTestRefs()

	// Column 1 stays at pipeline value 1.0 (untouched marker), column 3 has
	// an unusable per-pixel reference value
	obs.PipeFlat.Set(2, 2, 3.5)
	obs.PipeFlat.Set(2, 3, 3.6)
	refs.PixelPlane.SCI.Set(2, 3, math.NaN())

	surf := MakeSurface(testDetSize, testDetSize)
	corrector := MakeCorrector(refs, obs, DefaultParams(), &logger.NullLogger{})

	result := corrector.EvaluateSlice(slice, surf)
	FinalizeSlice(&result, DefaultThreshold)

	if result.Excluded != 2 {
		t.Errorf("expected 2 excluded pixels, got %v", result.Excluded)
	}
	if result.Stats.Count != 1 {
		t.Errorf("expected 1 compared pixel, got %v", result.Stats.Count)
	}

	// Excluded cells carry the neutral correction
	if got := surf.Correction(2, 1); got != 1.0 {
		t.Errorf("expected neutral correction at excluded pixel, got %v", got)
	}
	if surf.State(2, 3) != CellExcluded {
		t.Errorf("expected excluded state, got %v", surf.State(2, 3))
	}
}

func TestCorrectorAllExcludedIsIndeterminate(t *testing.T) {
	slice := makeTestSlice([]float64{2.4, 2.5, 2.6})
	// Every pipeline value stays at the untouched marker 1.0
	obs := makeTestObservation(slice)

	surf := MakeSurface(testDetSize, testDetSize)
	corrector := MakeCorrector(makeTestRefs(), obs, DefaultParams(), &logger.NullLogger{})

	result := corrector.EvaluateSlice(slice, surf)
	FinalizeSlice(&result, DefaultThreshold)

	if result.Excluded != 3 {
		t.Errorf("expected all 3 pixels excluded, got %v", result.Excluded)
	}
	if result.Verdict != VerdictIndeterminate {
		t.Errorf("expected INDETERMINATE for an all-excluded slice, got %v", result.Verdict)
	}
}

func TestCorrectorWavelengthAcceptance(t *testing.T) {
	// Below range, unmapped, and at the exclusive upper bound
	slice := makeTestSlice([]float64{0.5, math.NaN(), 5.3})
	obs := makeTestObservation(slice)

	surf := MakeSurface(testDetSize, testDetSize)
	corrector := MakeCorrector(makeTestRefs(), obs, DefaultParams(), &logger.NullLogger{})

	result := corrector.EvaluateSlice(slice, surf)
	FinalizeSlice(&result, DefaultThreshold)

	if result.Skipped != 3 {
		t.Errorf("expected all 3 pixels skipped, got %v", result.Skipped)
	}
	if result.Verdict != VerdictIndeterminate {
		t.Errorf("expected INDETERMINATE with no samples, got %v", result.Verdict)
	}
}

func TestCorrectorDirtyFlagNeutralises(t *testing.T) {
	slice := makeTestSlice([]float64{2.4, 2.5, 2.6})
	obs := makeTestObservation(slice)
	refs := makeTestRefs()

	// Centre pixel's cube value is untrusted, leaving only the neutral
	// factors, so the recomputed correction is exactly 1.0
	refs.WaveCube.DQ.Set(2, 2, 1)
	obs.PipeFlat.Set(2, 1, 3.4)
	obs.PipeFlat.Set(2, 2, 2.0)
	obs.PipeFlat.Set(2, 3, 3.6)

	surf := MakeSurface(testDetSize, testDetSize)
	corrector := MakeCorrector(refs, obs, DefaultParams(), &logger.NullLogger{})

	corrector.EvaluateSlice(slice, surf)

	if got := surf.Correction(2, 2); got != 1.0 {
		t.Errorf("expected neutral correction for flagged pixel, got %v", got)
	}
}

func TestGlobalTableWaveFloor(t *testing.T) {
	slice := makeTestSlice([]float64{2.4, 2.5, 2.6})
	obs := makeTestObservation(slice)
	obs.PipeFlat.Set(2, 1, 3.4)
	obs.PipeFlat.Set(2, 2, 3.5)
	obs.PipeFlat.Set(2, 3, 3.6)
	refs := makeTestRefs()

	// Sloped global table: at 2.5 the pair interpolation gives 1.375
	refs.GlobalTable.FastVariation = fastvar.TableSet{
		{SlitName: fastvar.RegionAny, Wavelength: []float64{1.0, 5.0}, Data: []float64{1.0, 2.0}},
	}

	surfActive := MakeSurface(testDetSize, testDetSize)
	paramsActive := DefaultParams()
	paramsActive.GlobalTableWaveFloor = 3.0
	MakeCorrector(refs, obs, paramsActive, &logger.NullLogger{}).EvaluateSlice(slice, surfActive)

	surfOff := MakeSurface(testDetSize, testDetSize)
	MakeCorrector(refs, obs, DefaultParams(), &logger.NullLogger{}).EvaluateSlice(slice, surfOff)

	if got := surfActive.Correction(2, 2); math.Abs(got-3.5) > 1e-12 {
		t.Errorf("expected floor to neutralise global factor, got correction %v", got)
	}
	if got := surfOff.Correction(2, 2); math.Abs(got-3.5*1.375) > 1e-12 {
		t.Errorf("expected global factor 1.375, got correction %v", got)
	}
}

func TestFinalizeSliceThreshold(t *testing.T) {
	atThreshold := SliceResult{Differences: []float64{DefaultThreshold}}
	FinalizeSlice(&atThreshold, DefaultThreshold)
	if atThreshold.Verdict != VerdictPass {
		t.Errorf("median exactly at threshold should pass, got %v", atThreshold.Verdict)
	}

	above := SliceResult{Differences: []float64{1.0e-4}}
	FinalizeSlice(&above, DefaultThreshold)
	if above.Verdict != VerdictFail {
		t.Errorf("median above threshold should fail, got %v", above.Verdict)
	}

	empty := SliceResult{}
	FinalizeSlice(&empty, DefaultThreshold)
	if empty.Verdict != VerdictIndeterminate {
		t.Errorf("no samples should be indeterminate, got %v", empty.Verdict)
	}
}

func TestReduceVerdicts(t *testing.T) {
	cases := []struct {
		verdicts []Verdict
		expect   Verdict
	}{
		{[]Verdict{VerdictPass, VerdictPass}, VerdictPass},
		{[]Verdict{VerdictPass, VerdictFail}, VerdictFail},
		{[]Verdict{VerdictPass, VerdictIndeterminate}, VerdictIndeterminate},
		{[]Verdict{VerdictFail, VerdictIndeterminate}, VerdictFail},
		{[]Verdict{VerdictIndeterminate, VerdictFail}, VerdictFail},
	}

	for _, c := range cases {
		slices := []SliceResult{}
		for _, v := range c.verdicts {
			slices = append(slices, SliceResult{Verdict: v})
		}
		if got := ReduceVerdicts(slices); got != c.expect {
			t.Errorf("%v: expected %v, got %v", c.verdicts, c.expect, got)
		}
	}
}

func TestSurfaceFinalize(t *testing.T) {
	surf := MakeSurface(2, 2)
	surf.SetComputed(0, 0, 3.5, 0.1)
	surf.SetExcluded(0, 1)

	correction, errPlane := surf.Finalize()

	if correction.At(0, 0) != 3.5 || errPlane.At(0, 0) != 0.1 {
		t.Errorf("computed cell lost: %v, %v", correction.At(0, 0), errPlane.At(0, 0))
	}
	if correction.At(0, 1) != 1.0 || errPlane.At(0, 1) != 0.0 {
		t.Errorf("excluded cell should be neutral: %v, %v", correction.At(0, 1), errPlane.At(0, 1))
	}
	if correction.At(1, 1) != 1.0 {
		t.Errorf("unprocessed cell should be neutral, got %v", correction.At(1, 1))
	}
	if !math.IsNaN(errPlane.At(1, 1)) {
		t.Errorf("unprocessed error should be undefined, got %v", errPlane.At(1, 1))
	}

	// The legacy numeric marker never appears in published planes
	for _, v := range correction.Values {
		if v == ExcludedSentinel {
			t.Errorf("sentinel leaked into correction plane")
		}
	}
}

func TestReconcileReport(t *testing.T) {
	slice := makeTestSlice([]float64{2.4, 2.5, 2.6})
	obs := makeTestObservation(slice)

	obs.PreSCI = frame.MakePlane(testDetSize, testDetSize, 10.0)
	obs.PreVarPoisson = frame.MakePlane(testDetSize, testDetSize, 4.0)
	obs.PreVarRnoise = frame.MakePlane(testDetSize, testDetSize, 0.0)
	obs.PostSCI = frame.MakePlane(testDetSize, testDetSize, 10.0)
	obs.PostErr = frame.MakePlane(testDetSize, testDetSize, 2.0)

	correction := frame.MakePlane(testDetSize, testDetSize, 2.0)
	correctionErr := frame.MakePlane(testDetSize, testDetSize, 0.0)

	report := Reconcile(obs, correction, correctionErr, &logger.NullLogger{})
	if report == nil {
		t.Fatalf("expected a report with reconcile planes present")
	}
	if len(report.Planes) != 5 {
		t.Fatalf("expected 5 plane comparisons, got %v", len(report.Planes))
	}

	// Pipeline flat is 1.0 everywhere, computed correction 2.0: sci 10 vs 5,
	// poisson variance 4 vs 1, combined error sqrt(4) vs sqrt(1)
	expected := []PlaneDiscrepancy{
		{Name: "sci", MeanPipe: 10.0, MeanCalc: 5.0, MeanDiff: 5.0, DiscrepancyPct: 50},
		{Name: "var_poisson", MeanPipe: 4.0, MeanCalc: 1.0, MeanDiff: 3.0, DiscrepancyPct: 75},
		{Name: "var_rnoise", MeanPipe: 0.0, MeanCalc: 0.0, MeanDiff: 0.0, DiscrepancyPct: 0},
		{Name: "var_flat", MeanPipe: 0.0, MeanCalc: 0.0, MeanDiff: 0.0, DiscrepancyPct: 0},
		{Name: "err", MeanPipe: 2.0, MeanCalc: 1.0, MeanDiff: 1.0, DiscrepancyPct: 50},
	}
	for i, exp := range expected {
		if report.Planes[i] != exp {
			t.Errorf("plane %v: got %+v, expected %+v", exp.Name, report.Planes[i], exp)
		}
	}
}

func TestReconcileSkippedWithoutPlanes(t *testing.T) {
	slice := makeTestSlice([]float64{2.4, 2.5, 2.6})
	obs := makeTestObservation(slice)

	correction := frame.MakePlane(testDetSize, testDetSize, 1.0)
	correctionErr := frame.MakePlane(testDetSize, testDetSize, 0.0)

	if report := Reconcile(obs, correction, correctionErr, &logger.NullLogger{}); report != nil {
		t.Errorf("expected no report without reconcile planes")
	}
}

func TestVerifyFlatFieldEndToEnd(t *testing.T) {
	fs := fileaccess.MakeMemoryAccess()

	slice := makeTestSlice([]float64{2.4, 2.5, 2.6})
	obs := makeTestObservation(slice)
	obs.PipeFlat.Set(2, 1, 3.4)
	obs.PipeFlat.Set(2, 2, 3.5)
	obs.PipeFlat.Set(2, 3, 3.6)

	refs := makeTestRefs()

	if err := fs.WriteJSON("verif", "obs/exposure1.json", obs); err != nil {
		t.Fatalf("failed to write observation: %v", err)
	}
	if err := fs.WriteJSON("verif", "refs/nirspec_fflat_IFU_NRS1_dflat.json", refs.WaveCube); err != nil {
		t.Fatalf("failed to write cube product: %v", err)
	}
	if err := fs.WriteJSON("verif", "refs/nirspec_sflat_IFU_NRS1_G140H_F100LP.json", refs.PixelPlane); err != nil {
		t.Fatalf("failed to write plane product: %v", err)
	}
	if err := fs.WriteJSON("verif", "refs/nirspec_fflat_IFU_G140H_F100LP.json", refs.GlobalTable); err != nil {
		t.Fatalf("failed to write table product: %v", err)
	}

	ts := &timestamper.MockTimeNowStamper{QueuedTimeStamps: []int64{100, 160}}
	params := DefaultParams()
	params.WriteArtifacts = true
	params.ArtifactRoot = "verif"
	params.ArtifactPrefix = "out/exposure1"

	result, err := VerifyFlatField(
		fs,
		"verif", "obs/exposure1.json",
		refproduct.SearchPath{Root: "verif", Path: "refs/nirspec_fflat_IFU_NRS1_dflat.json"},
		refproduct.SearchPath{Root: "verif", Path: "refs/nirspec_sflat_IFU_NRS1_G140H_F100LP.json"},
		refproduct.SearchPath{Root: "verif", Path: "refs/nirspec_fflat_IFU_G140H_F100LP.json"},
		params,
		ts,
		&logger.NullLogger{},
	)
	if err != nil {
		t.Fatalf("verification failed: %v", err)
	}

	if result.Verdict != VerdictPass {
		t.Errorf("expected PASS, got %v (%v)", result.Verdict, result.Message)
	}
	if len(result.Slices) != 1 || result.Slices[0].Stats.Count != 3 {
		t.Errorf("unexpected slice results: %+v", result.Slices)
	}
	if result.ElapsedSec != 60 {
		t.Errorf("expected 60s elapsed, got %v", result.ElapsedSec)
	}

	if len(result.LogLines) == 0 {
		t.Errorf("expected run log lines in result")
	}
	foundVerdict := false
	for _, line := range result.LogLines {
		if strings.Contains(line, "verification PASS") {
			foundVerdict = true
			break
		}
	}
	if !foundVerdict {
		t.Errorf("expected verdict line in run log, got %v", result.LogLines)
	}

	var calc calcProduct
	if err := fs.ReadJSON("verif", "out/exposure1_flat_calc.json", &calc, false); err != nil {
		t.Fatalf("computed correction artifact missing: %v", err)
	}
	if got := calc.Correction.At(2, 2); math.Abs(got-3.5) > 1e-12 {
		t.Errorf("expected correction 3.5 in artifact, got %v", got)
	}

	var comp compProduct
	if err := fs.ReadJSON("verif", "out/exposure1_flat_comp.json", &comp, false); err != nil {
		t.Fatalf("comparison artifact missing: %v", err)
	}
	if got := comp.Difference.At(0, 0); got != ExcludedSentinel {
		t.Errorf("expected sentinel for unprocessed cell in comparison artifact, got %v", got)
	}
	if got := comp.Difference.At(2, 2); math.Abs(got) > 1e-12 {
		t.Errorf("expected zero difference at compared pixel, got %v", got)
	}
}

func TestVerifyFlatFieldConfigNotFound(t *testing.T) {
	fs := fileaccess.MakeMemoryAccess()

	slice := makeTestSlice([]float64{2.4, 2.5, 2.6})
	obs := makeTestObservation(slice)
	obs.Filter = "F999ZZ"

	if err := fs.WriteJSON("verif", "obs/exposure1.json", obs); err != nil {
		t.Fatalf("failed to write observation: %v", err)
	}

	result, err := VerifyFlatField(
		fs,
		"verif", "obs/exposure1.json",
		refproduct.SearchPath{Root: "verif", Path: "refs"},
		refproduct.SearchPath{Root: "verif", Path: "refs"},
		refproduct.SearchPath{Root: "verif", Path: "refs"},
		DefaultParams(),
		&timestamper.MockTimeNowStamper{QueuedTimeStamps: []int64{0, 1}},
		&logger.NullLogger{},
	)
	if err != nil {
		t.Fatalf("missing configuration should not be an error: %v", err)
	}

	if result.Verdict != VerdictConfigNotFound {
		t.Errorf("expected CONFIG_NOT_FOUND, got %v", result.Verdict)
	}
	if result.MissingConfig == nil || result.MissingConfig.Stage != "filter" {
		t.Errorf("expected filter stage in missing configuration, got %+v", result.MissingConfig)
	}
	if len(result.LogLines) == 0 {
		t.Errorf("expected run log lines even when skipping verification")
	}
}
