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
	"fmt"
	"image"
	"path"
	"strings"

	"github.com/flatcheck/core/core/diagrender"
	"github.com/flatcheck/core/core/fileaccess"
	"github.com/flatcheck/core/core/frame"
	"github.com/flatcheck/core/core/logger"
	"github.com/flatcheck/core/core/refproduct"
	"github.com/flatcheck/core/core/timestamper"
	"github.com/flatcheck/core/core/wcsmodel"
	"github.com/pkg/errors"
)

// DefaultThreshold - pass/fail cut on the per-slice median difference
const DefaultThreshold = 9.999e-05

const plotMaxWidth = 512
const histogramBins = 40

// Params - knobs of a verification run
type Params struct {
	// Pass/fail cut on |median difference| per slice, inclusive
	Threshold float64

	// When > 0, bands whose lower edge falls below this wavelength keep
	// the neutral global-table factor
	GlobalTableWaveFloor float64

	// Artifact output. ArtifactRoot/ArtifactPrefix locate where the
	// computed-correction and comparison products get written.
	WriteArtifacts bool
	ArtifactRoot   string
	ArtifactPrefix string

	// Per-slice difference image and histogram rendering, only meaningful
	// with WriteArtifacts
	MakePlots bool
}

func DefaultParams() Params {
	return Params{Threshold: DefaultThreshold}
}

// RunResult - everything a verification run produced
type RunResult struct {
	Verdict Verdict
	Message string

	// Set only for the CONFIG_NOT_FOUND outcome
	MissingConfig *refproduct.ConfigNotFoundError

	Slices []SliceResult

	// nil when the observation lacks the pre/post planes
	Reconcile *ReconcileReport

	// Everything the run logged, in order, for attaching to a report
	LogLines []string

	ElapsedSec int64
}

// VerifyFlatField - runs the full verification: load the observation,
// resolve the reference correction sources for its configuration, recompute
// the correction per pixel of every slice, compare against the pipeline's
// flat and reduce to a verdict. A missing reference configuration is a
// reported outcome, not an error.
func VerifyFlatField(
	fs fileaccess.FileAccess,
	obsRoot string,
	obsPath string,
	cubePath refproduct.SearchPath,
	planePath refproduct.SearchPath,
	tablePath refproduct.SearchPath,
	params Params,
	ts timestamper.ITimeStamper,
	log logger.ILogger,
) (RunResult, error) {
	startSec := ts.GetTimeNowSec()
	result := RunResult{}

	// Record everything logged during the run so the result can carry it
	rec := &logger.RecorderLogger{Dest: log}
	log = rec

	obs, err := wcsmodel.LoadObservation(fs, obsRoot, obsPath)
	if err != nil {
		return result, errors.Wrapf(err, "failed to load observation %v", obsPath)
	}

	cfg := refproduct.Config{
		Detector: obs.Detector,
		Grating:  obs.Grating,
		Filter:   obs.Filter,
		Mode:     obs.Mode(),
	}
	log.Infof("verifying flat field for configuration: %v", cfg)

	refs, err := refproduct.LoadReferences(fs, cubePath, planePath, tablePath, cfg, log)
	if err != nil {
		var notFound *refproduct.ConfigNotFoundError
		if errors.As(err, &notFound) {
			result.Verdict = VerdictConfigNotFound
			result.MissingConfig = notFound
			result.Message = notFound.Error()
			result.ElapsedSec = ts.GetTimeNowSec() - startSec
			log.Infof("%v, skipping verification", notFound)
			result.LogLines = rec.Lines()
			return result, nil
		}
		return result, err
	}

	surf := MakeSurface(obs.DetectorWidth, obs.DetectorHeight)
	corrector := MakeCorrector(refs, obs, params, log)

	threshold := params.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	for _, slice := range obs.Slices {
		sliceResult := corrector.EvaluateSlice(slice, surf)
		FinalizeSlice(&sliceResult, threshold)

		log.Infof("slice %v at (%v, %v): %v compared, %v excluded, %v outside range",
			slice.Name, slice.XStart, slice.YStart, sliceResult.Stats.Count, sliceResult.Excluded, sliceResult.Skipped)
		log.Infof("slice %v differences: mean %v, median %v, stddev %v",
			slice.Name, sliceResult.Stats.Mean, sliceResult.Stats.Median, sliceResult.Stats.StdDev)
		log.Infof("slice %v error differences: mean %v, median %v, stddev %v",
			slice.Name, sliceResult.ErrStats.Mean, sliceResult.ErrStats.Median, sliceResult.ErrStats.StdDev)
		log.Infof("slice %v verdict: %v", slice.Name, sliceResult.Verdict)

		result.Slices = append(result.Slices, sliceResult)
	}

	result.Verdict = ReduceVerdicts(result.Slices)
	result.Message = runMessage(result.Slices, result.Verdict, threshold)

	correction, correctionErr := surf.Finalize()
	result.Reconcile = Reconcile(obs, correction, correctionErr, log)

	if params.WriteArtifacts {
		writeArtifacts(fs, obs, surf, correction, correctionErr, result.Slices, params, log)
	}

	result.ElapsedSec = ts.GetTimeNowSec() - startSec
	log.Infof("verification %v, took %v", result.Verdict, timestamper.FormatDuration(result.ElapsedSec))
	result.LogLines = rec.Lines()

	return result, nil
}

func runMessage(slices []SliceResult, verdict Verdict, threshold float64) string {
	anomalous := []string{}
	failed := []string{}
	for _, slice := range slices {
		if slice.Verdict == VerdictIndeterminate {
			anomalous = append(anomalous, slice.Name)
		}
		if slice.Verdict == VerdictFail {
			failed = append(failed, slice.Name)
		}
	}

	switch verdict {
	case VerdictFail:
		return fmt.Sprintf("median difference above threshold %v in slices: %v", threshold, strings.Join(failed, ", "))
	case VerdictIndeterminate:
		return fmt.Sprintf("no conclusive statistics for slices: %v", strings.Join(anomalous, ", "))
	}
	return fmt.Sprintf("all %v slices within threshold %v", len(slices), threshold)
}

// calcProduct - published computed-correction artifact
type calcProduct struct {
	Correction frame.Plane `json:"correction"`
	Err        frame.Plane `json:"err"`
}

// compProduct - published comparison artifact. Excluded and unprocessed
// cells carry the legacy numeric marker in the difference plane.
type compProduct struct {
	Difference frame.Plane `json:"difference"`
}

// writeArtifacts - best effort, failures are logged and never affect the
// run outcome
func writeArtifacts(
	fs fileaccess.FileAccess,
	obs wcsmodel.Observation,
	surf *Surface,
	correction frame.Plane,
	correctionErr frame.Plane,
	slices []SliceResult,
	params Params,
	log logger.ILogger,
) {
	diff := frame.MakePlane(surf.Width, surf.Height, ExcludedSentinel)
	for y := 0; y < surf.Height; y++ {
		for x := 0; x < surf.Width; x++ {
			if surf.State(y, x) == CellComputed {
				diff.Set(y, x, obs.PipeFlat.At(y, x)-correction.At(y, x))
			}
		}
	}

	calcPath := params.ArtifactPrefix + "_flat_calc.json"
	if err := fs.WriteJSON(params.ArtifactRoot, calcPath, calcProduct{Correction: correction, Err: correctionErr}); err != nil {
		log.Errorf("failed to write computed correction artifact %v: %v", calcPath, err)
	} else {
		log.Infof("wrote computed correction: %v", path.Join(params.ArtifactRoot, calcPath))
	}

	compPath := params.ArtifactPrefix + "_flat_comp.json"
	if err := fs.WriteJSON(params.ArtifactRoot, compPath, compProduct{Difference: diff}); err != nil {
		log.Errorf("failed to write comparison artifact %v: %v", compPath, err)
	} else {
		log.Infof("wrote comparison: %v", path.Join(params.ArtifactRoot, compPath))
	}

	if !params.MakePlots {
		return
	}

	for i, slice := range obs.Slices {
		writeSlicePlots(fs, slice, diff, slices[i], params, log)
	}
}

func writeSlicePlots(
	fs fileaccess.FileAccess,
	slice wcsmodel.SliceGeometry,
	diff frame.Plane,
	sliceResult SliceResult,
	params Params,
	log logger.ILogger,
) {
	sub := frame.MakePlane(slice.Wavelengths.Width, slice.Wavelengths.Height, 0)
	for yy := 0; yy < sub.Height; yy++ {
		for xx := 0; xx < sub.Width; xx++ {
			sub.Set(yy, xx, diff.At(slice.YStart-1+yy, slice.XStart-1+xx))
		}
	}

	img := diagrender.ScaleToMaxWidth(diagrender.RenderPlane(sub), plotMaxWidth)
	savePlot(fs, params, slice.Name+"_diff.png", img, log)

	hist := diagrender.RenderHistogram(
		sliceResult.Differences,
		histogramBins,
		plotMaxWidth, plotMaxWidth,
		[]float64{sliceResult.Stats.Mean, sliceResult.Stats.Median},
	)
	savePlot(fs, params, slice.Name+"_hist.png", hist, log)
}

func savePlot(fs fileaccess.FileAccess, params Params, suffix string, img image.Image, log logger.ILogger) {
	data, err := diagrender.GetPNGBytes(img)
	if err != nil {
		log.Errorf("failed to render plot %v: %v", suffix, err)
		return
	}

	plotPath := params.ArtifactPrefix + "_" + suffix
	if err := fs.WriteObject(params.ArtifactRoot, plotPath, data); err != nil {
		log.Errorf("failed to write plot %v: %v", plotPath, err)
	}
}
