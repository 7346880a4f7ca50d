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

	"github.com/flatcheck/core/core/frame"
	"github.com/flatcheck/core/core/logger"
	"github.com/flatcheck/core/core/utils"
	"github.com/flatcheck/core/core/wcsmodel"
)

// PlaneDiscrepancy - mean comparison of one output plane between a division
// by the pipeline's flat and a division by the recomputed correction.
// DiscrepancyPct is int((1 - MeanCalc/MeanPipe) * 100), or 0 when either
// mean is unusable.
type PlaneDiscrepancy struct {
	Name           string  `json:"name"`
	MeanPipe       float64 `json:"mean_pipe"`
	MeanCalc       float64 `json:"mean_calc"`
	MeanDiff       float64 `json:"mean_diff"`
	DiscrepancyPct int     `json:"discrepancy_pct"`
}

// ReconcileReport - error-budget diagnostic over the corrected science,
// variance and error planes. Purely informational, it never affects the
// verdict.
type ReconcileReport struct {
	Planes []PlaneDiscrepancy `json:"planes"`
}

// correctedMeans - plane means after dividing the pre-correction exposure
// by one flat: science, the two propagated variance terms, the variance
// contributed by the flat itself, and the combined error
type correctedMeans struct {
	sci        float64
	varPoisson float64
	varRnoise  float64
	varFlat    float64
	errTotal   float64
}

// Reconcile - re-applies the flat division to the pre-correction exposure
// planes twice, once with the pipeline's flat and once with the recomputed
// correction, then compares plane means term by term. Requires the optional
// pre-correction planes on the observation; returns nil when they are
// absent.
func Reconcile(obs wcsmodel.Observation, correction frame.Plane, correctionErr frame.Plane, log logger.ILogger) *ReconcileReport {
	if !obs.HasReconcilePlanes() {
		log.Debugf("reconciliation planes not present in observation, skipping error-budget check")
		return nil
	}

	pipe := applyCorrection(obs, obs.PipeFlat, obs.PipeFlatErr)
	calc := applyCorrection(obs, correction, correctionErr)

	report := &ReconcileReport{
		Planes: []PlaneDiscrepancy{
			comparePlanes("sci", pipe.sci, calc.sci),
			comparePlanes("var_poisson", pipe.varPoisson, calc.varPoisson),
			comparePlanes("var_rnoise", pipe.varRnoise, calc.varRnoise),
			comparePlanes("var_flat", pipe.varFlat, calc.varFlat),
			comparePlanes("err", pipe.errTotal, calc.errTotal),
		},
	}

	for _, p := range report.Planes {
		log.Infof("reconcile %v: pipeline-flat mean %v, computed-flat mean %v, difference %v, discrepancy %v%%",
			p.Name, p.MeanPipe, p.MeanCalc, p.MeanDiff, p.DiscrepancyPct)
	}

	// Cross-check the pipeline-flat division against the product the
	// pipeline actually recorded
	if !obs.PostSCI.IsEmpty() {
		log.Infof("reconcile recorded output: sci mean %v (re-derived %v), err mean %v (re-derived %v)",
			planeMean(obs.PostSCI), pipe.sci, planeMean(obs.PostErr), pipe.errTotal)
	}

	return report
}

// applyCorrection - divides the pre-correction planes by one flat and
// accumulates the mean of every resulting term. Division faults contribute
// zero rather than poisoning the means.
func applyCorrection(obs wcsmodel.Observation, flat frame.Plane, flatErr frame.Plane) correctedMeans {
	w := obs.PipeFlat.Width
	h := obs.PipeFlat.Height
	n := float64(w * h)

	means := correctedMeans{}
	if n == 0 {
		return means
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f := flat.At(y, x)
			fErr := 0.0
			if !flatErr.IsEmpty() {
				fErr = coerce(flatErr.At(y, x))
			}

			sci := coerce(obs.PreSCI.At(y, x))
			varPoisson := coerce(obs.PreVarPoisson.At(y, x))
			varRnoise := coerce(obs.PreVarRnoise.At(y, x))

			fSq := f * f

			outSCI, ok := utils.SafeDiv(sci, f)
			if !ok {
				outSCI = 0.0
			}
			outVarP, ok := utils.SafeDiv(varPoisson, fSq)
			if !ok {
				outVarP = 0.0
			}
			outVarR, ok := utils.SafeDiv(varRnoise, fSq)
			if !ok {
				outVarR = 0.0
			}

			// Variance contributed by the flat itself: (sci/flat)^2 scaled
			// by the flat's relative variance
			outVarFlat, ok := utils.SafeDiv(sci*sci, fSq)
			if ok {
				term, termOK := utils.SafeDiv(fErr*fErr, fSq)
				if termOK {
					outVarFlat *= term
				} else {
					outVarFlat = 0.0
				}
			} else {
				outVarFlat = 0.0
			}

			means.sci += outSCI
			means.varPoisson += outVarP
			means.varRnoise += outVarR
			means.varFlat += outVarFlat
			means.errTotal += math.Sqrt(outVarP + outVarR + outVarFlat)
		}
	}

	means.sci /= n
	means.varPoisson /= n
	means.varRnoise /= n
	means.varFlat /= n
	means.errTotal /= n
	return means
}

func comparePlanes(name string, meanPipe float64, meanCalc float64) PlaneDiscrepancy {
	d := PlaneDiscrepancy{
		Name:     name,
		MeanPipe: meanPipe,
		MeanCalc: meanCalc,
		MeanDiff: meanPipe - meanCalc,
	}

	ratio, ok := utils.SafeDiv(meanCalc, meanPipe)
	if ok {
		d.DiscrepancyPct = int((1.0 - ratio) * 100.0)
	}
	return d
}

func planeMean(p frame.Plane) float64 {
	sum := 0.0
	for _, v := range p.Values {
		sum += coerce(v)
	}
	if len(p.Values) == 0 {
		return 0.0
	}
	return sum / float64(len(p.Values))
}

// coerce - non-finite samples are treated as zero signal throughout the
// reconciliation arithmetic
func coerce(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.0
	}
	return v
}
