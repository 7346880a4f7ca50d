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

package refproduct

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/flatcheck/core/core/fileaccess"
	"github.com/flatcheck/core/core/logger"
	"github.com/flatcheck/core/core/refname"
)

const productExt = ".json"

// The legacy mode token some older reference deliveries use in place of IFU
const legacyModeToken = "IFS"

// The filter token a reference file can carry when it applies regardless of
// the observation's blocking filter
const opaqueFilter = "OPAQUE"

// Config - the instrument setup a verification run resolves references for
type Config struct {
	Detector string
	Grating  string
	Filter   string
	Mode     string
}

func (c Config) String() string {
	return c.Mode + " " + c.Detector + " " + c.Grating + " " + c.Filter
}

// ConfigNotFoundError - no reference product matches the instrument setup.
// This is a distinct outcome from a verification FAIL: the run is skipped
// with the missing configuration identified, never silently passed.
type ConfigNotFoundError struct {
	Stage    string
	Detector string
	Grating  string
	Filter   string
}

func (e *ConfigNotFoundError) Error() string {
	return "no " + e.Stage + " reference correspondence for configuration " +
		e.Detector + " " + e.Grating + " " + e.Filter
}

// ResolvedRefs - the three correction sources for one instrument
// configuration, plus which files they came from
type ResolvedRefs struct {
	WaveCube     WaveCubeProduct
	WaveCubeFile string

	PixelPlane     PixelPlaneProduct
	PixelPlaneFile string

	GlobalTable     GlobalTableProduct
	GlobalTableFile string
}

// SearchPath - where one reference product lives: a root (local directory or
// S3 bucket) and a path under it, either a product file or a directory of
// candidates to search
type SearchPath struct {
	Root string
	Path string
}

// IsDirectFile - paths naming a product file skip the candidate search
func (s SearchPath) IsDirectFile() bool {
	return strings.HasSuffix(strings.ToLower(s.Path), productExt)
}

// LoadReferences - resolves all three correction sources for the given
// configuration. Returns a *ConfigNotFoundError (detect with errors.As) when
// any search stage has no candidate.
func LoadReferences(fs fileaccess.FileAccess, cubePath SearchPath, planePath SearchPath, tablePath SearchPath, cfg Config, log logger.ILogger) (ResolvedRefs, error) {
	refs := ResolvedRefs{}

	if !refname.IsKnownFilter(cfg.Filter) {
		return refs, &ConfigNotFoundError{Stage: "filter", Detector: cfg.Detector, Grating: cfg.Grating, Filter: cfg.Filter}
	}

	var err error
	refs.WaveCubeFile, err = findWaveCubeFile(fs, cubePath, cfg)
	if err != nil {
		return refs, err
	}
	if err = fs.ReadJSON(cubePath.Root, refs.WaveCubeFile, &refs.WaveCube, false); err != nil {
		return refs, errors.Wrapf(err, "reading wavelength-cube product %v", refs.WaveCubeFile)
	}
	if err = refs.WaveCube.Validate(); err != nil {
		return refs, errors.Wrapf(err, "validating wavelength-cube product %v", refs.WaveCubeFile)
	}

	refs.PixelPlaneFile, err = findConfiguredFile(fs, planePath, cfg, true, "per-pixel plane")
	if err != nil {
		return refs, err
	}
	if err = fs.ReadJSON(planePath.Root, refs.PixelPlaneFile, &refs.PixelPlane, false); err != nil {
		return refs, errors.Wrapf(err, "reading per-pixel plane product %v", refs.PixelPlaneFile)
	}
	if err = refs.PixelPlane.Validate(); err != nil {
		return refs, errors.Wrapf(err, "validating per-pixel plane product %v", refs.PixelPlaneFile)
	}

	refs.GlobalTableFile, err = findConfiguredFile(fs, tablePath, cfg, false, "global table")
	if err != nil {
		return refs, err
	}
	if err = fs.ReadJSON(tablePath.Root, refs.GlobalTableFile, &refs.GlobalTable, false); err != nil {
		return refs, errors.Wrapf(err, "reading global table product %v", refs.GlobalTableFile)
	}
	if err = refs.GlobalTable.Validate(); err != nil {
		return refs, errors.Wrapf(err, "validating global table product %v", refs.GlobalTableFile)
	}

	// Report what we resolved, the run log gets compared against what the
	// pipeline recorded using
	log.Infof("This verification is using the following reference files")
	log.Infof("    Wavelength-cube: %v (%v)", refs.WaveCubeFile, refname.ParseFileName(refs.WaveCubeFile))
	log.Infof("    Per-pixel plane: %v (%v)", refs.PixelPlaneFile, refname.ParseFileName(refs.PixelPlaneFile))
	log.Infof("    Global table:    %v (%v)", refs.GlobalTableFile, refname.ParseFileName(refs.GlobalTableFile))

	return refs, nil
}

// findWaveCubeFile - wavelength-cube candidates only need to match the
// detector id
func findWaveCubeFile(fs fileaccess.FileAccess, where SearchPath, cfg Config) (string, error) {
	if where.IsDirectFile() {
		return where.Path, nil
	}

	candidates, err := listProductFiles(fs, where)
	if err != nil {
		return "", err
	}

	for _, candidate := range candidates {
		if containsFold(candidate, cfg.Detector) {
			return candidate, nil
		}
	}

	return "", &ConfigNotFoundError{Stage: "wavelength-cube", Detector: cfg.Detector, Grating: cfg.Grating, Filter: cfg.Filter}
}

// findConfiguredFile - two-stage search shared by the per-pixel plane and
// global table products: candidates by mode (+detector when the product is
// detector-specific), then narrowed by grating, then by filter with an
// OPAQUE fallback
func findConfiguredFile(fs fileaccess.FileAccess, where SearchPath, cfg Config, wantDetector bool, stage string) (string, error) {
	if where.IsDirectFile() {
		return where.Path, nil
	}

	candidates, err := listProductFiles(fs, where)
	if err != nil {
		return "", err
	}

	notFound := &ConfigNotFoundError{Stage: stage, Detector: cfg.Detector, Grating: cfg.Grating, Filter: cfg.Filter}

	matched := filterByMode(candidates, cfg.Mode, wantDetector, cfg.Detector)
	if len(matched) == 0 {
		// Older reference deliveries used a legacy mode token
		matched = filterByMode(candidates, legacyModeToken, wantDetector, cfg.Detector)
	}
	if len(matched) == 0 {
		return "", notFound
	}

	withGrating := []string{}
	for _, candidate := range matched {
		if containsFold(candidate, cfg.Grating) {
			withGrating = append(withGrating, candidate)
		}
	}
	if len(withGrating) == 0 {
		return "", notFound
	}

	for _, want := range []string{cfg.Filter, opaqueFilter} {
		for _, candidate := range withGrating {
			if containsFold(candidate, want) {
				return candidate, nil
			}
		}
	}

	return "", notFound
}

func filterByMode(candidates []string, mode string, wantDetector bool, detector string) []string {
	result := []string{}
	for _, candidate := range candidates {
		if !containsFold(candidate, "_"+mode+"_") {
			continue
		}
		if wantDetector && !containsFold(candidate, detector) {
			continue
		}
		result = append(result, candidate)
	}
	return result
}

func listProductFiles(fs fileaccess.FileAccess, where SearchPath) ([]string, error) {
	listed, err := fs.ListObjects(where.Root, where.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "listing reference candidates in %v", where.Path)
	}

	result := []string{}
	for _, item := range listed {
		if strings.HasSuffix(strings.ToLower(item), productExt) {
			result = append(result, item)
		}
	}
	return result, nil
}

func containsFold(haystack string, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
