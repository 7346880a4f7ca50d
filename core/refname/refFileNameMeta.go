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

// File name parser allowing us to extract instrument configuration metadata
// from the underscore-delimited reference file naming convention, eg
// nirspec_IFU_sflat_G140H_OPAQUE_nrs1.json
package refname

import (
	"path"
	"strings"

	"github.com/flatcheck/core/core/utils"
)

// Token vocabularies for the instrument configurations we recognise.
var KnownModes = []string{"IFU", "IFS", "MOS", "FS", "BOTS"}
var KnownDetectors = []string{"NRS1", "NRS2"}
var KnownGratings = []string{"G140M", "G140H", "G235M", "G235H", "G395M", "G395H", "PRISM", "MIRROR"}
var KnownFilters = []string{"F070LP", "F100LP", "F170LP", "F290LP", "CLEAR", "OPAQUE"}

// MappedFilters - the filters that actually map to a flat selection.
// OPAQUE appears in file names but dark exposures have no correspondence.
var MappedFilters = []string{"F070LP", "F100LP", "F170LP", "F290LP", "CLEAR"}

// RefFileNameMeta - configuration tokens found in a reference file name.
// Tokens that don't appear are left empty; a name can legitimately omit
// some (eg global-table files carry no detector).
type RefFileNameMeta struct {
	Mode     string
	Detector string
	Grating  string
	Filter   string
}

func (m RefFileNameMeta) String() string {
	parts := []string{}
	for _, p := range []string{m.Mode, m.Detector, m.Grating, m.Filter} {
		if len(p) > 0 {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "(no config tokens)"
	}
	return strings.Join(parts, " ")
}

// ParseFileName - classifies each underscore-delimited token of the file's
// base name against the known vocabularies. Later duplicate tokens are
// ignored, the first of each class wins.
func ParseFileName(filePath string) RefFileNameMeta {
	meta := RefFileNameMeta{}

	base := path.Base(filePath)
	if dot := strings.LastIndex(base, "."); dot >= 0 {
		base = base[0:dot]
	}

	for _, token := range strings.Split(base, "_") {
		upperToken := strings.ToUpper(token)
		switch {
		case len(meta.Mode) == 0 && utils.ItemInSlice(upperToken, KnownModes):
			meta.Mode = upperToken
		case len(meta.Detector) == 0 && utils.ItemInSlice(upperToken, KnownDetectors):
			meta.Detector = upperToken
		case len(meta.Grating) == 0 && utils.ItemInSlice(upperToken, KnownGratings):
			meta.Grating = upperToken
		case len(meta.Filter) == 0 && utils.ItemInSlice(upperToken, KnownFilters):
			meta.Filter = upperToken
		}
	}

	return meta
}

// IsKnownFilter - whether the observation's filter has a reference flat
// correspondence at all. Unknown filters short-circuit a verification run.
func IsKnownFilter(filter string) bool {
	return utils.ItemInSlice(strings.ToUpper(filter), MappedFilters)
}
