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

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/flatcheck/core/core/awsutil"
	"github.com/flatcheck/core/core/fileaccess"
	"github.com/flatcheck/core/core/flatverify"
	"github.com/flatcheck/core/core/logger"
	"github.com/flatcheck/core/core/refproduct"
	"github.com/flatcheck/core/core/timestamper"
)

const s3Prefix = "s3://"

func main() {
	fmt.Println("===============================")
	fmt.Println("=  Flat field verification    =")
	fmt.Println("===============================")

	var argObs = flag.String("obs", "", "Observation product: geometry slices + pipeline flat (file path or s3:// url)")
	var argCube = flag.String("cube", "", "Wavelength-cube reference product file, or directory of candidates")
	var argPlane = flag.String("plane", "", "Per-pixel plane reference product file, or directory of candidates")
	var argTable = flag.String("table", "", "Global fast-variation table product file, or directory of candidates")
	var argThreshold = flag.Float64("threshold", flatverify.DefaultThreshold, "Pass/fail cut on the per-slice median difference")
	var argWaveFloor = flag.Float64("wave-floor", 0, "Ignore the global table below this wavelength (0 = off)")
	var argOut = flag.String("out", "", "Artifact output prefix (path or s3:// url), empty disables artifact writing")
	var argPlots = flag.Bool("plots", false, "Also render per-slice difference images and histograms")
	var argDebug = flag.Bool("debug", false, "Debug logging")

	flag.Parse()

	if len(*argObs) <= 0 {
		log.Fatalln("No observation product specified")
	}
	if len(*argCube) <= 0 || len(*argPlane) <= 0 || len(*argTable) <= 0 {
		log.Fatalln("All three reference product locations must be specified")
	}

	ilog := &logger.StdOutLogger{}
	if !*argDebug {
		ilog.SetLogLevel(logger.LogInfo)
	}
	fmt.Printf("Log level: %v\n", logger.GetLogLevelName(ilog.GetLogLevel()))

	locations := []string{*argObs, *argCube, *argPlane, *argTable}
	if len(*argOut) > 0 {
		locations = append(locations, *argOut)
	}
	fs := makeFileAccess(locations)

	obsRoot, obsPath := splitLocation(*argObs)

	params := flatverify.DefaultParams()
	params.Threshold = *argThreshold
	params.GlobalTableWaveFloor = *argWaveFloor
	if len(*argOut) > 0 {
		params.WriteArtifacts = true
		params.ArtifactRoot, params.ArtifactPrefix = splitLocation(*argOut)
		params.MakePlots = *argPlots
	}

	result, err := flatverify.VerifyFlatField(
		fs,
		obsRoot, obsPath,
		makeSearchPath(*argCube),
		makeSearchPath(*argPlane),
		makeSearchPath(*argTable),
		params,
		&timestamper.UnixTimeNowStamper{},
		ilog,
	)
	if err != nil {
		log.Fatalf("Verification failed to run: %v", err)
	}

	if len(*argOut) > 0 && len(result.LogLines) > 0 {
		logRoot, logPrefix := splitLocation(*argOut)
		logData := []byte(strings.Join(result.LogLines, "\n") + "\n")
		if writeErr := fs.WriteObject(logRoot, logPrefix+"_run_log.txt", logData); writeErr != nil {
			ilog.Errorf("Failed to save run log: %v", writeErr)
		}
	}

	fmt.Printf("\n%v: %v\n", result.Verdict, result.Message)

	switch result.Verdict {
	case flatverify.VerdictPass:
		os.Exit(0)
	case flatverify.VerdictFail:
		os.Exit(1)
	case flatverify.VerdictIndeterminate:
		os.Exit(2)
	}
	os.Exit(3)
}

// makeFileAccess - all locations must agree on local vs S3 access
func makeFileAccess(locations []string) fileaccess.FileAccess {
	s3Count := 0
	for _, loc := range locations {
		if strings.HasPrefix(loc, s3Prefix) {
			s3Count++
		}
	}

	if s3Count == 0 {
		return &fileaccess.FSAccess{}
	}
	if s3Count != len(locations) {
		log.Fatalln("Product locations must be all local paths or all s3:// urls")
	}

	sess, err := awsutil.GetSession()
	if err != nil {
		log.Fatalf("AWS GetSession failed: %v", err)
	}
	svc, err := awsutil.GetS3(sess)
	if err != nil {
		log.Fatalf("AWS GetS3 failed: %v", err)
	}

	return fileaccess.MakeS3Access(svc)
}

func splitLocation(loc string) (string, string) {
	if strings.HasPrefix(loc, s3Prefix) {
		bucket, err := fileaccess.GetBucketFromS3Url(loc)
		if err != nil {
			log.Fatalf("%v", err)
		}
		path, err := fileaccess.GetPathFromS3Url(loc)
		if err != nil {
			log.Fatalf("%v", err)
		}
		return bucket, path
	}
	return "", loc
}

func makeSearchPath(loc string) refproduct.SearchPath {
	root, path := splitLocation(loc)
	return refproduct.SearchPath{Root: root, Path: path}
}
