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

package fileaccess

import (
	"fmt"
	"os"
	"testing"
)

func Example_s3UrlHelpers() {
	bucket, _ := GetBucketFromS3Url("s3://ref-files/nirspec/sflat.json")
	path, _ := GetPathFromS3Url("s3://ref-files/nirspec/sflat.json")
	_, err := GetBucketFromS3Url("/local/path/only")
	fmt.Println(bucket)
	fmt.Println(path)
	fmt.Printf("%v\n", err)

	// Output:
	// ref-files
	// nirspec/sflat.json
	// GetBucketFromS3Url parameter was not a valid S3 url: /local/path/only
}

func TestFSAccessRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs := &FSAccess{}

	type testItem struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}

	written := testItem{Name: "sflat", Value: 1.25}
	if err := fs.WriteJSON(dir, "sub/item.json", &written); err != nil {
		t.Errorf("WriteJSON failed: %v", err)
	}

	var read testItem
	if err := fs.ReadJSON(dir, "sub/item.json", &read, false); err != nil {
		t.Errorf("ReadJSON failed: %v", err)
	}
	if read != written {
		t.Errorf("Read back %+v, expected %+v", read, written)
	}

	exists, err := fs.ObjectExists(dir, "sub/item.json")
	if err != nil || !exists {
		t.Errorf("ObjectExists = %v, %v, expected true", exists, err)
	}
	exists, err = fs.ObjectExists(dir, "sub/missing.json")
	if err != nil || exists {
		t.Errorf("ObjectExists for missing = %v, %v, expected false", exists, err)
	}

	listed, err := fs.ListObjects(dir, "")
	if err != nil || len(listed) != 1 || listed[0] != "sub/item.json" {
		t.Errorf("ListObjects = %v, %v", listed, err)
	}

	_, err = fs.ReadObject(dir, "nope.json")
	if err == nil || !fs.IsNotFoundError(err) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}

// A local directory search passes root "" with the directory as the prefix;
// listed paths must come back intact and stay readable through the same
// root/path split.
func TestFSAccessListObjectsEmptyRoot(t *testing.T) {
	dir := t.TempDir()
	fs := &FSAccess{}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	defer os.Chdir(wd)

	if err := fs.WriteObject("", "dflat/nirspec_dflat_NRS1.json", []byte("{}")); err != nil {
		t.Fatalf("WriteObject failed: %v", err)
	}

	listed, err := fs.ListObjects("", "dflat")
	if err != nil {
		t.Fatalf("ListObjects failed: %v", err)
	}
	if len(listed) != 1 || listed[0] != "dflat/nirspec_dflat_NRS1.json" {
		t.Errorf("ListObjects = %v", listed)
	}

	if _, err := fs.ReadObject("", listed[0]); err != nil {
		t.Errorf("Listed path not readable: %v", err)
	}
}

func TestFSAccessReadJSONMissingOK(t *testing.T) {
	dir := t.TempDir()
	fs := &FSAccess{}

	var items []string
	if err := fs.ReadJSON(dir, "none.json", &items, true); err != nil {
		t.Errorf("Expected nil error for emptyIfNotFound, got %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected untouched output for missing file")
	}
}

func TestMemoryAccess(t *testing.T) {
	mem := MakeMemoryAccess()

	if err := mem.WriteObject("root", "a/one.json", []byte("1")); err != nil {
		t.Errorf("WriteObject failed: %v", err)
	}
	if err := mem.WriteObject("root", "a/two.json", []byte("2")); err != nil {
		t.Errorf("WriteObject failed: %v", err)
	}
	if err := mem.WriteObject("other", "a/three.json", []byte("3")); err != nil {
		t.Errorf("WriteObject failed: %v", err)
	}

	listed, err := mem.ListObjects("root", "a/")
	if err != nil {
		t.Errorf("ListObjects failed: %v", err)
	}
	if len(listed) != 2 || listed[0] != "a/one.json" || listed[1] != "a/two.json" {
		t.Errorf("ListObjects = %v", listed)
	}

	_, err = mem.ReadObject("root", "a/three.json")
	if err == nil || !mem.IsNotFoundError(err) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}
