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

// Generic interface for reading/writing data products. Reference calibration
// files may sit on a local disk or in a shared S3 bucket, so product
// resolution and artifact writing code against this interface rather than
// the OS directly.

// Besides just needing a path, we may need a root directory or bucket
// at the start of a path.

type FileAccess interface {
	ListObjects(root string, prefix string) ([]string, error)
	ObjectExists(root string, path string) (bool, error)

	ReadObject(root string, path string) ([]byte, error)
	WriteObject(root string, path string, data []byte) error

	ReadJSON(root string, path string, itemsPtr interface{}, emptyIfNotFound bool) error
	WriteJSON(root string, path string, itemsPtr interface{}) error

	IsNotFoundError(err error) bool
}

// PrettyPrintIndentForJSON - written JSON products stay human-diffable
const PrettyPrintIndentForJSON = "    "
