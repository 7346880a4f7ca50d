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
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// In-memory file access implementation for unit tests. Objects are keyed by
// root+"/"+path.
type MemoryAccess struct {
	Objects map[string][]byte
}

func MakeMemoryAccess() *MemoryAccess {
	return &MemoryAccess{Objects: map[string][]byte{}}
}

type memNotFoundError struct {
	key string
}

func (e memNotFoundError) Error() string {
	return "object not found: " + e.key
}

func (m *MemoryAccess) key(root string, path string) string {
	return root + "/" + path
}

func (m *MemoryAccess) ListObjects(root string, prefix string) ([]string, error) {
	result := []string{}
	find := m.key(root, prefix)
	for k := range m.Objects {
		if strings.HasPrefix(k, find) {
			result = append(result, strings.TrimPrefix(k, root+"/"))
		}
	}
	// Map iteration order is random, tests want something stable
	sort.Strings(result)
	return result, nil
}

func (m *MemoryAccess) ObjectExists(root string, path string) (bool, error) {
	_, ok := m.Objects[m.key(root, path)]
	return ok, nil
}

func (m *MemoryAccess) ReadObject(root string, path string) ([]byte, error) {
	data, ok := m.Objects[m.key(root, path)]
	if !ok {
		return nil, memNotFoundError{key: m.key(root, path)}
	}
	return data, nil
}

func (m *MemoryAccess) WriteObject(root string, path string, data []byte) error {
	m.Objects[m.key(root, path)] = data
	return nil
}

func (m *MemoryAccess) ReadJSON(root string, path string, itemsPtr interface{}, emptyIfNotFound bool) error {
	fileData, err := m.ReadObject(root, path)
	if err != nil {
		if emptyIfNotFound && m.IsNotFoundError(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(fileData, itemsPtr)
}

func (m *MemoryAccess) WriteJSON(root string, path string, itemsPtr interface{}) error {
	fileData, err := json.MarshalIndent(itemsPtr, "", PrettyPrintIndentForJSON)
	if err != nil {
		return fmt.Errorf("failed to marshal %v: %v", path, err)
	}
	return m.WriteObject(root, path, fileData)
}

func (m *MemoryAccess) IsNotFoundError(err error) bool {
	_, ok := err.(memNotFoundError)
	return ok
}
