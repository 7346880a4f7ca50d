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

package awsutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const ErrNoMoreInputsExpected = "no more inputs expected for "
const ErrWrongInput = "unexpected input for "
const ErrNothingToReturn = "no output queued for "

// MockS3Client - expectation-queue S3 mock covering the operations the
// product storage layer performs. Expected inputs and queued outputs are
// consumed in order; a nil queued output makes the call return a NoSuchKey
// error. Call FinishTest at the end of the test to verify every expected
// call happened.
type MockS3Client struct {
	mutex sync.Mutex

	s3iface.S3API

	ExpListObjectsV2Input []s3.ListObjectsV2Input
	ExpHeadObjectInput    []s3.HeadObjectInput
	ExpGetObjectInput     []s3.GetObjectInput
	ExpPutObjectInput     []s3.PutObjectInput

	QueuedListObjectsV2Output []*s3.ListObjectsV2Output
	QueuedHeadObjectOutput    []*s3.HeadObjectOutput
	QueuedGetObjectOutput     []*s3.GetObjectOutput
	QueuedPutObjectOutput     []*s3.PutObjectOutput
}

func (m *MockS3Client) FinishTest() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	remaining := len(m.ExpListObjectsV2Input) + len(m.ExpHeadObjectInput) +
		len(m.ExpGetObjectInput) + len(m.ExpPutObjectInput)
	if remaining > 0 {
		return fmt.Errorf("%v expected S3 calls never made", remaining)
	}
	return nil
}

// nextCall - pops the next expected input and queued output, validating the
// received input against the expectation by its string form
func nextCall[I fmt.Stringer, O any](name string, expList *[]I, outputs *[]*O, input I) (*O, error) {
	if len(*expList) <= 0 {
		return nil, errors.New(ErrNoMoreInputsExpected + name)
	}

	expStr := (*expList)[0].String()
	*expList = (*expList)[1:]

	if inpStr := input.String(); expStr != inpStr {
		return nil, fmt.Errorf("%v%v expected: %v received: %v", ErrWrongInput, name, expStr, inpStr)
	}

	if len(*outputs) <= 0 {
		return nil, errors.New(ErrNothingToReturn + name)
	}

	result := (*outputs)[0]
	*outputs = (*outputs)[1:]

	if result == nil {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "queued error for "+name, nil)
	}
	return result, nil
}

func (m *MockS3Client) ListObjectsV2(input *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return nextCall("ListObjectsV2", &m.ExpListObjectsV2Input, &m.QueuedListObjectsV2Output, *input)
}

func (m *MockS3Client) HeadObject(input *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return nextCall("HeadObject", &m.ExpHeadObjectInput, &m.QueuedHeadObjectOutput, *input)
}

func (m *MockS3Client) GetObject(input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return nextCall("GetObject", &m.ExpGetObjectInput, &m.QueuedGetObjectOutput, *input)
}

// PutObject - compared field by field because the request body reader has
// no stable string form
func (m *MockS3Client) PutObject(input *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	name := "PutObject"
	if len(m.ExpPutObjectInput) <= 0 {
		return nil, errors.New(ErrNoMoreInputsExpected + name)
	}

	exp := m.ExpPutObjectInput[0]
	m.ExpPutObjectInput = m.ExpPutObjectInput[1:]

	if aws.StringValue(input.Bucket) != aws.StringValue(exp.Bucket) ||
		aws.StringValue(input.Key) != aws.StringValue(exp.Key) {
		return nil, fmt.Errorf("%v%v expected: %v/%v received: %v/%v", ErrWrongInput, name,
			aws.StringValue(exp.Bucket), aws.StringValue(exp.Key),
			aws.StringValue(input.Bucket), aws.StringValue(input.Key))
	}

	if exp.Body != nil {
		expData, _ := io.ReadAll(exp.Body)
		gotData, _ := io.ReadAll(input.Body)
		if !bytes.Equal(expData, gotData) {
			return nil, fmt.Errorf("%v%v body, expected %v bytes, received %v bytes", ErrWrongInput, name, len(expData), len(gotData))
		}
	}

	if len(m.QueuedPutObjectOutput) <= 0 {
		return nil, errors.New(ErrNothingToReturn + name)
	}

	result := m.QueuedPutObjectOutput[0]
	m.QueuedPutObjectOutput = m.QueuedPutObjectOutput[1:]

	if result == nil {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "queued error for "+name, nil)
	}
	return result, nil
}
