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

package logger

import "fmt"

// RecorderLogger - retains every formatted line so a report can include the
// run log, while forwarding to another logger for normal output. Pass a
// NullLogger as the destination to only record.
type RecorderLogger struct {
	Dest     ILogger
	logLevel LogLevel
	lines    []string
}

func (l *RecorderLogger) record(level LogLevel, format string, a ...interface{}) {
	l.lines = append(l.lines, logLevelPrefix[level]+": "+fmt.Sprintf(format, a...))
}

func (l *RecorderLogger) Printf(level LogLevel, format string, a ...interface{}) {
	l.record(level, format, a...)
	if l.Dest != nil {
		l.Dest.Printf(level, format, a...)
	}
}

// The destination applies its own level filtering, so a report can retain
// debug lines while the console stays quieter
func (l *RecorderLogger) Debugf(format string, a ...interface{}) {
	if l.logLevel <= LogDebug {
		l.record(LogDebug, format, a...)
	}
	if l.Dest != nil {
		l.Dest.Debugf(format, a...)
	}
}
func (l *RecorderLogger) Infof(format string, a ...interface{}) {
	if l.logLevel <= LogInfo {
		l.record(LogInfo, format, a...)
	}
	if l.Dest != nil {
		l.Dest.Infof(format, a...)
	}
}
func (l *RecorderLogger) Errorf(format string, a ...interface{}) {
	l.record(LogError, format, a...)
	if l.Dest != nil {
		l.Dest.Errorf(format, a...)
	}
}

func (l *RecorderLogger) SetLogLevel(level LogLevel) {
	l.logLevel = level
}

// Lines - everything logged so far, in order
func (l *RecorderLogger) Lines() []string {
	return l.lines
}
