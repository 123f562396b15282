// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		debug bool
		info  bool
	}{
		{name: "Debug", level: "debug", debug: true, info: true},
		{name: "Info", level: "INFO", debug: false, info: true},
		{name: "Error", level: "error", debug: false, info: false},
		{name: "Unknown", level: "verbose", debug: false, info: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewWithWriter(Options{Level: tt.level}, &buf)

			l.Debugf("debug message %d", 1)
			assert.Equal(t, tt.debug, bytes.Contains(buf.Bytes(), []byte("debug message 1")))

			l.Infof("info message %d", 2)
			assert.Equal(t, tt.info, bytes.Contains(buf.Bytes(), []byte("info message 2")))
		})
	}
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Options{}, &buf)
	l.Warnf("pcap file (%s) has trailing bytes", "a.pcap")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "pcap file (a.pcap) has trailing bytes")
}
