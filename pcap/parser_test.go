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

package pcap

import (
	"bytes"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeCapture(t testing.TB, header GlobalHeader, payloads ...[]byte) []byte {
	var buf bytes.Buffer
	w, err := NewWriterWithHeader(header, &buf)
	require.NoError(t, err)
	for i, p := range payloads {
		require.NoError(t, w.Write(uint32(i), uint32(i*10), p))
	}
	return buf.Bytes()
}

func TestParser(t *testing.T) {
	payloads := [][]byte{
		{0x01},
		{},
		bytes.Repeat([]byte{0x02}, 1514),
		{0x03, 0x04},
	}

	for _, magic := range []uint32{MagicMicrosecondBigEndian, MagicNanosecondLittleEndian} {
		header := DefaultHeader()
		header.Magic = magic
		input := makeCapture(t, header, payloads...)

		parser, rest, err := NewParser(input)
		require.NoError(t, err)
		assert.Equal(t, header, parser.Header())

		var got [][]byte
		for len(rest) > 0 {
			var pkt Packet
			pkt, rest, err = parser.NextPacket(rest)
			require.NoError(t, err)
			assert.Equal(t, uint32(len(got)), pkt.Header.TsSec)
			assert.Equal(t, uint32(len(got)*10), pkt.Header.TsFrac)
			assert.Equal(t, header.TsResolution(), pkt.Resolution)
			got = append(got, pkt.Data)
		}
		assert.Equal(t, len(payloads), len(got))
		for i := range payloads {
			assert.True(t, bytes.Equal(payloads[i], got[i]))
		}

		_, _, err = parser.NextPacket(rest)
		assert.True(t, errors.Is(err, ErrTruncatedHeader))
	}
}

func TestParserInvalidHeader(t *testing.T) {
	_, rest, err := NewParser([]byte{0x0a, 0x0d, 0x0d, 0x0a})
	assert.True(t, errors.Is(err, ErrTruncatedHeader))
	assert.Len(t, rest, 4)

	_, _, err = NewParser(make([]byte, GlobalHeaderSize))
	assert.True(t, errors.Is(err, ErrInvalidMagicNumber))
}

func TestParserConcurrent(t *testing.T) {
	header := DefaultHeader()
	header.Magic = MagicMicrosecondLittleEndian

	records := make([][]byte, 16)
	for i := range records {
		records[i] = AppendPacket(nil, NewPacket(uint32(i), 0, 0, bytes.Repeat([]byte{byte(i)}, i+1)), EndiannessLittle)
	}
	input := makeCapture(t, header)
	parser, _, err := NewParser(input)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Packet, len(records))
	errs := make([]error, len(records))
	for i := range records {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = parser.NextPacket(records[i])
		}(i)
	}
	wg.Wait()

	for i := range records {
		assert.NoError(t, errs[i])
		assert.Equal(t, uint32(i), results[i].Header.TsSec)
		assert.Len(t, results[i].Data, i+1)
	}
}

func TestScanner(t *testing.T) {
	t.Run("Clean", func(t *testing.T) {
		input := makeCapture(t, DefaultHeader(), []byte{0x01}, []byte{0x02, 0x03})
		s, err := NewScanner(input)
		require.NoError(t, err)
		assert.Equal(t, DefaultHeader(), s.Header())

		var n int
		for s.Scan() {
			assert.Equal(t, uint32(n), s.Packet().Header.TsSec)
			n++
		}
		assert.NoError(t, s.Err())
		assert.Equal(t, 2, n)
		assert.Equal(t, 2, s.Index())
	})

	t.Run("HeaderOnly", func(t *testing.T) {
		s, err := NewScanner(makeCapture(t, DefaultHeader()))
		require.NoError(t, err)
		assert.False(t, s.Scan())
		assert.NoError(t, s.Err())
	})

	t.Run("CorruptTail", func(t *testing.T) {
		input := makeCapture(t, DefaultHeader(), []byte{0x01}, []byte{0x02, 0x03})
		s, err := NewScanner(input[:len(input)-1])
		require.NoError(t, err)

		assert.True(t, s.Scan())
		assert.False(t, s.Scan())
		assert.True(t, errors.Is(s.Err(), ErrTruncatedPacketData))
		assert.Contains(t, s.Err().Error(), "packet #1 at offset 41")
		assert.False(t, s.Scan())
	})

	t.Run("ShortTail", func(t *testing.T) {
		input := makeCapture(t, DefaultHeader(), []byte{0x01})
		s, err := NewScanner(append(input, 0x00, 0x00))
		require.NoError(t, err)

		assert.True(t, s.Scan())
		assert.False(t, s.Scan())
		assert.True(t, errors.Is(s.Err(), ErrTruncatedHeader))
	})

	t.Run("BadHeader", func(t *testing.T) {
		_, err := NewScanner(nil)
		assert.True(t, errors.Is(err, ErrTruncatedHeader))
	})
}
