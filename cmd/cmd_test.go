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

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetd/pcapfile/internal/json"
	"github.com/packetd/pcapfile/pcap"
)

func makeCapture(t *testing.T, header pcap.GlobalHeader, payloads ...[]byte) []byte {
	var buf bytes.Buffer
	w, err := pcap.NewWriterWithHeader(header, &buf)
	require.NoError(t, err)

	ts := time.Unix(1700000000, 0)
	for i, p := range payloads {
		pkt := pcap.NewPacketAt(ts.Add(time.Duration(i)*time.Millisecond+time.Microsecond), header.TsResolution(), p)
		require.NoError(t, w.WritePacket(pkt))
	}
	return buf.Bytes()
}

func writeCapture(t *testing.T, name string, b []byte) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func TestSummarize(t *testing.T) {
	input := makeCapture(t, pcap.DefaultHeader(), []byte{0x01, 0x02}, []byte{0x03})

	s, err := summarize("a.pcap", input)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Packets)
	assert.Equal(t, uint64(3), s.Bytes)
	assert.Equal(t, time.Millisecond, s.Last.Sub(s.First))

	var buf bytes.Buffer
	s.write(&buf)
	assert.Contains(t, buf.String(), "0xa1b2c3d4 (big-endian, micro-second)")
	assert.Contains(t, buf.String(), "linktype:    Ethernet (1)")

	s, err = summarize("b.pcap", input[:len(input)-1])
	assert.True(t, errors.Is(err, pcap.ErrTruncatedPacketData))
	assert.Equal(t, 1, s.Packets)
}

func TestSummarizeFiles(t *testing.T) {
	good := writeCapture(t, "good.pcap", makeCapture(t, pcap.DefaultHeader(), []byte{0x01}))
	bad := writeCapture(t, "bad.pcap", make([]byte, pcap.GlobalHeaderSize))
	missing := filepath.Join(t.TempDir(), "missing.pcap")

	summaries, err := summarizeFiles([]string{good, bad, missing})
	require.Len(t, summaries, 3)
	assert.Equal(t, 1, summaries[0].Packets)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)
	assert.True(t, errors.Is(merr.Errors[0], pcap.ErrInvalidMagicNumber))
	assert.True(t, os.IsNotExist(errors.Cause(merr.Errors[1])))
}

func TestSummarizeWithPanic(t *testing.T) {
	paths := []string{"ok.pcap", "crash.pcap"}
	summaries, err := summarizeWith(paths, func(path string) (fileSummary, error) {
		if path == "crash.pcap" {
			panic("index out of range")
		}
		return fileSummary{Path: path, Packets: 1}, nil
	})
	require.Len(t, summaries, 2)
	assert.Equal(t, 1, summaries[0].Packets)
	assert.Equal(t, "crash.pcap", summaries[1].Path)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 1)
	assert.Contains(t, merr.Errors[0].Error(), "inspect crash.pcap panicked: index out of range")
}

func TestDump(t *testing.T) {
	payload := bytes.Repeat([]byte{0xab}, 20)
	input := makeCapture(t, pcap.DefaultHeader(), payload, []byte{0x01})

	t.Run("Text", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := dump(&buf, input, dumpCmdConfig{Hex: true})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 5)
		assert.True(t, strings.HasPrefix(lines[0], "#0 2023-11-14T22:13:20.000001Z incl=20 orig=20 xxh64="))
		assert.Equal(t, "  0000  ab ab ab ab ab ab ab ab ab ab ab ab ab ab ab ab", lines[1])
		assert.Equal(t, "  0010  ab ab ab ab", lines[2])
		assert.Equal(t, "  0000  01", lines[4])
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := dump(&buf, input, dumpCmdConfig{JSON: true, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		var r packetRecord
		require.NoError(t, json.Unmarshal(buf.Bytes(), &r))
		assert.Equal(t, uint32(20), r.InclLen)
		assert.Len(t, r.Digest, 16)
		assert.Nil(t, r.Payload)
	})

	t.Run("CorruptTail", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := dump(&buf, append(input, 0x00), dumpCmdConfig{})
		assert.Equal(t, 2, n)
		assert.True(t, errors.Is(err, pcap.ErrTruncatedHeader))
	})
}

func TestConvert(t *testing.T) {
	header := pcap.DefaultHeader()
	header.LinkType = pcap.LinkTypeRaw
	header.Snaplen = 4096
	input := makeCapture(t, header, []byte{0x01, 0x02, 0x03}, []byte{})

	var buf bytes.Buffer
	n, err := convert(&buf, input, pcap.HeaderOptions{Endianness: "little", Resolution: "nano"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	s, err := pcap.NewScanner(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, pcap.MagicNanosecondLittleEndian, s.Header().Magic)
	assert.Equal(t, pcap.LinkTypeRaw, s.Header().LinkType)
	assert.Equal(t, uint32(4096), s.Header().Snaplen)

	orig, err := pcap.NewScanner(input)
	require.NoError(t, err)
	for s.Scan() {
		require.True(t, orig.Scan())
		assert.True(t, orig.Packet().Timestamp().Equal(s.Packet().Timestamp()))
		assert.Equal(t, orig.Packet().Data, s.Packet().Data)
	}
	assert.NoError(t, s.Err())
	assert.False(t, orig.Scan())

	var back bytes.Buffer
	_, err = convert(&back, buf.Bytes(), pcap.HeaderOptions{Endianness: "big", Resolution: "micro"})
	require.NoError(t, err)
	assert.Equal(t, input, back.Bytes())
}

func TestConvertFile(t *testing.T) {
	header := pcap.DefaultHeader()
	header.Magic = pcap.MagicNanosecondLittleEndian
	src := writeCapture(t, "in.pcap", makeCapture(t, header, []byte{0x01}))
	dst := filepath.Join(t.TempDir(), "out.pcap")

	n, err := convertFile(src, dst, pcap.HeaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	want, err := os.ReadFile(src)
	require.NoError(t, err)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	t.Run("CorruptSourceKeepsTarget", func(t *testing.T) {
		corrupt := writeCapture(t, "corrupt.pcap", want[:len(want)-1])
		_, err := convertFile(corrupt, dst, pcap.HeaderOptions{})
		assert.True(t, errors.Is(err, pcap.ErrTruncatedPacketData))

		kept, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, want, kept)

		entries, err := os.ReadDir(filepath.Dir(dst))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestMergeHeader(t *testing.T) {
	in := pcap.GlobalHeader{
		Magic:        pcap.MagicNanosecondLittleEndian,
		VersionMajor: 2,
		VersionMinor: 3,
		TsCorrection: 3600,
		Snaplen:      1500,
		LinkType:     pcap.LinkTypeLinuxSLL,
	}

	h, err := mergeHeader(in, pcap.HeaderOptions{Endianness: "big"})
	require.NoError(t, err)
	in.Magic = pcap.MagicNanosecondBigEndian
	assert.Equal(t, in, h)

	_, err = mergeHeader(in, pcap.HeaderOptions{Magic: "0x01020304"})
	assert.True(t, errors.Is(err, pcap.ErrInvalidMagicNumber))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetOut(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "pcapfile version=dev")
}
