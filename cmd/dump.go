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
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/valyala/bytebufferpool"

	"github.com/packetd/pcapfile/internal/json"
	"github.com/packetd/pcapfile/internal/rescue"
	"github.com/packetd/pcapfile/logger"
	"github.com/packetd/pcapfile/pcap"
)

const hexBytesPerLine = 16

type dumpCmdConfig struct {
	JSON  bool
	Hex   bool
	Limit int
}

// packetRecord dump 输出的单条数据包记录
type packetRecord struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	InclLen   uint32    `json:"inclLen"`
	OrigLen   uint32    `json:"origLen"`
	Digest    string    `json:"digest"`
	Payload   []byte    `json:"payload,omitempty"`
}

func newPacketRecord(idx int, pkt pcap.Packet, withPayload bool) packetRecord {
	r := packetRecord{
		Index:     idx,
		Timestamp: pkt.Timestamp().UTC(),
		InclLen:   pkt.Header.InclLen,
		OrigLen:   pkt.Header.OrigLen,
		Digest:    fmt.Sprintf("%016x", xxhash.Sum64(pkt.Data)),
	}
	if withPayload {
		r.Payload = pkt.Data
	}
	return r
}

// hexDump 以 16 字节为一行输出负载内容
func hexDump(w io.Writer, data []byte) error {
	const digits = "0123456789abcdef"

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for off := 0; off < len(data); off += hexBytesPerLine {
		end := off + hexBytesPerLine
		if end > len(data) {
			end = len(data)
		}

		buf.Reset()
		_, _ = fmt.Fprintf(buf, "  %04x ", off)
		for _, c := range data[off:end] {
			_ = buf.WriteByte(' ')
			_ = buf.WriteByte(digits[c>>4])
			_ = buf.WriteByte(digits[c&0x0f])
		}
		_ = buf.WriteByte('\n')
		if _, err := w.Write(buf.B); err != nil {
			return err
		}
	}
	return nil
}

// dump 按配置输出 b 中的数据包 返回已输出的数量
func dump(w io.Writer, b []byte, conf dumpCmdConfig) (int, error) {
	scanner, err := pcap.NewScanner(b)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(w)
	var n int
	for scanner.Scan() {
		if conf.Limit > 0 && n >= conf.Limit {
			return n, nil
		}

		pkt := scanner.Packet()
		r := newPacketRecord(n, pkt, conf.JSON && conf.Hex)
		n++

		if conf.JSON {
			if err := enc.Encode(r); err != nil {
				return n, err
			}
			continue
		}

		_, err := fmt.Fprintf(w, "#%d %s incl=%d orig=%d xxh64=%s\n",
			r.Index, r.Timestamp.Format(time.RFC3339Nano), r.InclLen, r.OrigLen, r.Digest)
		if err != nil {
			return n, err
		}
		if conf.Hex {
			if err := hexDump(w, pkt.Data); err != nil {
				return n, err
			}
		}
	}
	return n, scanner.Err()
}

var dumpConfig dumpCmdConfig

var dumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "List the packet records of a pcap file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer rescue.HandleCrash(func(r any) {
			err = errors.Errorf("dump %s panicked: %v", args[0], r)
		})

		b, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		n, err := dump(cmd.OutOrStdout(), b, dumpConfig)
		if err != nil {
			logger.Warnf("dump %s stopped after %d packets: %v", args[0], n, err)
			return errors.Wrapf(err, "dump %s", args[0])
		}
		logger.Debugf("dump %s finished, %d packets", args[0], n)
		return nil
	},
	Example: "# pcapfile dump capture.pcap --hex --limit 10",
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpConfig.JSON, "json", false, "Print one JSON document per packet")
	dumpCmd.Flags().BoolVar(&dumpConfig.Hex, "hex", false, "Include payload bytes (hex dump, or base64 in JSON mode)")
	dumpCmd.Flags().IntVar(&dumpConfig.Limit, "limit", 0, "Maximum number of packets to print, 0 for all")
	rootCmd.AddCommand(dumpCmd)
}
