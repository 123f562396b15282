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
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/packetd/pcapfile/common"
	"github.com/packetd/pcapfile/internal/rescue"
	"github.com/packetd/pcapfile/logger"
	"github.com/packetd/pcapfile/pcap"
)

// fileSummary 单个 pcap 文件的统计信息
type fileSummary struct {
	Path    string
	Header  pcap.GlobalHeader
	Packets int
	Bytes   uint64
	First   time.Time
	Last    time.Time
}

func (s fileSummary) write(w io.Writer) {
	h := s.Header
	fmt.Fprintf(w, "%s:\n", s.Path)
	fmt.Fprintf(w, "  magic:       0x%08x (%s-endian, %s-second)\n", h.Magic, h.Endianness(), h.TsResolution())
	fmt.Fprintf(w, "  version:     %d.%d\n", h.VersionMajor, h.VersionMinor)
	fmt.Fprintf(w, "  timezone:    %d\n", h.TsCorrection)
	fmt.Fprintf(w, "  sigfigs:     %d\n", h.TsAccuracy)
	fmt.Fprintf(w, "  snaplen:     %d\n", h.Snaplen)
	fmt.Fprintf(w, "  linktype:    %s (%d)\n", h.LinkType, uint32(h.LinkType))
	fmt.Fprintf(w, "  packets:     %d\n", s.Packets)
	fmt.Fprintf(w, "  bytes:       %d\n", s.Bytes)
	if s.Packets > 0 {
		fmt.Fprintf(w, "  first:       %s\n", s.First.UTC().Format(time.RFC3339Nano))
		fmt.Fprintf(w, "  last:        %s\n", s.Last.UTC().Format(time.RFC3339Nano))
	}
}

// summarize 解析内存中的 pcap 内容并统计
//
// 尾部数据损坏时返回已统计的部分以及错误
func summarize(path string, b []byte) (fileSummary, error) {
	s := fileSummary{Path: path}
	scanner, err := pcap.NewScanner(b)
	if err != nil {
		return s, errors.Wrapf(err, "decode %s", path)
	}

	s.Header = scanner.Header()
	for scanner.Scan() {
		pkt := scanner.Packet()
		ts := pkt.Timestamp()
		if s.Packets == 0 {
			s.First = ts
		}
		s.Last = ts
		s.Packets++
		s.Bytes += uint64(len(pkt.Data))
	}
	if err := scanner.Err(); err != nil {
		return s, errors.Wrapf(err, "decode %s", path)
	}
	return s, nil
}

func summarizeFile(path string) (fileSummary, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return fileSummary{Path: path}, err
	}
	return summarize(path, b)
}

// summarizeFiles 并发统计多个文件 结果顺序与输入保持一致
func summarizeFiles(paths []string) ([]fileSummary, error) {
	return summarizeWith(paths, summarizeFile)
}

// summarizeWith 使用 fn 并发统计多个文件
//
// fn 发生 panic 时对应文件记为失败 不会被静默忽略
func summarizeWith(paths []string, fn func(string) (fileSummary, error)) ([]fileSummary, error) {
	summaries := make([]fileSummary, len(paths))
	errs := make([]error, len(paths))

	sem := make(chan struct{}, common.Concurrency())
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer func() {
				<-sem
				wg.Done()
			}()
			defer rescue.HandleCrash(func(r any) {
				summaries[i] = fileSummary{Path: path}
				errs[i] = errors.Errorf("inspect %s panicked: %v", path, r)
			})
			summaries[i], errs[i] = fn(path)
		}(i, path)
	}
	wg.Wait()

	var merr *multierror.Error
	for _, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return summaries, merr.ErrorOrNil()
}

var infoCmd = &cobra.Command{
	Use:   "info FILE...",
	Short: "Print the global header and packet statistics of pcap files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer rescue.HandleCrash(func(r any) {
			err = errors.Errorf("info panicked: %v", r)
		})

		summaries, err := summarizeFiles(args)
		for _, s := range summaries {
			if s.Header.Valid() {
				s.write(cmd.OutOrStdout())
			}
		}
		if err != nil {
			logger.Errorf("inspect files failed: %v", err)
		}
		return err
	},
	Example: "# pcapfile info capture.pcap other.pcap",
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
