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
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/packetd/pcapfile/internal/rescue"
	"github.com/packetd/pcapfile/logger"
	"github.com/packetd/pcapfile/pcap"
)

// mergeHeader 以输入文件的全局头部为基础 叠加 opts 中显式指定的字段
func mergeHeader(in pcap.GlobalHeader, opts pcap.HeaderOptions) (pcap.GlobalHeader, error) {
	if opts.Endianness == "" {
		opts.Endianness = in.Endianness().String()
	}
	if opts.Resolution == "" {
		opts.Resolution = in.TsResolution().String()
	}

	h, err := opts.Header()
	if err != nil {
		return h, err
	}

	if opts.LinkType == "" {
		h.LinkType = in.LinkType
	}
	if opts.Snaplen == 0 {
		h.Snaplen = in.Snaplen
	}
	if opts.VersionMajor == 0 {
		h.VersionMajor = in.VersionMajor
		h.VersionMinor = in.VersionMinor
	}
	if opts.TsCorrection == 0 {
		h.TsCorrection = in.TsCorrection
	}
	if opts.TsAccuracy == 0 {
		h.TsAccuracy = in.TsAccuracy
	}
	return h, nil
}

// convert 使用新的全局头部重写 b 中的所有数据包
//
// 时间戳由 Writer 按新旧精度换算 InclLen/OrigLen 保持不变
func convert(w io.Writer, b []byte, opts pcap.HeaderOptions) (int, error) {
	scanner, err := pcap.NewScanner(b)
	if err != nil {
		return 0, err
	}

	header, err := mergeHeader(scanner.Header(), opts)
	if err != nil {
		return 0, err
	}
	pw, err := pcap.NewWriterWithHeader(header, w)
	if err != nil {
		return 0, err
	}

	var n int
	for scanner.Scan() {
		if err := pw.WritePacket(scanner.Packet()); err != nil {
			return n, err
		}
		n++
	}
	return n, scanner.Err()
}

// convertFile 先写入同目录下的临时文件 全部成功后再替换目标文件
func convertFile(src, dst string, opts pcap.HeaderOptions) (int, error) {
	b, err := os.ReadFile(src)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	n, err := convert(bw, b, opts)
	if err == nil {
		err = bw.Flush()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, errors.Wrapf(err, "convert %s", src)
	}
	return n, os.Rename(tmp.Name(), dst)
}

var convertOpts pcap.HeaderOptions

var convertCmd = &cobra.Command{
	Use:   "convert SRC DST",
	Short: "Rewrite a pcap file with a different global header",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer rescue.HandleCrash(func(r any) {
			err = errors.Errorf("convert %s panicked: %v", args[0], r)
		})

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var opts pcap.HeaderOptions
		if err := cfg.UnpackChild("writer", &opts); err != nil {
			return err
		}
		overrideHeaderOptions(cmd, &opts)

		n, err := convertFile(args[0], args[1], opts)
		if err != nil {
			return err
		}
		logger.Infof("converted %d packets from %s to %s", n, args[0], args[1])
		return nil
	},
	Example: "# pcapfile convert in.pcap out.pcap --endianness little --resolution nano",
}

// overrideHeaderOptions 命令行参数优先于配置文件
func overrideHeaderOptions(cmd *cobra.Command, opts *pcap.HeaderOptions) {
	flags := cmd.Flags()
	if flags.Changed("magic") {
		opts.Magic = convertOpts.Magic
	}
	if flags.Changed("endianness") {
		opts.Endianness = convertOpts.Endianness
	}
	if flags.Changed("resolution") {
		opts.Resolution = convertOpts.Resolution
	}
	if flags.Changed("snaplen") {
		opts.Snaplen = convertOpts.Snaplen
	}
	if flags.Changed("link-type") {
		opts.LinkType = convertOpts.LinkType
	}
}

func init() {
	convertCmd.Flags().StringVar(&convertOpts.Magic, "magic", "", "Magic number of the output file, e.g. 0xa1b2c3d4")
	convertCmd.Flags().StringVar(&convertOpts.Endianness, "endianness", "", "Byte order of the output file [big|little]")
	convertCmd.Flags().StringVar(&convertOpts.Resolution, "resolution", "", "Timestamp resolution of the output file [micro|nano]")
	convertCmd.Flags().Uint32Var(&convertOpts.Snaplen, "snaplen", 0, "Snapshot length of the output file, 0 keeps the input value")
	convertCmd.Flags().StringVar(&convertOpts.LinkType, "link-type", "", "Link type of the output file (name or number)")
	rootCmd.AddCommand(convertCmd)
}
