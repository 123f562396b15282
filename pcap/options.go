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
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// HeaderOptions 描述如何构建全局头部 可由配置文件解析得到
//
// 未设置的字段使用 DefaultHeader 中的取值
type HeaderOptions struct {
	// Magic 显式指定 magic number 支持 "0xa1b2c3d4" 形式
	// 设置后会忽略 Endianness 以及 Resolution
	Magic        string `config:"magic"`
	Endianness   string `config:"endianness"` // big/little
	Resolution   string `config:"resolution"` // micro/nano
	Snaplen      uint32 `config:"snaplen"`
	LinkType     string `config:"linkType"` // 名称或数值
	VersionMajor uint16 `config:"versionMajor"`
	VersionMinor uint16 `config:"versionMinor"`
	TsCorrection int32  `config:"tsCorrection"`
	TsAccuracy   uint32 `config:"tsAccuracy"`
}

var linkTypeNames = map[string]LinkType{
	"null":      LinkTypeNull,
	"ethernet":  LinkTypeEthernet,
	"raw":       LinkTypeRaw,
	"ieee80211": LinkTypeIEEE80211,
	"loop":      LinkTypeLoop,
	"linuxsll":  LinkTypeLinuxSLL,
	"ipv4":      LinkTypeIPv4,
	"ipv6":      LinkTypeIPv6,
}

// ParseEndianness 解析字节序名称
func ParseEndianness(s string) (Endianness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "big", "be":
		return EndiannessBig, nil
	case "little", "le":
		return EndiannessLittle, nil
	}
	return 0, errors.Errorf("unknown endianness (%s)", s)
}

// ParseTsResolution 解析时间戳精度名称
func ParseTsResolution(s string) (TsResolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "micro", "us":
		return TsResolutionMicro, nil
	case "nano", "ns":
		return TsResolutionNano, nil
	}
	return 0, errors.Errorf("unknown timestamp resolution (%s)", s)
}

// ParseLinkType 解析链路层类型 支持名称以及数值
func ParseLinkType(s string) (LinkType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LinkTypeEthernet, nil
	}
	if lt, ok := linkTypeNames[s]; ok {
		return lt, nil
	}
	n, err := cast.ToUint32E(s)
	if err != nil {
		return 0, errors.Errorf("unknown link type (%s)", s)
	}
	return LinkType(n), nil
}

// Header 根据配置构建全局头部
func (o HeaderOptions) Header() (GlobalHeader, error) {
	h := DefaultHeader()

	if o.Magic != "" {
		n, err := strconv.ParseUint(strings.TrimSpace(o.Magic), 0, 32)
		if err != nil {
			return h, errors.Wrapf(err, "parse magic (%s)", o.Magic)
		}
		magic := uint32(n)
		if _, ok := lookupMagic(magic); !ok {
			return h, errors.Wrapf(ErrInvalidMagicNumber, "magic (%s)", o.Magic)
		}
		h.Magic = magic
	} else {
		e, err := ParseEndianness(o.Endianness)
		if err != nil {
			return h, err
		}
		r, err := ParseTsResolution(o.Resolution)
		if err != nil {
			return h, err
		}
		h.Magic = MagicFor(e, r)
	}

	lt, err := ParseLinkType(o.LinkType)
	if err != nil {
		return h, err
	}
	h.LinkType = lt

	if o.Snaplen > 0 {
		h.Snaplen = o.Snaplen
	}
	if o.VersionMajor > 0 {
		h.VersionMajor = o.VersionMajor
		h.VersionMinor = o.VersionMinor
	}
	h.TsCorrection = o.TsCorrection
	h.TsAccuracy = o.TsAccuracy
	return h, nil
}
