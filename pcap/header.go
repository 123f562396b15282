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
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// GlobalHeaderSize 全局头部固定长度
	GlobalHeaderSize = 24

	// DefaultSnaplen 默认的最大捕获长度
	DefaultSnaplen = 65535

	DefaultVersionMajor = 2
	DefaultVersionMinor = 4
)

// GlobalHeader pcap 文件全局头部
//
// 字节序以及时间戳精度均由 Magic 推导 不单独存储
type GlobalHeader struct {
	Magic        uint32
	VersionMajor uint16
	VersionMinor uint16
	TsCorrection int32
	TsAccuracy   uint32
	Snaplen      uint32
	LinkType     LinkType
}

// DefaultHeader 返回默认的全局头部
//
// 大端 微秒精度 版本 2.4 snaplen 65535 以太网链路
func DefaultHeader() GlobalHeader {
	return GlobalHeader{
		Magic:        MagicMicrosecondBigEndian,
		VersionMajor: DefaultVersionMajor,
		VersionMinor: DefaultVersionMinor,
		Snaplen:      DefaultSnaplen,
		LinkType:     LinkTypeEthernet,
	}
}

// Valid 判断 Magic 是否为已知常量
func (h GlobalHeader) Valid() bool {
	_, ok := lookupMagic(h.Magic)
	return ok
}

// Endianness 返回 Magic 对应的字节序
//
// 对于未知 Magic 返回 EndiannessBig 调用方应先使用 Valid 判断
func (h GlobalHeader) Endianness() Endianness {
	props, _ := lookupMagic(h.Magic)
	return props.endianness
}

// TsResolution 返回 Magic 对应的时间戳精度
func (h GlobalHeader) TsResolution() TsResolution {
	props, _ := lookupMagic(h.Magic)
	return props.resolution
}

// DecodeHeader 解析全局头部
//
// 返回头部以及 24 字节之后的剩余切片（不拷贝）
func DecodeHeader(b []byte) (GlobalHeader, []byte, error) {
	if len(b) < GlobalHeaderSize {
		return GlobalHeader{}, b, errors.Wrapf(ErrTruncatedHeader, "global header needs %d bytes, got %d", GlobalHeaderSize, len(b))
	}

	// 已知的 4 个常量两两互为字节翻转 大端读法命中与小端读法命中等价
	// 统一以大端读取值作为 Magic 保存
	magic := binary.BigEndian.Uint32(b[0:4])
	props, ok := lookupMagic(magic)
	if !ok {
		return GlobalHeader{}, b, errors.Wrapf(ErrInvalidMagicNumber, "got 0x%08x", magic)
	}

	bo := props.endianness.ByteOrder()
	h := GlobalHeader{
		Magic:        magic,
		VersionMajor: bo.Uint16(b[4:6]),
		VersionMinor: bo.Uint16(b[6:8]),
		TsCorrection: int32(bo.Uint32(b[8:12])),
		TsAccuracy:   bo.Uint32(b[12:16]),
		Snaplen:      bo.Uint32(b[16:20]),
		LinkType:     LinkType(bo.Uint32(b[20:24])),
	}
	return h, b[GlobalHeaderSize:], nil
}

// Encode 编码全局头部 返回 24 字节
func (h GlobalHeader) Encode() ([]byte, error) {
	return h.AppendTo(make([]byte, 0, GlobalHeaderSize))
}

// AppendTo 将编码后的全局头部追加到 dst
//
// Magic 按原样（大端 bit pattern）写入 其余字段使用 Magic 推导出的字节序
func (h GlobalHeader) AppendTo(dst []byte) ([]byte, error) {
	props, ok := lookupMagic(h.Magic)
	if !ok {
		return dst, errors.Wrapf(ErrInvalidMagicNumber, "encode header with magic 0x%08x", h.Magic)
	}

	var buf [GlobalHeaderSize]byte
	bo := props.endianness.ByteOrder()
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	bo.PutUint16(buf[4:6], h.VersionMajor)
	bo.PutUint16(buf[6:8], h.VersionMinor)
	bo.PutUint32(buf[8:12], uint32(h.TsCorrection))
	bo.PutUint32(buf[12:16], h.TsAccuracy)
	bo.PutUint32(buf[16:20], h.Snaplen)
	bo.PutUint32(buf[20:24], uint32(h.LinkType))
	return append(dst, buf[:]...), nil
}
