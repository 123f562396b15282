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
	"math"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/pkg/errors"
)

// PacketHeaderSize 数据包头部固定长度
const PacketHeaderSize = 16

// PacketHeader 数据包记录头部
//
// TsFrac 的单位由全局头部的时间戳精度决定
// InclLen 与 OrigLen 之间不做任何约束 截断的数据包是合法的
type PacketHeader struct {
	TsSec   uint32
	TsFrac  uint32
	InclLen uint32
	OrigLen uint32
}

// AppendTo 按指定字节序将头部追加到 dst
func (h PacketHeader) AppendTo(dst []byte, e Endianness) []byte {
	var buf [PacketHeaderSize]byte
	bo := e.ByteOrder()
	bo.PutUint32(buf[0:4], h.TsSec)
	bo.PutUint32(buf[4:8], h.TsFrac)
	bo.PutUint32(buf[8:12], h.InclLen)
	bo.PutUint32(buf[12:16], h.OrigLen)
	return append(dst, buf[:]...)
}

// Packet 单个数据包记录
//
// 解码得到的 Data 直接引用调用方的输入切片 生命周期与之绑定 如有修改需求 请拷贝一份
type Packet struct {
	Header     PacketHeader
	Data       []byte
	Resolution TsResolution
}

// NewPacket 创建并返回 Packet 实例
//
// origLen 为 0 时视为未指定 编码时使用 len(data)
func NewPacket(tsSec, tsFrac, origLen uint32, data []byte) Packet {
	return Packet{
		Header: PacketHeader{
			TsSec:   tsSec,
			TsFrac:  tsFrac,
			InclLen: uint32(len(data)),
			OrigLen: origLen,
		},
		Data: data,
	}
}

// NewPacketAt 使用 time.Time 构建 Packet 时间戳按 r 精度截断
//
// 秒数字段为 uint32 早于 1970 的时间截断为 1970-01-01T00:00:00Z
// 晚于 2106-02-07T06:28:15Z 的时间截断为该上限 小数部分同时清零
func NewPacketAt(ts time.Time, r TsResolution, data []byte) Packet {
	sec := ts.Unix()
	frac := uint32(ts.Nanosecond())
	switch {
	case sec < 0:
		sec, frac = 0, 0
	case sec > math.MaxUint32:
		sec, frac = math.MaxUint32, 0
	}
	if r == TsResolutionMicro {
		frac /= 1000
	}
	p := NewPacket(uint32(sec), frac, uint32(len(data)), data)
	p.Resolution = r
	return p
}

// Timestamp 返回数据包的捕获时间
func (p Packet) Timestamp() time.Time {
	nsec := int64(p.Header.TsFrac)
	if p.Resolution == TsResolutionMicro {
		nsec *= 1000
	}
	return time.Unix(int64(p.Header.TsSec), nsec)
}

// CaptureInfo 转换为 gopacket.CaptureInfo 便于对接 gopacket 生态
func (p Packet) CaptureInfo() gopacket.CaptureInfo {
	return gopacket.CaptureInfo{
		Timestamp:     p.Timestamp(),
		CaptureLength: len(p.Data),
		Length:        int(p.Header.OrigLen),
	}
}

// normalize 以实际 Data 长度为准重新计算 InclLen
func (p Packet) normalize() PacketHeader {
	h := p.Header
	h.InclLen = uint32(len(p.Data))
	if h.OrigLen == 0 {
		h.OrigLen = h.InclLen
	}
	return h
}

// DecodePacket 解析单个数据包记录
//
// 不校验 InclLen 是否超过 snaplen 只要字节存在即可
// 返回的 Packet.Data 为 b 的子切片 不拷贝
func DecodePacket(b []byte, e Endianness, r TsResolution) (Packet, []byte, error) {
	if len(b) < PacketHeaderSize {
		return Packet{}, b, errors.Wrapf(ErrTruncatedHeader, "packet header needs %d bytes, got %d", PacketHeaderSize, len(b))
	}

	bo := e.ByteOrder()
	h := PacketHeader{
		TsSec:   bo.Uint32(b[0:4]),
		TsFrac:  bo.Uint32(b[4:8]),
		InclLen: bo.Uint32(b[8:12]),
		OrigLen: bo.Uint32(b[12:16]),
	}

	rest := b[PacketHeaderSize:]
	if uint64(len(rest)) < uint64(h.InclLen) {
		return Packet{}, b, errors.Wrapf(ErrTruncatedPacketData, "packet data needs %d bytes, got %d", h.InclLen, len(rest))
	}

	n := int(h.InclLen)
	pkt := Packet{
		Header:     h,
		Data:       rest[:n:n],
		Resolution: r,
	}
	return pkt, rest[n:], nil
}

// AppendPacket 将数据包头部和负载编码后追加到 dst
//
// InclLen 始终以 len(p.Data) 为准 避免写出长度不一致的记录
func AppendPacket(dst []byte, p Packet, e Endianness) []byte {
	dst = p.normalize().AppendTo(dst, e)
	return append(dst, p.Data...)
}
