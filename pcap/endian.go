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
)

// Magic numbers 以文件前 4 字节的大端读取值表示
//
// 其 bit pattern 同时决定了字节序以及时间戳精度
const (
	MagicMicrosecondBigEndian    uint32 = 0xa1b2c3d4
	MagicMicrosecondLittleEndian uint32 = 0xd4c3b2a1
	MagicNanosecondBigEndian     uint32 = 0xa1b23c4d
	MagicNanosecondLittleEndian  uint32 = 0x4d3cb2a1
)

// Endianness 数据流字节序 只有大端/小端两种取值
type Endianness uint8

const (
	EndiannessBig Endianness = iota
	EndiannessLittle
)

func (e Endianness) String() string {
	switch e {
	case EndiannessBig:
		return "big"
	case EndiannessLittle:
		return "little"
	}
	return "unknown"
}

// ByteOrder 返回对应的 binary.ByteOrder 编解码实现
func (e Endianness) ByteOrder() binary.ByteOrder {
	if e == EndiannessLittle {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// TsResolution 数据包时间戳小数部分的精度
type TsResolution uint8

const (
	TsResolutionMicro TsResolution = iota
	TsResolutionNano
)

func (r TsResolution) String() string {
	switch r {
	case TsResolutionMicro:
		return "micro"
	case TsResolutionNano:
		return "nano"
	}
	return "unknown"
}

// Units 返回每秒包含的小数单位数量
func (r TsResolution) Units() uint32 {
	if r == TsResolutionNano {
		return 1e9
	}
	return 1e6
}

type magicProps struct {
	endianness Endianness
	resolution TsResolution
}

var knownMagics = map[uint32]magicProps{
	MagicMicrosecondBigEndian:    {EndiannessBig, TsResolutionMicro},
	MagicMicrosecondLittleEndian: {EndiannessLittle, TsResolutionMicro},
	MagicNanosecondBigEndian:     {EndiannessBig, TsResolutionNano},
	MagicNanosecondLittleEndian:  {EndiannessLittle, TsResolutionNano},
}

// lookupMagic 根据 magic number 推导字节序以及时间戳精度
func lookupMagic(magic uint32) (magicProps, bool) {
	props, ok := knownMagics[magic]
	return props, ok
}

// MagicFor 返回字节序和时间戳精度组合对应的 magic number
func MagicFor(e Endianness, r TsResolution) uint32 {
	for magic, props := range knownMagics {
		if props.endianness == e && props.resolution == r {
			return magic
		}
	}
	return MagicMicrosecondBigEndian
}

// ScaleTimestamp 将时间戳在不同精度之间换算
//
// 小数部分超过一秒的畸形取值会进位到秒 纳秒转换为微秒时截断
// 精度相同时原样返回
func ScaleTimestamp(sec, frac uint32, from, to TsResolution) (uint32, uint32) {
	if from == to {
		return sec, frac
	}

	var nsec uint64
	if from == TsResolutionNano {
		nsec = uint64(frac)
	} else {
		nsec = uint64(frac) * 1000
	}

	units := uint64(to.Units())
	scaled := nsec
	if to == TsResolutionMicro {
		scaled = nsec / 1000
	}
	return sec + uint32(scaled/units), uint32(scaled % units)
}
