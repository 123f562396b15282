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

// Parser 持有已解码的全局头部 负责从调用方提供的切片中逐个解析数据包
//
// Parser 本身不保存读取位置 NextPacket 为纯函数 可以在多个 goroutine 中
// 对互不重叠的切片并发调用
//
//	parser, rest, err := pcap.NewParser(b)
//	for len(rest) > 0 {
//		pkt, rest, err = parser.NextPacket(rest)
//		...
//	}
type Parser struct {
	header GlobalHeader
}

// NewParser 解析全局头部并返回 Parser 以及剩余切片
func NewParser(b []byte) (*Parser, []byte, error) {
	header, rest, err := DecodeHeader(b)
	if err != nil {
		return nil, b, err
	}
	return &Parser{header: header}, rest, nil
}

// Header 返回全局头部
func (p *Parser) Header() GlobalHeader {
	return p.header
}

// NextPacket 解析下一个数据包并返回剩余切片
//
// 空切片同样会返回 ErrTruncatedHeader 调用方需要在调用前自行判断是否已到达末尾
func (p *Parser) NextPacket(b []byte) (Packet, []byte, error) {
	return DecodePacket(b, p.header.Endianness(), p.header.TsResolution())
}
