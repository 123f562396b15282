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
	"github.com/pkg/errors"
)

// Scanner 在内存切片上顺序迭代数据包
//
//	s, err := pcap.NewScanner(b)
//	for s.Scan() {
//		pkt := s.Packet()
//	}
//	if err := s.Err(); err != nil {
//		// 尾部数据损坏
//	}
type Scanner struct {
	parser *Parser
	rest   []byte
	offset int
	index  int
	pkt    Packet
	err    error
}

// NewScanner 创建并返回 *Scanner 实例 全局头部解析失败时返回错误
func NewScanner(b []byte) (*Scanner, error) {
	parser, rest, err := NewParser(b)
	if err != nil {
		return nil, err
	}
	return &Scanner{
		parser: parser,
		rest:   rest,
		offset: GlobalHeaderSize,
	}, nil
}

// Header 返回全局头部
func (s *Scanner) Header() GlobalHeader {
	return s.parser.Header()
}

// Scan 解析下一个数据包
//
// 剩余切片为空时正常结束 否则解析失败会记录错误并停止迭代
func (s *Scanner) Scan() bool {
	if s.err != nil || len(s.rest) == 0 {
		return false
	}

	pkt, rest, err := s.parser.NextPacket(s.rest)
	if err != nil {
		s.err = errors.Wrapf(err, "packet #%d at offset %d", s.index, s.offset)
		return false
	}

	s.offset += len(s.rest) - len(rest)
	s.rest = rest
	s.pkt = pkt
	s.index++
	return true
}

// Packet 返回最近一次 Scan 得到的数据包 Data 引用原始切片
func (s *Scanner) Packet() Packet {
	return s.pkt
}

// Index 返回已解析的数据包数量
func (s *Scanner) Index() int {
	return s.index
}

// Err 返回迭代过程中遇到的错误 正常到达末尾时为 nil
func (s *Scanner) Err() error {
	return s.err
}
