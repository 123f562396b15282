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
	"io"

	"github.com/pkg/errors"
)

// Writer 封装 io.Writer 并以 pcap 格式写入数据包
//
// 创建时立即写入全局头部 之后每次 WritePacket 直接写入底层 io.Writer 不做缓冲
// Writer 不是并发安全的 多个 goroutine 写入时需调用方自行加锁
type Writer struct {
	header GlobalHeader
	w      io.Writer
	buf    []byte
}

// NewWriter 使用 DefaultHeader 创建并返回 Writer 实例
func NewWriter(w io.Writer) (*Writer, error) {
	return NewWriterWithHeader(DefaultHeader(), w)
}

// NewWriterWithHeader 使用自定义全局头部创建 Writer
//
// Magic 非法时直接返回错误 不会写入任何字节
func NewWriterWithHeader(header GlobalHeader, w io.Writer) (*Writer, error) {
	b, err := header.Encode()
	if err != nil {
		return nil, err
	}

	pw := &Writer{
		header: header,
		w:      w,
		buf:    make([]byte, 0, PacketHeaderSize),
	}
	if err := pw.writeAll("global header", b); err != nil {
		return nil, err
	}
	return pw, nil
}

// Header 返回 Writer 使用的全局头部
func (pw *Writer) Header() GlobalHeader {
	return pw.header
}

// Unwrap 返回底层 io.Writer 不建议直接写入
func (pw *Writer) Unwrap() io.Writer {
	return pw.w
}

// Write 使用原始数据构建数据包并写入 InclLen 与 OrigLen 均为 len(data)
//
// tsFrac 按 Writer 自身的时间戳精度解释 原样写入
func (pw *Writer) Write(tsSec, tsFrac uint32, data []byte) error {
	p := NewPacket(tsSec, tsFrac, uint32(len(data)), data)
	p.Resolution = pw.header.TsResolution()
	return pw.WritePacket(p)
}

// WritePacket 先写入数据包头部 再写入负载
//
// p.Resolution 与 Writer 精度不一致时 时间戳会被换算为 Writer 的精度
// 写入失败时已写出的字节不会回滚
func (pw *Writer) WritePacket(p Packet) error {
	h := p.normalize()
	h.TsSec, h.TsFrac = ScaleTimestamp(h.TsSec, h.TsFrac, p.Resolution, pw.header.TsResolution())
	pw.buf = h.AppendTo(pw.buf[:0], pw.header.Endianness())
	if err := pw.writeAll("packet header", pw.buf); err != nil {
		return err
	}
	if len(p.Data) == 0 {
		return nil
	}
	return pw.writeAll("packet data", p.Data)
}

func (pw *Writer) writeAll(op string, b []byte) error {
	n, err := pw.w.Write(b)
	if err == nil && n != len(b) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return errors.WithStack(&SinkError{Op: op, Err: err})
	}
	return nil
}
