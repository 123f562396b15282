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
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidMagicNumber 全局头部 magic number 不属于任何已知常量
	ErrInvalidMagicNumber = errors.New("invalid magic number")

	// ErrTruncatedHeader 剩余字节不足以组成定长头部（全局头部 24 字节 / 数据包头部 16 字节）
	//
	// 调用方自行判断此时是正常的流结束还是数据损坏
	ErrTruncatedHeader = errors.New("truncated header")

	// ErrTruncatedPacketData 数据包头部完整 但剩余字节不足 InclLen
	ErrTruncatedPacketData = errors.New("truncated packet data")
)

// SinkError 写入底层 io.Writer 失败
//
// 原始错误不做重试 通过 Unwrap 原样透出
type SinkError struct {
	Op  string
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("pcap: write %s: %v", e.Op, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}
