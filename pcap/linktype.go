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

	"github.com/gopacket/gopacket/layers"
)

// LinkType 全局头部中的链路层类型编码
//
// 取值与 tcpdump.org 定义的 LINKTYPE_* 保持一致
type LinkType uint32

const (
	LinkTypeNull      LinkType = 0
	LinkTypeEthernet  LinkType = 1
	LinkTypeRaw       LinkType = 101
	LinkTypeIEEE80211 LinkType = 105
	LinkTypeLoop      LinkType = 108
	LinkTypeLinuxSLL  LinkType = 113
	LinkTypeIPv4      LinkType = 228
	LinkTypeIPv6      LinkType = 229
)

// Layer 返回 gopacket 对应的链路层类型 用于后续的协议解码
//
// 第二个返回值表示该编码能否被 layers.LinkType 无损表示
func (l LinkType) Layer() (layers.LinkType, bool) {
	lt := layers.LinkType(l)
	return lt, uint32(lt) == uint32(l)
}

func (l LinkType) String() string {
	if lt, ok := l.Layer(); ok {
		return lt.String()
	}
	return fmt.Sprintf("LinkType(%d)", uint32(l))
}
