// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package protocol

import (
	"fmt"
	"strings"
)

// HeadStatus is the lifecycle status of a Hydra head as observed by a client session
type HeadStatus uint

const (
	StatusDisconnected HeadStatus = iota
	StatusIdle
	StatusConnecting
	StatusConnected
	StatusInitializing
	StatusOpen
	StatusClosed
	StatusFanoutPossible
	StatusFinal
)

var headStatusNames = map[HeadStatus]string{
	StatusDisconnected:   "DISCONNECTED",
	StatusIdle:           "IDLE",
	StatusConnecting:     "CONNECTING",
	StatusConnected:      "CONNECTED",
	StatusInitializing:   "INITIALIZING",
	StatusOpen:           "OPEN",
	StatusClosed:         "CLOSED",
	StatusFanoutPossible: "FANOUT_POSSIBLE",
	StatusFinal:          "FINAL",
}

func (s HeadStatus) String() string {
	if name, ok := headStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("HeadStatus(%d)", uint(s))
}

// ParseHeadStatus parses a head status as reported by the node in its
// headStatus field (Idle, Initializing, Open, Closed, FanoutPossible, Final).
// The upper-snake names produced by String are also accepted
func ParseHeadStatus(value string) (HeadStatus, error) {
	switch value {
	case "Idle":
		return StatusIdle, nil
	case "Initializing":
		return StatusInitializing, nil
	case "Open":
		return StatusOpen, nil
	case "Closed":
		return StatusClosed, nil
	case "FanoutPossible":
		return StatusFanoutPossible, nil
	case "Final":
		return StatusFinal, nil
	}
	for status, name := range headStatusNames {
		if strings.EqualFold(value, name) {
			return status, nil
		}
	}
	return StatusDisconnected, fmt.Errorf("unknown head status: %q", value)
}

func (s HeadStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *HeadStatus) UnmarshalText(data []byte) error {
	tmp, err := ParseHeadStatus(string(data))
	if err != nil {
		return err
	}
	*s = tmp
	return nil
}

// headStatusReporter is implemented by messages that carry an explicit headStatus field
type headStatusReporter interface {
	ReportedHeadStatus() (string, bool)
}

type StatusRuleMatchFunc func(Message) (HeadStatus, bool)

// StatusRule maps an inbound message to the head status it implies
type StatusRule struct {
	Name      string
	MatchFunc StatusRuleMatchFunc
}

func matchTag(tag string, status HeadStatus) StatusRuleMatchFunc {
	return func(msg Message) (HeadStatus, bool) {
		if msg.Tag() != tag {
			return StatusDisconnected, false
		}
		return status, true
	}
}

func matchReportedHeadStatus(msg Message) (HeadStatus, bool) {
	reporter, ok := msg.(headStatusReporter)
	if !ok {
		return StatusDisconnected, false
	}
	value, ok := reporter.ReportedHeadStatus()
	if !ok {
		return StatusDisconnected, false
	}
	status, err := ParseHeadStatus(value)
	if err != nil {
		return StatusDisconnected, false
	}
	return status, true
}

// StatusRules is the ordered table of status transitions driven by inbound messages
var StatusRules = []StatusRule{
	{Name: "headStatus", MatchFunc: matchReportedHeadStatus},
	{
		Name:      MessageTagHeadIsInitializing,
		MatchFunc: matchTag(MessageTagHeadIsInitializing, StatusInitializing),
	},
	{
		Name:      MessageTagHeadIsOpen,
		MatchFunc: matchTag(MessageTagHeadIsOpen, StatusOpen),
	},
	{
		Name:      MessageTagHeadIsClosed,
		MatchFunc: matchTag(MessageTagHeadIsClosed, StatusClosed),
	},
	{
		Name:      MessageTagHeadIsContested,
		MatchFunc: matchTag(MessageTagHeadIsContested, StatusClosed),
	},
	{
		Name:      MessageTagReadyToFanout,
		MatchFunc: matchTag(MessageTagReadyToFanout, StatusFanoutPossible),
	},
	{
		Name:      MessageTagHeadIsAborted,
		MatchFunc: matchTag(MessageTagHeadIsAborted, StatusFinal),
	},
	{
		Name:      MessageTagHeadIsFinalized,
		MatchFunc: matchTag(MessageTagHeadIsFinalized, StatusFinal),
	},
}

// StatusMatch is a rule that matched a message together with the status it produced
type StatusMatch struct {
	Rule   StatusRule
	Status HeadStatus
}

// MatchStatusRules returns every rule matching the message, in table order
func MatchStatusRules(msg Message) []StatusMatch {
	var ret []StatusMatch
	for _, rule := range StatusRules {
		if status, ok := rule.MatchFunc(msg); ok {
			ret = append(ret, StatusMatch{Rule: rule, Status: status})
		}
	}
	return ret
}

// Classify returns the head status implied by a message, if any
func Classify(msg Message) (HeadStatus, bool) {
	matches := MatchStatusRules(msg)
	if len(matches) == 0 {
		return StatusDisconnected, false
	}
	return matches[0].Status, true
}
