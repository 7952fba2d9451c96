// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package link

import (
	"fmt"

	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/log"
	uuid "github.com/satori/go.uuid"
)

// Status is the record of one terminal training result.
type Status struct {
	Session uuid.UUID
	Link    int
	Setting Setting
	Result  Result
	Lane0   dpcd.LaneSetting
}

// String is the diagnostic status line, e.g.
//
//	HBR2x4 pass VS=0, PE=0, DS=Disabled
func (s Status) String() string {
	return fmt.Sprintf("%sx%d %s VS=%d, PE=%d, DS=%s",
		s.Setting.Rate, s.Setting.Lanes, s.Result,
		s.Lane0.VoltageSwing, s.Lane0.PreEmphasis, s.Setting.Spread)
}

// Reporter receives training status.
type Reporter interface {
	Report(Status) error
}

// LogReporter prints each status line at info priority.
type LogReporter struct{}

func (LogReporter) Report(s Status) error {
	log.Print("info", "dp", s.Link, ": ", s)
	return nil
}

// Reporters fans a status out to each member, returning the first error.
type Reporters []Reporter

func (rs Reporters) Report(s Status) error {
	var first error
	for _, r := range rs {
		if err := r.Report(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (l *Link) report(sess *Session, r Result) {
	s := Status{
		Session: sess.ID,
		Link:    l.Index,
		Setting: sess.Setting,
		Result:  r,
		Lane0:   sess.Lanes[0],
	}
	if err := l.Reporter.Report(s); err != nil {
		log.Print("warn", l, ": report: ", err)
	}
}
