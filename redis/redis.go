// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package redis publishes link training status to a redis server as one
// hash per link,
//
//	dplink.N status	"HBR2x4 pass VS=0, PE=0, DS=Disabled"
//	dplink.N result	"pass"
//	dplink.N setting	"HBR2x4"
//	dplink.N session	"6ba7b810-9dad-11d1-80b4-00c04fd430c8"
//
// and, with a channel, each status line as a message.
package redis

import (
	"fmt"
	"sync"
	"time"

	"github.com/garyburd/redigo/redis"
	"github.com/platinasystems/dplink/link"
)

const (
	Timeout = 500 * time.Millisecond
	Prefix  = "dplink."
)

// Dial connects a Publisher to the server at addr.
var Dial = func(addr string) (redis.Conn, error) {
	return redis.Dial("tcp", addr,
		redis.DialConnectTimeout(Timeout),
		redis.DialReadTimeout(Timeout),
		redis.DialWriteTimeout(Timeout))
}

// Key is the hash of link i.
func Key(i int) string { return fmt.Sprint(Prefix, i) }

// Publisher is a link.Reporter that connects on first use and again after
// a failed flush.
type Publisher struct {
	sync.Mutex
	Addr string
	// Channel, if set, is sent each status line.
	Channel string

	conn redis.Conn
}

func New(addr string) *Publisher {
	return &Publisher{Addr: addr}
}

func (p *Publisher) Close() error {
	var err error
	p.Lock()
	defer p.Unlock()
	if p.conn != nil {
		err = p.conn.Close()
		p.conn = nil
	}
	return err
}

func (p *Publisher) Report(s link.Status) error {
	return p.flush(func(conn redis.Conn) {
		key := Key(s.Link)
		conn.Send("HSET", key, "status", s.String())
		conn.Send("HSET", key, "result", s.Result.String())
		conn.Send("HSET", key, "setting", s.Setting.String())
		conn.Send("HSET", key, "session", s.Session.String())
		if p.Channel != "" {
			conn.Send("PUBLISH", p.Channel,
				fmt.Sprint(Key(s.Link), ": ", s))
		}
	})
}

// Link publishes the negotiated state of l.
func (p *Publisher) Link(l *link.Link) error {
	return p.flush(func(conn redis.Conn) {
		key := Key(l.Index)
		conn.Send("HSET", key, "verified", l.Verified.String())
		conn.Send("HSET", key, "current", l.Current.String())
		conn.Send("HSET", key, "fails", l.FailCount)
		if l.Caps != nil {
			conn.Send("HSET", key, "rev",
				fmt.Sprintf("%#02x", l.Caps.Rev))
			conn.Send("HSET", key, "max", l.Caps.Reported.String())
			conn.Send("HSET", key, "sinks", l.Caps.SinkCount)
		}
	})
}

func (p *Publisher) flush(fill func(redis.Conn)) error {
	p.Lock()
	defer p.Unlock()
	if p.conn == nil {
		conn, err := Dial(p.Addr)
		if err != nil {
			return err
		}
		p.conn = conn
	}
	fill(p.conn)
	if _, err := p.conn.Do(""); err != nil {
		p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}
