// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package main

import (
	"bytes"
	"errors"
	"testing"

	redigo "github.com/garyburd/redigo/redis"
	"github.com/platinasystems/dplink/cmd"
	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/dplink/dualmode"
	"github.com/platinasystems/dplink/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(args ...string) (string, error) {
	var buf bytes.Buffer
	save := stdout
	stdout = &buf
	defer func() { stdout = save }()
	err := commands().Main(&buf, args...)
	return buf.String(), err
}

func TestHelp(t *testing.T) {
	out, err := run()
	assert.Equal(t, cmd.ErrUsage, err)
	for _, k := range []string{"caps", "dpcd", "dualmode", "irq", "train",
		"verify"} {
		assert.Contains(t, out, k+" ")
	}
	out, err = run("train", "-help")
	require.NoError(t, err)
	assert.Contains(t, out, "usage: dplink train -sim")
}

func TestCaps(t *testing.T) {
	out, err := run("caps", "-sim")
	require.NoError(t, err)
	for _, s := range []string{
		"rev: 0x14\n",
		"max: HBR3x4\n",
		"sinks: 1\n",
		"branch: false\n",
	} {
		assert.Contains(t, out, s)
	}
	assert.NotContains(t, out, "edp rates")

	out, err = run("caps", "-sim", "-edp")
	require.NoError(t, err)
	assert.Contains(t, out, "edp rates: [RBR HBR HBR2 HBR3]\n")

	_, err = run("caps", "-sim", "extra")
	assert.Error(t, err)
}

func TestDPCD(t *testing.T) {
	out, err := run("dpcd", "-sim", "0", "3")
	require.NoError(t, err)
	assert.Equal(t, "00000h: 14 1e 84\n", out)

	out, err = run("dpcd", "-sim", "0x600", "1")
	require.NoError(t, err)
	assert.Equal(t, "00600h: 01\n", out)

	_, err = run("dpcd", "-sim")
	assert.EqualError(t, err, "ADDR: missing")
	_, err = run("dpcd", "-sim", "0x100", "0")
	assert.EqualError(t, err, "0: out of range")
}

func TestIRQ(t *testing.T) {
	out, err := run("irq", "-sim")
	require.NoError(t, err)
	assert.Contains(t, out, "sinks: 1\n")
	assert.Contains(t, out, "automated test: false\n")
	assert.Contains(t, out, "link ok: false\n")
	assert.Contains(t, out, "lane3: ")

	out, err = run("irq", "-sim", "-q", "-service")
	require.NoError(t, err)
	assert.Contains(t, out, "handled: false\n")
	assert.Contains(t, out, "link loss: false\n")
	assert.Contains(t, out,
		"irq: sinks 1 test false up false down false: sink_count=")
}

func TestTrain(t *testing.T) {
	out, err := run("train", "-sim", "-q", "-lanes", "2", "-rate", "hbr2")
	require.NoError(t, err)
	assert.Contains(t, out, "setting: HBR2x2\n")
	assert.Contains(t, out, "trained: true\n")
	assert.Contains(t, out, "post adjust timeout: false\n")

	out, err = run("train", "-sim", "-q", "-rate=0x06")
	require.NoError(t, err)
	assert.Contains(t, out, "setting: RBRx4\n")

	out, err = run("train", "-sim", "-q", "-edp", "-rate", "HBR")
	require.NoError(t, err)
	assert.Contains(t, out, "setting: HBRx4\n")
	assert.Contains(t, out, "trained: true\n")
}

func TestTrainFailure(t *testing.T) {
	out, err := run("train", "-sim", "-q", "-lock", "0")
	assert.EqualError(t, err, "HBR3x4: training failed")
	assert.Contains(t, out, "trained: false\n")
}

func TestTrainArgs(t *testing.T) {
	_, err := run("train")
	assert.True(t, errors.Is(err, errNeedSim))
	_, err = run("train", "-sim", "-lanes", "3")
	assert.EqualError(t, err, "-lanes: 3: invalid")
	_, err = run("train", "-sim", "-rate", "fast")
	assert.EqualError(t, err, "-rate: fast: invalid")
	_, err = run("train", "-sim", "-rate")
	assert.EqualError(t, err, "[-rate]: unexpected")
}

func TestParseRate(t *testing.T) {
	for s, expect := range map[string]dpcd.LinkRate{
		"RBR":  dpcd.RBR,
		"hbr":  dpcd.HBR,
		"RBR2": dpcd.RBR2,
		"HBR3": dpcd.HBR3,
		"0x14": dpcd.HBR2,
		"20":   dpcd.HBR2,
	} {
		r, err := parseRate(s)
		assert.NoError(t, err, s)
		assert.Equal(t, expect, r, s)
	}
	for _, s := range []string{"", "0", "0x05", "256"} {
		_, err := parseRate(s)
		assert.Error(t, err, s)
	}
}

func TestVerify(t *testing.T) {
	out, err := run("verify", "-sim", "-q")
	require.NoError(t, err)
	assert.Equal(t,
		"max: HBR3x4\nverified: HBR3x4\nclean: true\nfails: 0\n", out)
}

func TestVerifyFallback(t *testing.T) {
	out, err := run("verify", "-sim", "-q", "-lock", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "verified: HBR3x2\n")
	assert.Contains(t, out, "clean: false\n")

	out, err = run("verify", "-sim", "-q", "-lock", "0")
	assert.EqualError(t, err, "left at RBRx1")
	assert.Contains(t, out, "verified: RBRx1\n")
}

func TestVerifyRedis(t *testing.T) {
	save := redis.Dial
	defer func() { redis.Dial = save }()
	var dialed []string
	redis.Dial = func(addr string) (redigo.Conn, error) {
		dialed = append(dialed, addr)
		return nil, errors.New("connection refused")
	}
	_, err := run("verify", "-sim", "-q", "-redis", "localhost:6379")
	assert.EqualError(t, err, "connection refused")
	// one status report and the published link
	assert.Len(t, dialed, 2)
}

func TestDualmode(t *testing.T) {
	save := probe
	defer func() { probe = save }()
	probe = func(bus int) (*dualmode.Adaptor, error) {
		if bus != 3 {
			return nil, errors.New("no such bus")
		}
		return &dualmode.Adaptor{
			Type:       dualmode.Type2HDMI,
			AdaptorID:  dualmode.Type2,
			MaxTMDSKHz: 300000,
		}, nil
	}
	out, err := run("dualmode", "-bus", "3")
	require.NoError(t, err)
	assert.Equal(t, "type: type 2 HDMI\nadaptor id: 0xa0\nmax tmds kHz: 300000\n",
		out)

	_, err = run("dualmode", "-bus", "4")
	assert.EqualError(t, err, "no such bus")
	_, err = run("dualmode")
	assert.EqualError(t, err, "-bus: missing")
}
