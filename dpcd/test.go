// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dpcd

// TestRequestBits is TEST_REQUEST.
type TestRequestBits byte

func (t TestRequestBits) LinkTraining() bool {
	return t&TestLinkTraining != 0
}

func (t TestRequestBits) LinkTestPattern() bool {
	return t&TestLinkVideoPattern != 0
}

func (t TestRequestBits) PHYTestPattern() bool {
	return t&TestLinkPHYPattern != 0
}

// PHY compliance patterns of TEST_PHY_PATTERN and LINK_QUAL_LANEx_SET.
const (
	PHYTestNone = iota
	PHYTestD10_2
	PHYTestSymbolError
	PHYTestPRBS7
	PHYTest80BitCustom
	PHYTestCP2520_1
	PHYTestCP2520_2
	PHYTestCP2520_3
)

// Video stream patterns of TEST_PATTERN.
const (
	LinkTestNone = iota
	LinkTestColorRamp
	LinkTestBlackWhiteVerticalLines
	LinkTestColorSquare
)
