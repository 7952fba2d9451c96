// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var trained = Alt{
	EnUS: "link trained",
	FrFR: "liaison entraînée",
}

func TestAlt(t *testing.T) {
	defer func() { Lang = "" }()
	for k, expect := range trained {
		Lang = k
		assert.Equal(t, expect, trained.String())
	}
	Lang = JaJP
	assert.Equal(t, "link trained", trained.String())
	Lang = DeDE
	assert.Empty(t, Alt{}.String())
}
