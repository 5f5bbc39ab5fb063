package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDec(t *testing.T) {
	assert.Equal(t, "1327.66", Dec("1327.66").String())
	assert.Panics(t, func() { Dec("twelve") })
}

func TestAssertDecimal(t *testing.T) {
	assert.True(t, AssertDecimal(t, "1500", Dec("1500.00")))

	mock := &testing.T{}
	assert.False(t, AssertDecimal(mock, "1500", Dec("1500.01")))
	assert.True(t, mock.Failed())
}
