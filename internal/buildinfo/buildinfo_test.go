package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Equal(t, "mtga-analyzer dev (commit=none, date=unknown)", String())
}
