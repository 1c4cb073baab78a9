package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	cases := map[float64]float64{
		0:         0,
		10:        10,
		10.004:    10,
		10.006:    10.01,
		-3.333:    -3.33,
		0.1 + 0.2: 0.3,
	}
	for in, want := range cases {
		assert.Equal(t, want, Round(in), "Round(%v)", in)
	}
}
