package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 33.33, roundFloat(100.0/3, 2))
	assert.Equal(t, 66.67, roundFloat(200.0/3, 2))
	assert.Equal(t, 40.0, roundFloat(40.0, 1))
	assert.Equal(t, 0.0, roundFloat(0.004, 2))
	assert.Equal(t, 0.01, roundFloat(0.005, 2))
}

func TestGradeLetter(t *testing.T) {
	cases := []struct {
		percentage float64
		want       string
	}{
		{100, "A"},
		{90, "A"},
		{89.99, "B"},
		{80, "B"},
		{79.99, "C"},
		{70, "C"},
		{69.99, "D"},
		{60, "D"},
		{59.99, "F"},
		{0, "F"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, gradeLetter(tc.percentage), "percentage %v", tc.percentage)
	}
}
