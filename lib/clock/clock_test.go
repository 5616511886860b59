package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Format(t *testing.T) {
	assert := assert.New(t)
	// non-UTC input is rendered in UTC
	loc := time.FixedZone("CET", 3600)
	in := time.Date(2025, time.March, 7, 15, 30, 45, 0, loc)
	assert.Equal("2025-03-07T14:30:45Z", Format(in))
}

func Test_Parse(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	parsed, err := Parse("2025-03-07T14:30:45Z")
	require.NoError(err)
	assert.Equal(time.Date(2025, time.March, 7, 14, 30, 45, 0, time.UTC), parsed)

	_, err = Parse("not-a-time")
	require.Error(err)
}
