package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanArg(t *testing.T) {
	assert.Equal(t, "zone-1", CleanArg(` "zone-1" `))
	assert.Equal(t, `Bay "A" north`, CleanArg(`"Bay ""A"" north"`))
	assert.Equal(t, "", CleanArg(`""`))
}

func TestParseFloat(t *testing.T) {
	v, err := ParseFloat(`"12.5"`)
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)

	_, err = ParseFloat("abc")
	assert.Error(t, err)
	_, err = ParseFloat("NaN")
	assert.Error(t, err)
	_, err = ParseFloat("-Inf")
	assert.Error(t, err)
}

func TestParseInt(t *testing.T) {
	v, err := ParseInt(` "25" `)
	require.NoError(t, err)
	assert.Equal(t, 25, v)

	for _, in := range []string{"2.5", "1e9", "99999999999999999999", ""} {
		_, err = ParseInt(in)
		assert.Error(t, err, in)
	}
}

func TestParseFloats(t *testing.T) {
	vs, err := ParseFloats("1", "2.5", "-3")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, -3}, vs)

	_, err = ParseFloats("1", "x")
	assert.Error(t, err)
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "1", `"yes"`} {
		v, err := ParseBool(s)
		require.NoError(t, err, s)
		assert.True(t, v, s)
	}
	for _, s := range []string{"false", "0", "No"} {
		v, err := ParseBool(s)
		require.NoError(t, err, s)
		assert.False(t, v, s)
	}
	_, err := ParseBool("maybe")
	assert.Error(t, err)
}
