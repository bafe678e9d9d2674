package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/cascade-tools/internal/config"
	"github.com/ironsheep/cascade-tools/internal/detection"
)

func TestParseCrop(t *testing.T) {
	c, err := parseCrop("100,150,600,650")
	require.NoError(t, err)
	assert.Equal(t, config.Crop{X0: 100, Y0: 150, X1: 600, Y1: 650}, c)

	c, err = parseCrop(" 0, 0 ,10,10")
	require.NoError(t, err)
	assert.Equal(t, 10, c.X1)

	for _, bad := range []string{"", "1,2,3", "1,2,3,4,5", "a,b,c,d"} {
		_, err := parseCrop(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseSize(t *testing.T) {
	s, err := parseSize("364x500")
	require.NoError(t, err)
	assert.Equal(t, detection.Size{Width: 364, Height: 500}, s)

	s, err = parseSize("24X24")
	require.NoError(t, err)
	assert.Equal(t, 24, s.Height)

	for _, bad := range []string{"", "364", "0x10", "-1x5", "axb"} {
		_, err := parseSize(bad)
		assert.Error(t, err, bad)
	}
}
