package render

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/storyboard/pkg/errors"
)

const square = `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><rect width="10" height="10" fill="red"/></svg>`

func TestConvertWithoutTool(t *testing.T) {
	if Available() {
		t.Skip("rsvg-convert installed")
	}
	_, err := ToPDF(context.Background(), []byte(square))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported))
	assert.Contains(t, err.Error(), "librsvg")
}

func TestToPNG(t *testing.T) {
	if !Available() {
		t.Skip("rsvg-convert not installed")
	}
	out, err := ToPNG(context.Background(), []byte(square), 0)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(out[:4]))
}

func TestConvertInvalidSVG(t *testing.T) {
	if !Available() {
		t.Skip("rsvg-convert not installed")
	}
	_, err := ToPDF(context.Background(), []byte("not svg"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInternal, errors.GetCode(err))
}
