package window

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRenderRectangle(t *testing.T) {
	reset, err := ValidateRenderRectangle(-1, -1, -1, -1)
	require.NoError(t, err)
	assert.True(t, reset)

	reset, err = ValidateRenderRectangle(10, 10, 320, 240)
	require.NoError(t, err)
	assert.False(t, reset)

	_, err = ValidateRenderRectangle(0, 0, 0, 240)
	var rectErr *RectError
	require.ErrorAs(t, err, &rectErr)
	assert.Equal(t, 0, rectErr.W)
}

func TestKeyName(t *testing.T) {
	assert.Equal(t, "q", keyName(glfw.KeyQ))
	assert.Equal(t, "a", keyName(glfw.KeyA))
	assert.Equal(t, "7", keyName(glfw.Key7))
	assert.Equal(t, "escape", keyName(glfw.KeyEscape))
	assert.Equal(t, "key290", keyName(glfw.KeyF1))
}
