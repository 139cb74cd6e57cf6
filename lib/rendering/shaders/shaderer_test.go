package shaders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateNames(t *testing.T) {
	s, err := NewShaderer()
	require.NoError(t, err)
	assert.Contains(t, s.TemplateNames(), "quad.vert")
	assert.Contains(t, s.TemplateNames(), "texture.frag")
}

func TestRenderSources(t *testing.T) {
	vert, frag, err := RenderSources("texture.frag", &ShaderData{})
	require.NoError(t, err)
	assert.Contains(t, vert, "#version 410 core")
	assert.NotContains(t, vert, "u_matrix")
	assert.Contains(t, frag, "frag_colour = texture(tex, v_texcoord);")

	vert, frag, err = RenderSources("texture.frag", &ShaderData{Transform: true})
	require.NoError(t, err)
	assert.Contains(t, vert, "u_matrix * vec4(a_position, 1.0)")
	assert.Contains(t, frag, "frag_colour = texture(tex, v_texcoord);")
	assert.NotContains(t, frag, ".rgb, 1.0)", "alpha is handled by blending, not the shader")

	_, _, err = RenderSources("nope.frag", &ShaderData{})
	assert.Error(t, err)
}
