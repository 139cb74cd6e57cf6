package shaders

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// DebugDir, when set, receives a copy of every generated shader.
var DebugDir string

// BuildGLProgram renders the quad vertex shader and the given fragment
// shader template and links them. Needs a current GL context.
func BuildGLProgram(fragment string, shaderData *ShaderData) (uint32, error) {
	vertexShader, fragmentShader, err := RenderSources(fragment, shaderData)
	if err != nil {
		return 0, err
	}

	if DebugDir != "" {
		writeFileDebug(filepath.Join(DebugDir, "vrsink.vert"), vertexShader)
		writeFileDebug(filepath.Join(DebugDir, "vrsink.frag"), fragmentShader)
	}

	program, err := newProgram(vertexShader, fragmentShader)
	if err != nil {
		return 0, fmt.Errorf("could not init shader: %w", err)
	}

	return program, nil
}

// RenderSources expands the shader templates without touching GL.
func RenderSources(fragment string, shaderData *ShaderData) (string, string, error) {
	shaderer, err := NewShaderer()
	if err != nil {
		return "", "", fmt.Errorf("could not get shaders: %w", err)
	}

	vertexShader, err := shaderer.GetShaderSource("quad.vert", shaderData)
	if err != nil {
		return "", "", fmt.Errorf("could not get vertex shader: %w", err)
	}

	fragmentShader, err := shaderer.GetShaderSource(fragment, shaderData)
	if err != nil {
		return "", "", fmt.Errorf("could not get fragment shader: %w", err)
	}
	return vertexShader, fragmentShader, nil
}

func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}

	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, err
	}

	program := gl.CreateProgram()

	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		logmsg := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(logmsg))
		gl.DeleteProgram(program)

		return 0, fmt.Errorf("failed to link program: %v", logmsg)
	}

	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		clog := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(clog))
		gl.DeleteShader(shader)

		return 0, fmt.Errorf("failed to compile %v: %v", source, clog)
	}

	return shader, nil
}

func writeFileDebug(filename string, content string) {
	err := os.WriteFile(filename, []byte(content), 0o644)
	if err != nil {
		log.Printf("Could not write to debug file: %s", err)
	}
}
