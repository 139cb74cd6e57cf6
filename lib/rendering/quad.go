package rendering

import (
	"github.com/go-gl/gl/v4.1-core/gl"
)

const f32 = 4

// QuadVertices is a full screen quad at depth z as x, y, z, u, v. The
// first texture row is the top of the picture.
func QuadVertices(z float32) []float32 {
	return []float32{
		-1, 1, z, 0, 0,
		1, 1, z, 1, 0,
		1, -1, z, 1, 1,
		-1, -1, z, 0, 1,
	}
}

var quadIndices = []uint16{0, 1, 2, 0, 2, 3}

// Attribute locations fixed by quad.vert.
const (
	positionAttrib = 0
	texcoordAttrib = 1
)

type Quad struct {
	VAO uint32
	VBO uint32
	EBO uint32
}

func NewQuad(z float32) *Quad {
	quadVertices := QuadVertices(z)
	q := &Quad{}
	gl.GenVertexArrays(1, &q.VAO)
	gl.BindVertexArray(q.VAO)

	gl.GenBuffers(1, &q.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, q.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*f32, gl.Ptr(quadVertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &q.EBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, q.EBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(quadIndices)*2, gl.Ptr(quadIndices), gl.STATIC_DRAW)

	stride := int32(5 * f32)
	gl.EnableVertexAttribArray(positionAttrib)
	gl.VertexAttribPointerWithOffset(positionAttrib, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(texcoordAttrib)
	gl.VertexAttribPointerWithOffset(texcoordAttrib, 2, gl.FLOAT, false, stride, 3*f32)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return q
}

func (q *Quad) Draw() {
	gl.BindVertexArray(q.VAO)
	gl.DrawElements(gl.TRIANGLES, int32(len(quadIndices)), gl.UNSIGNED_SHORT, nil)
	gl.BindVertexArray(0)
}

func (q *Quad) Delete() {
	gl.DeleteBuffers(1, &q.VBO)
	gl.DeleteBuffers(1, &q.EBO)
	gl.DeleteVertexArrays(1, &q.VAO)
}
