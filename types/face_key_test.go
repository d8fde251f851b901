package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFaceKey(t *testing.T) {
	{ // Vertex order does not matter
		fk := NewFaceKey([]int{3, 1, 2})
		assert.Equal(t, FaceKey{1, 2, 3, -1}, fk)
		assert.Equal(t, fk, NewFaceKey([]int{2, 3, 1}))
		assert.Equal(t, 3, fk.NumVertices())
		assert.Equal(t, []int{1, 2, 3}, fk.GetVertices())
	}
	{ // Quads
		fk := NewFaceKey([]int{7, 4, 0, 3})
		assert.Equal(t, FaceKey{0, 3, 4, 7}, fk)
		assert.Equal(t, 4, fk.NumVertices())
		assert.NotEqual(t, fk, NewFaceKey([]int{0, 3, 4}))
	}
	{ // Usable as a map key
		m := map[FaceKey]int{NewFaceKey([]int{0, 1, 2}): 5}
		assert.Equal(t, 5, m[NewFaceKey([]int{2, 0, 1})])
	}
	assert.Panics(t, func() { NewFaceKey([]int{0, 1}) })
	assert.Panics(t, func() { NewFaceKey([]int{0, 1, 2, 3, 4}) })
	assert.Panics(t, func() { NewFaceKey([]int{-1, 1, 2}) })
}
