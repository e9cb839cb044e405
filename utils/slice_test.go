package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniqueSlice(t *testing.T) {
	assert.Equal(t, []int{1}, UniqueSlice([]int{1}))
	assert.Equal(t, []int{1}, UniqueSlice([]int{1, 1, 1}))
	assert.Equal(t, []int{1, 2}, UniqueSlice([]int{1, 1, 2}))
	assert.Equal(t, []int{1, 2, 3}, UniqueSlice([]int{1, 2, 2, 3, 3, 3}))
	assert.Equal(t, []string{"b", "a"}, UniqueSlice([]string{"b", "a", "b"}))
	assert.Empty(t, UniqueSlice([]int{}))
}

func TestSerializeRoundTrip(t *testing.T) {
	type marker struct {
		WorkDir string
	}

	b, err := Serialize(&marker{WorkDir: "optimise"})
	assert.Nil(t, err)

	out := marker{}
	assert.Nil(t, Unserialize(b, &out))
	assert.Equal(t, "optimise", out.WorkDir)
}
