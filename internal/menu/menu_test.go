package menu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlace(t *testing.T) {
	assert.Equal(t, Below, Place(100, 800))
	assert.Equal(t, Below, Place(650, 800))
	assert.Equal(t, Above, Place(651, 800))
	assert.Equal(t, Above, Place(790, 800))
	assert.Equal(t, Below, Place(0, 0))
}

func TestList_AtMostOneOpen(t *testing.T) {
	var l List

	l.Toggle("u1", 100, 800)
	assert.True(t, l.IsOpen("u1"))

	l.Toggle("u2", 700, 800)
	assert.False(t, l.IsOpen("u1"))
	assert.True(t, l.IsOpen("u2"))

	id, p := l.Open()
	assert.Equal(t, "u2", id)
	assert.Equal(t, Above, p)
}

func TestList_ToggleSameClosesIt(t *testing.T) {
	var l List
	l.Toggle("u1", 100, 800)
	l.Toggle("u1", 100, 800)

	id, _ := l.Open()
	assert.Empty(t, id)
}

func TestList_OutsideClickCloses(t *testing.T) {
	var l List
	l.Toggle("u1", 100, 800)
	l.OutsideClick()
	assert.False(t, l.IsOpen("u1"))
}

func TestList_InvokeClosesBeforeAction(t *testing.T) {
	var l List
	l.Toggle("u1", 100, 800)

	boom := errors.New("delete failed")
	err := l.Invoke("u1", func() error {
		assert.False(t, l.IsOpen("u1"))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, l.IsOpen("u1"))
}
