package upload

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sized(n int) File { return File{Name: "f", Data: make([]byte, n)} }

func TestCheckGroup_UnderLimit(t *testing.T) {
	files := []File{sized(10 << 20), sized(10 << 20)}
	assert.NoError(t, CheckGroup(GroupPhotos, files, MaxGroupBytes))
}

func TestCheckGroup_OverLimitReportsMeasuredSize(t *testing.T) {
	files := []File{sized(15 << 20), sized(6 << 20)}

	err := CheckGroup(GroupDocuments, files, MaxGroupBytes)
	require.Error(t, err)

	var sizeErr *SizeError
	require.True(t, errors.As(err, &sizeErr))
	assert.Equal(t, int64(21<<20), sizeErr.Size)
	assert.Equal(t, "Los documentos exceden el límite de 20MB. Tamaño actual: 21.00MB", err.Error())
}

func TestCheckGroup_EmptyGroup(t *testing.T) {
	assert.NoError(t, CheckGroup(GroupPhotos, nil, MaxGroupBytes))
}
