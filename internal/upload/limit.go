package upload

import "fmt"

// MaxGroupBytes is the backend's payload ceiling for one multi-file request.
const MaxGroupBytes int64 = 20 * 1024 * 1024

type Group string

const (
	GroupPhotos    Group = "photos"
	GroupDocuments Group = "documents"
)

func (g Group) label() string {
	switch g {
	case GroupPhotos:
		return "Las fotos"
	case GroupDocuments:
		return "Los documentos"
	default:
		return "Los archivos"
	}
}

// SizeError reports a file group over the ceiling. It is produced locally,
// before any request is sent for the group.
type SizeError struct {
	Group Group
	Size  int64
	Limit int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("%s exceden el límite de %dMB. Tamaño actual: %.2fMB",
		e.Group.label(), e.Limit/(1024*1024), MB(e.Size))
}

func MB(n int64) float64 { return float64(n) / (1024 * 1024) }

func TotalSize(files []File) int64 {
	var n int64
	for _, f := range files {
		n += f.Size()
	}
	return n
}

// CheckGroup fails with *SizeError when files add up to more than limit bytes.
func CheckGroup(g Group, files []File, limit int64) error {
	if total := TotalSize(files); total > limit {
		return &SizeError{Group: g, Size: total, Limit: limit}
	}
	return nil
}
