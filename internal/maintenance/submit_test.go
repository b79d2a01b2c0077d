package maintenance

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/enfoque_qr/internal/backend"
	"github.com/Skotchmaster/enfoque_qr/internal/upload"
)

type call struct {
	op    string
	files []upload.File
	body  backend.NewMaintenance
}

type fakeAPI struct {
	calls     []call
	createErr error
	photosErr error
	docsErr   error
}

func (f *fakeAPI) CreateMaintenance(_ context.Context, equipmentID string, in backend.NewMaintenance) (*backend.Maintenance, error) {
	f.calls = append(f.calls, call{op: "create", body: in})
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &backend.Maintenance{ID: "77", Description: in.Description}, nil
}

func (f *fakeAPI) UploadMaintenancePhotos(_ context.Context, id string, photos []upload.File) error {
	f.calls = append(f.calls, call{op: "photos", files: photos})
	return f.photosErr
}

func (f *fakeAPI) UploadMaintenanceDocuments(_ context.Context, id string, docs []upload.File) error {
	f.calls = append(f.calls, call{op: "documents", files: docs})
	return f.docsErr
}

func (f *fakeAPI) ops() []string {
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.op)
	}
	return out
}

func pngPhoto(t *testing.T, name string, w, h int) upload.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))))
	return upload.File{Name: name, ContentType: "image/png", Data: buf.Bytes()}
}

func baseSubmission() Submission {
	return Submission{
		EquipmentID: "10",
		UserID:      "5",
		Form: Form{
			Description: "Cambio de filtro",
			PerformedAt: "2024-05-01",
			Technician:  "Ana",
			Status:      backend.MaintenanceCompleted,
		},
	}
}

func TestSubmit_OrderAndPayload(t *testing.T) {
	api := &fakeAPI{}
	in := baseSubmission()
	in.Photos = []upload.File{pngPhoto(t, "a.png", 40, 30), {Name: "raw.heic", Data: []byte("not decodable")}}
	in.Documents = []upload.File{{Name: "informe.pdf", Data: []byte("%PDF")}}

	m, err := NewSubmitter(api).Submit(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, backend.ID("77"), m.ID)
	assert.Equal(t, []string{"create", "photos", "documents"}, api.ops())

	assert.Equal(t, "5", api.calls[0].body.UserID)
	assert.Equal(t, "Cambio de filtro", api.calls[0].body.Description)

	photos := api.calls[1].files
	require.Len(t, photos, 2)
	assert.Equal(t, "image/jpeg", photos[0].ContentType)
	assert.Equal(t, "raw.heic", photos[1].Name)
	assert.Equal(t, []byte("not decodable"), photos[1].Data)
}

func TestSubmit_SkipsEmptyGroups(t *testing.T) {
	api := &fakeAPI{}
	_, err := NewSubmitter(api).Submit(context.Background(), baseSubmission())
	require.NoError(t, err)
	assert.Equal(t, []string{"create"}, api.ops())
}

func TestSubmit_LocalValidationSendsNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Submission)
		want   error
		msg    string
	}{
		{name: "no user", mutate: func(s *Submission) { s.UserID = "" }, want: ErrUnauthenticated, msg: "Usuario no autenticado"},
		{name: "no description", mutate: func(s *Submission) { s.Form.Description = "  " }, want: ErrDescriptionRequired},
		{name: "bad status", mutate: func(s *Submission) { s.Form.Status = "rota" }, want: ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			in := baseSubmission()
			tt.mutate(&in)

			_, err := NewSubmitter(api).Submit(context.Background(), in)
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, api.calls)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, Message(err))
			}
		})
	}
}

func TestSubmit_OversizedDocumentsBlockedLocally(t *testing.T) {
	api := &fakeAPI{}
	in := baseSubmission()
	in.Documents = []upload.File{{Name: "big.pdf", Data: make([]byte, 21<<20)}}

	_, err := NewSubmitter(api).Submit(context.Background(), in)
	require.Error(t, err)

	var sizeErr *upload.SizeError
	require.True(t, errors.As(err, &sizeErr))
	assert.Empty(t, api.calls)
	assert.Equal(t, "Los documentos exceden el límite de 20MB. Tamaño actual: 21.00MB", Message(err))
}

func TestSubmit_PhotoLimitMeasuredAfterCompression(t *testing.T) {
	api := &fakeAPI{}
	s := NewSubmitter(api)
	s.limit = 10
	s.compress = func(f upload.File) (upload.File, error) {
		return upload.File{Name: f.Name, ContentType: "image/jpeg", Data: []byte("jpg")}, nil
	}
	in := baseSubmission()
	in.Photos = []upload.File{{Name: "a.png", Data: make([]byte, 100)}, {Name: "b.png", Data: make([]byte, 100)}}

	_, err := s.Submit(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"create", "photos"}, api.ops())
}

func TestSubmit_CreateFailure(t *testing.T) {
	api := &fakeAPI{createErr: &backend.APIError{Op: "maintenances.create", Status: 400, Message: "performedAt must be a date"}}
	in := baseSubmission()
	in.Photos = []upload.File{pngPhoto(t, "a.png", 4, 4)}

	m, err := NewSubmitter(api).Submit(context.Background(), in)
	assert.Nil(t, m)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepCreate, stepErr.Step)
	assert.Equal(t, "performedAt must be a date", Message(err))
	assert.Equal(t, []string{"create"}, api.ops())
}

func TestSubmit_PartialFailureKeepsRecord(t *testing.T) {
	api := &fakeAPI{photosErr: &backend.APIError{Op: "maintenances.photos.upload", Status: http.StatusRequestEntityTooLarge}}
	in := baseSubmission()
	in.Photos = []upload.File{pngPhoto(t, "a.png", 4, 4)}
	in.Documents = []upload.File{{Name: "informe.pdf", Data: []byte("%PDF")}}

	m, err := NewSubmitter(api).Submit(context.Background(), in)
	require.NotNil(t, m)
	assert.Equal(t, backend.ID("77"), m.ID)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepPhotos, stepErr.Step)
	assert.Equal(t, "Las fotos exceden el límite de 20MB permitido por el servidor", Message(err))
	assert.Equal(t, []string{"create", "photos"}, api.ops())
}

func TestSubmit_DocumentStepFailure(t *testing.T) {
	api := &fakeAPI{docsErr: &backend.APIError{Op: "maintenances.documents.upload", Status: 500}}
	in := baseSubmission()
	in.Documents = []upload.File{{Name: "informe.pdf", Data: []byte("%PDF")}}

	m, err := NewSubmitter(api).Submit(context.Background(), in)
	require.NotNil(t, m)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepDocuments, stepErr.Step)
	assert.Equal(t, "Error al subir documentos", Message(err))
}
