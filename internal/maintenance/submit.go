// Package maintenance registers a maintenance from the public QR page: the
// record first, then its photos, then its documents.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Skotchmaster/enfoque_qr/internal/backend"
	"github.com/Skotchmaster/enfoque_qr/internal/upload"
	"github.com/Skotchmaster/enfoque_qr/pkg/logging"
)

var (
	ErrUnauthenticated     = errors.New("maintenance: no authenticated user")
	ErrDescriptionRequired = errors.New("maintenance: description is required")
	ErrInvalidStatus       = errors.New("maintenance: invalid status")
)

// Message is the text shown to the user for an error returned by Submit.
func Message(err error) string {
	var stepErr *StepError
	var sizeErr *upload.SizeError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthenticated):
		return "Usuario no autenticado"
	case errors.Is(err, ErrDescriptionRequired):
		return "La descripción es obligatoria"
	case errors.Is(err, ErrInvalidStatus):
		return "Estado de mantención inválido"
	case errors.As(err, &sizeErr):
		return sizeErr.Error()
	case errors.As(err, &stepErr):
		return stepErr.Error()
	default:
		return "Error al registrar mantención"
	}
}

type Step string

const (
	StepCreate    Step = "create"
	StepPhotos    Step = "photos"
	StepDocuments Step = "documents"
)

// StepError reports which step failed. When Step is not StepCreate the
// maintenance exists with whatever attachments were uploaded before it.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	switch e.Step {
	case StepPhotos:
		if backend.StatusOf(e.Err) == http.StatusRequestEntityTooLarge {
			return "Las fotos exceden el límite de 20MB permitido por el servidor"
		}
		return backend.MessageOf(e.Err, "Error al subir fotos")
	case StepDocuments:
		if backend.StatusOf(e.Err) == http.StatusRequestEntityTooLarge {
			return "Los documentos exceden el límite de 20MB permitido por el servidor"
		}
		return backend.MessageOf(e.Err, "Error al subir documentos")
	default:
		if s := backend.StatusOf(e.Err); s != 0 {
			return backend.MessageOf(e.Err, fmt.Sprintf("Error del servidor: %d", s))
		}
		return "Error al registrar mantención"
	}
}

func (e *StepError) Unwrap() error { return e.Err }

// API is the part of the backend a submission talks to.
type API interface {
	CreateMaintenance(ctx context.Context, equipmentID string, in backend.NewMaintenance) (*backend.Maintenance, error)
	UploadMaintenancePhotos(ctx context.Context, id string, photos []upload.File) error
	UploadMaintenanceDocuments(ctx context.Context, id string, docs []upload.File) error
}

type Form struct {
	Description string
	PerformedAt string
	Technician  string
	Status      string
}

type Submission struct {
	EquipmentID string
	UserID      string
	Form        Form
	Photos      []upload.File
	Documents   []upload.File
}

type Submitter struct {
	api      API
	limit    int64
	compress func(upload.File) (upload.File, error)
}

func NewSubmitter(api API) *Submitter {
	return &Submitter{api: api, limit: upload.MaxGroupBytes, compress: upload.Compress}
}

// Validate runs the local checks. Nothing is sent when it fails.
func (f Form) Validate() error {
	if strings.TrimSpace(f.Description) == "" {
		return ErrDescriptionRequired
	}
	if f.Status == "" {
		return nil
	}
	for _, s := range backend.MaintenanceStatuses {
		if f.Status == s {
			return nil
		}
	}
	return ErrInvalidStatus
}

// PreparePhotos re-encodes every photo, keeping the original of any photo
// that cannot be compressed.
func (s *Submitter) PreparePhotos(ctx context.Context, photos []upload.File) []upload.File {
	out := make([]upload.File, 0, len(photos))
	for _, p := range photos {
		c, err := s.compress(p)
		if err != nil {
			logging.FromContext(ctx).Warn("photo_compress_failed", "file", p.Name, "error", err)
			out = append(out, p)
			continue
		}
		out = append(out, c)
	}
	return out
}

// Submit validates and sends the submission. The returned maintenance is
// non-nil whenever the record was created, even if an attachment step failed.
func (s *Submitter) Submit(ctx context.Context, in Submission) (*backend.Maintenance, error) {
	l := logging.FromContext(ctx).With("component", "maintenance", "equipment_id", in.EquipmentID)

	if in.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if err := in.Form.Validate(); err != nil {
		return nil, err
	}

	photos := s.PreparePhotos(ctx, in.Photos)
	if err := upload.CheckGroup(upload.GroupPhotos, photos, s.limit); err != nil {
		return nil, err
	}
	if err := upload.CheckGroup(upload.GroupDocuments, in.Documents, s.limit); err != nil {
		return nil, err
	}

	m, err := s.api.CreateMaintenance(ctx, in.EquipmentID, backend.NewMaintenance{
		Description: in.Form.Description,
		PerformedAt: in.Form.PerformedAt,
		Technician:  in.Form.Technician,
		Status:      in.Form.Status,
		UserID:      in.UserID,
	})
	if err != nil {
		l.Warn("maintenance_create_failed", "status", backend.StatusOf(err), "error", err)
		return nil, &StepError{Step: StepCreate, Err: err}
	}

	if len(photos) > 0 {
		if err := s.api.UploadMaintenancePhotos(ctx, m.ID.String(), photos); err != nil {
			l.Warn("maintenance_photos_failed", "maintenance_id", m.ID, "status", backend.StatusOf(err), "error", err)
			return m, &StepError{Step: StepPhotos, Err: err}
		}
	}
	if len(in.Documents) > 0 {
		if err := s.api.UploadMaintenanceDocuments(ctx, m.ID.String(), in.Documents); err != nil {
			l.Warn("maintenance_documents_failed", "maintenance_id", m.ID, "status", backend.StatusOf(err), "error", err)
			return m, &StepError{Step: StepDocuments, Err: err}
		}
	}

	l.Info("maintenance_created", "maintenance_id", m.ID, "photos", len(photos), "documents", len(in.Documents))
	return m, nil
}
