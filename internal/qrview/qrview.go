// Package qrview builds the public QR page from independent backend lookups.
package qrview

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/enfoque_qr/internal/backend"
	"github.com/Skotchmaster/enfoque_qr/pkg/logging"
)

var (
	ErrQRNotFound          = errors.New("qrview: qr not found")
	ErrMaintenanceNotFound = errors.New("qrview: maintenance not found")
)

// Source is the subset of the backend the QR pages read from.
type Source interface {
	GetQR(ctx context.Context, token string) (*backend.QR, error)
	EquipmentByQR(ctx context.Context, token string) (*backend.Equipment, error)
	ListEquipmentDocuments(ctx context.Context, equipmentID string) ([]backend.Document, error)
	ListMaintenances(ctx context.Context, equipmentID string) ([]backend.Maintenance, error)
	GetMaintenance(ctx context.Context, id string) (*backend.Maintenance, error)
	ListMaintenanceDocuments(ctx context.Context, id string) ([]backend.MaintenanceFile, error)
	ListMaintenancePhotos(ctx context.Context, id string) ([]backend.MaintenanceFile, error)
}

type View struct {
	QR        backend.QR
	Equipment *backend.Equipment
	// Documents is already filtered for the viewer.
	Documents       []backend.Document
	Maintenances    []backend.Maintenance
	LastMaintenance *backend.Maintenance
	GateOpen        bool
}

type Resolver struct {
	src Source
}

func NewResolver(src Source) *Resolver {
	return &Resolver{src: src}
}

// Resolve looks up the QR record and its equipment concurrently, then the
// equipment's documents and maintenances concurrently. Only the QR lookup is
// fatal; every other failure leaves its section empty.
func (r *Resolver) Resolve(ctx context.Context, token string, gateOpen bool) (*View, error) {
	l := logging.FromContext(ctx).With("component", "qrview", "token", token)

	var (
		qr    *backend.QR
		eq    *backend.Equipment
		docs  []backend.Document
		maint []backend.Maintenance
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := r.src.GetQR(gctx, token)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrQRNotFound, err)
		}
		if res == nil {
			return ErrQRNotFound
		}
		qr = res
		return nil
	})
	g.Go(func() error {
		res, err := r.src.EquipmentByQR(gctx, token)
		if err != nil {
			l.Warn("equipment_by_qr_failed", "error", err)
			return nil
		}
		if res == nil || res.ID == "" {
			return nil
		}
		eq = res

		var inner errgroup.Group
		inner.Go(func() error {
			d, err := r.src.ListEquipmentDocuments(gctx, eq.ID.String())
			if err != nil {
				l.Warn("documents_list_failed", "equipment_id", eq.ID, "error", err)
				return nil
			}
			docs = d
			return nil
		})
		inner.Go(func() error {
			m, err := r.src.ListMaintenances(gctx, eq.ID.String())
			if err != nil {
				l.Warn("maintenances_list_failed", "equipment_id", eq.ID, "error", err)
				return nil
			}
			maint = m
			return nil
		})
		return inner.Wait()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	v := &View{
		QR:           *qr,
		Equipment:    eq,
		Documents:    VisibleDocuments(docs, gateOpen),
		Maintenances: maint,
		GateOpen:     gateOpen,
	}
	if len(maint) > 0 {
		last := maint[0]
		v.LastMaintenance = &last
	}
	return v, nil
}

// VisibleDocuments returns every document when the gate is open and only the
// public ones otherwise.
func VisibleDocuments(docs []backend.Document, gateOpen bool) []backend.Document {
	if gateOpen {
		return docs
	}
	out := make([]backend.Document, 0, len(docs))
	for _, d := range docs {
		if !d.IsPrivate {
			out = append(out, d)
		}
	}
	return out
}

type MaintenanceView struct {
	Maintenance backend.Maintenance
	Documents   []backend.MaintenanceFile
	Photos      []backend.MaintenanceFile
}

// ResolveMaintenance loads one maintenance with its documents and photos.
func (r *Resolver) ResolveMaintenance(ctx context.Context, id string) (*MaintenanceView, error) {
	l := logging.FromContext(ctx).With("component", "qrview", "maintenance_id", id)

	var v MaintenanceView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := r.src.GetMaintenance(gctx, id)
		if err != nil || m == nil {
			return fmt.Errorf("%w: %v", ErrMaintenanceNotFound, err)
		}
		v.Maintenance = *m
		return nil
	})
	g.Go(func() error {
		d, err := r.src.ListMaintenanceDocuments(gctx, id)
		if err != nil {
			l.Warn("maintenance_documents_failed", "error", err)
			return nil
		}
		v.Documents = d
		return nil
	})
	g.Go(func() error {
		p, err := r.src.ListMaintenancePhotos(gctx, id)
		if err != nil {
			l.Warn("maintenance_photos_failed", "error", err)
			return nil
		}
		v.Photos = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &v, nil
}
