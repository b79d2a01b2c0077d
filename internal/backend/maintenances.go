package backend

import (
	"context"
	"net/http"

	"github.com/Skotchmaster/enfoque_qr/internal/upload"
)

type NewMaintenance struct {
	Description string `json:"description"`
	PerformedAt string `json:"performedAt"`
	Technician  string `json:"technician"`
	Status      string `json:"status"`
	UserID      string `json:"userId"`
}

func (c *Client) ListMaintenances(ctx context.Context, equipmentID string) ([]Maintenance, error) {
	var out []Maintenance
	if err := c.getJSON(ctx, "maintenances.list", "/maintenances/equipment/"+esc(equipmentID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateMaintenance(ctx context.Context, equipmentID string, in NewMaintenance) (*Maintenance, error) {
	var out Maintenance
	err := c.doJSON(ctx, "maintenances.create", http.MethodPost, "/maintenances/equipment/"+esc(equipmentID), in, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetMaintenance(ctx context.Context, id string) (*Maintenance, error) {
	var out Maintenance
	if err := c.getJSON(ctx, "maintenances.get", "/maintenances/"+esc(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UploadMaintenancePhotos(ctx context.Context, id string, photos []upload.File) error {
	return c.doMultipart(ctx, "maintenances.photos.upload", "/maintenances/"+esc(id)+"/photos", nil, asParts("photos", photos), nil)
}

func (c *Client) UploadMaintenanceDocuments(ctx context.Context, id string, docs []upload.File) error {
	return c.doMultipart(ctx, "maintenances.documents.upload", "/maintenances/"+esc(id)+"/documents", nil, asParts("documents", docs), nil)
}

func (c *Client) ListMaintenanceDocuments(ctx context.Context, id string) ([]MaintenanceFile, error) {
	var out []MaintenanceFile
	if err := c.getJSON(ctx, "maintenances.documents.list", "/maintenances/"+esc(id)+"/documents", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListMaintenancePhotos(ctx context.Context, id string) ([]MaintenanceFile, error) {
	var out []MaintenanceFile
	if err := c.getJSON(ctx, "maintenances.photos.list", "/maintenances/"+esc(id)+"/photos", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DownloadMaintenanceDocument(ctx context.Context, id string) (*Download, error) {
	return c.download(ctx, "maintenances.documents.download", "/maintenances/documents/"+esc(id)+"/download")
}

func asParts(field string, files []upload.File) []formFile {
	out := make([]formFile, 0, len(files))
	for _, f := range files {
		out = append(out, formFile{field: field, file: f})
	}
	return out
}
