package backend

import (
	"context"
	"net/http"

	"github.com/Skotchmaster/enfoque_qr/internal/upload"
)

type NewDocument struct {
	Name          string
	Type          string
	UserID        string
	InstitutionID string
	File          upload.File
}

func (c *Client) ListEquipmentDocuments(ctx context.Context, equipmentID string) ([]Document, error) {
	var out []Document
	if err := c.getJSON(ctx, "documents.list", "/equipments/"+esc(equipmentID)+"/documents", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UploadEquipmentDocument(ctx context.Context, equipmentID string, in NewDocument) (*Document, error) {
	fields := map[string]string{
		"name":          in.Name,
		"type":          in.Type,
		"userId":        in.UserID,
		"institutionId": in.InstitutionID,
	}
	var out Document
	err := c.doMultipart(ctx, "documents.upload", "/equipments/"+esc(equipmentID)+"/documents", fields,
		[]formFile{{field: "file", file: in.File}}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.doJSON(ctx, "documents.delete", http.MethodDelete, "/equipments/documents/"+esc(id), nil, nil)
}

func (c *Client) DownloadDocument(ctx context.Context, id string) (*Download, error) {
	return c.download(ctx, "documents.download", "/equipments/documents/"+esc(id)+"/download")
}
