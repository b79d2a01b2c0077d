package backend

import (
	"context"
	"net/http"

	"github.com/Skotchmaster/enfoque_qr/internal/upload"
)

type NewEquipment struct {
	Name          string
	SerialNumber  string
	Status        string
	InstitutionID string
	Photo         *upload.File
}

type EquipmentUpdate struct {
	Name         string `json:"name"`
	SerialNumber string `json:"serialNumber"`
	Description  string `json:"description"`
	Status       string `json:"status"`
}

func (c *Client) ListEquipments(ctx context.Context) ([]Equipment, error) {
	var out []Equipment
	if err := c.getJSON(ctx, "equipments.list", "/equipments", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetEquipment(ctx context.Context, id string) (*Equipment, error) {
	var out Equipment
	if err := c.getJSON(ctx, "equipments.get", "/equipments/"+esc(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateEquipment(ctx context.Context, in NewEquipment) (*Equipment, error) {
	fields := map[string]string{
		"name":          in.Name,
		"serialNumber":  in.SerialNumber,
		"status":        in.Status,
		"institutionId": in.InstitutionID,
	}
	var files []formFile
	if in.Photo != nil {
		files = append(files, formFile{field: "equipmentPhoto", file: *in.Photo})
	}
	var out Equipment
	if err := c.doMultipart(ctx, "equipments.create", "/equipments", fields, files, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateEquipment(ctx context.Context, id string, in EquipmentUpdate) (*Equipment, error) {
	var out Equipment
	if err := c.doJSON(ctx, "equipments.update", http.MethodPut, "/equipments/"+esc(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteEquipment(ctx context.Context, id string) error {
	return c.doJSON(ctx, "equipments.delete", http.MethodDelete, "/equipments/"+esc(id), nil, nil)
}

func (c *Client) ListEquipmentQRs(ctx context.Context, id string) ([]QR, error) {
	var out []QR
	if err := c.getJSON(ctx, "equipments.qrs", "/equipments/"+esc(id)+"/qrs", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EquipmentByQR returns nil, nil when the backend answers 2xx with an empty body.
func (c *Client) EquipmentByQR(ctx context.Context, token string) (*Equipment, error) {
	var out *Equipment
	if err := c.getJSON(ctx, "equipments.by_qr", "/equipments/by-qr/"+esc(token), &out); err != nil {
		return nil, err
	}
	return out, nil
}
