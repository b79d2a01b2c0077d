package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID accepts both numeric and string identifiers from the API.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Int returns the numeric form when the backend expects a number.
func (id ID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

const (
	EquipmentActive      = "activo"
	EquipmentInactive    = "inactivo"
	EquipmentMaintenance = "mantenimiento"
)

var EquipmentStatuses = []string{EquipmentActive, EquipmentInactive, EquipmentMaintenance}

const (
	MaintenanceCompleted  = "completada"
	MaintenancePending    = "pendiente"
	MaintenanceIncomplete = "incompleta"
)

var MaintenanceStatuses = []string{MaintenanceCompleted, MaintenancePending, MaintenanceIncomplete}

type QR struct {
	Token      string `json:"token"`
	Estado     string `json:"estado"`
	ImagenPath string `json:"imagenPath"`
}

type Equipment struct {
	ID             ID     `json:"id"`
	Name           string `json:"name"`
	SerialNumber   string `json:"serialNumber"`
	Description    string `json:"description"`
	Status         string `json:"status"`
	EquipmentPhoto string `json:"equipmentPhoto"`
	CreatedAt      string `json:"createdAt"`
}

type Document struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	FilePath    string `json:"filePath"`
	IsPrivate   bool   `json:"isPrivate"`
	CreatedAt   string `json:"createdAt"`
	Responsable string `json:"responsable"`
}

// MaintenanceFile is a photo or document attached to a maintenance.
type MaintenanceFile struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	FilePath string `json:"filePath"`
}

type Maintenance struct {
	ID          ID                `json:"id"`
	Description string            `json:"description"`
	PerformedAt string            `json:"performedAt"`
	Technician  string            `json:"technician"`
	Status      string            `json:"status"`
	Photos      []MaintenanceFile `json:"photos"`
	Documents   []MaintenanceFile `json:"documents"`
}

const (
	UserInactive = 0
	UserActive   = 1
)

var UserRoles = []string{"admin", "editor", "user"}

type User struct {
	ID       ID      `json:"id"`
	Email    string  `json:"email"`
	FullName string  `json:"fullName"`
	Phone    *string `json:"phone"`
	Role     string  `json:"role"`
	Status   int     `json:"status"`
}

func (u User) Active() bool { return u.Status == UserActive }
