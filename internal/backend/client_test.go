package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Skotchmaster/enfoque_qr/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

func TestClient_ForwardsBearerToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := c.ListEquipments(WithToken(context.Background(), "abc.def.ghi"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc.def.ghi", gotAuth)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"token":"t1","estado":"activo","imagenPath":"/qr/t1.png"}`)
	})

	qr, err := c.GetQR(context.Background(), "t1")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
	assert.Equal(t, "/qr/t1.png", qr.ImagenPath)
}

func TestClient_APIErrorCarriesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":["serialNumber must be unique"],"error":"Bad Request"}`)
	})

	_, err := c.CreateUser(context.Background(), NewUser{Email: "a@b.c"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.Equal(t, "serialNumber must be unique", MessageOf(err, "fallback"))
}

func TestClient_NotFoundMatchesSentinel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.GetQR(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "fallback", MessageOf(err, "fallback"))
}

func TestClient_LoginUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Credenciales inválidas"}`)
	})

	_, err := c.Login(context.Background(), "a@b.c", "bad")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
}

func TestClient_CreateEquipmentMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Monitor", r.FormValue("name"))
		assert.Equal(t, "SN-1", r.FormValue("serialNumber"))
		assert.Equal(t, "activo", r.FormValue("status"))
		assert.Equal(t, "7", r.FormValue("institutionId"))

		fh := r.MultipartForm.File["equipmentPhoto"]
		require.Len(t, fh, 1)
		assert.Equal(t, "monitor.jpg", fh[0].Filename)

		_ = json.NewEncoder(w).Encode(map[string]any{"id": 42, "name": "Monitor"})
	})

	eq, err := c.CreateEquipment(context.Background(), NewEquipment{
		Name:          "Monitor",
		SerialNumber:  "SN-1",
		Status:        EquipmentActive,
		InstitutionID: "7",
		Photo:         &upload.File{Name: "monitor.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}},
	})
	require.NoError(t, err)
	assert.Equal(t, ID("42"), eq.ID)
	n, ok := eq.ID.Int()
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)
}

func TestClient_UploadMaintenancePhotosOneRequest(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/maintenances/9/photos", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Len(t, r.MultipartForm.File["photos"], 2)
		w.WriteHeader(http.StatusCreated)
	})

	err := c.UploadMaintenancePhotos(context.Background(), "9", []upload.File{
		{Name: "a.jpg", Data: []byte("a")},
		{Name: "b.jpg", Data: []byte("b")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestClient_EquipmentByQREmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	eq, err := c.EquipmentByQR(context.Background(), "t1")
	require.NoError(t, err)
	assert.Nil(t, eq)
}

func TestClient_DownloadStreamsHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/equipments/documents/3/download", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="manual.pdf"`)
		_, _ = io.WriteString(w, "%PDF")
	})

	dl, err := c.DownloadDocument(context.Background(), "3")
	require.NoError(t, err)
	defer dl.Body.Close()

	body, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(body))
	assert.Equal(t, "application/pdf", dl.ContentType)
	assert.Contains(t, dl.ContentDisposition, "manual.pdf")
}

func TestID_UnmarshalStringAndNumber(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x-1","b":15,"c":null}`), &v))
	assert.Equal(t, ID("x-1"), v.A)
	assert.Equal(t, ID("15"), v.B)
	assert.Equal(t, ID(""), v.C)
}
