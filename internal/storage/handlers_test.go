package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

var errSave = errors.New("save failed")

func withUser(c *fiber.Ctx) error {
	c.Locals("user_id", "user-1")
	return c.Next()
}

func multipartBody(t *testing.T, name, content, kind string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if name != "" {
		part, err := w.CreateFormFile("file", name)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = part.Write([]byte(content))
	}
	if kind != "" {
		_ = w.WriteField("kind", kind)
	}
	_ = w.Close()
	return buf, w.FormDataContentType()
}

func TestStorageUploadHandler(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO storage_objects`).
		WithArgs(pgxmock.AnyArg(), "user-1", pgxmock.AnyArg(), "photo").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	app := fiber.New()
	RegisterRoutes(app.Group("/storage"), NewService(mock, NewLocal(t.TempDir())), withUser)

	body, ctype := multipartBody(t, "ride.jpg", "jpeg", "photo")
	req := httptest.NewRequest(http.MethodPost, "/storage/upload", body)
	req.Header.Set("Content-Type", ctype)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status: %v", err)
	}

	var obj Object
	if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(obj.URL, "/uploads/") || !strings.HasSuffix(obj.URL, ".jpg") || obj.Kind != "photo" {
		t.Fatalf("unexpected object %+v", obj)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStorageUploadMissingFile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	app := fiber.New()
	RegisterRoutes(app.Group("/storage"), NewService(mock, NewLocal(t.TempDir())), withUser)

	body, ctype := multipartBody(t, "", "", "photo")
	req := httptest.NewRequest(http.MethodPost, "/storage/upload", body)
	req.Header.Set("Content-Type", ctype)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}

func TestStorageUploadError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO storage_objects`).
		WithArgs(pgxmock.AnyArg(), "user-1", pgxmock.AnyArg(), "route_image").
		WillReturnError(errSave)

	api := &fakeS3{}
	app := fiber.New()
	RegisterRoutes(app.Group("/storage"), NewService(mock, NewObjectStore(api, "pedal", "us-east-1")), withUser)

	body, ctype := multipartBody(t, "ride.png", "png", "")
	req := httptest.NewRequest(http.MethodPost, "/storage/upload", body)
	req.Header.Set("Content-Type", ctype)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected error status")
	}
	if len(api.puts) != 1 || len(api.deletes) != 1 {
		t.Fatalf("expected orphaned object to be removed")
	}
}
