package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopcase-backend/internal/products"
	"github.com/angelmondragon/shopcase-backend/pkg/config"
	"github.com/angelmondragon/shopcase-backend/pkg/db/models"
	"github.com/angelmondragon/shopcase-backend/pkg/metrics"
	"github.com/angelmondragon/shopcase-backend/pkg/storage/localdisk"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

func testRouterConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App: config.AppConfig{Env: "dev"},
		Uploads: config.UploadsConfig{
			Dir:         filepath.Join(t.TempDir(), "uploads"),
			MaxUploadMB: 1,
			PublicPath:  "/uploads",
		},
		RateLimit: config.RateLimitConfig{Window: time.Minute, IPLimit: 60},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testRouterConfig(t)

	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "router.db")), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	store, err := localdisk.New(cfg.Uploads.Dir, cfg.Uploads.MaxUploadBytes(), nil)
	if err != nil {
		t.Fatalf("create image store: %v", err)
	}

	svc, err := products.NewService(products.NewRepository(conn), store, nil)
	if err != nil {
		t.Fatalf("create service: %v", err)
	}

	reg := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(reg)

	return NewRouter(cfg, nil, stubPinger{}, nil, httpMetrics, reg, svc), cfg
}

func createViaAPI(t *testing.T, router http.Handler, name, price string) products.ProductDTO {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("name", name); err != nil {
		t.Fatalf("write name: %v", err)
	}
	if err := writer.WriteField("price", price); err != nil {
		t.Fatalf("write price: %v", err)
	}
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="image"; filename="photo.jpg"`}
	header["Content-Type"] = []string{"image/jpeg"}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create image part: %v", err)
	}
	if _, err := part.Write([]byte("jpeg-bytes")); err != nil {
		t.Fatalf("write image: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/products", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("create via API failed: %d %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data products.ProductDTO `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return payload.Data
}

func TestRouterProductLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	created := createViaAPI(t, router, "Pen", "1.50")
	if created.ID == 0 || created.Image == "" {
		t.Fatalf("unexpected created product: %+v", created)
	}

	// list
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list failed: %d", rec.Code)
	}

	// fetch the stored image through the static mount
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/"+created.Image, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("uploaded image not served: %d", rec.Code)
	}
	if rec.Body.String() != "jpeg-bytes" {
		t.Fatalf("unexpected image body %q", rec.Body.String())
	}

	// delete, then the row and the GET are gone
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/products/"+itoa(created.ID), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/"+itoa(created.ID), nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestRouterHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	// generate one request so a series exists
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics endpoint: expected 200, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("http_requests_total")) {
		t.Fatal("expected http_requests_total in metrics output")
	}
}

func TestRouterValidationFailure(t *testing.T) {
	router, _ := newTestRouter(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("price", "1.50"); err != nil {
		t.Fatalf("write price: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/products", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouterUploadsTraversalBlocked(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/uploads/../go.mod", nil)
	router.ServeHTTP(rec, req)
	if rec.Code == http.StatusOK {
		t.Fatal("path traversal must not serve files outside the uploads dir")
	}
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
