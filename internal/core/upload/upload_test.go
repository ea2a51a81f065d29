package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"reports/2026/a.xlsx", "reports/2026/a.xlsx"},
		{"/reports//a.pdf", "reports/a.pdf"},
		{"../../etc/passwd", "etc/passwd"},
		{`reports\a.pdf`, "reports/a.pdf"},
	}
	for _, tt := range tests {
		if got := cleanKey(tt.in); got != tt.want {
			t.Errorf("cleanKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLocalProviderSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewServiceFromOptions(context.Background(), Options{LocalDir: dir, LocalBaseURL: "/files/"})
	if err != nil {
		t.Fatalf("NewServiceFromOptions: %v", err)
	}
	if svc.ProviderName() != "local" {
		t.Fatalf("provider = %q, want local", svc.ProviderName())
	}

	obj, err := svc.Save(context.Background(), "reports/daily.xlsx", []byte("hello"), "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if obj.URL != "/files/reports/daily.xlsx" {
		t.Errorf("URL = %q", obj.URL)
	}
	if obj.Size != 5 {
		t.Errorf("Size = %d", obj.Size)
	}
	if obj.ContentType != contentTypes[".xlsx"] {
		t.Errorf("ContentType = %q", obj.ContentType)
	}

	data, err := os.ReadFile(filepath.Join(dir, "reports", "daily.xlsx"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q", data)
	}

	if err := svc.Delete(context.Background(), "reports/daily.xlsx"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(context.Background(), "reports/daily.xlsx"); err == nil {
		t.Error("expected error deleting a missing file")
	}
}

func TestS3ProviderPutsObject(t *testing.T) {
	var (
		mu   sync.Mutex
		path string
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		if r.Method == http.MethodPut {
			path = r.URL.Path
			body = string(b)
		}
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc, err := NewServiceFromOptions(context.Background(), Options{S3: S3Config{
		Bucket:          "reports",
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Endpoint:        srv.URL,
		Prefix:          "stock",
	}})
	if err != nil {
		t.Fatalf("NewServiceFromOptions: %v", err)
	}
	if svc.ProviderName() != "s3" {
		t.Fatalf("provider = %q, want s3", svc.ProviderName())
	}

	obj, err := svc.Save(context.Background(), "daily/orders.pdf", []byte("%PDF-"), "application/pdf")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if obj.Key != "stock/daily/orders.pdf" {
		t.Errorf("Key = %q", obj.Key)
	}
	if obj.URL != srv.URL+"/reports/stock/daily/orders.pdf" {
		t.Errorf("URL = %q", obj.URL)
	}

	mu.Lock()
	defer mu.Unlock()
	if path != "/reports/stock/daily/orders.pdf" {
		t.Errorf("request path = %q", path)
	}
	if !strings.Contains(body, "%PDF-") {
		t.Errorf("request body = %q", body)
	}
}

func TestNilServiceFails(t *testing.T) {
	var svc *Service
	if _, err := svc.Save(context.Background(), "a", nil, ""); err == nil {
		t.Error("expected error from nil service")
	}
}
