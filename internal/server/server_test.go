package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lazypower/entropyd/internal/decay"
	"github.com/lazypower/entropyd/internal/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// A nonexistent device path keeps every value in sim mode.
	cfg := decay.Config{DevicePath: filepath.Join(t.TempDir(), "no-device")}
	srv := New(db, cfg, "test-version")
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var decoded map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("%s %s: decode body %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, decoded
}

func createValue(t *testing.T, srv *Server, content string) string {
	t.Helper()
	code, body := doJSON(t, srv, "POST", "/api/values", `{"content":"`+content+`"}`)
	if code != http.StatusCreated {
		t.Fatalf("create value: status = %d, body = %v", code, body)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatal("create value: missing id")
	}
	return id
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)

	code, body := doJSON(t, srv, "GET", "/api/health", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want %d", code, http.StatusOK)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["db"] != true {
		t.Errorf("db = %v, want true", body["db"])
	}
}

func TestCreateAndReadValue(t *testing.T) {
	srv := testServer(t)

	id := createValue(t, srv, "Hello World")

	code, body := doJSON(t, srv, "GET", "/api/values/"+id, "")
	if code != http.StatusOK {
		t.Fatalf("read: status = %d, body = %v", code, body)
	}
	if body["value"] != "Hello World" {
		t.Errorf("value = %v, want Hello World (no time has passed)", body["value"])
	}
	if body["mode"] != "sim" {
		t.Errorf("mode = %v, want sim", body["mode"])
	}
	if body["corrupted"] != float64(0) {
		t.Errorf("corrupted = %v, want 0", body["corrupted"])
	}
}

func TestCreateValueInvalidJSON(t *testing.T) {
	srv := testServer(t)

	code, _ := doJSON(t, srv, "POST", "/api/values", `{not json`)
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", code, http.StatusBadRequest)
	}
}

func TestReadUnknownValue(t *testing.T) {
	srv := testServer(t)

	code, _ := doJSON(t, srv, "GET", "/api/values/no-such-id", "")
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", code, http.StatusNotFound)
	}
}

func TestCloseValue(t *testing.T) {
	srv := testServer(t)

	id := createValue(t, srv, "Hello World")

	code, body := doJSON(t, srv, "DELETE", "/api/values/"+id, "")
	if code != http.StatusOK || body["status"] != "closed" {
		t.Fatalf("close: status = %d, body = %v", code, body)
	}

	// Closing again is harmless.
	code, body = doJSON(t, srv, "DELETE", "/api/values/"+id, "")
	if code != http.StatusOK || body["status"] != "closed" {
		t.Errorf("second close: status = %d, body = %v", code, body)
	}

	// Reads after close are gone, not not-found.
	code, _ = doJSON(t, srv, "GET", "/api/values/"+id, "")
	if code != http.StatusGone {
		t.Errorf("read after close: status = %d, want %d", code, http.StatusGone)
	}
}

func TestCloseUnknownValue(t *testing.T) {
	srv := testServer(t)

	code, _ := doJSON(t, srv, "DELETE", "/api/values/no-such-id", "")
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", code, http.StatusNotFound)
	}
}

func TestListValues(t *testing.T) {
	srv := testServer(t)

	a := createValue(t, srv, "first")
	createValue(t, srv, "second")
	doJSON(t, srv, "DELETE", "/api/values/"+a, "")

	code, body := doJSON(t, srv, "GET", "/api/values", "")
	if code != http.StatusOK {
		t.Fatalf("list: status = %d", code)
	}

	values, ok := body["values"].([]any)
	if !ok || len(values) != 2 {
		t.Fatalf("values = %v, want 2 rows", body["values"])
	}

	closedCount := 0
	for _, v := range values {
		row := v.(map[string]any)
		if row["closed"] == true {
			closedCount++
		}
	}
	if closedCount != 1 {
		t.Errorf("closed rows = %d, want 1", closedCount)
	}
}

func TestReadsRecordedInLedger(t *testing.T) {
	srv := testServer(t)

	id := createValue(t, srv, "Hello World")
	doJSON(t, srv, "GET", "/api/values/"+id, "")
	doJSON(t, srv, "GET", "/api/values/"+id, "")

	reads, err := srv.db.ReadsForValue(id)
	if err != nil {
		t.Fatalf("ReadsForValue: %v", err)
	}
	if len(reads) != 2 {
		t.Errorf("len(reads) = %d, want 2", len(reads))
	}
}

func TestServerCloseFinalizesValues(t *testing.T) {
	srv := testServer(t)

	id := createValue(t, srv, "Hello World")
	srv.Close()

	code, _ := doJSON(t, srv, "GET", "/api/values/"+id, "")
	if code != http.StatusGone {
		t.Errorf("read after server close: status = %d, want %d", code, http.StatusGone)
	}

	open, err := srv.db.CountOpen()
	if err != nil {
		t.Fatalf("CountOpen: %v", err)
	}
	if open != 0 {
		t.Errorf("open values after server close = %d, want 0", open)
	}
}

func TestCountCorrupted(t *testing.T) {
	cases := []struct {
		original, current string
		want              int
	}{
		{"hello", "hello", 0},
		{"hello", "hXllo", 1},
		{"hello", "XXXXX", 5},
		{"hello", "hel", 2},
		{"hel", "hello", 2},
		{"", "", 0},
	}
	for _, c := range cases {
		got := countCorrupted([]rune(c.original), []rune(c.current))
		if got != c.want {
			t.Errorf("countCorrupted(%q, %q) = %d, want %d", c.original, c.current, got, c.want)
		}
	}
}
