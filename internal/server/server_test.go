package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/lazypower/ecan/internal/atomspace"
	"github.com/lazypower/ecan/internal/bank"
	"github.com/lazypower/ecan/internal/scheduler"
	"github.com/lazypower/ecan/internal/store"
)

type fixedStatus scheduler.Status

func (f fixedStatus) Status() scheduler.Status { return scheduler.Status(f) }

func testServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	sched := fixedStatus{Interval: time.Second, Cycles: 3}
	return New(db, bank.New(1200, 3400), sched, "test-version", nil), db
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	w := get(t, srv, "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["store"] != true {
		t.Errorf("store = %v, want true", body["store"])
	}
}

func TestHealthReportsClosedStore(t *testing.T) {
	srv, db := testServer(t)
	db.Close()

	var body map[string]any
	w := get(t, srv, "/api/health")
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["store"] != false {
		t.Errorf("store = %v, want false", body["store"])
	}
}

func TestBankEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	w := get(t, srv, "/api/bank")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var snap bank.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if snap.STIFunds != 1200 || snap.LTIFunds != 3400 {
		t.Errorf("snapshot = %+v, want 1200/3400", snap)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, db := testServer(t)
	ctx := context.Background()
	a, _ := db.AddNode(ctx, atomspace.TypeConceptNode, "a")
	b, _ := db.AddNode(ctx, atomspace.TypeConceptNode, "b")
	db.AddLink(ctx, atomspace.TypeListLink, a, b)

	w := get(t, srv, "/api/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body statsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Elements != 3 {
		t.Errorf("elements = %d, want 3", body.Elements)
	}
	if body.Scheduler == nil || body.Scheduler.Cycles != 3 {
		t.Errorf("scheduler = %+v, want 3 cycles", body.Scheduler)
	}
}

func TestAtomEndpoint(t *testing.T) {
	srv, db := testServer(t)
	ctx := context.Background()
	a, _ := db.AddNode(ctx, atomspace.TypeConceptNode, "a")
	b, _ := db.AddNode(ctx, atomspace.TypeConceptNode, "b")
	l, _ := db.AddLink(ctx, atomspace.TypeInheritanceLink, a, b)

	w := get(t, srv, "/api/atoms/"+strconv.FormatInt(int64(a), 10))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body atomResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Name != "a" || !body.Disposable {
		t.Errorf("body = %+v", body)
	}
	if len(body.Incoming) != 1 || body.Incoming[0] != l {
		t.Errorf("incoming = %v, want [%d]", body.Incoming, l)
	}

	cases := []struct {
		path string
		code int
	}{
		{"/api/atoms/9999", http.StatusNotFound},
		{"/api/atoms/nope", http.StatusBadRequest},
	}
	for _, c := range cases {
		if w := get(t, srv, c.path); w.Code != c.code {
			t.Errorf("GET %s: status = %d, want %d", c.path, w.Code, c.code)
		}
	}
}
