package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"BankSentinel/internal/dispatch"
	"BankSentinel/internal/model"
	"BankSentinel/internal/queue"
	"BankSentinel/internal/rules"
)

const testDocument = `{
	"banks": [
		{
			"id": "vcb",
			"name": "Vietcombank",
			"packageName": "com.vcb.mobile",
			"rules": [
				{"name": "balance-change", "type": "auto", "amountPattern": "([-+])([\\d,.]+)\\s*VND"}
			]
		}
	],
	"globalIgnorePatterns": ["otp"]
}`

type stubSource struct {
	doc string
	err error
}

func (s *stubSource) FetchDocument(_ context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.doc, nil
}

func (s *stubSource) Name() string { return "stub" }

type memCache struct {
	doc       string
	fetchedAt time.Time
}

func (c *memCache) Document() (string, error) { return c.doc, nil }

func (c *memCache) PutDocument(doc string, fetchedAt time.Time) error {
	c.doc = doc
	c.fetchedAt = fetchedAt
	return nil
}

func (c *memCache) LastFetch() (time.Time, error) { return c.fetchedAt, nil }
func (c *memCache) Close() error                  { return nil }

func newTestServer(t *testing.T, src *stubSource) (*Server, queue.Queue) {
	t.Helper()

	manager := rules.NewManager(src, &memCache{doc: testDocument}, 0)
	if _, err := manager.LoadCached(); err != nil {
		t.Fatalf("load cached: %v", err)
	}

	q, err := queue.NewSQLiteQueue(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	t.Cleanup(func() { q.Close() })

	return New(manager, dispatch.New(q, nil), q), q
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestNotifications_Classified(t *testing.T) {
	s, q := newTestServer(t, &stubSource{doc: testDocument})

	w := postJSON(t, s.Router(), "/notifications",
		`{"sourceKey": "com.vcb.mobile", "title": "Biến động số dư", "text": "Giao dich: -50,000VND"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	var rec model.TransactionRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if rec.Type != model.TypeExpense || rec.Amount != 50000 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.ID == "" {
		t.Error("expected record ID in response")
	}

	// The record is durably queued, not only returned.
	pending, err := q.Pending()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("expected 1 pending record, got %d", len(pending))
	}
}

func TestNotifications_NoClassification(t *testing.T) {
	s, q := newTestServer(t, &stubSource{doc: testDocument})

	tests := []struct {
		name string
		body string
	}{
		{"unsupported source", `{"sourceKey": "com.other", "title": "t", "text": "-50,000VND"}`},
		{"ignored", `{"sourceKey": "com.vcb.mobile", "title": "t", "text": "Ma OTP -50,000VND"}`},
		{"no rule match", `{"sourceKey": "com.vcb.mobile", "title": "t", "text": "khong co so tien"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, s.Router(), "/notifications", tt.body)
			if w.Code != http.StatusNoContent {
				t.Errorf("expected 204, got %d", w.Code)
			}
		})
	}

	pending, _ := q.Pending()
	if len(pending) != 0 {
		t.Errorf("expected nothing queued, got %d", len(pending))
	}
}

func TestNotifications_BadRequest(t *testing.T) {
	s, _ := newTestServer(t, &stubSource{doc: testDocument})

	if w := postJSON(t, s.Router(), "/notifications", `not json`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", w.Code)
	}
	if w := postJSON(t, s.Router(), "/notifications", `{"title": "t"}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing sourceKey, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", w.Code)
	}
}

func TestSources(t *testing.T) {
	s, _ := newTestServer(t, &stubSource{doc: testDocument})

	req := httptest.NewRequest(http.MethodGet, "/sources", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Sources []string `json:"sources"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "com.vcb.mobile" {
		t.Errorf("unexpected sources: %v", resp.Sources)
	}
}

func TestRefresh(t *testing.T) {
	src := &stubSource{doc: testDocument}
	s, _ := newTestServer(t, src)

	w := postJSON(t, s.Router(), "/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	src.err = errors.New("origin down")
	w = postJSON(t, s.Router(), "/refresh", "")
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502 for failed refresh, got %d", w.Code)
	}
	// Fail-open: the previous rule set still serves classifications.
	w = postJSON(t, s.Router(), "/notifications",
		`{"sourceKey": "com.vcb.mobile", "title": "TB", "text": "Giao dich: -50,000VND"}`)
	if w.Code != http.StatusAccepted {
		t.Errorf("expected classification to keep working, got %d", w.Code)
	}
}

func TestPending(t *testing.T) {
	s, _ := newTestServer(t, &stubSource{doc: testDocument})

	// Queue one record through the ingest path.
	postJSON(t, s.Router(), "/notifications",
		`{"sourceKey": "com.vcb.mobile", "title": "TB", "text": "Giao dich: -50,000VND"}`)

	req := httptest.NewRequest(http.MethodGet, "/pending", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Count   int                        `json:"count"`
		Pending []*model.TransactionRecord `json:"pending"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Pending) != 1 {
		t.Fatalf("expected 1 pending record, got %+v", resp)
	}

	req = httptest.NewRequest(http.MethodDelete, "/pending", nil)
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/pending", nil)
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("expected cleared queue, got %d", resp.Count)
	}
}
