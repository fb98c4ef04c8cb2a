package apis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/time/rate"
)

func unlimited(c *httpClient) {
	c.limiter = rate.NewLimiter(rate.Inf, 1)
}

func TestGetRetriesRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	c := newHTTPClient(0, nil, 0)
	unlimited(c)

	body, err := c.get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q", body)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (one retry)", calls)
	}
}

func TestGetDoesNotRetryOther4xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newHTTPClient(0, nil, 0)
	unlimited(c)

	_, err := c.get(context.Background(), srv.URL)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Fatalf("error = %v, want HTTPError 404", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry)", calls)
	}
}

func TestGetSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newHTTPClient(0, map[string]string{"Authorization": "Token secret"}, 0)
	unlimited(c)

	if _, err := c.get(context.Background(), srv.URL); err != nil {
		t.Errorf("authorized request failed: %v", err)
	}
}

func TestNetworkRetryAllowance(t *testing.T) {
	// A server that is already closed produces connect failures.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead := srv.URL
	srv.Close()

	c := newHTTPClient(0, nil, 0)
	unlimited(c)
	_, err := c.get(context.Background(), dead)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("error = %v, want NetworkError", err)
	}
}

func TestStripHTML(t *testing.T) {
	raw := `<!DOCTYPE html><html><body>
	<h1>Executive Order 14123</h1>
	<p>Section 1. Purpose. This order directs agencies &amp; departments.</p>
	<p>Sec. 2. Policy.</p>
	</body></html>`

	text := StripHTML(raw)
	if text == "" {
		t.Fatal("stripped text is empty")
	}
	if want := "This order directs agencies & departments."; !strings.Contains(text, want) {
		t.Errorf("entities not decoded: %q", text)
	}
	if strings.Contains(text, "<p>") || strings.Contains(text, "<html") {
		t.Errorf("tags survived stripping: %q", text)
	}
	// Paragraph breaks survive so section detection still works downstream.
	if !strings.Contains(text, "Sec. 2. Policy.") {
		t.Errorf("section text lost: %q", text)
	}
}

func TestLooksLikeHTML(t *testing.T) {
	if !LooksLikeHTML("<!DOCTYPE html><html>...") {
		t.Error("doctype should be detected")
	}
	if LooksLikeHTML("Executive Order 14123\n\nSection 1. Purpose.") {
		t.Error("plain text misdetected as HTML")
	}
}

func TestOpinionTextFallback(t *testing.T) {
	op := &Opinion{PlainText: "plain body"}
	if op.Text() != "plain body" {
		t.Errorf("Text() = %q", op.Text())
	}

	op = &Opinion{HTMLWithCitations: "<p>html body</p>"}
	if op.Text() != "html body" {
		t.Errorf("Text() = %q, want stripped html", op.Text())
	}

	op = &Opinion{}
	if op.Text() != "" {
		t.Errorf("Text() = %q, want empty", op.Text())
	}
}

func TestNewCourtListenerRequiresToken(t *testing.T) {
	if _, err := NewCourtListener(""); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestOpinionIteratorPagination(t *testing.T) {
	var mux http.ServeMux
	srv := httptest.NewServer(&mux)
	defer srv.Close()

	mux.HandleFunc("/page2", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count": 3, "next": "", "results": [{"id": 3}]}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cluster__docket__court") != "scotus" {
			t.Errorf("missing court filter: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"count": 3, "next": "` + srv.URL + `/page2", "results": [{"id": 1}, {"id": 2}]}`))
	})

	cl, err := NewCourtListener("tok")
	if err != nil {
		t.Fatal(err)
	}
	cl.baseURL = srv.URL
	unlimited(cl.http)

	it := cl.ListOpinions("2024-01-01", "2024-06-30")
	var ids []int
	for {
		op, err := it.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if op == nil {
			break
		}
		ids = append(ids, op.ID)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Errorf("ids = %v, want [1 2 3]", ids)
	}
}

func TestListExecutiveOrdersPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			w.Write([]byte(`{"total_pages": 2, "results": [{"document_number": "2024-001", "executive_order_number": 14100}]}`))
		case "2":
			w.Write([]byte(`{"total_pages": 2, "results": [{"document_number": "2024-002", "executive_order_number": "14101"}]}`))
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()

	fr := NewFederalRegister()
	fr.baseURL = srv.URL
	unlimited(fr.http)

	orders, err := fr.ListExecutiveOrders(context.Background(), "2024-01-01", "2024-06-30")
	if err != nil {
		t.Fatalf("ListExecutiveOrders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("orders = %d, want 2", len(orders))
	}
	// Order numbers arrive as numbers or strings depending on age.
	if orders[0].EONumber() != "14100" || orders[1].EONumber() != "14101" {
		t.Errorf("numbers = %q, %q", orders[0].EONumber(), orders[1].EONumber())
	}
}

func TestGetRawTextStripsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<!DOCTYPE html><html><body><p>Section 1. Purpose.</p></body></html>`))
	}))
	defer srv.Close()

	fr := NewFederalRegister()
	unlimited(fr.http)

	text, err := fr.GetRawText(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("GetRawText: %v", err)
	}
	if text != "Section 1. Purpose." {
		t.Errorf("text = %q", text)
	}
}
