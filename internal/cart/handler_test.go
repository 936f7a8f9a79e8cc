package cart

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/joao-fontenele/digital-storefront/internal/catalog"
	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

type fakeProducts struct {
	products map[string]domain.Product
	err      error
}

func (f *fakeProducts) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return &p, nil
}

func newTestHandler(t *testing.T, products *fakeProducts) (*http.ServeMux, *SessionStore) {
	sessions, _ := setupSessionStore(t)
	handler := NewHandler(sessions, products, slog.New(slog.NewTextHandler(io.Discard, nil)))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart", handler.HandleGet)
	mux.HandleFunc("POST /cart/items", handler.HandleAddItem)
	mux.HandleFunc("DELETE /cart/items/{id}", handler.HandleRemoveItem)
	mux.HandleFunc("DELETE /cart", handler.HandleClear)
	return mux, sessions
}

func catalogProducts() *fakeProducts {
	return &fakeProducts{products: map[string]domain.Product{
		"p1": {ID: "p1", Name: "Go Handbook", Price: 50000, Category: "ebook"},
	}}
}

const testSession = "3f2b7f8e-8f6a-4c8e-9d38-0c6f1f1d2a11"

func sessionRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: testSession})
	return req
}

func TestHandler_AddItem(t *testing.T) {
	t.Run("adds catalog product with server price", func(t *testing.T) {
		mux, sessions := newTestHandler(t, catalogProducts())

		for range 2 {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, sessionRequest(http.MethodPost, "/cart/items", `{"product_id":"p1"}`))
			if rec.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
			}
		}

		store, err := sessions.Load(context.Background(), testSession)
		if err != nil {
			t.Fatalf("failed to load cart: %v", err)
		}
		if store.Total() != 100000 {
			t.Errorf("expected total 100000, got %d", store.Total())
		}
		if store.Len() != 1 {
			t.Errorf("expected merged line, got %d lines", store.Len())
		}
	})

	tests := []struct {
		name           string
		products       *fakeProducts
		body           string
		expectedStatus int
	}{
		{"invalid body", catalogProducts(), `{`, http.StatusBadRequest},
		{"missing product id", catalogProducts(), `{}`, http.StatusBadRequest},
		{"unknown product", catalogProducts(), `{"product_id":"nope"}`, http.StatusNotFound},
		{"catalog failure", &fakeProducts{err: errors.New("boom")}, `{"product_id":"p1"}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, _ := newTestHandler(t, tt.products)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, sessionRequest(http.MethodPost, "/cart/items", tt.body))

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
		})
	}
}

func TestHandler_AddItemConcurrent(t *testing.T) {
	mux, sessions := newTestHandler(t, catalogProducts())

	const adds = 20
	var wg sync.WaitGroup
	codes := make(chan int, adds)
	for range adds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, sessionRequest(http.MethodPost, "/cart/items", `{"product_id":"p1"}`))
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		if code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", code)
		}
	}

	store, err := sessions.Load(context.Background(), testSession)
	if err != nil {
		t.Fatalf("failed to load cart: %v", err)
	}
	if store.Count() != adds {
		t.Errorf("expected %d units after concurrent adds, got %d", adds, store.Count())
	}
}

func TestHandler_RemoveAndClear(t *testing.T) {
	mux, sessions := newTestHandler(t, catalogProducts())
	ctx := context.Background()

	seedCart(t, sessions, testSession, ebook("p1", 100, 1), ebook("p2", 200, 1))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, sessionRequest(http.MethodDelete, "/cart/items/p1", ""))

	var resp cartResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 200 || len(resp.Items) != 1 {
		t.Errorf("expected only p2 left, got %+v", resp)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, sessionRequest(http.MethodDelete, "/cart", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	store, _ := sessions.Load(ctx, testSession)
	if store.Len() != 0 {
		t.Errorf("expected empty cart, got %d lines", store.Len())
	}
}

func TestSessionID(t *testing.T) {
	t.Run("issues cookie when missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		id := SessionID(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Value != id {
			t.Fatalf("expected cart_session cookie with %s, got %+v", id, cookies)
		}
	})

	t.Run("reuses valid cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		id := SessionID(rec, sessionRequest(http.MethodGet, "/cart", ""))

		if id != testSession {
			t.Errorf("expected %s, got %s", testSession, id)
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Errorf("expected no new cookie")
		}
	})

	t.Run("replaces malformed cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "../../etc"})

		rec := httptest.NewRecorder()
		if id := SessionID(rec, req); id == "../../etc" {
			t.Errorf("expected a fresh session id")
		}
	})
}
