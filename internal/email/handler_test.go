package email

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler_HandleSend(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{"valid email", `{"to":"ana@example.com","subject":"Payment instructions","body":"Rp 100.000"}`, http.StatusOK},
		{"invalid json", `{`, http.StatusBadRequest},
		{"bad recipient", `{"to":"ana","subject":"s"}`, http.StatusBadRequest},
		{"missing subject", `{"to":"ana@example.com"}`, http.StatusBadRequest},
	}

	handler := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.HandleSend(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
		})
	}
}
