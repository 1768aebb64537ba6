package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/domain"
)

type sampleRequest struct {
	Name       string `validate:"required"`
	NationalID string `validate:"required,len=11,numeric"`
	Email      string `validate:"omitempty,email"`
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name       string
		req        sampleRequest
		wantFields []string
	}{
		{
			name: "valid request",
			req:  sampleRequest{Name: "Maria", NationalID: "12345678901"},
		},
		{
			name:       "missing name",
			req:        sampleRequest{NationalID: "12345678901"},
			wantFields: []string{"Name"},
		},
		{
			name:       "short non-numeric national id and bad email",
			req:        sampleRequest{Name: "Maria", NationalID: "abc", Email: "nope"},
			wantFields: []string{"NationalID", "Email"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateRequest(tt.req)
			if len(tt.wantFields) == 0 {
				if errs != nil {
					t.Fatalf("expected no errors, got %v", errs)
				}
				return
			}
			got := map[string]bool{}
			for _, e := range errs {
				got[e.Field] = true
				if e.Detail == "" {
					t.Errorf("field %s has empty detail", e.Field)
				}
				if e.Rule == "" {
					t.Errorf("field %s has empty rule", e.Field)
				}
			}
			for _, field := range tt.wantFields {
				if !got[field] {
					t.Errorf("expected error for field %s, got %v", field, errs)
				}
			}
		})
	}
}

func TestCorrelationIDPropagation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CorrelationID())

	var fromCtx string
	r.GET("/ping", func(c *gin.Context) {
		fromCtx = domain.CorrelationIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	// Incoming header is reused.
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Correlation-Id", "cid-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if fromCtx != "cid-123" {
		t.Errorf("expected cid-123 in request context, got %q", fromCtx)
	}
	if got := w.Header().Get("X-Correlation-Id"); got != "cid-123" {
		t.Errorf("expected cid-123 echoed, got %q", got)
	}

	// A missing header gets a generated id.
	req, _ = http.NewRequest(http.MethodGet, "/ping", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if fromCtx == "" || fromCtx == "cid-123" {
		t.Errorf("expected a fresh generated id, got %q", fromCtx)
	}
	if w.Header().Get("X-Correlation-Id") != fromCtx {
		t.Errorf("header and context ids differ")
	}
}
