package middlewares

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMaxBodyBytes(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		unknownLen  bool
		wantStatus  int
		wantHandler bool
	}{
		{name: "within limit", body: `{"a":1}`, wantStatus: http.StatusOK, wantHandler: true},
		{name: "exactly at limit", body: strings.Repeat("x", 16), wantStatus: http.StatusOK, wantHandler: true},
		{name: "declared too large", body: strings.Repeat("x", 17), wantStatus: http.StatusRequestEntityTooLarge},
		// the handler sees the read error and answers for itself
		{name: "chunked too large", body: strings.Repeat("x", 64), unknownLen: true, wantStatus: http.StatusTeapot, wantHandler: true},
		{name: "no body", wantStatus: http.StatusOK, wantHandler: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false

			r := gin.New()
			r.Use(MaxBodyBytes(16))
			r.POST("/x", func(c *gin.Context) {
				reached = true
				if _, err := io.ReadAll(c.Request.Body); err != nil {
					c.Status(http.StatusTeapot)
					return
				}
				c.Status(http.StatusOK)
			})

			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(http.MethodPost, "/x", body)
			if tt.unknownLen {
				req.ContentLength = -1
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status: got %d want %d", w.Code, tt.wantStatus)
			}
			if reached != tt.wantHandler {
				t.Fatalf("handler reached: got %v want %v", reached, tt.wantHandler)
			}

			if w.Code == http.StatusRequestEntityTooLarge {
				var env struct {
					Error struct {
						Code string `json:"code"`
					} `json:"error"`
				}
				_ = json.Unmarshal(w.Body.Bytes(), &env)
				if env.Error.Code != "payload_too_large" {
					t.Fatalf("code: got %q", env.Error.Code)
				}
			}
		})
	}
}
