package webhook

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(flows *recordingFlows) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := NewHandler(newTestService(flows))
	engine.POST("/api/v1/webhook/whatsapp", h.HandleInbound)
	return engine
}

func TestHandleInboundAcknowledgesValidDelivery(t *testing.T) {
	flows := &recordingFlows{}
	router := newTestRouter(flows)

	body := `{"type":"whatsapp","data":{"message":"ACEPTO 7","phone":"+573001112233"}}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/whatsapp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("got %d %q, want 200 OK", rec.Code, rec.Body.String())
	}
	if len(flows.accepted) != 1 {
		t.Fatal("expected purchase dispatch")
	}
}

func TestHandleInboundAcknowledgesMalformedBody(t *testing.T) {
	router := newTestRouter(&recordingFlows{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/whatsapp", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("malformed payloads must still get 200, got %d", rec.Code)
	}
}

func TestHandleInboundReportsIgnoredDuplicates(t *testing.T) {
	router := newTestRouter(&recordingFlows{})
	body := `{"type":"whatsapp","data":{"message":"ACEPTO","phone":"573001112233"}}`

	for i, want := range []string{"OK", "Ignored"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/whatsapp", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("delivery %d: got %d %q, want 200 %q", i, rec.Code, rec.Body.String(), want)
		}
	}
}
