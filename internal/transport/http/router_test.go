package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dsek-LTH/new-web/internal/domain"
)

func newTestRouter() http.Handler {
	return NewRouter(RouterConfig{
		Cart:      &stubCartService{result: domain.AddResult{Outcome: domain.AddedToCart}},
		Purchase:  &stubPurchaseService{},
		Confirmer: &stubConfirmer{},
		Admin:     &stubAdminService{},
		Verifier:  &stubVerifier{},
	})
}

func TestRouterNotFound(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), codeNotFound) {
		t.Fatalf("expected json error body, got %q", rec.Body.String())
	}
}

func TestRouterHealth(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRouterRoutesAddToCart(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/cart/s1", nil)
	req.Header.Set(headerMemberID, "member-1")
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"outcome":"added_to_cart"`) {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}
