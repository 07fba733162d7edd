package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/campusmart/campusmart-backend/internal/payouts"
	"github.com/campusmart/campusmart-backend/pkg/auth"
	"github.com/campusmart/campusmart-backend/pkg/config"
	"github.com/campusmart/campusmart-backend/pkg/enums"
)

type stubPayouts struct {
	listCalls int
}

func (s *stubPayouts) ListOwed(context.Context, *uuid.UUID) ([]payouts.SellerOwed, error) {
	s.listCalls++
	return nil, nil
}

func (s *stubPayouts) SettleSeller(context.Context, payouts.SettleSellerInput) (*payouts.SettlementResult, error) {
	return &payouts.SettlementResult{}, nil
}

func (s *stubPayouts) SettleRental(context.Context, payouts.SettleRentalInput) (*payouts.SettlementResult, error) {
	return &payouts.SettlementResult{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev},
		JWT: config.JWTConfig{Secret: "test-secret", Issuer: "campusmart", ExpirationMinutes: 60},
	}
}

func mintToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterHealthLiveIsPublic(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, nil, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-CampusMart-Env") != config.AppEnvDev {
		t.Fatalf("expected env header, got %q", resp.Header().Get("X-CampusMart-Env"))
	}
}

func TestRouterRequiresToken(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, nil, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/payouts", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRouterAdminRoutesRejectCustomers(t *testing.T) {
	cfg := testConfig()
	svc := &stubPayouts{}
	router := NewRouter(cfg, nil, Deps{Payouts: svc})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/payouts", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	if svc.listCalls != 0 {
		t.Fatalf("handler should not run for customers")
	}
}

func TestRouterAdminRoutesAllowAdmins(t *testing.T) {
	cfg := testConfig()
	svc := &stubPayouts{}
	router := NewRouter(cfg, nil, Deps{Payouts: svc})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/payouts", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	if svc.listCalls != 1 {
		t.Fatalf("expected one list call got %d", svc.listCalls)
	}
}

func TestRouterUnknownRouteIs404(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, nil, Deps{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
