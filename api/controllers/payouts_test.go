package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	internalpayouts "github.com/campusmart/campusmart-backend/internal/payouts"
	pkgerrors "github.com/campusmart/campusmart-backend/pkg/errors"
)

type stubPayoutsService struct {
	listedSeller *uuid.UUID
	sellerInput  *internalpayouts.SettleSellerInput
	rentalInput  *internalpayouts.SettleRentalInput
	owed         []internalpayouts.SellerOwed
	result       *internalpayouts.SettlementResult
	err          error
}

func (s *stubPayoutsService) ListOwed(_ context.Context, sellerID *uuid.UUID) ([]internalpayouts.SellerOwed, error) {
	s.listedSeller = sellerID
	return s.owed, s.err
}

func (s *stubPayoutsService) SettleSeller(_ context.Context, input internalpayouts.SettleSellerInput) (*internalpayouts.SettlementResult, error) {
	s.sellerInput = &input
	return s.result, s.err
}

func (s *stubPayoutsService) SettleRental(_ context.Context, input internalpayouts.SettleRentalInput) (*internalpayouts.SettlementResult, error) {
	s.rentalInput = &input
	return s.result, s.err
}

func TestListPayoutsParsesSellerFilter(t *testing.T) {
	sellerID := uuid.New()
	svc := &stubPayoutsService{owed: []internalpayouts.SellerOwed{{SellerID: sellerID, TotalOwed: decimal.RequireFromString("150")}}}

	req := authedRequest(http.MethodGet, "/api/admin/v1/payouts?seller_id="+sellerID.String(), "", uuid.New())
	resp := httptest.NewRecorder()
	ListPayouts(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	if svc.listedSeller == nil || *svc.listedSeller != sellerID {
		t.Fatalf("expected filter %s got %v", sellerID, svc.listedSeller)
	}
}

func TestListPayoutsRejectsBadSellerID(t *testing.T) {
	svc := &stubPayoutsService{}
	req := authedRequest(http.MethodGet, "/api/admin/v1/payouts?seller_id=nope", "", uuid.New())
	resp := httptest.NewRecorder()
	ListPayouts(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSettleSellerHandlerPassesActor(t *testing.T) {
	actorID := uuid.New()
	sellerID := uuid.New()
	svc := &stubPayoutsService{result: &internalpayouts.SettlementResult{SellerID: sellerID, AmountApplied: decimal.RequireFromString("300")}}

	body := `{"seller_id":"` + sellerID.String() + `","amount":"300"}`
	req := authedRequest(http.MethodPost, "/api/admin/v1/payouts/settle", body, actorID)
	resp := httptest.NewRecorder()
	SettleSeller(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	if svc.sellerInput == nil {
		t.Fatal("expected settle call")
	}
	if svc.sellerInput.ActorUserID != actorID {
		t.Fatalf("expected actor %s got %s", actorID, svc.sellerInput.ActorUserID)
	}
	if !svc.sellerInput.Amount.Equal(decimal.RequireFromString("300")) {
		t.Fatalf("expected amount 300 got %s", svc.sellerInput.Amount)
	}
}

func TestSettleRentalHandlerReportsRemainingOwed(t *testing.T) {
	rentalID := uuid.New()
	svc := &stubPayoutsService{
		err: pkgerrors.New(pkgerrors.CodeValidation, "payout exceeds amount owed").WithDetails(map[string]any{
			"remaining_owed": "250",
		}),
	}

	req := authedRequest(http.MethodPost, "/api/admin/v1/rentals/"+rentalID.String()+"/payout", `{"amount":"400"}`, uuid.New())
	req = withURLParam(req, "rentalId", rentalID.String())
	resp := httptest.NewRecorder()
	SettleRentalPayout(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error payload: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code got %s", payload.Error.Code)
	}
	if payload.Error.Details["remaining_owed"] != "250" {
		t.Fatalf("expected remaining owed detail, got %v", payload.Error.Details)
	}
}

func TestSettleRentalHandlerPassesAmount(t *testing.T) {
	rentalID := uuid.New()
	svc := &stubPayoutsService{result: &internalpayouts.SettlementResult{AmountApplied: decimal.RequireFromString("150")}}

	req := authedRequest(http.MethodPost, "/api/admin/v1/rentals/"+rentalID.String()+"/payout", `{"amount":"150"}`, uuid.New())
	req = withURLParam(req, "rentalId", rentalID.String())
	resp := httptest.NewRecorder()
	SettleRentalPayout(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	if svc.rentalInput == nil || svc.rentalInput.RentalID != rentalID {
		t.Fatalf("expected rental %s got %+v", rentalID, svc.rentalInput)
	}
	if !svc.rentalInput.Amount.Equal(decimal.RequireFromString("150")) {
		t.Fatalf("expected amount 150 got %s", svc.rentalInput.Amount)
	}
}
