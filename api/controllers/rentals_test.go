package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	internalrentals "github.com/campusmart/campusmart-backend/internal/rentals"
	"github.com/campusmart/campusmart-backend/pkg/db/models"
	pkgerrors "github.com/campusmart/campusmart-backend/pkg/errors"
	"github.com/campusmart/campusmart-backend/pkg/pagination"
)

type stubRentalsService struct {
	created *internalrentals.CreateInput
	calls   []string
	err     error
}

func (s *stubRentalsService) Create(_ context.Context, input internalrentals.CreateInput) (*models.RentalTransaction, error) {
	s.created = &input
	s.calls = append(s.calls, "create")
	if s.err != nil {
		return nil, s.err
	}
	return &models.RentalTransaction{ID: uuid.New()}, nil
}

func (s *stubRentalsService) Activate(_ context.Context, rentalID uuid.UUID) (*models.RentalTransaction, error) {
	s.calls = append(s.calls, "activate:"+rentalID.String())
	if s.err != nil {
		return nil, s.err
	}
	return &models.RentalTransaction{ID: rentalID}, nil
}

func (s *stubRentalsService) Return(_ context.Context, rentalID uuid.UUID) (*models.RentalTransaction, error) {
	s.calls = append(s.calls, "return:"+rentalID.String())
	if s.err != nil {
		return nil, s.err
	}
	return &models.RentalTransaction{ID: rentalID}, nil
}

func (s *stubRentalsService) Cancel(_ context.Context, rentalID uuid.UUID) (*models.RentalTransaction, error) {
	s.calls = append(s.calls, "cancel:"+rentalID.String())
	if s.err != nil {
		return nil, s.err
	}
	return &models.RentalTransaction{ID: rentalID}, nil
}

func (s *stubRentalsService) Get(_ context.Context, rentalID uuid.UUID) (*models.RentalTransaction, error) {
	s.calls = append(s.calls, "get")
	if s.err != nil {
		return nil, s.err
	}
	return &models.RentalTransaction{ID: rentalID}, nil
}

func (s *stubRentalsService) List(context.Context, pagination.Params, internalrentals.ListFilters) (*internalrentals.RentalList, error) {
	s.calls = append(s.calls, "list")
	if s.err != nil {
		return nil, s.err
	}
	return &internalrentals.RentalList{}, nil
}

func (s *stubRentalsService) SettleAccrual(_ context.Context, rentalID uuid.UUID) (*models.RentalTransaction, error) {
	s.calls = append(s.calls, "accrue")
	return &models.RentalTransaction{ID: rentalID}, s.err
}

func (s *stubRentalsService) AccrueActive(context.Context) (int, error) {
	s.calls = append(s.calls, "accrue-active")
	return 0, s.err
}

func TestCreateRentalHandlerPassesInput(t *testing.T) {
	svc := &stubRentalsService{}
	renterID := uuid.New()
	listingID := uuid.New()

	body := `{"listing_id":"` + listingID.String() + `","agreed_days":5,"renter_name":"Asha","renter_room":"H2-114","renter_phone":"9876543210"}`
	req := authedRequest(http.MethodPost, "/api/v1/rentals", body, renterID)
	resp := httptest.NewRecorder()
	CreateRental(svc, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", resp.Code, resp.Body.String())
	}
	if svc.created == nil {
		t.Fatal("expected create call")
	}
	if svc.created.RenterID != renterID || svc.created.ListingID != listingID {
		t.Fatalf("unexpected identities %+v", svc.created)
	}
	if svc.created.AgreedDays != 5 {
		t.Fatalf("expected 5 agreed days got %d", svc.created.AgreedDays)
	}
}

func TestCreateRentalHandlerRejectsMissingFields(t *testing.T) {
	svc := &stubRentalsService{}
	req := authedRequest(http.MethodPost, "/api/v1/rentals", `{"agreed_days":5}`, uuid.New())
	resp := httptest.NewRecorder()
	CreateRental(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.created != nil {
		t.Fatal("service should not run on invalid body")
	}
}

func TestRentalTransitionsDispatchByRoute(t *testing.T) {
	rentalID := uuid.New()
	tests := []struct {
		name    string
		handler func(internalrentals.Service, *httptest.ResponseRecorder, *http.Request)
		want    string
	}{
		{"activate", func(svc internalrentals.Service, w *httptest.ResponseRecorder, r *http.Request) {
			ActivateRental(svc, nil)(w, r)
		}, "activate:" + rentalID.String()},
		{"return", func(svc internalrentals.Service, w *httptest.ResponseRecorder, r *http.Request) {
			ReturnRental(svc, nil)(w, r)
		}, "return:" + rentalID.String()},
		{"cancel", func(svc internalrentals.Service, w *httptest.ResponseRecorder, r *http.Request) {
			CancelRental(svc, nil)(w, r)
		}, "cancel:" + rentalID.String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubRentalsService{}
			req := authedRequest(http.MethodPost, "/api/admin/v1/rentals/"+rentalID.String()+"/"+tt.name, "", uuid.New())
			req = withURLParam(req, "rentalId", rentalID.String())
			resp := httptest.NewRecorder()
			tt.handler(svc, resp, req)

			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
			}
			if len(svc.calls) != 1 || svc.calls[0] != tt.want {
				t.Fatalf("expected call %s got %v", tt.want, svc.calls)
			}
		})
	}
}

func TestRentalTransitionSurfacesConflict(t *testing.T) {
	svc := &stubRentalsService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "only pending rentals can be activated")}
	rentalID := uuid.New()

	req := authedRequest(http.MethodPost, "/api/admin/v1/rentals/"+rentalID.String()+"/activate", "", uuid.New())
	req = withURLParam(req, "rentalId", rentalID.String())
	resp := httptest.NewRecorder()
	ActivateRental(svc, nil)(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestRentalTransitionRejectsBadID(t *testing.T) {
	svc := &stubRentalsService{}
	req := authedRequest(http.MethodPost, "/api/admin/v1/rentals/nope/return", "", uuid.New())
	req = withURLParam(req, "rentalId", "nope")
	resp := httptest.NewRecorder()
	ReturnRental(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if len(svc.calls) != 0 {
		t.Fatalf("expected no service calls, got %v", svc.calls)
	}
}
