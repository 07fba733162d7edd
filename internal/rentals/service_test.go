package rentals

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/campusmart/campusmart-backend/pkg/db/models"
	"github.com/campusmart/campusmart-backend/pkg/enums"
	pkgerrors "github.com/campusmart/campusmart-backend/pkg/errors"
	"github.com/campusmart/campusmart-backend/pkg/pagination"
)

type stubRepo struct {
	rentals  map[uuid.UUID]*models.RentalTransaction
	listings map[uuid.UUID]*models.Listing
	// accrualConflict makes ApplyAccrual report a lost conditional update.
	accrualConflict bool
	accrualApplied  int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		rentals:  map[uuid.UUID]*models.RentalTransaction{},
		listings: map[uuid.UUID]*models.Listing{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, rental *models.RentalTransaction) (*models.RentalTransaction, error) {
	if rental.ID == uuid.Nil {
		rental.ID = uuid.New()
	}
	rental.CreatedAt = time.Now()
	s.rentals[rental.ID] = rental
	return rental, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.RentalTransaction, error) {
	rental, ok := s.rentals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *rental
	return &copied, nil
}

func (s *stubRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.RentalTransaction, error) {
	return s.FindByID(ctx, id)
}

func (s *stubRepo) FindListingByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	listing, ok := s.listings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *listing
	return &copied, nil
}

func (s *stubRepo) ReserveListingUnit(ctx context.Context, listingID uuid.UUID) (bool, error) {
	listing, ok := s.listings[listingID]
	if !ok || !listing.IsActive || listing.CurrentlyRented >= listing.TotalQuantity {
		return false, nil
	}
	listing.CurrentlyRented++
	return true, nil
}

func (s *stubRepo) ReleaseListingUnit(ctx context.Context, listingID uuid.UUID) error {
	listing, ok := s.listings[listingID]
	if ok && listing.CurrentlyRented > 0 {
		listing.CurrentlyRented--
	}
	return nil
}

func (s *stubRepo) Update(ctx context.Context, rentalID uuid.UUID, updates map[string]any) error {
	rental, ok := s.rentals[rentalID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "status":
			rental.Status = value.(enums.RentalStatus)
		case "payment_status":
			rental.PaymentStatus = value.(enums.RentalPaymentStatus)
		case "amount_owed_to_seller":
			rental.AmountOwedToSeller = value.(decimal.Decimal)
		case "days_rented":
			rental.DaysRented = value.(int)
		case "start_date":
			rental.StartDate = value.(time.Time)
		case "last_calculated":
			rental.LastCalculated = value.(time.Time)
		case "returned_at":
			at := value.(time.Time)
			rental.ReturnedAt = &at
		}
	}
	return nil
}

func (s *stubRepo) ApplyAccrual(ctx context.Context, rentalID uuid.UUID, prevCalculated time.Time, change AccrualChange) (bool, error) {
	if s.accrualConflict {
		return false, nil
	}
	rental, ok := s.rentals[rentalID]
	if !ok || !rental.LastCalculated.Equal(prevCalculated) {
		return false, nil
	}
	rental.DaysRented = change.DaysRented
	rental.AmountOwedToSeller = change.AmountOwed
	rental.LastCalculated = change.CalculatedAt
	s.accrualApplied++
	return true, nil
}

func (s *stubRepo) ListAccruable(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, rental := range s.rentals {
		if rental.Status == enums.RentalStatusActive && rental.PaymentStatus == enums.RentalPaymentStatusPaid {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *stubRepo) List(ctx context.Context, params pagination.Params, filters ListFilters) (*RentalList, error) {
	panic("not implemented")
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo *stubRepo, now func() time.Time) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo: repo,
		Tx:   stubTxRunner{},
		Loc:  time.UTC,
		Now:  now,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func seedListing(repo *stubRepo, total, rented int, active bool) *models.Listing {
	listing := &models.Listing{
		ID:                uuid.New(),
		SellerID:          uuid.New(),
		Title:             "Mini Fridge",
		RentPerDay:        decimal.NewFromInt(100),
		PlatformFeePerDay: decimal.NewFromInt(20),
		SecurityDeposit:   decimal.NewFromInt(500),
		TotalQuantity:     total,
		CurrentlyRented:   rented,
		IsActive:          active,
		SellerName:        "Asha",
	}
	repo.listings[listing.ID] = listing
	return listing
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testStart = time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

func TestCreateRentalSnapshotsTerms(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, fixedNow(testStart))
	listing := seedListing(repo, 2, 0, true)

	rental, err := svc.Create(context.Background(), CreateInput{
		ListingID:  listing.ID,
		RenterID:   uuid.New(),
		AgreedDays: 5,
		RenterName: "Ravi",
		RenterRoom: "A-101",
	})
	if err != nil {
		t.Fatalf("create rental: %v", err)
	}
	if rental.Status != enums.RentalStatusPending || rental.PaymentStatus != enums.RentalPaymentStatusPending {
		t.Fatalf("new rental must start pending/pending, got %s/%s", rental.Status, rental.PaymentStatus)
	}
	if !rental.RentPerDay.Equal(listing.RentPerDay) || !rental.PlatformFeePerDay.Equal(listing.PlatformFeePerDay) {
		t.Fatal("rental must snapshot the listing terms")
	}
	// 100x5 + 500 deposit
	if !rental.TotalPaid.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected total paid 1000 got %s", rental.TotalPaid)
	}
	if rental.DaysRented != 5 {
		t.Fatalf("expected seeded days rented 5 got %d", rental.DaysRented)
	}
	if !rental.AmountOwedToSeller.IsZero() {
		t.Fatalf("nothing is owed before activation, got %s", rental.AmountOwedToSeller)
	}
	if listing.CurrentlyRented != 1 {
		t.Fatalf("expected listing unit claimed, rented=%d", listing.CurrentlyRented)
	}
	if rental.SellerName != "Asha" {
		t.Fatalf("expected seller snapshot got %q", rental.SellerName)
	}
}

func TestCreateRentalNoUnitsAvailable(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, fixedNow(testStart))
	listing := seedListing(repo, 1, 1, true)

	_, err := svc.Create(context.Background(), CreateInput{
		ListingID:  listing.ID,
		RenterID:   uuid.New(),
		AgreedDays: 3,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict got %v", err)
	}
}

func TestCreateRentalInactiveListing(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, fixedNow(testStart))
	listing := seedListing(repo, 2, 0, false)

	_, err := svc.Create(context.Background(), CreateInput{
		ListingID:  listing.ID,
		RenterID:   uuid.New(),
		AgreedDays: 3,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict got %v", err)
	}
}

func TestCreateRentalInvalidDays(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, fixedNow(testStart))
	listing := seedListing(repo, 2, 0, true)

	_, err := svc.Create(context.Background(), CreateInput{
		ListingID:  listing.ID,
		RenterID:   uuid.New(),
		AgreedDays: 0,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func createTestRental(t *testing.T, repo *stubRepo, svc Service) *models.RentalTransaction {
	t.Helper()
	listing := seedListing(repo, 2, 0, true)
	rental, err := svc.Create(context.Background(), CreateInput{
		ListingID:  listing.ID,
		RenterID:   uuid.New(),
		AgreedDays: 5,
	})
	if err != nil {
		t.Fatalf("create rental: %v", err)
	}
	return rental
}

func TestActivateEarnsAgreedPeriod(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, fixedNow(testStart))
	rental := createTestRental(t, repo, svc)

	activated, err := svc.Activate(context.Background(), rental.ID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if activated.Status != enums.RentalStatusActive || activated.PaymentStatus != enums.RentalPaymentStatusPaid {
		t.Fatalf("expected active/paid got %s/%s", activated.Status, activated.PaymentStatus)
	}
	// (100-20) x 5 agreed days
	if !activated.AmountOwedToSeller.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("expected 400 owed got %s", activated.AmountOwedToSeller)
	}
	if !activated.StartDate.Equal(testStart) {
		t.Fatalf("activation must stamp the start date, got %s", activated.StartDate)
	}
}

func TestActivateRequiresPending(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, fixedNow(testStart))
	rental := createTestRental(t, repo, svc)

	if _, err := svc.Activate(context.Background(), rental.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	_, err := svc.Activate(context.Background(), rental.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestSettleAccrualExtendsPastAgreedPeriod(t *testing.T) {
	repo := newStubRepo()
	now := testStart
	svc := newTestService(t, repo, func() time.Time { return now })
	rental := createTestRental(t, repo, svc)
	if _, err := svc.Activate(context.Background(), rental.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	// inside the agreed period nothing moves
	now = testStart.AddDate(0, 0, 3)
	settled, err := svc.SettleAccrual(context.Background(), rental.ID)
	if err != nil {
		t.Fatalf("settle accrual: %v", err)
	}
	if settled.DaysRented != 5 || !settled.AmountOwedToSeller.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("accrual inside agreed period must not move, got %d/%s", settled.DaysRented, settled.AmountOwedToSeller)
	}

	// day 8: the rental ran long
	now = testStart.AddDate(0, 0, 8)
	settled, err = svc.SettleAccrual(context.Background(), rental.ID)
	if err != nil {
		t.Fatalf("settle accrual: %v", err)
	}
	if settled.DaysRented != 8 {
		t.Fatalf("expected 8 days got %d", settled.DaysRented)
	}
	if !settled.AmountOwedToSeller.Equal(decimal.NewFromInt(640)) {
		t.Fatalf("expected 640 owed got %s", settled.AmountOwedToSeller)
	}

	// a second run the same day applies nothing
	applied := repo.accrualApplied
	if _, err := svc.SettleAccrual(context.Background(), rental.ID); err != nil {
		t.Fatalf("settle accrual: %v", err)
	}
	if repo.accrualApplied != applied {
		t.Fatal("re-running accrual must be a no-op")
	}
}

func TestSettleAccrualLostRaceReloads(t *testing.T) {
	repo := newStubRepo()
	now := testStart
	svc := newTestService(t, repo, func() time.Time { return now })
	rental := createTestRental(t, repo, svc)
	if _, err := svc.Activate(context.Background(), rental.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	repo.accrualConflict = true
	now = testStart.AddDate(0, 0, 8)
	settled, err := svc.SettleAccrual(context.Background(), rental.ID)
	if err != nil {
		t.Fatalf("losing the conditional update must not error: %v", err)
	}
	if settled.DaysRented != 5 {
		t.Fatalf("expected stored state back got %d days", settled.DaysRented)
	}
}

func TestReturnFreezesAccrualAndFreesUnit(t *testing.T) {
	repo := newStubRepo()
	now := testStart
	svc := newTestService(t, repo, func() time.Time { return now })
	rental := createTestRental(t, repo, svc)
	if _, err := svc.Activate(context.Background(), rental.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	now = testStart.AddDate(0, 0, 7)
	returned, err := svc.Return(context.Background(), rental.ID)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.Status != enums.RentalStatusReturned || returned.ReturnedAt == nil {
		t.Fatalf("expected returned with stamp got %+v", returned)
	}
	if returned.DaysRented != 7 || !returned.AmountOwedToSeller.Equal(decimal.NewFromInt(560)) {
		t.Fatalf("expected final accrual 7 days / 560, got %d/%s", returned.DaysRented, returned.AmountOwedToSeller)
	}
	listing := repo.listings[rental.ListingID]
	if listing.CurrentlyRented != 0 {
		t.Fatalf("expected listing unit freed, rented=%d", listing.CurrentlyRented)
	}

	_, err = svc.Return(context.Background(), rental.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on double return got %v", err)
	}
}

func TestReturnEarlyKeepsAgreedEarning(t *testing.T) {
	repo := newStubRepo()
	now := testStart
	svc := newTestService(t, repo, func() time.Time { return now })
	rental := createTestRental(t, repo, svc)
	if _, err := svc.Activate(context.Background(), rental.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	now = testStart.AddDate(0, 0, 2)
	returned, err := svc.Return(context.Background(), rental.ID)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.DaysRented != 5 || !returned.AmountOwedToSeller.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("early return must keep the agreed earning, got %d/%s", returned.DaysRented, returned.AmountOwedToSeller)
	}
}

func TestCancelPendingFreesUnit(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, fixedNow(testStart))
	rental := createTestRental(t, repo, svc)

	cancelled, err := svc.Cancel(context.Background(), rental.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.RentalStatusCancelled {
		t.Fatalf("expected cancelled got %s", cancelled.Status)
	}
	listing := repo.listings[rental.ListingID]
	if listing.CurrentlyRented != 0 {
		t.Fatalf("expected listing unit freed, rented=%d", listing.CurrentlyRented)
	}

	// cancelling again must not free another unit
	listing.CurrentlyRented = 1
	if _, err := svc.Cancel(context.Background(), rental.ID); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if listing.CurrentlyRented != 1 {
		t.Fatal("second cancel must not release stock again")
	}
}

func TestCancelActiveRejected(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, fixedNow(testStart))
	rental := createTestRental(t, repo, svc)
	if _, err := svc.Activate(context.Background(), rental.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	_, err := svc.Cancel(context.Background(), rental.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestAccrueActiveCountsMovedRentals(t *testing.T) {
	repo := newStubRepo()
	now := testStart
	svc := newTestService(t, repo, func() time.Time { return now })

	long := createTestRental(t, repo, svc)
	if _, err := svc.Activate(context.Background(), long.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	pending := createTestRental(t, repo, svc)
	_ = pending

	now = testStart.AddDate(0, 0, 9)
	updated, err := svc.AccrueActive(context.Background())
	if err != nil {
		t.Fatalf("accrue active: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 rental moved got %d", updated)
	}
	moved, err := svc.Get(context.Background(), long.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if moved.DaysRented != 9 {
		t.Fatalf("expected 9 days got %d", moved.DaysRented)
	}
}
