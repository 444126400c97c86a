package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/avelldev/freight-marketplace/internal/models"
	"github.com/avelldev/freight-marketplace/internal/store"
)

type MockListingCollection struct {
	mock.Mock
}

func (m *MockListingCollection) InsertListing(ctx context.Context, l models.Listing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockListingCollection) FindListingByID(ctx context.Context, listingID string) (*models.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingCollection) FindListings(ctx context.Context, filter interface{}) ([]models.Listing, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingCollection) MarkBooked(ctx context.Context, listingID string) error {
	args := m.Called(ctx, listingID)
	return args.Error(0)
}

func TestListingHandler_Create(t *testing.T) {
	t.Run("valid listing", func(t *testing.T) {
		listings := new(MockListingCollection)
		listings.On("InsertListing", mock.Anything, mock.AnythingOfType("models.Listing")).Return(nil)
		handler := NewListingHandler(listings, nil)

		body, _ := json.Marshal(models.Listing{
			CarrierName: "Mzansi Haulage",
			Origin:      "Cape Town",
			Destination: "Johannesburg",
			DepartDate:  time.Now().Add(72 * time.Hour),
			BaseRate:    15000,
		})
		req := authenticatedRequest(http.MethodPost, "/api/listings", body,
			&models.Claims{UserID: "car-01", Role: models.RoleCarrier})
		w := httptest.NewRecorder()
		handler.Create(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var created models.Listing
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotEmpty(t, created.ListingID)
		assert.Equal(t, "car-01", created.CarrierID)
		listings.AssertExpectations(t)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		handler := NewListingHandler(new(MockListingCollection), nil)

		body, _ := json.Marshal(models.Listing{Origin: "Cape Town"})
		req := authenticatedRequest(http.MethodPost, "/api/listings", body,
			&models.Claims{UserID: "car-01", Role: models.RoleCarrier})
		w := httptest.NewRecorder()
		handler.Create(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListingHandler_Book(t *testing.T) {
	listing := &models.Listing{
		ListingID:   "lst-01",
		CarrierID:   "car-01",
		CarrierName: "Mzansi Haulage",
		Origin:      "Cape Town",
		Destination: "Johannesburg",
		DepartDate:  time.Now().Add(72 * time.Hour),
		BaseRate:    10000,
	}

	t.Run("creates a pending booking with the platform markup", func(t *testing.T) {
		listings := new(MockListingCollection)
		listings.On("FindListingByID", mock.Anything, "lst-01").Return(listing, nil)
		listings.On("MarkBooked", mock.Anything, "lst-01").Return(nil)

		mem := store.NewMemoryCollections(nil)
		handler := NewListingHandler(listings, store.New(mem, mem, mem, nil))

		body, _ := json.Marshal(map[string]string{
			"shipper_name": "Karoo Fresh Produce",
			"delivery_pin": "555123",
		})
		req := authenticatedRequest(http.MethodPost, "/api/listings/lst-01/book", body, shipperClaims())
		req.SetPathValue("id", "lst-01")
		w := httptest.NewRecorder()
		handler.Book(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var booking models.Booking
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booking))
		assert.Equal(t, models.StatusPending, booking.Status)
		assert.Equal(t, models.PaymentEscrow, booking.PaymentStatus)
		assert.InDelta(t, 11500, booking.Price, 0.01)
		assert.Equal(t, "shp-01", booking.ShipperID)
		listings.AssertExpectations(t)
	})

	t.Run("already booked", func(t *testing.T) {
		taken := *listing
		taken.Booked = true
		listings := new(MockListingCollection)
		listings.On("FindListingByID", mock.Anything, "lst-01").Return(&taken, nil)

		handler := NewListingHandler(listings, nil)
		req := authenticatedRequest(http.MethodPost, "/api/listings/lst-01/book", nil, shipperClaims())
		req.SetPathValue("id", "lst-01")
		w := httptest.NewRecorder()
		handler.Book(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
