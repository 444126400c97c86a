package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/avelldev/freight-marketplace/internal/db"
	"github.com/avelldev/freight-marketplace/internal/middleware"
	"github.com/avelldev/freight-marketplace/internal/models"
	"github.com/avelldev/freight-marketplace/internal/store"
)

// Shipper-facing price includes the platform markup on the carrier's rate.
const platformMarkup = 0.15

// ListingHandler handles empty-leg listings and the booking of them.
type ListingHandler struct {
	listings db.ListingCollection
	store    *store.Store
}

// NewListingHandler creates a new listing handler.
func NewListingHandler(listings db.ListingCollection, s *store.Store) *ListingHandler {
	return &ListingHandler{listings: listings, store: s}
}

// List returns listings still open for booking.
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.FindListings(r.Context(), bson.M{"booked": false})
	if err != nil {
		http.Error(w, "Failed to load listings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listings)
}

// Create publishes a carrier's spare capacity on the marketplace.
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var listing models.Listing
	if err := json.Unmarshal(body, &listing); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if listing.Origin == "" || listing.Destination == "" || listing.BaseRate <= 0 {
		http.Error(w, "Origin, destination and base rate are required", http.StatusBadRequest)
		return
	}

	listing.ListingID = uuid.NewString()
	listing.CarrierID = claims.Party()
	listing.Booked = false
	if err := h.listings.InsertListing(r.Context(), listing); err != nil {
		http.Error(w, "Failed to create listing", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(listing)
}

// Book turns an open listing into a pending booking for the calling shipper.
func (h *ListingHandler) Book(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	listingID := r.PathValue("id")
	listing, err := h.listings.FindListingByID(r.Context(), listingID)
	if err != nil {
		http.Error(w, "Listing not found", http.StatusNotFound)
		return
	}
	if listing.Booked {
		http.Error(w, "Listing already booked", http.StatusConflict)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req struct {
		ShipperName string `json:"shipper_name"`
		DeliveryPIN string `json:"delivery_pin"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}

	booking, err := h.store.Create(r.Context(), models.Booking{
		ShipperID:   claims.Party(),
		ShipperName: req.ShipperName,
		CarrierID:   listing.CarrierID,
		CarrierName: listing.CarrierName,
		Origin:      listing.Origin,
		Destination: listing.Destination,
		PickupDate:  listing.DepartDate,
		BaseRate:    listing.BaseRate,
		Price:       listing.BaseRate * (1 + platformMarkup),
		DeliveryPIN: req.DeliveryPIN,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		http.Error(w, "Failed to create booking", http.StatusInternalServerError)
		return
	}

	if err := h.listings.MarkBooked(r.Context(), listingID); err != nil {
		http.Error(w, "Failed to mark listing booked", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(booking)
}
