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

// QuoteHandler handles shipper quote requests and carrier acceptance.
type QuoteHandler struct {
	quotes db.QuoteCollection
	store  *store.Store
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(quotes db.QuoteCollection, s *store.Store) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, store: s}
}

// List returns quote requests still open for pricing.
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.quotes.FindQuotes(r.Context(), bson.M{"accepted": false})
	if err != nil {
		http.Error(w, "Failed to load quote requests", http.StatusInternalServerError)
		return
	}
	if quotes == nil {
		quotes = []models.QuoteRequest{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quotes)
}

// Create posts a shipper's load for carriers to price.
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var quote models.QuoteRequest
	if err := json.Unmarshal(body, &quote); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if quote.Origin == "" || quote.Destination == "" || quote.WeightKg <= 0 {
		http.Error(w, "Origin, destination and weight are required", http.StatusBadRequest)
		return
	}

	quote.RequestID = uuid.NewString()
	quote.ShipperID = claims.Party()
	quote.Accepted = false
	if err := h.quotes.InsertQuote(r.Context(), quote); err != nil {
		http.Error(w, "Failed to create quote request", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(quote)
}

// Accept is a carrier pricing and taking an open quote request. Acceptance
// creates a pending booking at the quoted rate plus the platform markup.
func (h *QuoteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	requestID := r.PathValue("id")
	quote, err := h.quotes.FindQuoteByID(r.Context(), requestID)
	if err != nil {
		http.Error(w, "Quote request not found", http.StatusNotFound)
		return
	}
	if quote.Accepted {
		http.Error(w, "Quote request already accepted", http.StatusConflict)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req struct {
		CarrierName string  `json:"carrier_name"`
		BaseRate    float64 `json:"base_rate"`
		DeliveryPIN string  `json:"delivery_pin"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.BaseRate <= 0 {
		http.Error(w, "A base rate is required", http.StatusBadRequest)
		return
	}

	booking, err := h.store.Create(r.Context(), models.Booking{
		ShipperID:   quote.ShipperID,
		ShipperName: quote.ShipperName,
		CarrierID:   claims.Party(),
		CarrierName: req.CarrierName,
		Origin:      quote.Origin,
		Destination: quote.Destination,
		PickupDate:  quote.PickupDate,
		BaseRate:    req.BaseRate,
		Price:       req.BaseRate * (1 + platformMarkup),
		DeliveryPIN: req.DeliveryPIN,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		http.Error(w, "Failed to create booking", http.StatusInternalServerError)
		return
	}

	if err := h.quotes.MarkAccepted(r.Context(), requestID); err != nil {
		http.Error(w, "Failed to mark quote accepted", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(booking)
}
