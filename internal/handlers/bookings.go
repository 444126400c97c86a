package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/avelldev/freight-marketplace/internal/lifecycle"
	"github.com/avelldev/freight-marketplace/internal/middleware"
	"github.com/avelldev/freight-marketplace/internal/models"
	"github.com/avelldev/freight-marketplace/internal/store"
)

// BookingHandler handles booking lifecycle requests.
type BookingHandler struct {
	store *store.Store
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(s *store.Store) *BookingHandler {
	return &BookingHandler{store: s}
}

// List returns the caller's bookings, scoped by their role. Drivers only
// see active jobs.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	bookings, err := h.store.Get(r.Context(), claims.Role, claims.Party())
	if err != nil {
		http.Error(w, "Failed to load bookings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bookings)
}

// Transition applies one status transition to a booking. A rejected
// transition returns the policy's reason and leaves the booking unchanged.
func (h *BookingHandler) Transition(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	bookingID := r.PathValue("id")
	if bookingID == "" {
		http.Error(w, "Booking id is required", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req struct {
		Target   models.BookingStatus `json:"target"`
		Evidence models.Evidence      `json:"evidence"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	booking, err := h.store.Apply(r.Context(), bookingID, store.TransitionRequest{
		ActorID:   claims.Party(),
		ActorRole: claims.Role,
		Target:    req.Target,
		Evidence:  req.Evidence,
	})
	if err != nil {
		http.Error(w, err.Error(), transitionStatusCode(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(booking)
}

// Verify is the shipper's confirmation of a delivered booking. It completes
// the booking and releases the escrowed payment.
func (h *BookingHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	bookingID := r.PathValue("id")
	booking, err := h.store.Apply(r.Context(), bookingID, store.TransitionRequest{
		ActorID:   claims.Party(),
		ActorRole: claims.Role,
		Target:    models.StatusCompleted,
	})
	if err != nil {
		http.Error(w, err.Error(), transitionStatusCode(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(booking)
}

// Dispute flags a booking, moving it to the terminal disputed status.
func (h *BookingHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	bookingID := r.PathValue("id")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Reason == "" {
		http.Error(w, "A dispute reason is required", http.StatusBadRequest)
		return
	}

	booking, err := h.store.OpenDispute(r.Context(), bookingID, claims.Party(), req.Reason)
	if err != nil {
		http.Error(w, err.Error(), transitionStatusCode(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(booking)
}

// transitionStatusCode maps store and policy errors onto HTTP statuses.
func transitionStatusCode(err error) int {
	switch {
	case errors.Is(err, lifecycle.ErrNotSuccessor),
		errors.Is(err, lifecycle.ErrMissingEvidence),
		errors.Is(err, lifecycle.ErrSealNumberEmpty),
		errors.Is(err, lifecycle.ErrPINMismatch),
		errors.Is(err, lifecycle.ErrAlreadyTerminal),
		errors.Is(err, lifecycle.ErrUnknownStatus):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrVerifyNotShipper),
		errors.Is(err, store.ErrActorNotAllowed):
		return http.StatusForbidden
	default:
		return http.StatusNotFound
	}
}
