package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/avelldev/freight-marketplace/internal/db"
	"github.com/avelldev/freight-marketplace/internal/middleware"
	"github.com/avelldev/freight-marketplace/internal/models"
)

// AdminHandler handles the admin panel's dispute and verification actions.
type AdminHandler struct {
	users    db.UserCollection
	disputes db.DisputeCollection
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(users db.UserCollection, disputes db.DisputeCollection) *AdminHandler {
	return &AdminHandler{users: users, disputes: disputes}
}

// ListDisputes returns all dispute records.
func (h *AdminHandler) ListDisputes(w http.ResponseWriter, r *http.Request) {
	disputes, err := h.disputes.FindDisputes(r.Context(), bson.M{})
	if err != nil {
		http.Error(w, "Failed to load disputes", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(disputes)
}

// ResolveDispute records the admin's resolution on an open dispute. The
// booking itself stays in its terminal disputed status.
func (h *AdminHandler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req struct {
		Resolution string `json:"resolution"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Resolution == "" {
		http.Error(w, "A resolution is required", http.StatusBadRequest)
		return
	}

	if err := h.disputes.ResolveDispute(r.Context(), bookingID, req.Resolution); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Dispute resolved"})
}

// VerifyUser flips the verification flag on a shipper or carrier account.
func (h *AdminHandler) VerifyUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	req := struct {
		Verified bool `json:"verified"`
	}{Verified: true}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}

	if err := h.users.SetVerified(r.Context(), userID, req.Verified); err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	user, err := h.users.FindUserByID(r.Context(), userID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// NotificationHandler returns the caller's notification feed.
type NotificationHandler struct {
	notifications db.NotificationCollection
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(n db.NotificationCollection) *NotificationHandler {
	return &NotificationHandler{notifications: n}
}

// List returns notifications addressed to the calling user.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	notifications, err := h.notifications.FindNotifications(r.Context(), claims.Party())
	if err != nil {
		http.Error(w, "Failed to load notifications", http.StatusInternalServerError)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifications)
}
