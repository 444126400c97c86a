package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents user roles in the marketplace
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleShipper Role = "shipper"
	RoleCarrier Role = "carrier"
	RoleDriver  Role = "driver"
)

// User represents a user in the system
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	// PartyID is the marketplace participant id booking records reference
	// (shipper_id/carrier_id). Empty means the account id doubles as the
	// participant id.
	PartyID     string     `bson:"party_id,omitempty" json:"party_id,omitempty"`
	CompanyName string     `bson:"company_name" json:"company_name"`
	Verified    bool       `bson:"verified" json:"verified"`
	IsActive    bool       `bson:"is_active" json:"is_active"`
	LastLogin   *time.Time `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name"`
	Role        Role   `json:"role"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	PartyID  string `json:"party_id,omitempty"`
	Exp      int64  `json:"exp"`
}

// Party returns the marketplace participant id the caller acts as. Accounts
// without a distinct party id act under their own account id.
func (c *Claims) Party() string {
	if c.PartyID != "" {
		return c.PartyID
	}
	return c.UserID
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleShipper, RoleCarrier, RoleDriver:
		return true
	default:
		return false
	}
}

// HasPermission checks if a role may perform a specific action. Carriers
// carry update_status because the dispatch desk can progress a booking on a
// driver's behalf.
func (r Role) HasPermission(action string) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleShipper:
		return action == "view_bookings" || action == "create_booking" ||
			action == "request_quote" || action == "verify_delivery" ||
			action == "open_dispute"
	case RoleCarrier:
		return action == "view_bookings" || action == "create_listing" ||
			action == "accept_booking" || action == "update_status" ||
			action == "open_dispute"
	case RoleDriver:
		return action == "view_bookings" || action == "update_status" ||
			action == "confirm_collection" || action == "complete_delivery"
	default:
		return false
	}
}

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(action string) bool {
	return u.Role.HasPermission(action)
}
