package db

import (
	"context"
	"time"

	"github.com/avelldev/freight-marketplace/internal/models"
)

// BookingCollection defines the interface for booking data operations.
type BookingCollection interface {
	InsertBooking(ctx context.Context, booking models.Booking) error
	FindBookingByID(ctx context.Context, bookingID string) (*models.Booking, error)
	FindBookings(ctx context.Context, filter interface{}) ([]models.Booking, error)
	UpdateBooking(ctx context.Context, bookingID string, booking models.Booking) error
}

// NotificationCollection defines the interface for notification records.
type NotificationCollection interface {
	InsertNotification(ctx context.Context, n models.Notification) error
	FindNotifications(ctx context.Context, audience string) ([]models.Notification, error)
}

// DisputeCollection defines the interface for dispute records.
type DisputeCollection interface {
	InsertDispute(ctx context.Context, d models.Dispute) error
	FindDisputes(ctx context.Context, filter interface{}) ([]models.Dispute, error)
	ResolveDispute(ctx context.Context, bookingID, resolution string) error
}

// ListingCollection defines the interface for empty-leg listings.
type ListingCollection interface {
	InsertListing(ctx context.Context, l models.Listing) error
	FindListingByID(ctx context.Context, listingID string) (*models.Listing, error)
	FindListings(ctx context.Context, filter interface{}) ([]models.Listing, error)
	MarkBooked(ctx context.Context, listingID string) error
}

// QuoteCollection defines the interface for shipper quote requests.
type QuoteCollection interface {
	InsertQuote(ctx context.Context, q models.QuoteRequest) error
	FindQuoteByID(ctx context.Context, requestID string) (*models.QuoteRequest, error)
	FindQuotes(ctx context.Context, filter interface{}) ([]models.QuoteRequest, error)
	MarkAccepted(ctx context.Context, requestID string) error
}

// DocumentCollection defines the interface for carrier compliance documents.
type DocumentCollection interface {
	InsertDocument(ctx context.Context, d models.ComplianceDocument) error
	FindExpiring(ctx context.Context, before time.Time) ([]models.ComplianceDocument, error)
}
