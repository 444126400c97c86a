package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/avelldev/freight-marketplace/internal/localstore"
	"github.com/avelldev/freight-marketplace/internal/models"
)

// MemoryCollections backs the booking store without a database: records live
// in memory and are flushed to the durable local store after every mutation.
// When the persisted state is missing or corrupt it falls back to a built-in
// default data set, so the single-device demo never fails to start.
type MemoryCollections struct {
	mu            sync.Mutex
	local         *localstore.Store
	bookings      []models.Booking
	notifications []models.Notification
	disputes      []models.Dispute
	listings      []models.Listing
	quotes        []models.QuoteRequest
	users         []models.User
}

// NewMemoryCollections loads persisted state from the local store, or seeds
// defaults. A nil local store keeps everything in memory only.
func NewMemoryCollections(local *localstore.Store) *MemoryCollections {
	c := &MemoryCollections{local: local}
	if local == nil {
		c.bookings = DefaultBookings()
		c.users = DefaultUsers()
		return c
	}
	if err := local.Get(localstore.KeyBookings, &c.bookings); err != nil {
		if err != localstore.ErrNotFound {
			log.WithError(err).Warn("Falling back to default bookings")
		}
		c.bookings = DefaultBookings()
	}
	if err := local.Get(localstore.KeyUsers, &c.users); err != nil {
		if err != localstore.ErrNotFound {
			log.WithError(err).Warn("Falling back to default accounts")
		}
		c.users = DefaultUsers()
	}
	local.Get(localstore.KeyDisputes, &c.disputes)
	local.Get(localstore.KeyListings, &c.listings)
	local.Get(localstore.KeyQuotes, &c.quotes)
	local.Get(localstore.KeyNotifications, &c.notifications)
	return c
}

func (c *MemoryCollections) flush() {
	c.persist(localstore.KeyBookings, c.bookings)
}

// persist flushes one key. Callers hold the lock.
func (c *MemoryCollections) persist(key string, v interface{}) {
	if c.local == nil {
		return
	}
	if err := c.local.Put(key, v); err != nil {
		log.WithFields(log.Fields{"key": key}).WithError(err).Warn("Failed to persist state")
	}
}

// InsertBooking appends a booking record.
func (c *MemoryCollections) InsertBooking(ctx context.Context, booking models.Booking) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()
	c.bookings = append(c.bookings, booking)
	c.flush()
	return nil
}

// FindBookingByID finds a booking by its marketplace booking id.
func (c *MemoryCollections) FindBookingByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.bookings {
		if b.BookingID == bookingID {
			out := b
			return &out, nil
		}
	}
	return nil, fmt.Errorf("booking not found")
}

// FindBookings returns bookings matching the filter. Only the filter shapes
// the booking store builds are understood: equality on shipper_id/carrier_id
// and a $nin clause on status.
func (c *MemoryCollections) FindBookings(ctx context.Context, filter interface{}) ([]models.Booking, error) {
	f, ok := filter.(bson.M)
	if !ok && filter != nil {
		return nil, fmt.Errorf("unsupported filter type %T", filter)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []models.Booking
	for _, b := range c.bookings {
		if matchBooking(b, f) {
			out = append(out, b)
		}
	}
	return out, nil
}

func matchBooking(b models.Booking, f bson.M) bool {
	for key, want := range f {
		switch key {
		case "shipper_id":
			if b.ShipperID != want {
				return false
			}
		case "carrier_id":
			if b.CarrierID != want {
				return false
			}
		case "status":
			clause, ok := want.(bson.M)
			if !ok {
				if b.Status != want {
					return false
				}
				continue
			}
			if excluded, ok := clause["$nin"].([]models.BookingStatus); ok {
				for _, s := range excluded {
					if b.Status == s {
						return false
					}
				}
			}
		default:
			return false
		}
	}
	return true
}

// UpdateBooking replaces a booking by its marketplace booking id.
func (c *MemoryCollections) UpdateBooking(ctx context.Context, bookingID string, booking models.Booking) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, b := range c.bookings {
		if b.BookingID == bookingID {
			booking.UpdatedAt = time.Now()
			c.bookings[i] = booking
			c.flush()
			return nil
		}
	}
	return fmt.Errorf("booking not found")
}

// InsertNotification appends a notification record.
func (c *MemoryCollections) InsertNotification(ctx context.Context, n models.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	n.CreatedAt = time.Now()
	c.notifications = append(c.notifications, n)
	c.persist(localstore.KeyNotifications, c.notifications)
	return nil
}

// FindNotifications returns notifications for one audience.
func (c *MemoryCollections) FindNotifications(ctx context.Context, audience string) ([]models.Notification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Notification
	for _, n := range c.notifications {
		if n.Audience == audience {
			out = append(out, n)
		}
	}
	return out, nil
}

// InsertDispute appends a dispute record.
func (c *MemoryCollections) InsertDispute(ctx context.Context, d models.Dispute) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d.CreatedAt = time.Now()
	d.UpdatedAt = time.Now()
	c.disputes = append(c.disputes, d)
	c.persist(localstore.KeyDisputes, c.disputes)
	return nil
}

// FindDisputes returns all dispute records; the filter is ignored.
func (c *MemoryCollections) FindDisputes(ctx context.Context, filter interface{}) ([]models.Dispute, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Dispute, len(c.disputes))
	copy(out, c.disputes)
	return out, nil
}

// ResolveDispute marks the open dispute on a booking as resolved.
func (c *MemoryCollections) ResolveDispute(ctx context.Context, bookingID, resolution string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, d := range c.disputes {
		if d.BookingID == bookingID && d.Status == models.DisputeOpen {
			c.disputes[i].Status = models.DisputeResolved
			c.disputes[i].Resolution = resolution
			c.disputes[i].UpdatedAt = time.Now()
			c.persist(localstore.KeyDisputes, c.disputes)
			return nil
		}
	}
	return fmt.Errorf("open dispute not found")
}

// InsertListing appends an empty-leg listing.
func (c *MemoryCollections) InsertListing(ctx context.Context, l models.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	l.CreatedAt = time.Now()
	c.listings = append(c.listings, l)
	c.persist(localstore.KeyListings, c.listings)
	return nil
}

// FindListingByID finds a listing by its marketplace listing id.
func (c *MemoryCollections) FindListingByID(ctx context.Context, listingID string) (*models.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range c.listings {
		if l.ListingID == listingID {
			out := l
			return &out, nil
		}
	}
	return nil, fmt.Errorf("listing not found")
}

// FindListings returns listings matching the filter. Only the booked equality
// filter the listing handler builds is understood.
func (c *MemoryCollections) FindListings(ctx context.Context, filter interface{}) ([]models.Listing, error) {
	f, ok := filter.(bson.M)
	if !ok && filter != nil {
		return nil, fmt.Errorf("unsupported filter type %T", filter)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []models.Listing
	for _, l := range c.listings {
		if want, ok := f["booked"]; ok && l.Booked != want {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// MarkBooked flags a listing as taken.
func (c *MemoryCollections) MarkBooked(ctx context.Context, listingID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, l := range c.listings {
		if l.ListingID == listingID {
			c.listings[i].Booked = true
			c.persist(localstore.KeyListings, c.listings)
			return nil
		}
	}
	return fmt.Errorf("listing not found")
}

// InsertQuote appends a quote request.
func (c *MemoryCollections) InsertQuote(ctx context.Context, q models.QuoteRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	q.CreatedAt = time.Now()
	c.quotes = append(c.quotes, q)
	c.persist(localstore.KeyQuotes, c.quotes)
	return nil
}

// FindQuoteByID finds a quote request by its marketplace request id.
func (c *MemoryCollections) FindQuoteByID(ctx context.Context, requestID string) (*models.QuoteRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range c.quotes {
		if q.RequestID == requestID {
			out := q
			return &out, nil
		}
	}
	return nil, fmt.Errorf("quote request not found")
}

// FindQuotes returns quote requests matching the filter. Only the accepted
// equality filter the quote handler builds is understood.
func (c *MemoryCollections) FindQuotes(ctx context.Context, filter interface{}) ([]models.QuoteRequest, error) {
	f, ok := filter.(bson.M)
	if !ok && filter != nil {
		return nil, fmt.Errorf("unsupported filter type %T", filter)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []models.QuoteRequest
	for _, q := range c.quotes {
		if want, ok := f["accepted"]; ok && q.Accepted != want {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// MarkAccepted flags a quote request as taken.
func (c *MemoryCollections) MarkAccepted(ctx context.Context, requestID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, q := range c.quotes {
		if q.RequestID == requestID {
			c.quotes[i].Accepted = true
			c.persist(localstore.KeyQuotes, c.quotes)
			return nil
		}
	}
	return fmt.Errorf("quote request not found")
}

// InsertUser appends a user record.
func (c *MemoryCollections) InsertUser(ctx context.Context, user models.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	user.IsActive = true
	c.users = append(c.users, user)
	c.persist(localstore.KeyUsers, c.users)
	return nil
}

// FindUserByID finds a user by their account id.
func (c *MemoryCollections) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range c.users {
		if u.ID.Hex() == id {
			out := u
			return &out, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

// FindUserByUsername finds a user by their username.
func (c *MemoryCollections) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range c.users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

// FindUserByEmail finds a user by their email.
func (c *MemoryCollections) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range c.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

// UpdateUser replaces a user record by its account id.
func (c *MemoryCollections) UpdateUser(ctx context.Context, id string, user models.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, u := range c.users {
		if u.ID.Hex() == id {
			user.ID = u.ID
			user.UpdatedAt = time.Now()
			c.users[i] = user
			c.persist(localstore.KeyUsers, c.users)
			return nil
		}
	}
	return fmt.Errorf("user not found")
}

// UpdateLastLogin stamps the user's last login time.
func (c *MemoryCollections) UpdateLastLogin(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, u := range c.users {
		if u.ID.Hex() == id {
			now := time.Now()
			c.users[i].LastLogin = &now
			c.users[i].UpdatedAt = now
			c.persist(localstore.KeyUsers, c.users)
			return nil
		}
	}
	return fmt.Errorf("user not found")
}

// SetVerified flips the admin verification flag on an account.
func (c *MemoryCollections) SetVerified(ctx context.Context, id string, verified bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, u := range c.users {
		if u.ID.Hex() == id {
			c.users[i].Verified = verified
			c.users[i].UpdatedAt = time.Now()
			c.persist(localstore.KeyUsers, c.users)
			return nil
		}
	}
	return fmt.Errorf("user not found")
}

// DefaultBookings is the built-in data set used when nothing is persisted.
func DefaultBookings() []models.Booking {
	now := time.Now()
	return []models.Booking{
		{
			BookingID:     "bk-1001",
			Waybill:       "WB-4F2A19",
			ShipperID:     "shp-01",
			ShipperName:   "Karoo Fresh Produce",
			CarrierID:     "car-01",
			CarrierName:   "Mzansi Haulage",
			Origin:        "Johannesburg",
			Destination:   "Cape Town",
			PickupDate:    now.Add(24 * time.Hour),
			Status:        models.StatusAccepted,
			BaseRate:      18500,
			Price:         21275,
			PaymentStatus: models.PaymentEscrow,
			DeliveryPIN:   "482913",
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			BookingID:     "bk-1002",
			Waybill:       "WB-9C07E3",
			ShipperID:     "shp-02",
			ShipperName:   "Atlas Steel Trading",
			CarrierID:     "car-01",
			CarrierName:   "Mzansi Haulage",
			Origin:        "Durban",
			Destination:   "Bloemfontein",
			PickupDate:    now.Add(48 * time.Hour),
			Status:        models.StatusPending,
			BaseRate:      9200,
			Price:         10580,
			PaymentStatus: models.PaymentEscrow,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}

// DefaultUsers is the built-in account set used when nothing is persisted.
// The driver rides under the carrier's fleet id so its booking view lines up
// with the default bookings.
func DefaultUsers() []models.User {
	now := time.Now()
	demo := func(username, email, password string, role models.Role, partyID, company string) models.User {
		return models.User{
			ID:           primitive.NewObjectID(),
			Username:     username,
			Email:        email,
			PasswordHash: demoHash(password),
			Role:         role,
			PartyID:      partyID,
			CompanyName:  company,
			Verified:     true,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}
	return []models.User{
		demo("driver1", "driver1@mzansihaulage.test", "driver123", models.RoleDriver, "car-01", "Mzansi Haulage"),
		demo("carrier1", "dispatch@mzansihaulage.test", "carrier123", models.RoleCarrier, "car-01", "Mzansi Haulage"),
		demo("shipper1", "orders@karoofresh.test", "shipper123", models.RoleShipper, "shp-01", "Karoo Fresh Produce"),
		demo("admin", "admin@freight.test", "admin123", models.RoleAdmin, "", ""),
	}
}

// demoHash hashes a demo password at the minimum cost. These accounts guard
// nothing real and the default set is rebuilt on every cold start.
func demoHash(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		log.WithError(err).Error("Failed to hash demo password")
		return ""
	}
	return string(hash)
}
