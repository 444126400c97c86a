package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/avelldev/freight-marketplace/internal/localstore"
	"github.com/avelldev/freight-marketplace/internal/models"
)

func TestMemoryCollections_SeedsDemoAccounts(t *testing.T) {
	mem := NewMemoryCollections(nil)
	ctx := context.Background()

	driver, err := mem.FindUserByUsername(ctx, "driver1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleDriver, driver.Role)
	assert.Equal(t, "car-01", driver.PartyID)
	assert.True(t, driver.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(driver.PasswordHash), []byte("driver123")))

	// The driver's party id matches the seeded bookings' carrier id, so its
	// booking view is non-empty from the first login.
	s := New(mem, mem, mem, nil)
	jobs, err := s.Get(ctx, models.RoleDriver, driver.PartyID)
	require.NoError(t, err)
	assert.NotEmpty(t, jobs)

	shipper, err := mem.FindUserByUsername(ctx, "shipper1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleShipper, shipper.Role)
	assert.Equal(t, "shp-01", shipper.PartyID)

	admin, err := mem.FindUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Empty(t, admin.PartyID)
}

func TestMemoryCollections_UserLifecycle(t *testing.T) {
	mem := NewMemoryCollections(nil)
	ctx := context.Background()

	user := models.User{
		ID:       primitive.NewObjectID(),
		Username: "newcarrier",
		Email:    "ops@newcarrier.test",
		Role:     models.RoleCarrier,
	}
	require.NoError(t, mem.InsertUser(ctx, user))

	found, err := mem.FindUserByEmail(ctx, "ops@newcarrier.test")
	require.NoError(t, err)
	assert.Equal(t, "newcarrier", found.Username)
	assert.True(t, found.IsActive)
	assert.False(t, found.Verified)

	require.NoError(t, mem.UpdateLastLogin(ctx, user.ID.Hex()))
	found, err = mem.FindUserByID(ctx, user.ID.Hex())
	require.NoError(t, err)
	require.NotNil(t, found.LastLogin)
	assert.WithinDuration(t, time.Now(), *found.LastLogin, time.Minute)

	require.NoError(t, mem.SetVerified(ctx, user.ID.Hex(), true))
	found, err = mem.FindUserByID(ctx, user.ID.Hex())
	require.NoError(t, err)
	assert.True(t, found.Verified)

	_, err = mem.FindUserByID(ctx, primitive.NewObjectID().Hex())
	assert.Error(t, err)
	assert.Error(t, mem.UpdateLastLogin(ctx, primitive.NewObjectID().Hex()))
}

func TestMemoryCollections_UsersSurviveRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	local, err := localstore.Open(dir)
	require.NoError(t, err)
	mem := NewMemoryCollections(local)

	user := models.User{
		ID:       primitive.NewObjectID(),
		Username: "restartable",
		Email:    "restart@freight.test",
		Role:     models.RoleShipper,
		PartyID:  "shp-99",
	}
	require.NoError(t, mem.InsertUser(ctx, user))

	reopened, err := localstore.Open(dir)
	require.NoError(t, err)
	mem2 := NewMemoryCollections(reopened)

	found, err := mem2.FindUserByUsername(ctx, "restartable")
	require.NoError(t, err)
	assert.Equal(t, "shp-99", found.PartyID)

	// The seeded accounts were flushed alongside the insert.
	_, err = mem2.FindUserByUsername(ctx, "driver1")
	assert.NoError(t, err)
}

func TestMemoryCollections_NotificationsSurviveRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	local, err := localstore.Open(dir)
	require.NoError(t, err)
	mem := NewMemoryCollections(local)

	require.NoError(t, mem.InsertNotification(ctx, models.Notification{
		BookingID: "bk-1001",
		Audience:  "shp-01",
		Message:   "Booking WB-4F2A19 is in transit",
	}))

	reopened, err := localstore.Open(dir)
	require.NoError(t, err)
	mem2 := NewMemoryCollections(reopened)

	feed, err := mem2.FindNotifications(ctx, "shp-01")
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "Booking WB-4F2A19 is in transit", feed[0].Message)
}
