package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/avelldev/freight-marketplace/internal/auth"
	"github.com/avelldev/freight-marketplace/internal/compliance"
	"github.com/avelldev/freight-marketplace/internal/db"
	"github.com/avelldev/freight-marketplace/internal/handlers"
	"github.com/avelldev/freight-marketplace/internal/localstore"
	"github.com/avelldev/freight-marketplace/internal/middleware"
	"github.com/avelldev/freight-marketplace/internal/models"
	"github.com/avelldev/freight-marketplace/internal/notify"
	"github.com/avelldev/freight-marketplace/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using process environment")
	}
	log.SetFormatter(&log.JSONFormatter{})

	authService, err := auth.NewService()
	if err != nil {
		log.WithError(err).Fatal("Failed to create auth service")
	}

	var (
		bookings      db.BookingCollection
		notifications db.NotificationCollection
		disputes      db.DisputeCollection
		listings      db.ListingCollection
		quotes        db.QuoteCollection
		users         db.UserCollection
		documents     db.DocumentCollection
	)

	client, err := db.ConnectMongo()
	if err != nil {
		// Storage being unavailable is not fatal: fall back to the local
		// file-backed collections seeded with default data.
		log.WithError(err).Warn("MongoDB unreachable, using local store")
		dir := os.Getenv("LOCAL_STORE_DIR")
		if dir == "" {
			dir = "./data"
		}
		local, lerr := localstore.Open(dir)
		if lerr != nil {
			log.WithError(lerr).Warn("Local store unavailable, state will not survive restarts")
		}
		mem := store.NewMemoryCollections(local)
		bookings, notifications, disputes = mem, mem, mem
		listings, quotes, users = mem, mem, mem
	} else {
		log.Info("Connected to MongoDB")
		database := client.Database("freight")
		bookings = &db.MongoBookingCollection{Collection: database.Collection("bookings")}
		notifications = &db.MongoNotificationCollection{Collection: database.Collection("notifications")}
		disputes = &db.MongoDisputeCollection{Collection: database.Collection("disputes")}
		listings = &db.MongoListingCollection{Collection: database.Collection("listings")}
		quotes = &db.MongoQuoteCollection{Collection: database.Collection("quote_requests")}
		users = &db.MongoUserCollection{Collection: database.Collection("users")}
		documents = &db.MongoDocumentCollection{Collection: database.Collection("documents")}
	}

	var publisher notify.Publisher = notify.LogPublisher{}
	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		mq, err := notify.NewMQTTPublisher(broker, "freight-api", os.Getenv("MQTT_TOPIC_PREFIX"))
		if err != nil {
			log.WithError(err).Warn("MQTT broker unreachable, notifications go to the log only")
		} else {
			defer mq.Close()
			publisher = mq
		}
	}

	bookingStore := store.New(bookings, notifications, disputes, publisher)

	if documents != nil {
		scanner := compliance.NewScanner(documents, publisher)
		go scanner.Run(context.Background())
	} else {
		log.Warn("Document collection unavailable, compliance scanner disabled")
	}

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimitMiddleware()

	bookingHandler := handlers.NewBookingHandler(bookingStore)
	notificationHandler := handlers.NewNotificationHandler(notifications)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Each route is gated on the marketplace action it performs.
	can := authMiddleware.RequirePermission
	mux.Handle("GET /api/bookings", can("view_bookings")(http.HandlerFunc(bookingHandler.List)))
	mux.Handle("POST /api/bookings/{id}/transition", can("update_status")(http.HandlerFunc(bookingHandler.Transition)))
	mux.Handle("POST /api/bookings/{id}/verify", can("verify_delivery")(http.HandlerFunc(bookingHandler.Verify)))
	mux.Handle("POST /api/bookings/{id}/dispute", can("open_dispute")(http.HandlerFunc(bookingHandler.Dispute)))
	mux.HandleFunc("GET /api/notifications", notificationHandler.List)

	authHandler := handlers.NewAuthHandler(authService, users)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("GET /api/auth/profile", authHandler.GetProfile)
	mux.HandleFunc("PUT /api/auth/profile", authHandler.UpdateProfile)
	mux.HandleFunc("POST /api/auth/change-password", authHandler.ChangePassword)

	adminHandler := handlers.NewAdminHandler(users, disputes)
	adminOnly := authMiddleware.RequireRole(models.RoleAdmin)
	mux.Handle("GET /api/admin/disputes", adminOnly(http.HandlerFunc(adminHandler.ListDisputes)))
	mux.Handle("POST /api/admin/disputes/{id}/resolve", adminOnly(http.HandlerFunc(adminHandler.ResolveDispute)))
	mux.Handle("POST /api/admin/users/{id}/verify", adminOnly(http.HandlerFunc(adminHandler.VerifyUser)))

	listingHandler := handlers.NewListingHandler(listings, bookingStore)
	mux.HandleFunc("GET /api/listings", listingHandler.List)
	mux.Handle("POST /api/listings", can("create_listing")(http.HandlerFunc(listingHandler.Create)))
	mux.Handle("POST /api/listings/{id}/book", can("create_booking")(http.HandlerFunc(listingHandler.Book)))

	quoteHandler := handlers.NewQuoteHandler(quotes, bookingStore)
	mux.HandleFunc("GET /api/quotes", quoteHandler.List)
	mux.Handle("POST /api/quotes", can("request_quote")(http.HandlerFunc(quoteHandler.Create)))
	mux.Handle("POST /api/quotes/{id}/accept", can("accept_booking")(http.HandlerFunc(quoteHandler.Accept)))

	handler := rateLimiter.RateLimit(300, 60)(authMiddleware.Authenticate(mux))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("HTTP server listening")
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
