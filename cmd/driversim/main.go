package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/avelldev/freight-marketplace/internal/localstore"
	"github.com/avelldev/freight-marketplace/internal/models"
	"github.com/avelldev/freight-marketplace/internal/offline"
)

var authToken string

func authorizedRequest(method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

// httpSubmitter replays actions against the booking API.
type httpSubmitter struct {
	apiURL string
}

func (s *httpSubmitter) Submit(ctx context.Context, action models.OfflineAction) error {
	payload := struct {
		Target   models.BookingStatus `json:"target"`
		Evidence models.Evidence      `json:"evidence"`
	}{Target: action.Target, Evidence: action.Evidence}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}

	url := fmt.Sprintf("%s/bookings/%s/transition", s.apiURL, action.BookingID)
	resp, err := authorizedRequest(http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("submit action: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("transition rejected with status %d: %s", resp.StatusCode, msg)
	}
	return nil
}

// login trades the driver's credentials for a token. The defaults match the
// account the server seeds when it runs without a database.
func login(apiURL, username, password string) (string, error) {
	creds, err := json.Marshal(models.LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}

	resp, err := authorizedRequest(http.MethodPost, apiURL+"/auth/login", bytes.NewBuffer(creds))
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var loginResp models.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", err
	}
	return loginResp.Token, nil
}

func fetchBookings(apiURL string) ([]models.Booking, error) {
	resp, err := authorizedRequest(http.MethodGet, apiURL+"/bookings", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list bookings failed with status %d", resp.StatusCode)
	}

	var bookings []models.Booking
	if err := json.NewDecoder(resp.Body).Decode(&bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// fakePhoto stands in for a camera capture.
func fakePhoto(label string) *models.Attachment {
	data := make([]byte, 256)
	rand.Read(data)
	copy(data, label)
	return &models.Attachment{Data: data, UploadedAt: time.Now()}
}

// jitterLocation offsets a base position by up to the given metres, the way
// a real GPS fix wanders.
func jitterLocation(base models.GeoPoint, meters float64) models.GeoPoint {
	metersPerDeg := 111320.0
	dLat := (rand.Float64()*2 - 1) * (meters / metersPerDeg)
	dLon := (rand.Float64()*2 - 1) * (meters / metersPerDeg)
	return models.GeoPoint{Lat: base.Lat + dLat, Lon: base.Lon + dLon}
}

func gpsProvider(base models.GeoPoint) offline.LocationProvider {
	return func(ctx context.Context) (models.GeoPoint, error) {
		return jitterLocation(base, 50), nil
	}
}

// workflowStep is one leg of the driver's delivery run.
type workflowStep struct {
	target   models.BookingStatus
	offline  bool // force the connectivity signal down before acting
	evidence func(b models.Booking) models.Evidence
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using process environment")
	}

	authToken = os.Getenv("SIM_AUTH_TOKEN")
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	if authToken == "" {
		username := os.Getenv("SIM_USERNAME")
		if username == "" {
			username = "driver1"
		}
		password := os.Getenv("SIM_PASSWORD")
		if password == "" {
			password = "driver123"
		}
		token, err := login(apiURL, username, password)
		if err != nil {
			log.WithError(err).Fatal("Failed to log in. Set SIM_AUTH_TOKEN or SIM_USERNAME/SIM_PASSWORD")
		}
		authToken = token
		log.WithField("username", username).Info("Logged in")
	}
	pin := os.Getenv("SIM_DELIVERY_PIN")
	if pin == "" {
		pin = "482913"
	}

	stepDelay := 2 * time.Second
	if v := os.Getenv("SIM_STEP_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			stepDelay = time.Duration(n) * time.Second
		}
	}

	stateDir := os.Getenv("SIM_STATE_DIR")
	if stateDir == "" {
		stateDir = "./driversim-data"
	}
	local, err := localstore.Open(stateDir)
	if err != nil {
		log.WithError(err).Fatal("Failed to open local store")
	}

	healthURL := strings.TrimSuffix(apiURL, "/api") + "/health"
	probe := func() bool {
		resp, err := http.Get(healthURL)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}

	monitor := offline.NewMonitor(probe)
	queue := offline.NewQueue(local, 500*time.Millisecond)
	submitter := &httpSubmitter{apiURL: apiURL}
	dispatcher := offline.NewDispatcher(monitor, queue, submitter)

	ctx := context.Background()
	monitor.Start(ctx, 5*time.Second)
	go dispatcher.Run(ctx)

	bookings, err := fetchBookings(apiURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to fetch driver bookings")
	}
	if len(bookings) == 0 {
		log.Info("No active bookings for this driver, nothing to simulate")
		return
	}
	job := bookings[0]
	gps := gpsProvider(models.GeoPoint{Lat: -26.2041, Lon: 28.0473}) // Johannesburg depot

	log.WithFields(log.Fields{
		"booking_id": job.BookingID,
		"waybill":    job.Waybill,
		"status":     job.Status,
	}).Info("Starting delivery run")

	// The middle of the run happens out of signal range: collection and the
	// in-transit update are queued, then replayed when connectivity returns
	// before the delivery leg.
	steps := []workflowStep{
		{target: models.StatusArrivedAtPickup},
		{target: models.StatusCollected, offline: true, evidence: func(b models.Booking) models.Evidence {
			return models.Evidence{
				LoadPhoto:  fakePhoto("load"),
				Sealed:     true,
				SealNumber: "SEAL-" + strconv.Itoa(1000+rand.Intn(9000)),
				Location:   offline.ReadLocation(ctx, gps, 3*time.Second),
			}
		}},
		{target: models.StatusInTransit, offline: true},
		{target: models.StatusArrivedAtDelivery},
		{target: models.StatusDelivered, evidence: func(b models.Booking) models.Evidence {
			return models.Evidence{
				OffloadPhoto: fakePhoto("offload"),
				PODPhoto:     fakePhoto("pod"),
				Signature:    fakePhoto("signature"),
				DeliveryPIN:  pin,
				Location:     offline.ReadLocation(ctx, gps, 3*time.Second),
			}
		}},
	}

	for _, step := range steps {
		monitor.ForceOffline(step.offline)
		if !step.offline {
			// Queued actions must land before anything submitted live, or a
			// later step could overtake an earlier one.
			for queue.Len() > 0 || dispatcher.Syncing() {
				time.Sleep(200 * time.Millisecond)
			}
		}
		time.Sleep(stepDelay)

		action := models.OfflineAction{
			Type:      models.ActionStatusUpdate,
			BookingID: job.BookingID,
			Target:    step.target,
		}
		if step.evidence != nil {
			action.Evidence = step.evidence(job)
		}
		switch step.target {
		case models.StatusCollected:
			action.Type = models.ActionConfirmCollection
		case models.StatusDelivered:
			action.Type = models.ActionCompleteDelivery
		}

		queued, err := dispatcher.Do(ctx, action)
		if err != nil {
			log.WithFields(log.Fields{"target": step.target}).WithError(err).Fatal("Transition failed")
		}
		log.WithFields(log.Fields{
			"target": step.target,
			"queued": queued,
		}).Info("Step submitted")
	}

	// Let the dispatcher notice the restored signal and finish replaying.
	monitor.ForceOffline(false)
	for queue.Len() > 0 {
		time.Sleep(500 * time.Millisecond)
	}
	log.Info("Delivery run complete")
}
