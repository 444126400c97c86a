package notify

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/avelldev/freight-marketplace/internal/models"
)

// Publisher fans a notification out to its audience. Publishing is best
// effort: a failed push is logged and never fails the mutation that
// produced it.
type Publisher interface {
	Publish(n models.Notification)
}

// LogPublisher writes notifications to the log only. It is the fallback
// when no broker is configured or reachable.
type LogPublisher struct{}

// Publish logs the notification.
func (LogPublisher) Publish(n models.Notification) {
	log.WithFields(log.Fields{
		"booking_id": n.BookingID,
		"audience":   n.Audience,
	}).Info(n.Message)
}

// MQTTPublisher pushes notifications to an MQTT broker, one topic per
// audience, so only the relevant participant's devices receive them.
type MQTTPublisher struct {
	client      mqtt.Client
	topicPrefix string
}

// NewMQTTPublisher connects to the broker and returns a publisher.
func NewMQTTPublisher(brokerURL, clientID, topicPrefix string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect %s: timed out", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", brokerURL, err)
	}

	if topicPrefix == "" {
		topicPrefix = "freight/notifications"
	}
	return &MQTTPublisher{client: client, topicPrefix: topicPrefix}, nil
}

// Publish sends the notification to the audience's topic.
func (p *MQTTPublisher) Publish(n models.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		log.WithError(err).Error("Failed to marshal notification")
		return
	}

	topic := fmt.Sprintf("%s/%s", p.topicPrefix, n.Audience)
	token := p.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		log.WithFields(log.Fields{
			"topic":      topic,
			"booking_id": n.BookingID,
		}).WithError(token.Error()).Warn("Failed to publish notification")
	}
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
