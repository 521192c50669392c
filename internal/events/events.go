// Package events publishes maintenance activity to an MQTT broker so shop
// displays and integrations can follow readings and completions live.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Topic is the suffix appended to the configured prefix.
type Topic string

const (
	TopicReadings    Topic = "readings"
	TopicCompletions Topic = "completions"
	TopicAlerts      Topic = "alerts"
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// ReadingEvent is sent after a usage reading is stored.
type ReadingEvent struct {
	MaintenanceID string      `json:"mantenimientoId"`
	Ficha         string      `json:"ficha"`
	Usage         float64     `json:"horasKm"`
	Increment     float64     `json:"incremento"`
	Remaining     float64     `json:"restante"`
	Unit          models.Unit `json:"unidad"`
	User          string      `json:"usuarioResponsable"`
	At            time.Time   `json:"fecha"`
}

// CompletionEvent is sent after a maintenance is registered as done.
type CompletionEvent struct {
	MaintenanceID string      `json:"mantenimientoId"`
	Ficha         string      `json:"ficha"`
	Usage         float64     `json:"horasKm"`
	NextDue       float64     `json:"proximoMantenimiento"`
	Unit          models.Unit `json:"unidad"`
	User          string      `json:"usuarioResponsable"`
	At            time.Time   `json:"fecha"`
}

// AlertEvent flags a plan that is overdue or about to be.
type AlertEvent struct {
	MaintenanceID   string          `json:"mantenimientoId"`
	Ficha           string          `json:"ficha"`
	MaintenanceType string          `json:"tipoMantenimiento"`
	Remaining       float64         `json:"restante"`
	Unit            models.Unit     `json:"unidad"`
	Severity        models.Severity `json:"nivel"`
	At              time.Time       `json:"fecha"`
}

// Publisher delivers domain events.
type Publisher interface {
	Publish(ctx context.Context, topic Topic, payload interface{}) error
	Close()
}

// Client is the subset of mqtt.Client used for publishing.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnectionOpen() bool
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes JSON payloads under a topic prefix.
type MQTTPublisher struct {
	client  Client
	prefix  string
	qos     byte
	timeout time.Duration
}

// NewMQTTPublisher wraps an already connected client.
func NewMQTTPublisher(client Client, prefix string) *MQTTPublisher {
	return &MQTTPublisher{
		client:  client,
		prefix:  prefix,
		qos:     1,
		timeout: 5 * time.Second,
	}
}

// Connect dials the broker and returns a publisher bound to it.
func Connect(broker, clientID, prefix string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		}).
		SetOnConnectHandler(func(_ mqtt.Client) {
			log.WithField("broker", broker).Info("Connected to MQTT broker")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connect to %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}
	return NewMQTTPublisher(client, prefix), nil
}

// TopicName returns the full topic for t.
func (p *MQTTPublisher) TopicName(t Topic) string {
	if p.prefix == "" {
		return string(t)
	}
	return p.prefix + "/" + string(t)
}

// Publish marshals payload to JSON and waits for the broker acknowledgement.
func (p *MQTTPublisher) Publish(ctx context.Context, topic Topic, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	name := p.TopicName(topic)
	token := p.client.Publish(name, p.qos, false, data)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%s: %w", name, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}

	log.WithFields(log.Fields{
		"topic": name,
		"bytes": len(data),
	}).Debug("Published event")
	return nil
}

// Close disconnects from the broker, letting in-flight work finish.
func (p *MQTTPublisher) Close() {
	if p.client.IsConnectionOpen() {
		p.client.Disconnect(250)
	}
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Topic, interface{}) error { return nil }

func (NoopPublisher) Close() {}
