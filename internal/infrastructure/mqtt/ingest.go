package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gafdot/backend-consumo-energetico/internal/sensor"
)

// readingMessage is the JSON payload expected on the reading topic.
// Timestamp is optional, matching the HTTP ingest endpoint.
type readingMessage struct {
	SensorID    int64   `json:"sensor_id"`
	Temperatura float64 `json:"temperatura"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

// SubscribeReadings wires the reading topic into the ingest service so
// MQTT-delivered measurements take the same persist-then-broadcast path as
// HTTP ones.
func (c *Client) SubscribeReadings(topic string, qos byte, sensors *sensor.Service) error {
	return c.Subscribe(topic, qos, func(t string, payload []byte) error {
		var msg readingMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("parsing reading from %s: %w", t, err)
		}

		reading := sensor.Reading{
			SensorID:    msg.SensorID,
			Temperatura: msg.Temperatura,
		}
		if msg.Timestamp != "" {
			ts, err := sensor.ParseTimestamp(msg.Timestamp)
			if err != nil {
				return fmt.Errorf("parsing timestamp from %s: %w", t, err)
			}
			reading.Timestamp = ts
		}

		if _, err := sensors.Ingest(context.Background(), reading); err != nil {
			return fmt.Errorf("ingesting reading from %s: %w", t, err)
		}
		return nil
	})
}
