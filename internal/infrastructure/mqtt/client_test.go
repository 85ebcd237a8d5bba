package mqtt

import (
	"context"
	"errors"
	"testing"

	"github.com/gafdot/backend-consumo-energetico/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
// Connection tests require a running broker at 127.0.0.1:1883.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled:  true,
		Host:     "127.0.0.1",
		Port:     1883,
		ClientID: "sensorhub-test",
		Topic:    "consumo/sensores/+",
		QoS:      1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// skipIfNoBroker skips the test when no local broker is available.
func skipIfNoBroker(t *testing.T) *Client {
	t.Helper()

	client, err := Connect(testConfig())
	if err != nil {
		t.Skip("MQTT broker not available, skipping integration test")
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // Test cleanup
	return client
}

func TestConnect(t *testing.T) {
	client := skipIfNoBroker(t)

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

// TestSubscribeValidation verifies argument checking that needs no broker.
func TestSubscribeValidation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	t.Run("empty topic", func(t *testing.T) {
		err := c.Subscribe("", 1, func(string, []byte) error { return nil })
		if !errors.Is(err, ErrInvalidTopic) {
			t.Errorf("Subscribe() error = %v, want ErrInvalidTopic", err)
		}
	})

	t.Run("nil handler", func(t *testing.T) {
		err := c.Subscribe("some/topic", 1, nil)
		if !errors.Is(err, ErrSubscribeFailed) {
			t.Errorf("Subscribe() error = %v, want ErrSubscribeFailed", err)
		}
	})

	t.Run("not connected", func(t *testing.T) {
		err := c.Subscribe("some/topic", 1, func(string, []byte) error { return nil })
		if !errors.Is(err, ErrNotConnected) {
			t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
		}
	})
}

// TestHealthCheckDisconnected verifies the disconnected health state.
func TestHealthCheckDisconnected(t *testing.T) {
	c := &Client{}

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

// TestCloseWithoutConnect verifies Close is safe on an unconnected client.
func TestCloseWithoutConnect(t *testing.T) {
	c := &Client{}

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
