package mqtt

import "errors"

// Sentinel errors for MQTT operations.
var (
	ErrConnectionFailed = errors.New("mqtt connection failed")
	ErrNotConnected     = errors.New("mqtt client not connected")
	ErrSubscribeFailed  = errors.New("mqtt subscribe failed")
	ErrInvalidTopic     = errors.New("mqtt topic cannot be empty")
)
