// Package mqtt provides the optional MQTT ingest source.
//
// When enabled, the hub subscribes to a reading topic and feeds each
// received payload through the same ingest path as POST /dados-sensores:
// persist, then broadcast. The client reconnects automatically and restores
// its subscriptions; handlers are panic-recovered so one malformed message
// cannot take the process down.
package mqtt
