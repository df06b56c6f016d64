// Package errors defines the error taxonomy of the notification pipeline.
//
// Only ConnectionError is fatal: it aborts plugin load. Every other error
// type describes one notification that was not forwarded. Callers detect a
// load failure with errors.As(err, new(*ConnectionError)).
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	ErrNoBrokers       = errors.New("no kafka brokers configured")
	ErrQueueFull       = errors.New("producer queue is full")
	ErrPublisherClosed = errors.New("publisher is shut down")
	ErrNotConnected    = errors.New("publisher is not connected")
)

// ConfigError is a configuration file that could not be used. Brokers holds
// the kafka_brokers value of a file that parsed but failed validation.
type ConfigError struct {
	Path    string
	Brokers string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: path=%s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ConnectionError means the broker producer could not be created.
type ConnectionError struct {
	Brokers string
	Driver  string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: driver=%s brokers=%s: %v",
		e.Driver, e.Brokers, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// SerializationError is a canonical event that could not be encoded.
type SerializationError struct {
	EventType string
	Slot      uint64
	Err       error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error: type=%s slot=%d: %v",
		e.EventType, e.Slot, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// DeliveryError is a record rejected by the local queue or reported failed
// by the broker client.
type DeliveryError struct {
	Topic string
	Slot  uint64
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery error: topic=%s slot=%d: %v", e.Topic, e.Slot, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// UnsupportedVersionError is a notification whose shape is not recognised.
type UnsupportedVersionError struct {
	Kind string
	Type string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported %s notification version: %s", e.Kind, e.Type)
}

// ValidationError is a consumed record whose envelope is incomplete.
type ValidationError struct {
	EventID string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: event_id=%s field=%s: %s",
		e.EventID, e.Field, e.Reason)
}
