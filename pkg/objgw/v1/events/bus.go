package events

import "time"

// EventType represents the type of an objgw gateway event.
type EventType string

// Standard objgw Event Types
const (
	GatewayStart     EventType = "GatewayStart"
	GatewayStop      EventType = "GatewayStop"
	RequestReceived  EventType = "RequestReceived"  // Request accepted by the router
	RequestCompleted EventType = "RequestCompleted" // Response written, includes status
	ObjectStored     EventType = "ObjectStored"     // Successful PUT
	ObjectFetched    EventType = "ObjectFetched"    // Successful GET
	ObjectDeleted    EventType = "ObjectDeleted"    // Successful DELETE
)

// Event represents a significant occurrence within the objgw gateway.
type Event struct {
	// Type categorizes the event.
	Type EventType `json:"type"`
	// Timestamp marks when the event occurred.
	Timestamp time.Time `json:"timestamp"`
	// RequestID identifies the request context, if applicable.
	RequestID string `json:"request_id,omitempty"`
	// Bucket identifies the bucket the event relates to, if applicable.
	Bucket string `json:"bucket,omitempty"`
	// Key identifies the object key the event relates to, if applicable.
	Key string `json:"key,omitempty"`
	// Status carries the HTTP status code for RequestCompleted events.
	Status int `json:"status,omitempty"`
	// Payload contains event-specific data. Object payloads MUST NOT be
	// included here; sizes and durations are fine.
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Bus defines the interface for publishing events within the objgw gateway.
// Implementations could include logging, sending to message queues, etc.
type Bus interface {
	// Emit publishes an event to the bus.
	// Implementations should be non-blocking or handle blocking carefully
	// to avoid slowing down the request path.
	Emit(event Event)
}
