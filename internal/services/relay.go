package services

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SignalRelay is the one publish surface the route logic needs from the
// real-time layer. The websocket handler satisfies it; tests inject a fake.
type SignalRelay interface {
	PublishToSignal(signalID primitive.ObjectID, event string, data map[string]interface{})
}

// Relay event names pushed to sos_<id> rooms.
const (
	EventResponderUpdate = "responder-update"
	EventNewMessage      = "new-message"
	EventLocationUpdate  = "location-update"
)
