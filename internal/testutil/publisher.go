package testutil

import "github.com/centavo/centavo-backend/internal/websocket"

// PublishedEvent records one Publish call
type PublishedEvent struct {
	WorkspaceID int32
	Event       websocket.Event
}

// MockEventPublisher is a mock implementation of websocket.EventPublisher
// that records every published event
type MockEventPublisher struct {
	Events []PublishedEvent
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records the event
func (m *MockEventPublisher) Publish(workspaceID int32, event websocket.Event) {
	m.Events = append(m.Events, PublishedEvent{WorkspaceID: workspaceID, Event: event})
}

// EventTypes returns the types of all recorded events in publish order
// (helper for tests)
func (m *MockEventPublisher) EventTypes() []string {
	types := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		types = append(types, e.Event.Type)
	}
	return types
}
