// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/juanctr3/b2b/platform/events"
	"github.com/juanctr3/b2b/platform/logger"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// LeadApproved is published when an approved lead should be broadcast to
// eligible providers.
type LeadApproved struct {
	BaseEvent
	LeadID int64 `json:"leadId"`
}

func (e LeadApproved) EventName() string { return "leads.approved" }

// LeadUnlocked is published after a provider has purchased a lead's contact
// details and the debit has committed.
type LeadUnlocked struct {
	BaseEvent
	LeadID     int64 `json:"leadId"`
	ProviderID int64 `json:"providerId"`
	Cost       int   `json:"cost"`
	NewBalance int   `json:"newBalance"`
}

func (e LeadUnlocked) EventName() string { return "leads.unlocked" }

// ProviderVerified is published when a provider confirms their phone.
type ProviderVerified struct {
	BaseEvent
	ProviderID   int64 `json:"providerId"`
	BonusGranted bool  `json:"bonusGranted"`
}

func (e ProviderVerified) EventName() string { return "providers.verified" }
