package domain

import "time"

// CycleEventType category of a cycle event published to the dashboard.
type CycleEventType string

const (
	CycleEventSnapshot    CycleEventType = "snapshot"
	CycleEventOpportunity CycleEventType = "opportunity"
	CycleEventTrade       CycleEventType = "trade"
)

// CycleEvent one dashboard-visible event produced during a trading cycle.
type CycleEvent struct {
	Timestamp  time.Time      `json:"ts"`
	Type       CycleEventType `json:"type"`
	TotalValue string         `json:"total_value,omitempty"`
	Tier       string         `json:"tier,omitempty"`
	Detail     string         `json:"detail,omitempty"`
}

// CycleEventRecord bundles an event with its position in the event log.
type CycleEventRecord struct {
	Index uint64
	Event CycleEvent
}
