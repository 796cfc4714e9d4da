package models

import (
	"time"

	"gorm.io/gorm"
)

// WebhookOutcome records how a provider event was handled
type WebhookOutcome string

const (
	WebhookProcessed WebhookOutcome = "processed"
	WebhookSkipped   WebhookOutcome = "skipped" // duplicate, unrecognized type, or no local match
	WebhookErrored   WebhookOutcome = "errored"
)

// WebhookEvent journals every received provider event so duplicate deliveries
// and unmatched references stay visible operationally. The provider event id
// is unique per provider.
type WebhookEvent struct {
	gorm.Model
	Provider        string         `json:"provider" gorm:"type:varchar(20);not null;uniqueIndex:idx_provider_event,priority:1"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:varchar(191);not null;uniqueIndex:idx_provider_event,priority:2"`
	EventType       string         `json:"event_type" gorm:"type:varchar(100);index"`
	Outcome         WebhookOutcome `json:"outcome" gorm:"type:varchar(20)"`
	Detail          string         `json:"detail" gorm:"type:text"`
	ProcessedAt     *time.Time     `json:"processed_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
