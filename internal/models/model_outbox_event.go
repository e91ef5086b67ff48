package models

import (
	"time"

	"gorm.io/datatypes"
)

// OutboxEvent is a durable record of a side effect that must eventually
// run after the transaction that emitted it committed.
type OutboxEvent struct {
	ID           string         `gorm:"column:id;type:uuid;primary_key" json:"id"`
	EventType    string         `gorm:"column:event_type;type:varchar(64);not null" json:"event_type"`
	AggregateID  string         `gorm:"column:aggregate_id;type:varchar(128);not null;index" json:"aggregate_id"`
	Payload      datatypes.JSON `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	AttemptCount int            `gorm:"column:attempt_count;not null;default:0" json:"attempt_count"`
	LastError    *string        `gorm:"column:last_error;type:text" json:"last_error"`
	ProcessedAt  *time.Time     `gorm:"column:processed_at;index" json:"processed_at"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }

func (e *OutboxEvent) Processed() bool { return e != nil && e.ProcessedAt != nil }
