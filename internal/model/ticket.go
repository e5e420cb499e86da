package model

import "time"

type TicketCategory string

const (
	TicketTechnical   TicketCategory = "technical"
	TicketPayment     TicketCategory = "payment"
	TicketApplication TicketCategory = "application"
	TicketDocument    TicketCategory = "document"
	TicketGeneral     TicketCategory = "general"
)

func (c TicketCategory) Valid() bool {
	switch c {
	case TicketTechnical, TicketPayment, TicketApplication, TicketDocument, TicketGeneral:
		return true
	}
	return false
}

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

func (p TicketPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}

type Ticket struct {
	ID              string         `gorm:"primaryKey;size:36;not null" json:"id"`
	TicketNumber    string         `gorm:"size:32;uniqueIndex;not null" json:"ticket_number"`
	UserID          string         `gorm:"size:64;index;not null" json:"user_id"`
	ApplicationID   *string        `gorm:"size:36;index" json:"application_id,omitempty"`
	Subject         string         `gorm:"size:255;not null" json:"subject"`
	Description     string         `gorm:"type:text;not null" json:"description"`
	Category        TicketCategory `gorm:"size:16;not null;default:general" json:"category"`
	Priority        TicketPriority `gorm:"size:16;not null;default:medium" json:"priority"`
	Status          TicketStatus   `gorm:"size:16;index;not null;default:open" json:"status"`
	AssignedTo      string         `gorm:"size:64" json:"assigned_to,omitempty"`
	ResolutionNotes string         `gorm:"type:text" json:"resolution_notes,omitempty"`
	ResolvedAt      *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
