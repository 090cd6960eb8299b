package models

import (
	"time"

	"vantage/pkg/domain"
)

// ApprovalAction is a recorded state-machine transition.
type ApprovalAction string

const (
	ApprovalActionReviewed ApprovalAction = "REVIEWED"
	ApprovalActionApproved ApprovalAction = "APPROVED"
)

// MinReasonLength is the minimum length of a review or approval reason.
// Short reasons defeat the purpose of an auditable trail.
const MinReasonLength = 8

// ApprovalLogEntry records one review or approval transition. Entries are
// immutable once written; the log they live in never shrinks.
type ApprovalLogEntry struct {
	ID          domain.EntryID     `json:"id"`
	BlueprintID domain.BlueprintID `json:"blueprint_id"`
	Action      ApprovalAction     `json:"action"`
	ActorID     string             `json:"actor"`
	ActorRole   domain.Role        `json:"actor_role"`
	Reason      string             `json:"reason"`
	At          time.Time          `json:"at"`
}

// NewApprovalLogEntry stamps a transition with a fresh entry ID.
func NewApprovalLogEntry(blueprintID domain.BlueprintID, action ApprovalAction, actor domain.Actor, reason string, at time.Time) ApprovalLogEntry {
	return ApprovalLogEntry{
		ID:          domain.NewEntryID(),
		BlueprintID: blueprintID,
		Action:      action,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		Reason:      reason,
		At:          at,
	}
}
