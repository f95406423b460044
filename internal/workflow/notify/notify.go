// Package notify implements the NotificationPlanner: a pure function from a
// transition event to the set of notification intents (spec.md §4.6).
// Grounded on original_source's notification_service.py
// (send_status_change_notification's trigger-status/recipient rules).
package notify

import (
	"time"

	"github.com/google/uuid"

	"workflowengine/internal/models"
)

// notificationNamespace is a fixed UUID namespace used to derive
// deterministic notification ids (uuid.NewSHA1), replacing the source's
// f-string concatenation (f"notif_{application_id}_{history_id}") with a
// collision-resistant equivalent.
var notificationNamespace = uuid.MustParse("6e4ff95f-f662-45ee-a88d-6b2f0af38bc4")

// Recipient is one addressee of a notification intent.
type Recipient struct {
	Type        models.NotificationRecipientType
	Email       string
	DisplayName string
}

// Intent is the data describing a notification to be delivered, produced by
// the planner and consumed by an external NotificationDispatcher (spec.md
// §6, §9 Non-goals: the core never delivers notifications itself).
type Intent struct {
	NotificationID    string
	ApplicationID     uuid.UUID
	CandidateEmail    string
	CandidateName     string
	JobTitle          string
	PreviousStatus    string
	NewStatus         string
	ChangedByDisplay  string
	ChangeReason      string
	HistoryTimestamp  time.Time
	PlannedAt         time.Time
	Recipients        []Recipient
}

// TransitionEvent is the input to Plan: the facts of one status change.
type TransitionEvent struct {
	ApplicationID    uuid.UUID
	HistoryID        uuid.UUID
	CandidateEmail   string
	CandidateName    string
	JobTitle         string
	HiringManagerEmail string
	HiringManagerName  string
	PreviousStatus   string
	NewStatus        string
	ChangedByDisplay string
	ChangeReason     string
	HistoryTimestamp time.Time
	Now              time.Time
}

// triggeringStatuses are the only new-status values that produce
// notifications (spec.md §4.6).
var triggeringStatuses = map[string]bool{
	"screening":       true,
	"interview":       true,
	"technical_test":  true,
	"final_interview": true,
	"offer":           true,
	"hired":           true,
	"rejected":        true,
	"withdrawn":       true,
}

// hiringManagerStatuses are the subset of triggering statuses for which the
// hiring manager is also a recipient (spec.md §4.6).
var hiringManagerStatuses = map[string]bool{
	"interview": true,
	"offer":     true,
	"hired":     true,
	"rejected":  true,
}

// Plan computes the notification intents for a transition event. Pure
// function: no I/O, deterministic given the same event.
func Plan(e TransitionEvent) []Intent {
	if !triggeringStatuses[e.NewStatus] {
		return nil
	}

	recipients := []Recipient{
		{Type: models.RecipientCandidate, Email: e.CandidateEmail, DisplayName: e.CandidateName},
	}
	if hiringManagerStatuses[e.NewStatus] && e.HiringManagerEmail != "" {
		recipients = append(recipients, Recipient{
			Type:        models.RecipientHiringManager,
			Email:       e.HiringManagerEmail,
			DisplayName: e.HiringManagerName,
		})
	}

	id := deterministicID(e.ApplicationID, e.HistoryID)

	intent := Intent{
		NotificationID:   id,
		ApplicationID:    e.ApplicationID,
		CandidateEmail:   e.CandidateEmail,
		CandidateName:    e.CandidateName,
		JobTitle:         e.JobTitle,
		PreviousStatus:   e.PreviousStatus,
		NewStatus:        e.NewStatus,
		ChangedByDisplay: e.ChangedByDisplay,
		ChangeReason:     e.ChangeReason,
		HistoryTimestamp: e.HistoryTimestamp,
		PlannedAt:        e.Now,
		Recipients:       recipients,
	}

	// One intent per recipient set, sharing the same notification_id
	// (scenario 6: two recipients, same id).
	return []Intent{intent}
}

// deterministicID derives the same id for the same (application_id,
// history_id), so downstream dispatch can be idempotent (spec.md §4.6).
func deterministicID(applicationID, historyID uuid.UUID) string {
	name := "notif:" + applicationID.String() + ":" + historyID.String()
	return uuid.NewSHA1(notificationNamespace, []byte(name)).String()
}

// Dispatcher is the external collaborator that actually delivers a
// notification intent. Best-effort: failures are logged and never block the
// producing operation (spec.md §6).
type Dispatcher interface {
	Dispatch(intent Intent) error
}
