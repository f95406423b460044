package notify

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workflowengine/internal/models"
)

func baseEvent(newStatus string) TransitionEvent {
	return TransitionEvent{
		ApplicationID:    uuid.New(),
		HistoryID:        uuid.New(),
		CandidateEmail:   "riley.chen@example.com",
		CandidateName:    "Riley Chen",
		JobTitle:         "Backend Engineer",
		PreviousStatus:   "applied",
		NewStatus:        newStatus,
		ChangedByDisplay: "Dana Park",
		ChangeReason:     "Passed initial screening",
		HistoryTimestamp: time.Now(),
		Now:              time.Now(),
	}
}

func TestPlan_NonTriggeringStatusProducesNoIntents(t *testing.T) {
	e := baseEvent("applied")
	assert.Nil(t, Plan(e))
}

func TestPlan_TriggeringNonHiringManagerStatusNotifiesCandidateOnly(t *testing.T) {
	e := baseEvent("screening")
	e.HiringManagerEmail = "manager@acme.example"

	intents := Plan(e)
	require.Len(t, intents, 1)
	require.Len(t, intents[0].Recipients, 1)
	assert.Equal(t, models.RecipientCandidate, intents[0].Recipients[0].Type)
}

func TestPlan_HiringManagerStatusWithEmailNotifiesBoth(t *testing.T) {
	e := baseEvent("interview")
	e.HiringManagerEmail = "manager@acme.example"
	e.HiringManagerName = "Dana Park"

	intents := Plan(e)
	require.Len(t, intents, 1)
	require.Len(t, intents[0].Recipients, 2)
	assert.Equal(t, models.RecipientCandidate, intents[0].Recipients[0].Type)
	assert.Equal(t, models.RecipientHiringManager, intents[0].Recipients[1].Type)
	assert.Equal(t, "manager@acme.example", intents[0].Recipients[1].Email)
}

func TestPlan_HiringManagerStatusWithoutEmailOmitsRecipient(t *testing.T) {
	e := baseEvent("offer")
	e.HiringManagerEmail = ""

	intents := Plan(e)
	require.Len(t, intents, 1)
	require.Len(t, intents[0].Recipients, 1, "an empty hiring manager email must never produce a recipient")
	assert.Equal(t, models.RecipientCandidate, intents[0].Recipients[0].Type)
}

func TestPlan_SharesOneDeterministicIDAcrossRecipients(t *testing.T) {
	e := baseEvent("hired")
	e.HiringManagerEmail = "manager@acme.example"

	intents := Plan(e)
	require.Len(t, intents, 1)
	require.Len(t, intents[0].Recipients, 2, "both recipients must be planned under the same intent/id")
	assert.NotEmpty(t, intents[0].NotificationID)
}

func TestPlan_DeterministicIDIsStableAcrossCalls(t *testing.T) {
	e := baseEvent("rejected")

	first := Plan(e)
	second := Plan(e)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].NotificationID, second[0].NotificationID)
}

func TestPlan_DeterministicIDDiffersByHistoryID(t *testing.T) {
	e1 := baseEvent("withdrawn")
	e2 := e1
	e2.HistoryID = uuid.New()

	i1 := Plan(e1)
	i2 := Plan(e2)
	require.Len(t, i1, 1)
	require.Len(t, i2, 1)
	assert.NotEqual(t, i1[0].NotificationID, i2[0].NotificationID)
}
