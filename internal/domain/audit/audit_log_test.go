package audit

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLog(t *testing.T) {
	companyID := uuid.New()
	actorID := uuid.New()
	aggregateID := uuid.New()

	t.Run("creates an entry with all fields", func(t *testing.T) {
		occurred := time.Now().Add(-time.Minute)
		details := map[string]any{"expense_number": "EXP-202601-0001"}

		log, err := NewLog(companyID, &actorID, ActionSubmitted, "Expense", aggregateID, details, occurred)
		require.NoError(t, err)
		assert.Equal(t, companyID, log.CompanyID)
		assert.Equal(t, &actorID, log.ActorID)
		assert.Equal(t, ActionSubmitted, log.Action)
		assert.Equal(t, "Expense", log.AggregateType)
		assert.Equal(t, aggregateID, log.AggregateID)
		assert.Equal(t, details, log.Details)
		assert.Equal(t, occurred, log.OccurredAt)
		assert.NotEqual(t, uuid.Nil, log.ID)
	})

	t.Run("defaults a zero occurrence time to now", func(t *testing.T) {
		log, err := NewLog(companyID, nil, ActionCreated, "User", aggregateID, nil, time.Time{})
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), log.OccurredAt, time.Second)
	})

	t.Run("allows a nil actor for system events", func(t *testing.T) {
		log, err := NewLog(companyID, nil, ActionStatusChanged, "Expense", aggregateID, nil, time.Now())
		require.NoError(t, err)
		assert.Nil(t, log.ActorID)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := NewLog(uuid.Nil, nil, ActionCreated, "Expense", aggregateID, nil, time.Now())
		assert.Error(t, err)

		_, err = NewLog(companyID, nil, Action("SHRUGGED"), "Expense", aggregateID, nil, time.Now())
		assert.Error(t, err)

		_, err = NewLog(companyID, nil, ActionCreated, "", aggregateID, nil, time.Now())
		assert.Error(t, err)

		_, err = NewLog(companyID, nil, ActionCreated, "Expense", uuid.Nil, nil, time.Now())
		assert.Error(t, err)
	})
}

func TestLog_DetailsJSON(t *testing.T) {
	log, err := NewLog(uuid.New(), nil, ActionApproved, "Expense", uuid.New(), map[string]any{"step": 2}, time.Now())
	require.NoError(t, err)

	raw, err := log.DetailsJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"step":2}`, raw)

	log.Details = nil
	raw, err = log.DetailsJSON()
	require.NoError(t, err)
	assert.Equal(t, "{}", raw)
}

func TestAction_IsValid(t *testing.T) {
	for _, a := range []Action{
		ActionCreated, ActionUpdated, ActionSubmitted, ActionApproved,
		ActionRejected, ActionEscalated, ActionPaid, ActionCancelled,
		ActionStatusChanged, ActionLoggedIn,
	} {
		assert.True(t, a.IsValid(), string(a))
	}
	assert.False(t, Action("").IsValid())
	assert.False(t, Action("DELETED_EVERYTHING").IsValid())
}
