package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/audit"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuditTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.AuditLogModel{})
	require.NoError(t, err)

	return db
}

func mustNewAuditLog(t *testing.T, companyID uuid.UUID, actorID *uuid.UUID, action audit.Action, aggregateID uuid.UUID, details map[string]any, occurredAt time.Time) *audit.Log {
	t.Helper()
	log, err := audit.NewLog(companyID, actorID, action, "Expense", aggregateID, details, occurredAt)
	require.NoError(t, err)
	return log
}

func TestAuditRepository_CreateAndFindAll(t *testing.T) {
	db := setupAuditTestDB(t)
	repo := NewGormAuditRepository(db)
	ctx := context.Background()
	companyID := uuid.New()
	actorID := uuid.New()
	expenseID := uuid.New()

	submitted := mustNewAuditLog(t, companyID, &actorID, audit.ActionSubmitted, expenseID,
		map[string]any{"expense_number": "EXP-202608-0001"}, time.Now().Add(-2*time.Hour))
	approved := mustNewAuditLog(t, companyID, &actorID, audit.ActionApproved, expenseID, nil, time.Now().Add(-time.Hour))
	foreign := mustNewAuditLog(t, uuid.New(), nil, audit.ActionCreated, uuid.New(), nil, time.Now())

	for _, l := range []*audit.Log{submitted, approved, foreign} {
		require.NoError(t, repo.Create(ctx, l))
	}

	t.Run("lists the company's entries newest first", func(t *testing.T) {
		logs, total, err := repo.FindAll(ctx, companyID, audit.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, logs, 2)
		assert.Equal(t, approved.ID, logs[0].ID)
		assert.Equal(t, submitted.ID, logs[1].ID)
	})

	t.Run("restores details", func(t *testing.T) {
		logs, _, err := repo.FindAll(ctx, companyID, audit.Filter{})
		require.NoError(t, err)
		assert.Equal(t, "EXP-202608-0001", logs[1].Details["expense_number"])
	})

	t.Run("filters by action", func(t *testing.T) {
		action := audit.ActionApproved
		logs, total, err := repo.FindAll(ctx, companyID, audit.Filter{Action: &action})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, logs, 1)
		assert.Equal(t, approved.ID, logs[0].ID)
	})

	t.Run("filters by time window", func(t *testing.T) {
		from := time.Now().Add(-90 * time.Minute)
		logs, total, err := repo.FindAll(ctx, companyID, audit.Filter{From: &from})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, logs, 1)
		assert.Equal(t, approved.ID, logs[0].ID)
	})

	t.Run("filters by actor", func(t *testing.T) {
		stranger := uuid.New()
		_, total, err := repo.FindAll(ctx, companyID, audit.Filter{ActorID: &stranger})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestAuditRepository_FindByAggregate(t *testing.T) {
	db := setupAuditTestDB(t)
	repo := NewGormAuditRepository(db)
	ctx := context.Background()
	companyID := uuid.New()
	actorID := uuid.New()
	expenseID := uuid.New()

	created := mustNewAuditLog(t, companyID, &actorID, audit.ActionCreated, expenseID, nil, time.Now().Add(-time.Hour))
	submitted := mustNewAuditLog(t, companyID, &actorID, audit.ActionSubmitted, expenseID, nil, time.Now())
	unrelated := mustNewAuditLog(t, companyID, &actorID, audit.ActionCreated, uuid.New(), nil, time.Now())

	// Insert out of order; the trail still reads oldest first
	for _, l := range []*audit.Log{submitted, unrelated, created} {
		require.NoError(t, repo.Create(ctx, l))
	}

	logs, err := repo.FindByAggregate(ctx, companyID, expenseID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, created.ID, logs[0].ID)
	assert.Equal(t, submitted.ID, logs[1].ID)
}

func TestAuditRepository_Pagination(t *testing.T) {
	db := setupAuditTestDB(t)
	repo := NewGormAuditRepository(db)
	ctx := context.Background()
	companyID := uuid.New()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		log := mustNewAuditLog(t, companyID, nil, audit.ActionCreated, uuid.New(), nil, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(ctx, log))
	}

	logs, total, err := repo.FindAll(ctx, companyID, audit.Filter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, logs, 2)
}
