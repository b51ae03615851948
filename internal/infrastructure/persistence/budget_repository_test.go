package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupBudgetTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.BudgetModel{})
	require.NoError(t, err)

	return db
}

func mustNewBudget(t *testing.T, companyID uuid.UUID, category expense.Category, amount string, start, end time.Time) *expense.Budget {
	t.Helper()
	b, err := expense.NewBudget(companyID, uuid.New(), category, testMoney(t, amount, "USD"), start, end)
	require.NoError(t, err)
	return b
}

func TestBudgetRepository_CRUD(t *testing.T) {
	db := setupBudgetTestDB(t)
	repo := NewGormBudgetRepository(db)
	ctx := context.Background()
	companyID := uuid.New()

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)

	t.Run("round-trips a category budget", func(t *testing.T) {
		b := mustNewBudget(t, companyID, expense.CategoryTravel, "5000.00", start, end)
		require.NoError(t, repo.Create(ctx, b))

		found, err := repo.FindByIDForCompany(ctx, companyID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, expense.CategoryTravel, found.Category)
		assert.Equal(t, "5000.00 USD", found.Amount.String())
	})

	t.Run("updates the amount", func(t *testing.T) {
		b := mustNewBudget(t, companyID, expense.CategoryMeals, "800.00", start, end)
		require.NoError(t, repo.Create(ctx, b))

		require.NoError(t, b.Update(expense.CategoryMeals, testMoney(t, "1200.00", "USD"), start, end))
		require.NoError(t, repo.Update(ctx, b))

		found, err := repo.FindByIDForCompany(ctx, companyID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "1200.00 USD", found.Amount.String())
	})

	t.Run("deletes scoped to the company", func(t *testing.T) {
		b := mustNewBudget(t, companyID, expense.CategoryOther, "100.00", start, end)
		require.NoError(t, repo.Create(ctx, b))

		err := repo.Delete(ctx, uuid.New(), b.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		require.NoError(t, repo.Delete(ctx, companyID, b.ID))
		_, err = repo.FindByIDForCompany(ctx, companyID, b.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestBudgetRepository_FindActiveAt(t *testing.T) {
	db := setupBudgetTestDB(t)
	repo := NewGormBudgetRepository(db)
	ctx := context.Background()
	companyID := uuid.New()

	august := mustNewBudget(t, companyID, expense.CategoryTravel, "5000.00",
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC))
	september := mustNewBudget(t, companyID, expense.CategoryTravel, "4000.00",
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 30, 23, 59, 59, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, august))
	require.NoError(t, repo.Create(ctx, september))

	active, err := repo.FindActiveAt(ctx, companyID, time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, august.ID, active[0].ID)

	all, err := repo.FindAllForCompany(ctx, companyID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
