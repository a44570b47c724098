package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"subtrackr-be/internal/entity"
	"subtrackr-be/internal/repository/unitofwork"
	"subtrackr-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.SubscriptionRepository())
	assert.NotNil(t, uow.CancellationRepository())

	// Basic ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)

	t.Run("Check User Repository", func(t *testing.T) {
		count, err := uow.UserRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("User count: %d", count)
	})

	t.Run("Cancellation Request Round Trip", func(t *testing.T) {
		ctx := context.Background()

		userId := uuid.New()
		user := &entity.User{
			Id:       userId,
			Email:    "test-integration-" + uuid.New().String() + "@example.com",
			FullName: "Integration Test User",
			Role:     entity.UserRoleUser,
			Status:   entity.UserStatusActive,
		}
		require.NoError(t, uow.UserRepository().Create(ctx, user))
		defer uow.CancellationRepository().DeleteAllByUserIdUnscoped(ctx, userId)

		sub := &entity.Subscription{
			ID:              uuid.New(),
			UserID:          userId,
			MerchantName:    "Integration Streaming",
			Amount:          decimal.NewFromFloat(9.99),
			Currency:        "USD",
			BillingInterval: entity.BillingIntervalMonthly,
			Status:          entity.SubscriptionStatusActive,
			Source:          "manual",
		}
		require.NoError(t, uow.SubscriptionRepository().Create(ctx, sub))

		err := uow.Begin(ctx)
		require.NoError(t, err)
		defer uow.Rollback()

		req := &entity.CancellationRequest{
			ID:             uuid.New(),
			UserID:         userId,
			SubscriptionID: sub.ID,
			Status:         entity.RequestStatusPending,
			Method:         entity.MethodManual,
			Priority:       entity.PriorityNormal,
			MaxAttempts:    3,
		}
		require.NoError(t, uow.CancellationRepository().Create(ctx, req))
		require.NoError(t, uow.Commit())

		// The gate claims a pending request exactly once.
		now := time.Now()
		claimed, err := uow.CancellationRepository().TransitionToProcessing(ctx, req.ID, now)
		require.NoError(t, err)
		assert.True(t, claimed)

		claimedAgain, err := uow.CancellationRepository().TransitionToProcessing(ctx, req.ID, now)
		require.NoError(t, err)
		assert.False(t, claimedAgain)

		loaded, err := uow.CancellationRepository().FindOneWithLog(ctx, req.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, entity.RequestStatusProcessing, loaded.Status)
		assert.Equal(t, 1, loaded.Attempts)
	})
}
