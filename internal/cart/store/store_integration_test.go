package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	carterrors "github.com/SauloAssisEngMec/API-shopping-cart/internal/cart/errors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "SHOP_SVC_SKIP_INTEGRATION_TESTS"

// CartStoreSuite is a test suite for the CartStore implementation.
type CartStoreSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	store       CartStore
	logger      *slog.Logger
	ctx         context.Context
}

// SetupSuite initializes the test suite by setting up a PostgreSQL container.
func (s *CartStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dbName := "shop_db"
	dbUser := "user"
	dbPassword := "password"

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgxpool")

	for i := range 10 {
		s.logger.Info("Pinging PostgreSQL database", "attempt", i+1)
		err = s.dbPool.Ping(s.ctx)
		if err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	wd, _ := os.Getwd()
	migrationsPath := filepath.Join(wd, "../../../migrations")
	sourceURL := "file://" + migrationsPath
	m, err := migrate.New(sourceURL, connStr)
	require.NoError(s.T(), err, "Failed to create migrate instance")
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_, _ = m.Close()
		require.NoError(s.T(), err, "Failed to apply migrations")
	}
	s.logger.Info("Migrations applied for integration tests")

	s.store = NewPgStore(s.dbPool)
	s.logger.Info("Initialization complete for CartStoreSuite")
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *CartStoreSuite) TearDownSuite() {
	s.logger.Info("Tearing down suite...")
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}

// SetupTest prepares the database for each test by truncating the carts table.
func (s *CartStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE carts RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err, "Failed to truncate carts table")
}

// TestCartStoreIntegration runs the CartStore integration tests.
func TestCartStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(CartStoreSuite))
}

func (s *CartStoreSuite) TestUpsertItems_CreatesCartLazily() {
	s.SetupTest()
	// given
	userID := uuid.New()
	productID := uuid.New()

	// when
	err := s.store.UpsertItems(s.ctx, userID, []CartItem{{ProductID: productID, Quantity: 2}})

	// then
	require.NoError(s.T(), err, "UpsertItems should not return an error")
	cart, err := s.store.FindByUserID(s.ctx, userID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), userID, cart.UserID)
	require.NotZero(s.T(), cart.CreatedAt, "CreatedAt should be set on lazy creation")
	require.Len(s.T(), cart.Items, 1)
	require.Equal(s.T(), int32(2), cart.Items[0].Quantity)
}

func (s *CartStoreSuite) TestUpsertItems_MergesQuantities() {
	s.SetupTest()
	// given
	userID := uuid.New()
	productID := uuid.New()
	require.NoError(s.T(), s.store.UpsertItems(s.ctx, userID, []CartItem{{ProductID: productID, Quantity: 2}}))

	// when: add the same product again
	err := s.store.UpsertItems(s.ctx, userID, []CartItem{{ProductID: productID, Quantity: 3}})

	// then
	require.NoError(s.T(), err)
	cart, err := s.store.FindByUserID(s.ctx, userID)
	require.NoError(s.T(), err)
	require.Len(s.T(), cart.Items, 1, "Lines are unique by product")
	require.Equal(s.T(), int32(5), cart.Items[0].Quantity, "Quantities should be merged")
}

func (s *CartStoreSuite) TestFindByUserID_NotFound() {
	s.SetupTest()
	// when
	_, err := s.store.FindByUserID(s.ctx, uuid.New())

	// then
	require.ErrorIs(s.T(), err, carterrors.ErrCartNotFound, "Expected ErrCartNotFound for user without cart")
}

func (s *CartStoreSuite) TestRemoveItem() {
	s.SetupTest()
	// given
	userID := uuid.New()
	productID := uuid.New()
	otherID := uuid.New()
	require.NoError(s.T(), s.store.UpsertItems(s.ctx, userID, []CartItem{
		{ProductID: productID, Quantity: 2},
		{ProductID: otherID, Quantity: 1},
	}))

	// when
	err := s.store.RemoveItem(s.ctx, userID, productID)

	// then
	require.NoError(s.T(), err, "RemoveItem should not return an error")
	cart, err := s.store.FindByUserID(s.ctx, userID)
	require.NoError(s.T(), err)
	require.Len(s.T(), cart.Items, 1, "Only the targeted line should be removed")
	require.Equal(s.T(), otherID, cart.Items[0].ProductID)
}

func (s *CartStoreSuite) TestRemoveItem_CartNotFound() {
	s.SetupTest()
	// when
	err := s.store.RemoveItem(s.ctx, uuid.New(), uuid.New())

	// then
	require.ErrorIs(s.T(), err, carterrors.ErrCartNotFound)
}

func (s *CartStoreSuite) TestRemoveItem_LineNotFound() {
	s.SetupTest()
	// given
	userID := uuid.New()
	require.NoError(s.T(), s.store.UpsertItems(s.ctx, userID, []CartItem{{ProductID: uuid.New(), Quantity: 1}}))

	// when
	err := s.store.RemoveItem(s.ctx, userID, uuid.New())

	// then
	require.ErrorIs(s.T(), err, carterrors.ErrCartItemNotFound)
}

func (s *CartStoreSuite) TestDecreaseItem() {
	s.SetupTest()
	// given
	userID := uuid.New()
	productID := uuid.New()
	require.NoError(s.T(), s.store.UpsertItems(s.ctx, userID, []CartItem{{ProductID: productID, Quantity: 5}}))

	// when
	err := s.store.DecreaseItem(s.ctx, userID, productID, 2)

	// then
	require.NoError(s.T(), err)
	cart, err := s.store.FindByUserID(s.ctx, userID)
	require.NoError(s.T(), err)
	require.Len(s.T(), cart.Items, 1)
	require.Equal(s.T(), int32(3), cart.Items[0].Quantity)
}

func (s *CartStoreSuite) TestDecreaseItem_DrainsLine() {
	s.SetupTest()
	// given
	userID := uuid.New()
	productID := uuid.New()
	require.NoError(s.T(), s.store.UpsertItems(s.ctx, userID, []CartItem{{ProductID: productID, Quantity: 2}}))

	// when: decrement past zero
	err := s.store.DecreaseItem(s.ctx, userID, productID, 5)

	// then: the line is dropped, never left non-positive
	require.NoError(s.T(), err)
	cart, err := s.store.FindByUserID(s.ctx, userID)
	require.NoError(s.T(), err)
	require.Empty(s.T(), cart.Items)
}

func (s *CartStoreSuite) TestDecreaseItem_CartNotFound() {
	s.SetupTest()
	// when: the user never had a cart
	err := s.store.DecreaseItem(s.ctx, uuid.New(), uuid.New(), 1)

	// then
	require.ErrorIs(s.T(), err, carterrors.ErrCartNotFound)
}

func (s *CartStoreSuite) TestDecreaseItem_LineNotFound() {
	s.SetupTest()
	// given
	userID := uuid.New()
	require.NoError(s.T(), s.store.UpsertItems(s.ctx, userID, []CartItem{{ProductID: uuid.New(), Quantity: 1}}))

	// when
	err := s.store.DecreaseItem(s.ctx, userID, uuid.New(), 1)

	// then
	require.ErrorIs(s.T(), err, carterrors.ErrCartItemNotFound)
}
