package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/stockcore/backend/internal/domain/shared"
)

// newMockItemRepository creates a GormItemRepository with a mocked SQL connection
func newMockItemRepository(t *testing.T) (*GormItemRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormItemRepository(gormDB), mock, mockDB
}

func TestNewGormItemRepository(t *testing.T) {
	t.Run("creates repository with valid DB", func(t *testing.T) {
		repo, _, mockDB := newMockItemRepository(t)
		defer mockDB.Close()

		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestGormItemRepository_FindByID(t *testing.T) {
	t.Run("finds existing item", func(t *testing.T) {
		repo, mock, mockDB := newMockItemRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "version", "code", "name", "stock_uom", "is_stock_item", "has_batch_no"}).
			AddRow(itemID, 1, "WIDGET-001", "Widget", "Nos", true, false)

		mock.ExpectQuery(`SELECT \* FROM "items" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(itemID, 1).
			WillReturnRows(rows)

		mock.ExpectQuery(`SELECT \* FROM "uom_conversions" WHERE "uom_conversions"\."item_id" = \$1`).
			WithArgs(itemID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "item_id", "from_uom", "to_uom", "factor"}))

		item, err := repo.FindByID(context.Background(), itemID)

		assert.NoError(t, err)
		assert.NotNil(t, item)
		assert.Equal(t, itemID, item.ID)
		assert.Equal(t, "WIDGET-001", item.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing item", func(t *testing.T) {
		repo, mock, mockDB := newMockItemRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "items" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(itemID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		item, err := repo.FindByID(context.Background(), itemID)

		assert.Error(t, err)
		assert.Nil(t, item)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormItemRepository_FindByCode(t *testing.T) {
	t.Run("finds item by code", func(t *testing.T) {
		repo, mock, mockDB := newMockItemRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "version", "code", "name", "stock_uom"}).
			AddRow(itemID, 1, "WIDGET-001", "Widget", "Nos")

		mock.ExpectQuery(`SELECT \* FROM "items" WHERE code = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("WIDGET-001", 1).
			WillReturnRows(rows)

		mock.ExpectQuery(`SELECT \* FROM "uom_conversions" WHERE "uom_conversions"\."item_id" = \$1`).
			WithArgs(itemID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "item_id", "from_uom", "to_uom", "factor"}))

		item, err := repo.FindByCode(context.Background(), "WIDGET-001")

		assert.NoError(t, err)
		assert.NotNil(t, item)
		assert.Equal(t, "WIDGET-001", item.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("uppercases the lookup code", func(t *testing.T) {
		repo, mock, mockDB := newMockItemRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "version", "code", "name", "stock_uom"}).
			AddRow(itemID, 1, "WIDGET-001", "Widget", "Nos")

		mock.ExpectQuery(`SELECT \* FROM "items" WHERE code = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("WIDGET-001", 1).
			WillReturnRows(rows)

		mock.ExpectQuery(`SELECT \* FROM "uom_conversions" WHERE "uom_conversions"\."item_id" = \$1`).
			WithArgs(itemID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "item_id", "from_uom", "to_uom", "factor"}))

		item, err := repo.FindByCode(context.Background(), "widget-001")

		assert.NoError(t, err)
		assert.NotNil(t, item)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for unknown code", func(t *testing.T) {
		repo, mock, mockDB := newMockItemRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "items" WHERE code = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("MISSING", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		item, err := repo.FindByCode(context.Background(), "MISSING")

		assert.Error(t, err)
		assert.Nil(t, item)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormItemRepository_ListVariants(t *testing.T) {
	t.Run("lists variants ordered by code", func(t *testing.T) {
		repo, mock, mockDB := newMockItemRepository(t)
		defer mockDB.Close()

		templateID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "version", "code", "name", "stock_uom", "variant_of"}).
			AddRow(uuid.New(), 1, "SHIRT-L", "Shirt Large", "Nos", templateID).
			AddRow(uuid.New(), 1, "SHIRT-M", "Shirt Medium", "Nos", templateID)

		mock.ExpectQuery(`SELECT \* FROM "items" WHERE variant_of = \$1 ORDER BY code ASC`).
			WithArgs(templateID).
			WillReturnRows(rows)

		variants, err := repo.ListVariants(context.Background(), templateID)

		assert.NoError(t, err)
		assert.Len(t, variants, 2)
		assert.Equal(t, "SHIRT-L", variants[0].Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty slice when template has no variants", func(t *testing.T) {
		repo, mock, mockDB := newMockItemRepository(t)
		defer mockDB.Close()

		templateID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "items" WHERE variant_of = \$1 ORDER BY code ASC`).
			WithArgs(templateID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "version", "code", "name", "stock_uom"}))

		variants, err := repo.ListVariants(context.Background(), templateID)

		assert.NoError(t, err)
		assert.Empty(t, variants)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
