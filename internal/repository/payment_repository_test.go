package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"kbine/internal/model"
)

// newDryRunDB builds a gorm handle that only renders SQL, recording
// every generated statement. It uses the production MySQL dialector so
// the rendered clauses match what runs in production; dry-run never
// opens a connection.
func newDryRunDB(t *testing.T) (*gorm.DB, *[]string) {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "dryrun:dryrun@tcp(127.0.0.1:3306)/dryrun",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)

	var statements []string
	capture := func(tx *gorm.DB) {
		statements = append(statements, tx.Statement.SQL.String())
	}
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("capture", capture))
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("capture", capture))
	return db, &statements
}

func TestPaymentRepository_CreateLeavesExternalReferenceNull(t *testing.T) {
	db, statements := newDryRunDB(t)
	repo := NewPaymentRepository(db)

	payment := &model.Payment{
		OrderID:           uuid.New(),
		Amount:            decimal.NewFromInt(5000),
		Method:            model.PaymentMethodWave,
		InternalReference: "PAY-1714644000000-KB-7F3K9Q2M-a1b2c3d4",
		Status:            model.PaymentStatusPending,
	}

	require.NoError(t, repo.Create(context.Background(), payment))

	// The external reference is uniquely indexed, so unassigned rows
	// must store NULL rather than ''. Two concurrent initiations, or a
	// retry while a provider-failed payment still sits pending, would
	// otherwise collide on the empty string.
	require.Len(t, *statements, 1)
	insert := (*statements)[0]
	assert.Contains(t, insert, "internal_reference")
	assert.NotContains(t, insert, "external_reference")
}

func TestPaymentRepository_ForUpdateReadsTakeRowLocks(t *testing.T) {
	db, statements := newDryRunDB(t)
	repo := NewPaymentRepository(db)

	_, err := repo.FindByIDForUpdateTx(context.Background(), db, uuid.New())
	require.NoError(t, err)
	_, err = repo.FindByExternalReferenceForUpdateTx(context.Background(), db, "cos-18qq25rgr100a")
	require.NoError(t, err)

	require.Len(t, *statements, 2)
	for _, query := range *statements {
		assert.Contains(t, query, "FOR UPDATE")
	}
}
