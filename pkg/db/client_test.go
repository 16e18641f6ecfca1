package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/asookemart/asooke-backend/pkg/db"
	"github.com/asookemart/asooke-backend/pkg/db/dbtest"
	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	client := dbtest.Client(t)
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&models.Category{Name: "Etu"}).Error
	}))

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&models.Category{Name: "Alaari"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, client.DB().Model(&models.Category{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPing(t *testing.T) {
	client := dbtest.Client(t)
	require.NoError(t, client.Ping(context.Background()))
}

func TestNextSequenceIsMonotonicPerName(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()

	first, err := db.NextSequence(ctx, conn, db.SequenceOrder)
	require.NoError(t, err)
	second, err := db.NextSequence(ctx, conn, db.SequenceOrder)
	require.NoError(t, err)
	other, err := db.NextSequence(ctx, conn, db.SequenceTracking)
	require.NoError(t, err)

	assert.EqualValues(t, 1, first)
	assert.EqualValues(t, 2, second)
	assert.EqualValues(t, 1, other)
}

func TestNextSequenceRollsBackWithTx(t *testing.T) {
	client := dbtest.Client(t)
	ctx := context.Background()

	_ = client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := db.NextSequence(ctx, tx, db.SequenceOrder)
		require.NoError(t, err)
		return errors.New("abort")
	})

	n, err := db.NextSequence(ctx, client.DB(), db.SequenceOrder)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var stored models.IDSequence
	require.NoError(t, client.DB().First(&stored, "name = ?", db.SequenceOrder).Error)
	assert.EqualValues(t, 1, stored.Value)
}

func TestIdentifierFormats(t *testing.T) {
	assert.Equal(t, "#AO-OD-0007", db.FormatOrderNumber(7))
	assert.Equal(t, "#AO-OT-0012", db.FormatTrackingNumber(12))
	assert.Equal(t, "#AO-P-0100", db.FormatProductNumber(100))
	assert.Equal(t, "A0-DR-0003", db.FormatRiderNumber(3))
	assert.Equal(t, "#AO-OD-12345", db.FormatOrderNumber(12345))
}

func TestIsUniqueViolationMatchesSQLite(t *testing.T) {
	conn := dbtest.Open(t)
	require.NoError(t, conn.Create(&models.Category{Name: "Sanyan"}).Error)
	err := conn.Create(&models.Category{Name: "Sanyan"}).Error
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
	assert.True(t, db.IsUniqueViolation(err, "categories.name"))
	assert.False(t, db.IsUniqueViolation(errors.New("other"), ""))
}
