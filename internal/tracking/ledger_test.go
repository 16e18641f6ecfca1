package tracking

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/asookemart/asooke-backend/internal/notifications"
	"github.com/asookemart/asooke-backend/pkg/db/dbtest"
	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/enums"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/logger"
	"github.com/asookemart/asooke-backend/pkg/metrics"
)

type stubNotifier struct {
	events []notifications.OrderStatusEvent
	err    error
}

func (s *stubNotifier) OrderStatusChanged(_ context.Context, ev notifications.OrderStatusEvent) error {
	s.events = append(s.events, ev)
	return s.err
}

type fixture struct {
	db       *gorm.DB
	ledger   *Ledger
	notifier *stubNotifier
	order    *models.Order
	reg      *prometheus.Registry
	logs     *bytes.Buffer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	user := dbtest.SeedUser(t, conn, enums.RoleCustomer)
	order := dbtest.SeedOrder(t, conn, user.ID, 5000)

	notifier := &stubNotifier{}
	reg := prometheus.NewRegistry()
	m := metrics.NewLedgerMetrics(reg)
	logs := &bytes.Buffer{}
	ledger, err := NewLedger(conn, notifier, m, logger.New(logger.Options{ServiceName: "test", Output: logs}))
	require.NoError(t, err)
	return fixture{db: conn, ledger: ledger, notifier: notifier, order: order, reg: reg, logs: logs}
}

func (f fixture) append(t *testing.T, status enums.TrackingStatus) error {
	t.Helper()
	_, err := f.ledger.Append(context.Background(), AppendInput{OrderID: f.order.ID, Status: status})
	return err
}

func TestAppendFollowsForwardSequence(t *testing.T) {
	f := newFixture(t)
	for _, status := range []enums.TrackingStatus{
		enums.TrackingStatusPlaced,
		enums.TrackingStatusProcessing,
		enums.TrackingStatusShipped,
		enums.TrackingStatusInTransit,
		enums.TrackingStatusDelivered,
	} {
		require.NoError(t, f.append(t, status), status)
	}

	history, err := f.ledger.History(context.Background(), f.order.ID)
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.Equal(t, enums.TrackingStatusDelivered, history[4].Status)
	assert.True(t, history[4].Completed)
	assert.Equal(t, PlacedDescription, history[0].Description)
	assert.Equal(t, 5.0, appendedTotal(t, f.reg))
}

func TestAppendRejectsSkippedStep(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.append(t, enums.TrackingStatusPlaced))

	err := f.append(t, enums.TrackingStatusShipped)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSequenceViolation))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSequenceViolation))

	current, err := f.ledger.Current(context.Background(), f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TrackingStatusPlaced, current)
}

func TestAppendRequiresPlacedFirst(t *testing.T) {
	f := newFixture(t)
	err := f.append(t, enums.TrackingStatusProcessing)
	assert.ErrorIs(t, err, ErrSequenceViolation)
}

func TestAppendRejectsRepeatedStatus(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.append(t, enums.TrackingStatusPlaced))
	assert.ErrorIs(t, f.append(t, enums.TrackingStatusPlaced), ErrSequenceViolation)
}

func TestCancelledAcceptedAnywhereAndFreezesSequence(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.append(t, enums.TrackingStatusPlaced))
	require.NoError(t, f.append(t, enums.TrackingStatusProcessing))
	require.NoError(t, f.append(t, enums.TrackingStatusCancelled))

	assert.ErrorIs(t, f.append(t, enums.TrackingStatusShipped), ErrSequenceViolation)
	require.NoError(t, f.append(t, enums.TrackingStatusCancelled))

	current, err := f.ledger.Current(context.Background(), f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TrackingStatusCancelled, current)
}

func TestCancelledAcceptedAsFirstEvent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.append(t, enums.TrackingStatusCancelled))
}

func TestDeliveredIsTerminal(t *testing.T) {
	f := newFixture(t)
	dbtest.SeedTracking(t, f.db, f.order.ID,
		enums.TrackingStatusPlaced,
		enums.TrackingStatusProcessing,
		enums.TrackingStatusShipped,
		enums.TrackingStatusInTransit,
		enums.TrackingStatusDelivered,
	)
	assert.ErrorIs(t, f.append(t, enums.TrackingStatusInTransit), ErrSequenceViolation)
	assert.NoError(t, f.append(t, enums.TrackingStatusCancelled))
}

func TestCurrentDefaultsToPlaced(t *testing.T) {
	f := newFixture(t)
	current, err := f.ledger.Current(context.Background(), f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TrackingStatusPlaced, current)
}

func TestCurrentUsesInsertionOrderNotTimestamp(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.append(t, enums.TrackingStatusPlaced))
	_, err := f.ledger.Append(context.Background(), AppendInput{
		OrderID:    f.order.ID,
		Status:     enums.TrackingStatusProcessing,
		OccurredAt: f.order.CreatedAt.AddDate(-1, 0, 0),
	})
	require.NoError(t, err)

	current, err := f.ledger.Current(context.Background(), f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TrackingStatusProcessing, current)
}

func TestCurrentForOrders(t *testing.T) {
	f := newFixture(t)
	other := dbtest.SeedOrder(t, f.db, f.order.UserID, 100)
	dbtest.SeedTracking(t, f.db, f.order.ID, enums.TrackingStatusPlaced, enums.TrackingStatusProcessing)

	statuses, err := f.ledger.CurrentForOrders(context.Background(), []uuid.UUID{f.order.ID, other.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.TrackingStatusProcessing, statuses[f.order.ID])
	assert.Equal(t, enums.TrackingStatusPlaced, statuses[other.ID])
}

func TestAppendNotifiesAfterCommit(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.append(t, enums.TrackingStatusPlaced))

	require.Len(t, f.notifier.events, 1)
	ev := f.notifier.events[0]
	assert.Equal(t, f.order.OrderNumber, ev.OrderNumber)
	assert.Equal(t, enums.TrackingStatusPlaced, ev.Status)
	assert.Equal(t, "Ada Obi", ev.CustomerName)
}

func TestNotifierFailureDoesNotUndoAppend(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("mailer down")
	require.NoError(t, f.append(t, enums.TrackingStatusPlaced))

	history, err := f.ledger.History(context.Background(), f.order.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Contains(t, f.logs.String(), "tracking.notify_failed")
}

func TestBoundLedgerDefersNotificationAndRollsBack(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("later step failed")

	err := f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.ledger.WithTx(tx).Append(context.Background(), AppendInput{OrderID: f.order.ID, Status: enums.TrackingStatusPlaced})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, f.notifier.events)

	history, err := f.ledger.History(context.Background(), f.order.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAppendUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Append(context.Background(), AppendInput{OrderID: uuid.New(), Status: enums.TrackingStatusPlaced})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestAppendRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Append(context.Background(), AppendInput{OrderID: f.order.ID, Status: "lost"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCheckTransitionTable(t *testing.T) {
	events := func(statuses ...enums.TrackingStatus) []models.OrderTracking {
		out := make([]models.OrderTracking, 0, len(statuses))
		for _, s := range statuses {
			out = append(out, models.OrderTracking{Status: s})
		}
		return out
	}
	cases := []struct {
		name  string
		prior []models.OrderTracking
		next  enums.TrackingStatus
		ok    bool
	}{
		{"empty placed", nil, enums.TrackingStatusPlaced, true},
		{"empty shipped", nil, enums.TrackingStatusShipped, false},
		{"in transit to delivered", events("placed", "processing", "shipped", "in_transit"), enums.TrackingStatusDelivered, true},
		{"backwards", events("placed", "processing", "shipped"), enums.TrackingStatusProcessing, false},
		{"after cancel", events("placed", "cancelled"), enums.TrackingStatusProcessing, false},
		{"cancel after delivered", events("placed", "processing", "shipped", "in_transit", "delivered"), enums.TrackingStatusCancelled, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := checkTransition(tc.prior, tc.next)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrSequenceViolation)
			}
		})
	}
}

func appendedTotal(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, mf := range mfs {
		if mf.GetName() != "asooke_ledger_appended_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
