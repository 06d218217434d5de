package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"eventplanner/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestRegistrationTxManager_InEventTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits a full admission", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		registered := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM events WHERE id = \$1 FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-1"))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM attendees`).
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("ev-1", "alice@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(`INSERT INTO attendees`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("att-1"))
		mock.ExpectCommit()

		m := NewRegistrationTxManager(db)
		attendee := &domain.Attendee{
			EventID: "ev-1", Email: "alice@example.com", FullName: "Alice",
			Status: domain.AttendeeStatusConfirmed, RegisteredAt: registered,
		}
		err = m.InEventTx(ctx, "ev-1", func(ctx context.Context, tx domain.RegistrationTx) error {
			count, err := tx.ConfirmedCount(ctx)
			require.NoError(t, err)
			require.Equal(t, 3, count)

			exists, err := tx.AttendeeExists(ctx, "alice@example.com")
			require.NoError(t, err)
			require.False(t, exists)

			return tx.CreateAttendee(ctx, attendee)
		})
		require.NoError(t, err)
		require.Equal(t, "att-1", attendee.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing event", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM events WHERE id = \$1 FOR UPDATE`).
			WithArgs("ev-missing").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		m := NewRegistrationTxManager(db)
		err = m.InEventTx(ctx, "ev-missing", func(ctx context.Context, tx domain.RegistrationTx) error {
			t.Fatal("callback must not run when the event does not exist")
			return nil
		})
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("callback error rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM events WHERE id = \$1 FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-1"))
		mock.ExpectRollback()

		boom := errors.New("policy says no")
		m := NewRegistrationTxManager(db)
		err = m.InEventTx(ctx, "ev-1", func(ctx context.Context, tx domain.RegistrationTx) error {
			return boom
		})
		require.ErrorIs(t, err, boom)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost invitation race surfaces as not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM events WHERE id = \$1 FOR UPDATE`).
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-1"))
		// The pending guard matches no rows: someone else resolved it first.
		mock.ExpectExec(`UPDATE attendee_invitations`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		m := NewRegistrationTxManager(db)
		err = m.InEventTx(ctx, "ev-1", func(ctx context.Context, tx domain.RegistrationTx) error {
			return tx.UpdateInvitation(ctx, sampleInvitation())
		})
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
