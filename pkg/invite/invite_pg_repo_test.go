package invite_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hackportal/pkg/invite"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherFunc(func(expected, actual string) error {
		normalize := func(s string) string { return strings.Join(strings.Fields(s), " ") }
		if strings.HasPrefix(normalize(actual), normalize(expected)) {
			return nil
		}
		return sqlmock.ErrCancelled
	})))
	require.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{})
	require.NoError(t, err)

	return gdb, mock, func() { _ = mockDB.Close() }
}

var inviteColumns = []string{"id", "team_id", "team_name", "created_at"}

func TestInvitesRepoPg_GetOrCreate(t *testing.T) {
	tests := []struct {
		name     string
		mockFunc func(sqlmock.Sqlmock)
		wantID   string
		wantErr  bool
	}{
		{
			name: "existing invite reused",
			mockFunc: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT * FROM "team_invites" WHERE team_id = $1`).
					WithArgs("team-1", 1).
					WillReturnRows(sqlmock.NewRows(inviteColumns).AddRow("inv-1", "team-1", "Alpha", time.Now()))
			},
			wantID: "inv-1",
		},
		{
			name: "created on first call",
			mockFunc: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT * FROM "team_invites" WHERE team_id = $1`).
					WillReturnRows(sqlmock.NewRows(inviteColumns))
				m.ExpectBegin()
				m.ExpectExec(`INSERT INTO "team_invites"`).
					WillReturnResult(sqlmock.NewResult(1, 1))
				m.ExpectCommit()
			},
		},
		{
			name: "concurrent create converges on stored invite",
			mockFunc: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT * FROM "team_invites" WHERE team_id = $1`).
					WillReturnRows(sqlmock.NewRows(inviteColumns))
				m.ExpectBegin()
				m.ExpectExec(`INSERT INTO "team_invites"`).
					WillReturnResult(sqlmock.NewResult(0, 0))
				m.ExpectCommit()
				m.ExpectQuery(`SELECT * FROM "team_invites" WHERE team_id = $1`).
					WillReturnRows(sqlmock.NewRows(inviteColumns).AddRow("inv-winner", "team-1", "Alpha", time.Now()))
			},
			wantID: "inv-winner",
		},
		{
			name: "sql error",
			mockFunc: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT * FROM "team_invites"`).
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := newMockDB(t)
			defer cleanup()

			repo := invite.NewInvitesRepoPg(zap.NewNop().Sugar(), db)
			tt.mockFunc(mock)

			inv, err := repo.GetOrCreate(context.Background(), "team-1", "Alpha")
			if tt.wantErr {
				require.Error(t, err)
				require.Nil(t, inv)
			} else {
				require.NoError(t, err)
				require.Equal(t, "team-1", inv.TeamID)
				if tt.wantID != "" {
					require.Equal(t, tt.wantID, inv.ID)
				} else {
					require.NotEmpty(t, inv.ID)
				}
			}

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestInvitesRepoPg_Get_NotFound(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := invite.NewInvitesRepoPg(zap.NewNop().Sugar(), db)

	mock.ExpectQuery(`SELECT * FROM "team_invites" WHERE id = $1`).
		WithArgs("nope", 1).
		WillReturnRows(sqlmock.NewRows(inviteColumns))

	_, err := repo.Get(context.Background(), "nope")
	require.ErrorIs(t, err, invite.ErrInviteNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNoopCache(t *testing.T) {
	var c invite.LinkCache = invite.NoopCache{}

	require.NoError(t, c.Set(context.Background(), "team-1", "inv-1"))
	id, err := c.Get(context.Background(), "team-1")
	require.NoError(t, err)
	require.Empty(t, id)
}
