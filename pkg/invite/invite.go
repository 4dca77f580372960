package invite

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInviteNotFound = errors.New("INVITE_NOT_FOUND")
)

// TeamInvite - id используется как сегмент пути в ссылке {baseUrl}/join/{id}; не истекает
type TeamInvite struct {
	ID        string    `gorm:"primaryKey;type:varchar(64);column:id" json:"id"`
	TeamID    string    `gorm:"type:varchar(64);uniqueIndex;not null;column:team_id" json:"team_id"`
	TeamName  string    `gorm:"type:varchar(128);column:team_name" json:"team_name"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

type InvitesRepo interface {
	GetOrCreate(ctx context.Context, teamID, teamName string) (*TeamInvite, error)
	Get(ctx context.Context, inviteID string) (*TeamInvite, error)
}

// LinkCache - пустая строка без ошибки означает промах
type LinkCache interface {
	Get(ctx context.Context, teamID string) (string, error)
	Set(ctx context.Context, teamID, inviteID string) error
}

type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (string, error) { return "", nil }

func (NoopCache) Set(context.Context, string, string) error { return nil }
