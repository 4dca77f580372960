package team

import (
	"context"
	"errors"
	"time"

	"hackportal/pkg/user"

	"gorm.io/datatypes"
)

var (
	ErrTeamExists        = errors.New("TEAM_EXISTS")
	ErrTeamNotFound      = errors.New("TEAM_NOT_FOUND")
	ErrTeamFull          = errors.New("TEAM_FULL")
	ErrTeamLocked        = errors.New("TEAM_LOCKED")
	ErrNotInTeam         = errors.New("NOT_IN_TEAM")
	ErrAlreadyInTeam     = errors.New("ALREADY_IN_TEAM")
	ErrLeaderCannotLeave = errors.New("LEADER_CANNOT_LEAVE")
	ErrMemberNotFound    = errors.New("MEMBER_NOT_FOUND")
	ErrInvalidStatus     = errors.New("INVALID_STATUS")
	ErrInvalidCategory   = errors.New("INVALID_CATEGORY")
	ErrRoleNotAllowed    = errors.New("ROLE_NOT_ALLOWED")
)

// MaxMembers - без учета лидера, то есть максимум 6 человек в команде
const MaxMembers = 5

type Category string

const (
	CategorySoftware Category = "Software"
	CategoryHardware Category = "Hardware"
)

func (c Category) Valid() bool {
	return c == CategorySoftware || c == CategoryHardware
}

type Status string

const (
	StatusPending     Status = "pending"
	StatusNominated   Status = "nominated"
	StatusSelected    Status = "selected"
	StatusNotSelected Status = "not_selected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusNominated, StatusSelected, StatusNotSelected:
		return true
	}
	return false
}

type Leader struct {
	UID   string `gorm:"type:varchar(64);column:uid" json:"uid"`
	Name  string `gorm:"type:varchar(255);column:name" json:"name"`
	Email string `gorm:"type:varchar(255);column:email" json:"email"`
}

type Member struct {
	UID        string `json:"uid"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Enrollment string `json:"enrollment"`
	Contact    string `json:"contact"`
	Gender     string `json:"gender"`
}

type Mentor struct {
	Name        string `gorm:"type:varchar(255);column:name" json:"name"`
	Email       string `gorm:"type:varchar(255);column:email" json:"email"`
	Contact     string `gorm:"type:varchar(32);column:contact" json:"contact"`
	Designation string `gorm:"type:varchar(255);column:designation" json:"designation"`
}

type Team struct {
	ID               string                      `gorm:"primaryKey;type:varchar(64);column:id"`
	Name             string                      `gorm:"type:varchar(128);uniqueIndex;not null;column:name"`
	Leader           Leader                      `gorm:"embedded;embeddedPrefix:leader_"`
	Institute        string                      `gorm:"type:varchar(255);index;column:institute"`
	Department       string                      `gorm:"type:varchar(255);column:department"`
	Category         Category                    `gorm:"type:varchar(16);column:category"`
	Members          datatypes.JSONSlice[Member] `gorm:"type:jsonb;column:members"`
	Mentor           Mentor                      `gorm:"embedded;embeddedPrefix:mentor_"`
	Locked           bool                        `gorm:"not null;column:locked"`
	NominationStatus Status                      `gorm:"type:varchar(16);column:nomination_status"`
	SelectionStatus  Status                      `gorm:"type:varchar(16);column:selection_status"`
	JuryPanelID      *string                     `gorm:"type:varchar(64);index;column:jury_panel_id"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// StatusUpdate - nil означает "не трогать"
type StatusUpdate struct {
	Nomination *Status
	Selection  *Status
}

type TeamsRepo interface {
	ExistsByName(ctx context.Context, name string) (bool, error)
	CreateTeam(ctx context.Context, t *Team, leaderDetails user.Details) error
	GetTeam(ctx context.Context, teamID string) (*Team, error)
	List(ctx context.Context, institute string) ([]*Team, error)
	AddMember(ctx context.Context, teamID, uid string, details user.Details) (*Team, error)
	AddInvitedMember(ctx context.Context, teamID string, profile *user.User) (*Team, error)
	LeaveTeam(ctx context.Context, uid string) (*Team, *user.User, error)
	RemoveMemberByEmail(ctx context.Context, teamID, email, actor string) (*Team, error)
	DeleteTeam(ctx context.Context, teamID, actor string) (*Team, error)
	CascadeDelete(ctx context.Context, teamID string) error
	PullMembers(ctx context.Context, teamID string, uids []string) error
	SetLocked(ctx context.Context, teamID string, locked bool) (*Team, error)
	SetStatus(ctx context.Context, teamID string, upd StatusUpdate) (*Team, error)
	SetMentor(ctx context.Context, teamID string, mentor Mentor) (*Team, error)
	AssignPanel(ctx context.Context, teamID string, panelID *string) (*Team, error)
}
