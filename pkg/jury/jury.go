package jury

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
)

var (
	ErrPanelNotFound = errors.New("PANEL_NOT_FOUND")
	ErrPanelActive   = errors.New("PANEL_ALREADY_ACTIVE")
	ErrInvalidPanel  = errors.New("INVALID_PANEL")
)

type Status string

const (
	StatusDraft  Status = "draft"
	StatusActive Status = "active"
)

// PanelMember - в черновике uid пустой, после финализации есть только uid/name/email
type PanelMember struct {
	UID         string `json:"uid,omitempty"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Designation string `json:"designation,omitempty"`
	Institute   string `json:"institute,omitempty"`
}

type Panel struct {
	ID        string                           `gorm:"primaryKey;type:varchar(64);column:id" json:"id"`
	Name      string                           `gorm:"type:varchar(255);not null;column:name" json:"name"`
	Status    Status                           `gorm:"type:varchar(16);index;not null;column:status" json:"status"`
	Members   datatypes.JSONSlice[PanelMember] `gorm:"type:jsonb;column:members" json:"members"`
	CreatedAt time.Time                        `json:"created_at"`
	UpdatedAt time.Time                        `json:"updated_at"`
}

func (Panel) TableName() string {
	return "jury_panels"
}

func (p *Panel) MemberUIDs() []string {
	out := make([]string, 0, len(p.Members))
	for _, m := range p.Members {
		if m.UID != "" {
			out = append(out, m.UID)
		}
	}
	return out
}

type PanelsRepo interface {
	Create(ctx context.Context, p *Panel) error
	Get(ctx context.Context, panelID string) (*Panel, error)
	List(ctx context.Context) ([]*Panel, error)
	Activate(ctx context.Context, panelID string, members []PanelMember) (*Panel, error)
	Delete(ctx context.Context, panelID, actor string) (*Panel, error)
}
