package auditlog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionTeamLeave        = "team.leave"
	ActionTeamRemoveMember = "team.remove_member"
	ActionTeamDelete       = "team.delete"
	ActionPanelDelete      = "jury_panel.delete"
)

// Entry - запись коллекции logs. Пишется в той же транзакции, что и изменение, которое она описывает
type Entry struct {
	ID        string    `gorm:"primaryKey;type:varchar(64);column:id" json:"id"`
	Actor     string    `gorm:"type:varchar(64);index;column:actor" json:"actor"`
	Action    string    `gorm:"type:varchar(64);index;not null;column:action" json:"action"`
	Target    string    `gorm:"type:varchar(64);index;column:target" json:"target"`
	Note      string    `gorm:"type:text;column:note" json:"note"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Entry) TableName() string {
	return "logs"
}

func Write(tx *gorm.DB, actor, action, target, note string) error {
	return tx.Create(&Entry{
		ID:        uuid.NewString(),
		Actor:     actor,
		Action:    action,
		Target:    target,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	}).Error
}
