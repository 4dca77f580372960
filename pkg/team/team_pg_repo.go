package team

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hackportal/internal/pgerr"
	"hackportal/pkg/auditlog"
	"hackportal/pkg/user"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TeamsRepoPg struct {
	logger *zap.SugaredLogger
	db     *gorm.DB
}

func NewTeamsRepoPg(logger *zap.SugaredLogger, db *gorm.DB) *TeamsRepoPg {
	return &TeamsRepoPg{
		logger: logger,
		db:     db,
	}
}

func (repo *TeamsRepoPg) ExistsByName(ctx context.Context, name string) (bool, error) {
	repo.logger.Debugw("ExistsByName()", "name", name)

	var count int64
	if err := repo.db.WithContext(ctx).Model(&Team{}).Where("name = ?", name).Count(&count).Error; err != nil {
		repo.logger.Errorw("failed to count teams by name", "name", name, "err", err)
		return false, err
	}

	return count > 0, nil
}

// CreateTeam - команда и обновление профиля лидера в одной транзакции
func (repo *TeamsRepoPg) CreateTeam(ctx context.Context, t *Team, leaderDetails user.Details) error {
	repo.logger.Debugw("CreateTeam()", "teamID", t.ID, "name", t.Name, "leader", t.Leader.UID)

	if t.Members == nil {
		t.Members = []Member{}
	}

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			if pgerr.IsUniqueViolation(err) {
				repo.logger.Warnw("couldnt create team - already exists", "name", t.Name)
				return ErrTeamExists
			}
			repo.logger.Errorw("error creating team", "name", t.Name, "err", err)
			return err
		}

		updates := leaderDetails.Updates()
		updates["role"] = user.RoleLeader
		updates["team_id"] = t.ID

		res := tx.Model(&user.User{}).Where("uid = ?", t.Leader.UID).Updates(updates)
		if res.Error != nil {
			repo.logger.Errorw("error updating leader profile", "uid", t.Leader.UID, "err", res.Error)
			return res.Error
		}
		if res.RowsAffected == 0 {
			repo.logger.Warnw("leader profile not found", "uid", t.Leader.UID)
			return user.ErrUserNotFound
		}

		return nil
	})

	if err != nil {
		repo.logger.Errorw("failed to create team", "name", t.Name, "err", err)
		return err
	}

	repo.logger.Debugw("created team", "teamID", t.ID, "name", t.Name)
	return nil
}

func (repo *TeamsRepoPg) GetTeam(ctx context.Context, teamID string) (*Team, error) {
	repo.logger.Debugw("GetTeam()", "teamID", teamID)

	var t Team
	if err := repo.db.WithContext(ctx).First(&t, "id = ?", teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			repo.logger.Warnw("team not found", "teamID", teamID)
			return nil, ErrTeamNotFound
		}
		repo.logger.Errorw("failed to query team", "teamID", teamID, "err", err)
		return nil, err
	}

	return &t, nil
}

func (repo *TeamsRepoPg) List(ctx context.Context, institute string) ([]*Team, error) {
	repo.logger.Debugw("List()", "institute", institute)

	query := repo.db.WithContext(ctx).Model(&Team{})
	if institute != "" {
		query = query.Where("institute = ?", institute)
	}

	var rows []*Team
	if err := query.Order("name ASC").Find(&rows).Error; err != nil {
		repo.logger.Errorw("failed to list teams", "institute", institute, "err", err)
		return nil, err
	}

	return rows, nil
}

// AddMember - участник уже аутентифицирован и должен иметь роль member, роль не меняется
func (repo *TeamsRepoPg) AddMember(ctx context.Context, teamID, uid string, details user.Details) (*Team, error) {
	repo.logger.Debugw("AddMember()", "teamID", teamID, "uid", uid)

	var t Team
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.lockAndLoadTeam(tx, teamID, &t); err != nil {
			return err
		}
		if t.Locked {
			repo.logger.Warnw("team is locked", "teamID", teamID)
			return ErrTeamLocked
		}

		var u user.User
		if err := tx.First(&u, "uid = ?", uid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return user.ErrUserNotFound
			}
			return err
		}
		// вступить напрямую может только обычный участник: spoc, admin и jury в составы не входят
		if u.Role != user.RoleMember {
			repo.logger.Warnw("role cannot join a team", "uid", uid, "role", u.Role)
			return fmt.Errorf("role %s cannot join a team: %w", u.Role, ErrRoleNotAllowed)
		}
		if u.HasTeam() {
			repo.logger.Warnw("user already belongs to a team", "uid", uid, "teamID", *u.TeamID)
			return ErrAlreadyInTeam
		}
		u.Apply(details)

		if err := t.appendMember(MemberFromUser(&u)); err != nil {
			repo.logger.Warnw("couldnt add member", "teamID", teamID, "uid", uid, "err", err)
			return err
		}

		updates := details.Updates()
		updates["team_id"] = teamID
		if err := tx.Model(&user.User{}).Where("uid = ?", uid).Updates(updates).Error; err != nil {
			return err
		}

		return repo.saveMembers(tx, &t)
	})

	if err != nil {
		repo.logger.Errorw("failed to add member", "teamID", teamID, "uid", uid, "err", err)
		return nil, err
	}

	repo.logger.Debugw("member added", "teamID", teamID, "uid", uid, "rosterSize", t.RosterSize())
	return &t, nil
}

// AddInvitedMember - профиль создается вместе со снапшотом в команде
func (repo *TeamsRepoPg) AddInvitedMember(ctx context.Context, teamID string, profile *user.User) (*Team, error) {
	repo.logger.Debugw("AddInvitedMember()", "teamID", teamID, "uid", profile.UID)

	var t Team
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.lockAndLoadTeam(tx, teamID, &t); err != nil {
			return err
		}
		if t.Locked {
			return ErrTeamLocked
		}

		profile.TeamID = &t.ID
		if err := t.appendMember(MemberFromUser(profile)); err != nil {
			repo.logger.Warnw("couldnt add invited member", "teamID", teamID, "uid", profile.UID, "err", err)
			return err
		}

		if err := tx.Create(profile).Error; err != nil {
			return err
		}

		return repo.saveMembers(tx, &t)
	})

	if err != nil {
		repo.logger.Errorw("failed to add invited member", "teamID", teamID, "uid", profile.UID, "err", err)
		return nil, err
	}

	return &t, nil
}

// LeaveTeam - снапшот убирается по uid, а не сравнением целиком
func (repo *TeamsRepoPg) LeaveTeam(ctx context.Context, uid string) (*Team, *user.User, error) {
	repo.logger.Debugw("LeaveTeam()", "uid", uid)

	var (
		t Team
		u user.User
	)
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, "uid = ?", uid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return user.ErrUserNotFound
			}
			return err
		}
		if !u.HasTeam() {
			return ErrNotInTeam
		}
		if u.Role == user.RoleLeader {
			return ErrLeaderCannotLeave
		}

		if err := repo.lockAndLoadTeam(tx, *u.TeamID, &t); err != nil {
			return err
		}
		if t.Locked {
			return ErrTeamLocked
		}

		if idx := t.IndexOfMember(uid); idx >= 0 {
			t.removeAt(idx)
			if err := repo.saveMembers(tx, &t); err != nil {
				return err
			}
		} else {
			repo.logger.Warnw("member snapshot missing, clearing team reference only", "uid", uid, "teamID", t.ID)
		}

		if err := auditlog.Write(tx, uid, auditlog.ActionTeamLeave, t.ID, u.Email); err != nil {
			return err
		}

		return tx.Model(&user.User{}).Where("uid = ?", uid).Update("team_id", nil).Error
	})

	if err != nil {
		repo.logger.Warnw("failed to leave team", "uid", uid, "err", err)
		return nil, nil, err
	}

	u.TeamID = nil
	repo.logger.Debugw("member left team", "uid", uid, "teamID", t.ID)
	return &t, &u, nil
}

func (repo *TeamsRepoPg) RemoveMemberByEmail(ctx context.Context, teamID, email, actor string) (*Team, error) {
	repo.logger.Debugw("RemoveMemberByEmail()", "teamID", teamID, "email", email)

	var t Team
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.lockAndLoadTeam(tx, teamID, &t); err != nil {
			return err
		}

		idx := t.IndexOfEmail(email)
		if idx < 0 {
			repo.logger.Warnw("no member with this email", "teamID", teamID, "email", email)
			return ErrMemberNotFound
		}
		removed := t.removeAt(idx)

		if err := repo.saveMembers(tx, &t); err != nil {
			return err
		}

		if err := tx.Model(&user.User{}).
			Where("email = ? AND team_id = ?", removed.Email, teamID).
			Update("team_id", nil).Error; err != nil {
			return err
		}

		return auditlog.Write(tx, actor, auditlog.ActionTeamRemoveMember, teamID, removed.Email)
	})

	if err != nil {
		repo.logger.Errorw("failed to remove member", "teamID", teamID, "email", email, "err", err)
		return nil, err
	}

	return &t, nil
}

// DeleteTeam - всем участникам (и лидеру) сбрасываем команду и роль на member, затем удаляем команду
func (repo *TeamsRepoPg) DeleteTeam(ctx context.Context, teamID, actor string) (*Team, error) {
	repo.logger.Debugw("DeleteTeam()", "teamID", teamID)

	var t Team
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.lockAndLoadTeam(tx, teamID, &t); err != nil {
			return err
		}

		if err := tx.Model(&user.User{}).
			Where("(team_id = ? OR uid IN ?) AND role IN ?", teamID, t.RosterUIDs(), []user.Role{user.RoleLeader, user.RoleMember}).
			Updates(map[string]interface{}{"team_id": nil, "role": user.RoleMember}).Error; err != nil {
			return err
		}

		if err := tx.Where("id = ?", teamID).Delete(&Team{}).Error; err != nil {
			return err
		}

		return auditlog.Write(tx, actor, auditlog.ActionTeamDelete, teamID, t.Name)
	})

	if err != nil {
		repo.logger.Errorw("failed to delete team", "teamID", teamID, "err", err)
		return nil, err
	}

	repo.logger.Debugw("team deleted", "teamID", teamID, "rosterSize", t.RosterSize())
	return &t, nil
}

// CascadeDelete - вариант для массового удаления: роли не трогаем, только ссылки на команду
func (repo *TeamsRepoPg) CascadeDelete(ctx context.Context, teamID string) error {
	repo.logger.Debugw("CascadeDelete()", "teamID", teamID)

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t Team
		if err := repo.lockAndLoadTeam(tx, teamID, &t); err != nil {
			return err
		}

		if err := tx.Model(&user.User{}).
			Where("team_id = ? OR uid IN ?", teamID, t.RosterUIDs()).
			Update("team_id", nil).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", teamID).Delete(&Team{}).Error
	})

	if err != nil {
		repo.logger.Errorw("failed to cascade delete team", "teamID", teamID, "err", err)
		return err
	}

	return nil
}

func (repo *TeamsRepoPg) PullMembers(ctx context.Context, teamID string, uids []string) error {
	repo.logger.Debugw("PullMembers()", "teamID", teamID, "count", len(uids))

	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t Team
		if err := repo.lockAndLoadTeam(tx, teamID, &t); err != nil {
			return err
		}

		if t.removeUIDs(uids) == 0 {
			return nil
		}

		return repo.saveMembers(tx, &t)
	})
}

func (repo *TeamsRepoPg) SetLocked(ctx context.Context, teamID string, locked bool) (*Team, error) {
	repo.logger.Debugw("SetLocked()", "teamID", teamID, "locked", locked)

	return repo.updateTeam(ctx, teamID, func(t *Team) ([]string, error) {
		t.Locked = locked
		return []string{"locked"}, nil
	})
}

func (repo *TeamsRepoPg) SetStatus(ctx context.Context, teamID string, upd StatusUpdate) (*Team, error) {
	repo.logger.Debugw("SetStatus()", "teamID", teamID)

	return repo.updateTeam(ctx, teamID, func(t *Team) ([]string, error) {
		cols := make([]string, 0, 2)
		if upd.Nomination != nil {
			if !upd.Nomination.Valid() {
				return nil, ErrInvalidStatus
			}
			t.NominationStatus = *upd.Nomination
			cols = append(cols, "nomination_status")
		}
		if upd.Selection != nil {
			if !upd.Selection.Valid() {
				return nil, ErrInvalidStatus
			}
			t.SelectionStatus = *upd.Selection
			cols = append(cols, "selection_status")
		}
		if len(cols) == 0 {
			return nil, ErrInvalidStatus
		}
		return cols, nil
	})
}

func (repo *TeamsRepoPg) SetMentor(ctx context.Context, teamID string, mentor Mentor) (*Team, error) {
	repo.logger.Debugw("SetMentor()", "teamID", teamID, "mentorEmail", mentor.Email)

	return repo.updateTeam(ctx, teamID, func(t *Team) ([]string, error) {
		t.Mentor = mentor
		return []string{"mentor_name", "mentor_email", "mentor_contact", "mentor_designation"}, nil
	})
}

func (repo *TeamsRepoPg) AssignPanel(ctx context.Context, teamID string, panelID *string) (*Team, error) {
	repo.logger.Debugw("AssignPanel()", "teamID", teamID)

	return repo.updateTeam(ctx, teamID, func(t *Team) ([]string, error) {
		t.JuryPanelID = panelID
		return []string{"jury_panel_id"}, nil
	})
}

// updateTeam - общий шаблон "заблокировать, поменять, сохранить выбранные колонки"
func (repo *TeamsRepoPg) updateTeam(ctx context.Context, teamID string, mutate func(t *Team) ([]string, error)) (*Team, error) {
	var t Team
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.lockAndLoadTeam(tx, teamID, &t); err != nil {
			return err
		}

		cols, err := mutate(&t)
		if err != nil {
			return err
		}

		t.UpdatedAt = time.Now().UTC()
		cols = append(cols, "updated_at")
		return tx.Model(&t).Select(cols).Updates(&t).Error
	})

	if err != nil {
		repo.logger.Errorw("failed to update team", "teamID", teamID, "err", err)
		return nil, err
	}

	return &t, nil
}

func (repo *TeamsRepoPg) lockAndLoadTeam(tx *gorm.DB, teamID string, t *Team) error {
	repo.logger.Debugw("lockAndLoadTeam()", "teamID", teamID)

	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(t, "id = ?", teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			repo.logger.Warnw("team does not exist", "teamID", teamID)
			return ErrTeamNotFound
		}

		repo.logger.Errorw("error finding team", "teamID", teamID, "err", err)
		return err
	}

	return nil
}

func (repo *TeamsRepoPg) saveMembers(tx *gorm.DB, t *Team) error {
	t.UpdatedAt = time.Now().UTC()
	return tx.Model(t).Select("members", "updated_at").Updates(t).Error
}
