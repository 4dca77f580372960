package jury

import (
	"context"
	"errors"
	"time"

	"hackportal/pkg/auditlog"
	"hackportal/pkg/team"
	"hackportal/pkg/user"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PanelsRepoPg struct {
	logger *zap.SugaredLogger
	db     *gorm.DB
}

func NewPanelsRepoPg(logger *zap.SugaredLogger, db *gorm.DB) *PanelsRepoPg {
	return &PanelsRepoPg{
		logger: logger,
		db:     db,
	}
}

func (repo *PanelsRepoPg) Create(ctx context.Context, p *Panel) error {
	repo.logger.Debugw("Create()", "panelID", p.ID, "status", p.Status)

	if p.Members == nil {
		p.Members = []PanelMember{}
	}

	if err := repo.db.WithContext(ctx).Create(p).Error; err != nil {
		repo.logger.Errorw("failed to create panel", "name", p.Name, "err", err)
		return err
	}
	return nil
}

func (repo *PanelsRepoPg) Get(ctx context.Context, panelID string) (*Panel, error) {
	repo.logger.Debugw("Get()", "panelID", panelID)

	var p Panel
	if err := repo.db.WithContext(ctx).First(&p, "id = ?", panelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPanelNotFound
		}
		repo.logger.Errorw("failed to query panel", "panelID", panelID, "err", err)
		return nil, err
	}
	return &p, nil
}

func (repo *PanelsRepoPg) List(ctx context.Context) ([]*Panel, error) {
	repo.logger.Debugw("List()")

	var rows []*Panel
	if err := repo.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		repo.logger.Errorw("failed to list panels", "err", err)
		return nil, err
	}
	return rows, nil
}

// Activate - переход draft -> active под блокировкой строки, повторная финализация невозможна
func (repo *PanelsRepoPg) Activate(ctx context.Context, panelID string, members []PanelMember) (*Panel, error) {
	repo.logger.Debugw("Activate()", "panelID", panelID, "members", len(members))

	var p Panel
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.lockAndLoad(tx, panelID, &p); err != nil {
			return err
		}
		if p.Status == StatusActive {
			repo.logger.Warnw("panel already active", "panelID", panelID)
			return ErrPanelActive
		}

		p.Status = StatusActive
		p.Members = members
		p.UpdatedAt = time.Now().UTC()
		return tx.Model(&p).Select("status", "members", "updated_at").Updates(&p).Error
	})

	if err != nil {
		repo.logger.Errorw("failed to activate panel", "panelID", panelID, "err", err)
		return nil, err
	}
	return &p, nil
}

// Delete - снимает панель с команд, удаляет профили жюри и саму панель. Аккаунты удаляет сервис
func (repo *PanelsRepoPg) Delete(ctx context.Context, panelID, actor string) (*Panel, error) {
	repo.logger.Debugw("Delete()", "panelID", panelID)

	var p Panel
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.lockAndLoad(tx, panelID, &p); err != nil {
			return err
		}

		if err := tx.Model(&team.Team{}).
			Where("jury_panel_id = ?", panelID).
			Update("jury_panel_id", nil).Error; err != nil {
			return err
		}

		if uids := p.MemberUIDs(); len(uids) > 0 {
			if err := tx.Where("uid IN ? AND role = ?", uids, user.RoleJury).Delete(&user.User{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("id = ?", panelID).Delete(&Panel{}).Error; err != nil {
			return err
		}

		return auditlog.Write(tx, actor, auditlog.ActionPanelDelete, panelID, p.Name)
	})

	if err != nil {
		repo.logger.Errorw("failed to delete panel", "panelID", panelID, "err", err)
		return nil, err
	}
	return &p, nil
}

func (repo *PanelsRepoPg) lockAndLoad(tx *gorm.DB, panelID string, p *Panel) error {
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(p, "id = ?", panelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			repo.logger.Warnw("panel does not exist", "panelID", panelID)
			return ErrPanelNotFound
		}
		return err
	}
	return nil
}
