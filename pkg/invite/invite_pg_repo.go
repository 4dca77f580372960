package invite

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvitesRepoPg struct {
	logger *zap.SugaredLogger
	db     *gorm.DB
}

func NewInvitesRepoPg(logger *zap.SugaredLogger, db *gorm.DB) *InvitesRepoPg {
	return &InvitesRepoPg{
		logger: logger,
		db:     db,
	}
}

// GetOrCreate - уникальный индекс на team_id + ON CONFLICT DO NOTHING: два одновременных
// первых вызова сходятся на одном приглашении
func (repo *InvitesRepoPg) GetOrCreate(ctx context.Context, teamID, teamName string) (*TeamInvite, error) {
	repo.logger.Debugw("GetOrCreate()", "teamID", teamID)

	existing, err := repo.findByTeam(ctx, teamID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrInviteNotFound) {
		return nil, err
	}

	inv := &TeamInvite{
		ID:        uuid.NewString(),
		TeamID:    teamID,
		TeamName:  teamName,
		CreatedAt: time.Now().UTC(),
	}

	res := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "team_id"}},
			DoNothing: true,
		}).
		Create(inv)
	if res.Error != nil {
		repo.logger.Errorw("failed to create invite", "teamID", teamID, "err", res.Error)
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		repo.logger.Debugw("invite created concurrently, rereading", "teamID", teamID)
		return repo.findByTeam(ctx, teamID)
	}

	repo.logger.Debugw("invite created", "teamID", teamID, "inviteID", inv.ID)
	return inv, nil
}

func (repo *InvitesRepoPg) Get(ctx context.Context, inviteID string) (*TeamInvite, error) {
	repo.logger.Debugw("Get()", "inviteID", inviteID)

	var inv TeamInvite
	if err := repo.db.WithContext(ctx).First(&inv, "id = ?", inviteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		repo.logger.Errorw("failed to query invite", "inviteID", inviteID, "err", err)
		return nil, err
	}

	return &inv, nil
}

func (repo *InvitesRepoPg) findByTeam(ctx context.Context, teamID string) (*TeamInvite, error) {
	var inv TeamInvite
	if err := repo.db.WithContext(ctx).First(&inv, "team_id = ?", teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		repo.logger.Errorw("failed to query invite by team", "teamID", teamID, "err", err)
		return nil, err
	}
	return &inv, nil
}
