package user

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// LookupChunk - ограничение на количество значений в "in"-выборке
	LookupChunk = 30
	// DeleteBatch - сколько документов удаляем в одной транзакции
	DeleteBatch = 400
)

type UsersRepoPg struct {
	logger *zap.SugaredLogger
	db     *gorm.DB
}

func NewUsersRepoPg(logger *zap.SugaredLogger, db *gorm.DB) *UsersRepoPg {
	return &UsersRepoPg{
		logger: logger,
		db:     db,
	}
}

func (repo *UsersRepoPg) GetByID(ctx context.Context, uid string) (*User, error) {
	repo.logger.Debugw("GetByID()", "uid", uid)

	var u User
	if err := repo.db.WithContext(ctx).First(&u, "uid = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			repo.logger.Warnw("user not found", "uid", uid)
			return nil, ErrUserNotFound
		}
		repo.logger.Errorw("failed to query user", "uid", uid, "err", err)
		return nil, err
	}

	return &u, nil
}

func (repo *UsersRepoPg) GetByEmail(ctx context.Context, email string) (*User, error) {
	repo.logger.Debugw("GetByEmail()", "email", email)

	var u User
	if err := repo.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			repo.logger.Warnw("user not found", "email", email)
			return nil, ErrUserNotFound
		}
		repo.logger.Errorw("failed to query user", "email", email, "err", err)
		return nil, err
	}

	return &u, nil
}

func (repo *UsersRepoPg) Create(ctx context.Context, u *User) error {
	repo.logger.Debugw("Create()", "uid", u.UID, "role", u.Role)

	if err := repo.db.WithContext(ctx).Create(u).Error; err != nil {
		repo.logger.Errorw("failed to create user", "uid", u.UID, "err", err)
		return err
	}

	return nil
}

// ListByIDs - выборка кусками по LookupChunk, куски идут последовательно
func (repo *UsersRepoPg) ListByIDs(ctx context.Context, uids []string) ([]*User, error) {
	repo.logger.Debugw("ListByIDs()", "count", len(uids))

	out := make([]*User, 0, len(uids))
	for ids := range slices.Chunk(uids, LookupChunk) {
		var rows []*User
		if err := repo.db.WithContext(ctx).Where("uid IN ?", ids).Find(&rows).Error; err != nil {
			repo.logger.Errorw("failed to load users chunk", "chunkSize", len(ids), "err", err)
			return nil, err
		}
		out = append(out, rows...)
	}

	return out, nil
}

func (repo *UsersRepoPg) ListByTeam(ctx context.Context, teamID string) ([]*User, error) {
	repo.logger.Debugw("ListByTeam()", "teamID", teamID)

	var rows []*User
	if err := repo.db.WithContext(ctx).Where("team_id = ?", teamID).Order("name ASC").Find(&rows).Error; err != nil {
		repo.logger.Errorw("failed to list team users", "teamID", teamID, "err", err)
		return nil, err
	}

	return rows, nil
}

func (repo *UsersRepoPg) List(ctx context.Context, filter Filter) ([]*User, error) {
	repo.logger.Debugw("List()", "role", filter.Role, "institute", filter.Institute)

	query := repo.db.WithContext(ctx).Model(&User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Institute != "" {
		query = query.Where("institute = ?", filter.Institute)
	}

	var rows []*User
	if err := query.Order("name ASC").Find(&rows).Error; err != nil {
		repo.logger.Errorw("failed to list users", "err", err)
		return nil, err
	}

	return rows, nil
}

func (repo *UsersRepoPg) SetPasswordChanged(ctx context.Context, uid string) error {
	repo.logger.Debugw("SetPasswordChanged()", "uid", uid)

	tx := repo.db.WithContext(ctx).
		Model(&User{}).
		Where("uid = ?", uid).
		Update("password_changed", true)

	if tx.Error != nil {
		repo.logger.Errorw("error setting password_changed", "uid", uid, "err", tx.Error)
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		repo.logger.Warnw("error setting password_changed - no user found with this id", "uid", uid)
		return ErrUserNotFound
	}

	return nil
}

// DeleteByIDs - удаление батчами по DeleteBatch. Батчи независимы: упавший батч не откатывает
// уже закоммиченные и не останавливает следующие. Возвращает uid из закоммиченных батчей
// и объединенную ошибку упавших
func (repo *UsersRepoPg) DeleteByIDs(ctx context.Context, uids []string) ([]string, error) {
	repo.logger.Debugw("DeleteByIDs()", "count", len(uids))

	var (
		deleted  []string
		rows     int64
		batchErr []error
	)
	for ids := range slices.Chunk(uids, DeleteBatch) {
		err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Where("uid IN ?", ids).Delete(&User{})
			if res.Error != nil {
				return res.Error
			}
			rows += res.RowsAffected
			return nil
		})
		if err != nil {
			repo.logger.Errorw("failed to delete users batch", "batchSize", len(ids), "deletedSoFar", len(deleted), "err", err)
			batchErr = append(batchErr, fmt.Errorf("batch of %d: %w", len(ids), err))
			continue
		}
		deleted = append(deleted, ids...)
	}

	repo.logger.Debugw("users deleted", "uids", len(deleted), "rows", rows, "failedBatches", len(batchErr))
	return deleted, errors.Join(batchErr...)
}
