package identity

import (
	"context"
	"errors"
	"strings"

	"hackportal/internal/pgerr"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AccountsRepoPg struct {
	logger *zap.SugaredLogger
	db     *gorm.DB
}

func NewAccountsRepoPg(logger *zap.SugaredLogger, db *gorm.DB) *AccountsRepoPg {
	return &AccountsRepoPg{
		logger: logger,
		db:     db,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (repo *AccountsRepoPg) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	email = normalizeEmail(email)
	repo.logger.Debugw("CreateAccount()", "email", email)

	hash, err := HashPassword(password)
	if err != nil {
		repo.logger.Errorw("failed to hash password", "email", email, "err", err)
		return "", err
	}

	acc := &Account{
		UID:          uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
	}

	if err := repo.db.WithContext(ctx).Create(acc).Error; err != nil {
		if pgerr.IsUniqueViolation(err) {
			repo.logger.Warnw("account already exists", "email", email)
			return "", ErrEmailExists
		}
		repo.logger.Errorw("failed to create account", "email", email, "err", err)
		return "", err
	}

	repo.logger.Debugw("account created", "uid", acc.UID, "email", email)
	return acc.UID, nil
}

func (repo *AccountsRepoPg) DeleteAccount(ctx context.Context, uid string) error {
	repo.logger.Debugw("DeleteAccount()", "uid", uid)

	res := repo.db.WithContext(ctx).Where("uid = ?", uid).Delete(&Account{})
	if res.Error != nil {
		repo.logger.Errorw("failed to delete account", "uid", uid, "err", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

func (repo *AccountsRepoPg) GetAccount(ctx context.Context, uid string) (*Account, error) {
	repo.logger.Debugw("GetAccount()", "uid", uid)

	var acc Account
	if err := repo.db.WithContext(ctx).First(&acc, "uid = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		repo.logger.Errorw("failed to load account", "uid", uid, "err", err)
		return nil, err
	}

	return &acc, nil
}

func (repo *AccountsRepoPg) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	repo.logger.Debugw("SetDisabled()", "uid", uid, "disabled", disabled)

	return repo.updateAccount(ctx, uid, "disabled", disabled)
}

func (repo *AccountsRepoPg) UpdatePassword(ctx context.Context, uid, password string) error {
	repo.logger.Debugw("UpdatePassword()", "uid", uid)

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	return repo.updateAccount(ctx, uid, "password_hash", hash)
}

func (repo *AccountsRepoPg) updateAccount(ctx context.Context, uid, column string, value interface{}) error {
	res := repo.db.WithContext(ctx).Model(&Account{}).Where("uid = ?", uid).Update(column, value)
	if res.Error != nil {
		repo.logger.Errorw("failed to update account", "uid", uid, "column", column, "err", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		repo.logger.Warnw("account not found", "uid", uid)
		return ErrAccountNotFound
	}
	return nil
}

func (repo *AccountsRepoPg) ListAccounts(ctx context.Context) ([]*Account, error) {
	repo.logger.Debugw("ListAccounts()")

	var rows []*Account
	if err := repo.db.WithContext(ctx).Order("email ASC").Find(&rows).Error; err != nil {
		repo.logger.Errorw("failed to list accounts", "err", err)
		return nil, err
	}

	return rows, nil
}

func (repo *AccountsRepoPg) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	email = normalizeEmail(email)
	repo.logger.Debugw("Authenticate()", "email", email)

	var acc Account
	if err := repo.db.WithContext(ctx).First(&acc, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		repo.logger.Errorw("failed to load account", "email", email, "err", err)
		return nil, err
	}

	if err := CheckPassword(acc.PasswordHash, password); err != nil {
		repo.logger.Warnw("wrong password", "email", email)
		return nil, ErrInvalidCredentials
	}
	if acc.Disabled {
		return nil, ErrAccountDisabled
	}

	return &acc, nil
}
