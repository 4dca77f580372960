package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmailExists        = errors.New("EMAIL_EXISTS")
	ErrAccountNotFound    = errors.New("ACCOUNT_NOT_FOUND")
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")
	ErrAccountDisabled    = errors.New("ACCOUNT_DISABLED")
	ErrGatewayUnavailable = errors.New("IDENTITY_GATEWAY_UNAVAILABLE")
)

type Account struct {
	UID          string    `gorm:"primaryKey;type:varchar(64);column:uid" json:"uid"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null;column:email" json:"email"`
	DisplayName  string    `gorm:"type:varchar(255);column:display_name" json:"display_name"`
	PasswordHash string    `gorm:"type:varchar(255);not null;column:password_hash" json:"-"`
	Disabled     bool      `gorm:"not null;column:disabled" json:"disabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Account) TableName() string {
	return "identities"
}

// Gateway - внешний сервис аутентификации: создание/удаление принципалов и проверка учетных данных
type Gateway interface {
	CreateAccount(ctx context.Context, email, password, displayName string) (string, error)
	DeleteAccount(ctx context.Context, uid string) error
	GetAccount(ctx context.Context, uid string) (*Account, error)
	SetDisabled(ctx context.Context, uid string, disabled bool) error
	UpdatePassword(ctx context.Context, uid, password string) error
	ListAccounts(ctx context.Context) ([]*Account, error)
	Authenticate(ctx context.Context, email, password string) (*Account, error)
}
