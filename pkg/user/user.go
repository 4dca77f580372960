package user

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("USER_NOT_FOUND")
)

type Role string

const (
	RoleLeader Role = "leader"
	RoleMember Role = "member"
	RoleSpoc   Role = "spoc"
	RoleAdmin  Role = "admin"
	RoleJury   Role = "jury"
)

// Protected - admin и spoc никогда не удаляются массовыми операциями
func (r Role) Protected() bool {
	return r == RoleAdmin || r == RoleSpoc
}

func (r Role) Valid() bool {
	switch r {
	case RoleLeader, RoleMember, RoleSpoc, RoleAdmin, RoleJury:
		return true
	}
	return false
}

// User - профиль; uid совпадает с id аккаунта в identity gateway
type User struct {
	UID             string  `gorm:"primaryKey;type:varchar(64);column:uid" json:"uid"`
	Name            string  `gorm:"type:varchar(255);not null;column:name" json:"name"`
	Email           string  `gorm:"type:varchar(255);uniqueIndex;not null;column:email" json:"email"`
	Role            Role    `gorm:"type:varchar(16);index;not null;column:role" json:"role"`
	TeamID          *string `gorm:"type:varchar(64);index;column:team_id" json:"team_id"`
	Institute       string  `gorm:"type:varchar(255);index;column:institute" json:"institute"`
	Department      string  `gorm:"type:varchar(255);column:department" json:"department"`
	Enrollment      string  `gorm:"type:varchar(64);column:enrollment" json:"enrollment"`
	Contact         string  `gorm:"type:varchar(32);column:contact" json:"contact"`
	Gender          string  `gorm:"type:varchar(16);column:gender" json:"gender"`
	PasswordChanged bool    `gorm:"not null;column:password_changed" json:"password_changed"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (u *User) HasTeam() bool {
	return u.TeamID != nil && *u.TeamID != ""
}

// Details - атрибуты профиля, которые заполняются при создании команды / вступлении
type Details struct {
	Name       string
	Enrollment string
	Contact    string
	Gender     string
	Department string
	Institute  string
}

// Filter - пустые поля не участвуют в выборке
type Filter struct {
	Role      Role
	Institute string
}

type UsersRepo interface {
	GetByID(ctx context.Context, uid string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	ListByIDs(ctx context.Context, uids []string) ([]*User, error)
	ListByTeam(ctx context.Context, teamID string) ([]*User, error)
	List(ctx context.Context, filter Filter) ([]*User, error)
	SetPasswordChanged(ctx context.Context, uid string) error
	DeleteByIDs(ctx context.Context, uids []string) ([]string, error)
}

// Updates - только непустые поля, чтобы не затирать уже заполненный профиль
func (d Details) Updates() map[string]interface{} {
	out := make(map[string]interface{}, 6)
	set := func(col, val string) {
		if val != "" {
			out[col] = val
		}
	}
	set("name", d.Name)
	set("enrollment", d.Enrollment)
	set("contact", d.Contact)
	set("gender", d.Gender)
	set("department", d.Department)
	set("institute", d.Institute)
	return out
}

// Apply - то же самое, но на уже загруженном профиле
func (u *User) Apply(d Details) {
	apply := func(dst *string, val string) {
		if val != "" {
			*dst = val
		}
	}
	apply(&u.Name, d.Name)
	apply(&u.Enrollment, d.Enrollment)
	apply(&u.Contact, d.Contact)
	apply(&u.Gender, d.Gender)
	apply(&u.Department, d.Department)
	apply(&u.Institute, d.Institute)
}
