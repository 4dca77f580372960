package apidto

import (
	"hackportal/pkg/identity"
	"hackportal/pkg/user"
)

type User struct {
	UID             string  `json:"uid"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Role            string  `json:"role"`
	TeamID          *string `json:"team_id"`
	Institute       string  `json:"institute"`
	Department      string  `json:"department"`
	Enrollment      string  `json:"enrollment"`
	Contact         string  `json:"contact"`
	Gender          string  `json:"gender"`
	PasswordChanged bool    `json:"password_changed"`
}

func FromUser(u *user.User) User {
	if u == nil {
		return User{}
	}
	return User{
		UID:             u.UID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            string(u.Role),
		TeamID:          u.TeamID,
		Institute:       u.Institute,
		Department:      u.Department,
		Enrollment:      u.Enrollment,
		Contact:         u.Contact,
		Gender:          u.Gender,
		PasswordChanged: u.PasswordChanged,
	}
}

type Account struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Disabled    bool   `json:"disabled"`
}

func FromAccounts(accounts []*identity.Account) []Account {
	out := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, Account{
			UID:         a.UID,
			Email:       a.Email,
			DisplayName: a.DisplayName,
			Disabled:    a.Disabled,
		})
	}
	return out
}
