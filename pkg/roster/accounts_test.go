package roster

import (
	"context"
	"errors"
	"testing"

	"hackportal/pkg/identity"
	"hackportal/pkg/user"

	"github.com/stretchr/testify/require"
)

var admin = user.Principal{UID: "admin-1", Role: user.RoleAdmin}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account and member profile", func(t *testing.T) {
		f := newFixture(t)

		u, err := f.svc.Register(ctx, RegisterInput{
			Name:      "Asha",
			Email:     " Asha@Example.com ",
			Password:  "long-enough",
			Institute: "IIT",
		})
		require.NoError(t, err)
		require.Equal(t, "asha@example.com", u.Email)
		require.Equal(t, user.RoleMember, u.Role)
		require.True(t, u.PasswordChanged)

		stored := f.store.users[u.UID]
		require.NotNil(t, stored)
		require.Equal(t, "IIT", stored.Institute)
		require.Equal(t, u.UID, f.gateway.accounts["asha@example.com"])
	})

	t.Run("email already registered", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.accounts["asha@example.com"] = "existing"

		_, err := f.svc.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "long-enough"})
		require.ErrorIs(t, err, identity.ErrEmailExists)
		require.Empty(t, f.store.users)
	})

	t.Run("profile write fails and the account is removed", func(t *testing.T) {
		f := newFixture(t)
		f.store.failCreate = errors.New("connection refused")

		_, err := f.svc.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "long-enough"})
		require.Error(t, err)
		require.Empty(t, f.gateway.accounts)
		require.Len(t, f.gateway.deleted, 1)
	})

	t.Run("short password", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "short"})
		require.ErrorIs(t, err, ErrInvalidInput)
		require.Empty(t, f.gateway.accounts)
	})
}

func TestService_ProvisionStaff(t *testing.T) {
	ctx := context.Background()

	t.Run("spoc account with credentials email", func(t *testing.T) {
		f := newFixture(t)

		u, err := f.svc.ProvisionStaff(ctx, admin, StaffInput{
			Name:      "Ravi",
			Email:     "ravi@iit.example",
			Role:      user.RoleSpoc,
			Institute: "IIT",
		})
		require.NoError(t, err)
		require.Equal(t, user.RoleSpoc, u.Role)
		require.Equal(t, "IIT", f.store.users[u.UID].Institute)
		require.Equal(t, 1, f.mailer.count())
		require.Equal(t, "ravi@iit.example", f.mailer.sent[0].To)
	})

	t.Run("only admins", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.ProvisionStaff(ctx, spoc, StaffInput{Name: "X", Email: "x@example.com", Role: user.RoleSpoc, Institute: "IIT"})
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("invalid role or missing institute", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.ProvisionStaff(ctx, admin, StaffInput{Name: "X", Email: "x@example.com", Role: user.RoleJury})
		require.ErrorIs(t, err, ErrInvalidInput)
		_, err = f.svc.ProvisionStaff(ctx, admin, StaffInput{Name: "X", Email: "x@example.com", Role: user.RoleSpoc})
		require.ErrorIs(t, err, ErrInvalidInput)
		require.Empty(t, f.gateway.accounts)
	})

	t.Run("undelivered credentials remove account and profile", func(t *testing.T) {
		f := newFixture(t)
		f.mailer.err = errors.New("smtp: 421 try later")

		_, err := f.svc.ProvisionStaff(ctx, admin, StaffInput{Name: "Root", Email: "root@example.com", Role: user.RoleAdmin})
		require.Error(t, err)
		require.Empty(t, f.gateway.accounts)
		require.Empty(t, f.store.users)
	})
}

func TestService_BootstrapAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("first run creates admin, second run keeps it", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.svc.BootstrapAdmin(ctx, "Admin@Portal.example", "first-run-pass"))
		require.NoError(t, f.svc.BootstrapAdmin(ctx, "admin@portal.example", "first-run-pass"))

		require.Len(t, f.gateway.accounts, 1)
		uid := f.gateway.accounts["admin@portal.example"]
		require.Equal(t, user.RoleAdmin, f.store.users[uid].Role)
	})

	t.Run("account without profile is reused", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.accounts["admin@portal.example"] = "acc-1"

		require.NoError(t, f.svc.BootstrapAdmin(ctx, "admin@portal.example", "first-run-pass"))
		require.Equal(t, user.RoleAdmin, f.store.users["acc-1"].Role)
		require.Empty(t, f.gateway.deleted)
	})

	t.Run("password required", func(t *testing.T) {
		f := newFixture(t)
		require.ErrorIs(t, f.svc.BootstrapAdmin(ctx, "admin@portal.example", ""), ErrInvalidInput)
	})
}
