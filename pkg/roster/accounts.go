package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hackportal/internal/metrics"
	"hackportal/internal/pgerr"
	"hackportal/internal/saga"
	"hackportal/pkg/identity"
	"hackportal/pkg/notify"
	"hackportal/pkg/user"
)

const MinPasswordLength = 8

type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Institute  string
	Department string
	Enrollment string
	Contact    string
	Gender     string
}

// Register - самостоятельная регистрация: аккаунт плюс профиль с ролью member.
// Если профиль не записался, аккаунт удаляется
func (s *Service) Register(ctx context.Context, in RegisterInput) (u *user.User, err error) {
	start := time.Now()
	defer func() { metrics.ObserveRosterOp("register", start, err) }()

	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	s.logger.Debugw("Register()", "email", email)

	if email == "" || name == "" {
		return nil, fmt.Errorf("name and email are required: %w", ErrInvalidInput)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters: %w", MinPasswordLength, ErrInvalidInput)
	}
	if s.gateway == nil {
		return nil, identity.ErrGatewayUnavailable
	}

	profile := &user.User{
		Name:            name,
		Email:           email,
		Role:            user.RoleMember,
		Institute:       strings.TrimSpace(in.Institute),
		Department:      strings.TrimSpace(in.Department),
		Enrollment:      strings.TrimSpace(in.Enrollment),
		Contact:         strings.TrimSpace(in.Contact),
		Gender:          strings.TrimSpace(in.Gender),
		PasswordChanged: true,
	}

	steps, err := s.provisionAccount(ctx, profile, in.Password)
	if err != nil {
		return nil, err
	}
	steps.Forget()

	s.logger.Infow("user registered", "uid", profile.UID, "email", email)
	return profile, nil
}

type StaffInput struct {
	Name      string
	Email     string
	Role      user.Role
	Institute string
}

// ProvisionStaff - админ заводит SPOC или другого админа. Письмо с паролем тут основной результат:
// если оно не ушло, аккаунт и профиль удаляются
func (s *Service) ProvisionStaff(ctx context.Context, actor user.Principal, in StaffInput) (u *user.User, err error) {
	start := time.Now()
	defer func() { metrics.ObserveRosterOp("provision_staff", start, err) }()

	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	institute := strings.TrimSpace(in.Institute)
	s.logger.Debugw("ProvisionStaff()", "email", email, "role", in.Role, "actor", actor.UID)

	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if email == "" || name == "" {
		return nil, fmt.Errorf("name and email are required: %w", ErrInvalidInput)
	}
	if in.Role != user.RoleSpoc && in.Role != user.RoleAdmin {
		return nil, fmt.Errorf("role %q cannot be provisioned here: %w", in.Role, ErrInvalidInput)
	}
	if in.Role == user.RoleSpoc && institute == "" {
		return nil, fmt.Errorf("spoc needs an institute: %w", ErrInvalidInput)
	}
	if s.gateway == nil {
		return nil, identity.ErrGatewayUnavailable
	}

	password, err := identity.GeneratePassword(identity.TempPasswordLength)
	if err != nil {
		return nil, err
	}

	profile := &user.User{
		Name:      name,
		Email:     email,
		Role:      in.Role,
		Institute: institute,
	}

	steps, err := s.provisionAccount(ctx, profile, password)
	if err != nil {
		return nil, err
	}

	purpose := "an administrator of the portal"
	if in.Role == user.RoleSpoc {
		purpose = "the SPOC of " + institute
	}
	msg, err := notify.CredentialsEmail(notify.CredentialsData{
		Name:     name,
		Email:    email,
		Password: password,
		Purpose:  purpose,
		LoginURL: s.loginURL(),
	})
	if err == nil {
		err = s.mailer.Send(ctx, msg)
		metrics.ObserveNotification(notify.KindCredentials, err)
	}
	if err != nil {
		s.logger.Errorw("credentials email failed, removing staff account", "email", email, "err", err)
		steps.Rollback(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("credentials for %s not delivered: %w", email, err)
	}
	steps.Forget()

	s.logger.Infow("staff provisioned", "uid", profile.UID, "role", in.Role, "actor", actor.UID)
	return profile, nil
}

// BootstrapAdmin - первый админ из конфигурации. Уже существующий профиль не трогается,
// аккаунт без профиля переиспользуется вместе с его паролем
func (s *Service) BootstrapAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	s.logger.Debugw("BootstrapAdmin()", "email", email)

	if email == "" || len(password) < MinPasswordLength {
		return fmt.Errorf("admin email and a password of %d+ characters are required: %w", MinPasswordLength, ErrInvalidInput)
	}
	if s.gateway == nil {
		return identity.ErrGatewayUnavailable
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if existing.Role != user.RoleAdmin {
			s.logger.Warnw("bootstrap admin email belongs to a non-admin profile, leaving it", "email", email, "role", existing.Role)
		}
		return nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return err
	}

	profile := &user.User{Name: "Administrator", Email: email, Role: user.RoleAdmin}

	steps, err := s.provisionAccount(ctx, profile, password)
	switch {
	case err == nil:
		steps.Forget()
	case errors.Is(err, identity.ErrEmailExists):
		uid, lookupErr := s.accountUID(ctx, email)
		if lookupErr != nil {
			return lookupErr
		}
		profile.UID = uid
		if err := s.users.Create(ctx, profile); err != nil {
			return err
		}
	default:
		return err
	}

	s.logger.Infow("admin bootstrapped", "uid", profile.UID, "email", email)
	return nil
}

// provisionAccount создает аккаунт и профиль. Возвращает стек с откатом обоих шагов,
// вызывающий либо забывает его, либо откатывает
func (s *Service) provisionAccount(ctx context.Context, profile *user.User, password string) (*saga.Stack, error) {
	uid, err := s.gateway.CreateAccount(ctx, profile.Email, password, profile.Name)
	if err != nil {
		if errors.Is(err, identity.ErrEmailExists) {
			s.logger.Warnw("account already exists", "email", profile.Email)
			return nil, fmt.Errorf("%s is already registered: %w", profile.Email, err)
		}
		return nil, err
	}

	steps := saga.New(s.logger)
	steps.Push("delete identity "+uid, func(ctx context.Context) error {
		return s.gateway.DeleteAccount(ctx, uid)
	})

	profile.UID = uid
	if err := s.users.Create(ctx, profile); err != nil {
		s.logger.Warnw("couldnt create profile, rolling back account", "uid", uid, "err", err)
		steps.Rollback(context.WithoutCancel(ctx))
		profile.UID = ""
		if pgerr.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%s is already registered: %w", profile.Email, identity.ErrEmailExists)
		}
		return nil, err
	}
	steps.Push("delete profile "+uid, func(ctx context.Context) error {
		_, err := s.users.DeleteByIDs(ctx, []string{uid})
		return err
	})

	return steps, nil
}

func (s *Service) accountUID(ctx context.Context, email string) (string, error) {
	accounts, err := s.gateway.ListAccounts(ctx)
	if err != nil {
		return "", err
	}
	for _, acc := range accounts {
		if strings.EqualFold(acc.Email, email) {
			return acc.UID, nil
		}
	}
	return "", fmt.Errorf("account for %s: %w", email, identity.ErrAccountNotFound)
}
