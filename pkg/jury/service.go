package jury

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hackportal/internal/metrics"
	"hackportal/internal/saga"
	"hackportal/pkg/identity"
	"hackportal/pkg/notify"
	"hackportal/pkg/team"
	"hackportal/pkg/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	logger   *zap.SugaredLogger
	panels   PanelsRepo
	users    user.UsersRepo
	teams    team.TeamsRepo
	gateway  identity.Gateway
	mailer   notify.Dispatcher
	loginURL string
}

func NewService(logger *zap.SugaredLogger, panels PanelsRepo, users user.UsersRepo, teams team.TeamsRepo,
	gateway identity.Gateway, mailer notify.Dispatcher, baseURL string) *Service {
	if mailer == nil {
		mailer = notify.Unconfigured{}
	}
	return &Service{
		logger:   logger,
		panels:   panels,
		users:    users,
		teams:    teams,
		gateway:  gateway,
		mailer:   mailer,
		loginURL: strings.TrimRight(baseURL, "/") + "/login",
	}
}

func normalizeMembers(members []PanelMember) ([]PanelMember, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("panel needs at least one member: %w", ErrInvalidPanel)
	}

	out := make([]PanelMember, 0, len(members))
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		m.Name = strings.TrimSpace(m.Name)
		m.Email = strings.ToLower(strings.TrimSpace(m.Email))
		if m.Name == "" || m.Email == "" {
			return nil, fmt.Errorf("member name and email are required: %w", ErrInvalidPanel)
		}
		if _, dup := seen[m.Email]; dup {
			return nil, fmt.Errorf("%s listed twice: %w", m.Email, ErrInvalidPanel)
		}
		seen[m.Email] = struct{}{}
		m.UID = ""
		out = append(out, m)
	}
	return out, nil
}

// CreateDraft - без аккаунтов, только сохраненный ввод
func (s *Service) CreateDraft(ctx context.Context, name string, members []PanelMember) (*Panel, error) {
	s.logger.Debugw("CreateDraft()", "name", name, "members", len(members))

	p, err := s.newPanel(name, members)
	if err != nil {
		return nil, err
	}
	p.Status = StatusDraft

	if err := s.panels.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateActive - аккаунты создаются сразу, при ошибке все созданное откатывается
func (s *Service) CreateActive(ctx context.Context, name string, members []PanelMember) (p *Panel, err error) {
	start := time.Now()
	defer func() { metrics.ObserveRosterOp("create_active_panel", start, err) }()

	s.logger.Debugw("CreateActive()", "name", name, "members", len(members))

	p, err = s.newPanel(name, members)
	if err != nil {
		return nil, err
	}
	if s.gateway == nil {
		return nil, identity.ErrGatewayUnavailable
	}

	steps := saga.New(s.logger)
	finalized, err := s.provision(ctx, steps, p)
	if err != nil {
		steps.Rollback(context.WithoutCancel(ctx))
		return nil, err
	}

	p.Status = StatusActive
	p.Members = finalized
	if err = s.panels.Create(ctx, p); err != nil {
		steps.Rollback(context.WithoutCancel(ctx))
		return nil, err
	}
	steps.Forget()

	s.logger.Infow("active panel created", "panelID", p.ID, "members", len(finalized))
	return p, nil
}

// Finalize - draft -> active: аккаунт + профиль + письмо на каждого члена жюри
func (s *Service) Finalize(ctx context.Context, panelID string) (p *Panel, err error) {
	start := time.Now()
	defer func() { metrics.ObserveRosterOp("finalize_panel", start, err) }()

	s.logger.Debugw("Finalize()", "panelID", panelID)

	draft, err := s.panels.Get(ctx, panelID)
	if err != nil {
		return nil, err
	}
	if draft.Status == StatusActive {
		return nil, ErrPanelActive
	}
	if s.gateway == nil {
		return nil, identity.ErrGatewayUnavailable
	}

	steps := saga.New(s.logger)
	finalized, err := s.provision(ctx, steps, draft)
	if err != nil {
		steps.Rollback(context.WithoutCancel(ctx))
		return nil, err
	}

	p, err = s.panels.Activate(ctx, panelID, finalized)
	if err != nil {
		steps.Rollback(context.WithoutCancel(ctx))
		return nil, err
	}
	steps.Forget()

	s.logger.Infow("panel finalized", "panelID", panelID, "members", len(finalized))
	return p, nil
}

func (s *Service) newPanel(name string, members []PanelMember) (*Panel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("panel name is required: %w", ErrInvalidPanel)
	}
	normalized, err := normalizeMembers(members)
	if err != nil {
		return nil, err
	}
	return &Panel{
		ID:      uuid.NewString(),
		Name:    name,
		Members: normalized,
	}, nil
}

// provision кладет откат каждого созданного аккаунта и профиля в steps
func (s *Service) provision(ctx context.Context, steps *saga.Stack, p *Panel) ([]PanelMember, error) {
	finalized := make([]PanelMember, 0, len(p.Members))

	for _, m := range p.Members {
		password, err := identity.GeneratePassword(identity.TempPasswordLength)
		if err != nil {
			return nil, err
		}

		uid, err := s.gateway.CreateAccount(ctx, m.Email, password, m.Name)
		if err != nil {
			if errors.Is(err, identity.ErrEmailExists) {
				s.logger.Warnw("jury member already registered", "panelID", p.ID, "email", m.Email)
				return nil, fmt.Errorf("account for %s already exists: %w", m.Email, err)
			}
			return nil, fmt.Errorf("create account for %s: %w", m.Email, err)
		}
		steps.Push("delete identity "+uid, func(ctx context.Context) error {
			return s.gateway.DeleteAccount(ctx, uid)
		})

		profile := &user.User{
			UID:       uid,
			Name:      m.Name,
			Email:     m.Email,
			Role:      user.RoleJury,
			Institute: m.Institute,
		}
		if err := s.users.Create(ctx, profile); err != nil {
			return nil, fmt.Errorf("create profile for %s: %w", m.Email, err)
		}
		steps.Push("delete profile "+uid, func(ctx context.Context) error {
			_, err := s.users.DeleteByIDs(ctx, []string{uid})
			return err
		})

		msg, err := notify.CredentialsEmail(notify.CredentialsData{
			Name:     m.Name,
			Email:    m.Email,
			Password: password,
			Purpose:  "a jury member of " + p.Name,
			LoginURL: s.loginURL,
		})
		if err != nil {
			return nil, err
		}
		sendErr := s.mailer.Send(ctx, msg)
		metrics.ObserveNotification(notify.KindCredentials, sendErr)
		if sendErr != nil {
			return nil, fmt.Errorf("credentials email to %s: %w", m.Email, sendErr)
		}

		finalized = append(finalized, PanelMember{UID: uid, Name: m.Name, Email: m.Email})
	}

	return finalized, nil
}

// Delete - аккаунты удаляются после коммита; отсутствующий аккаунт считается уже удаленным
func (s *Service) Delete(ctx context.Context, panelID, actor string) error {
	s.logger.Debugw("Delete()", "panelID", panelID)

	p, err := s.panels.Delete(ctx, panelID, actor)
	if err != nil {
		return err
	}

	if s.gateway == nil {
		if uids := p.MemberUIDs(); len(uids) > 0 {
			s.logger.Warnw("panel deleted without identity cleanup", "panelID", panelID, "accounts", uids)
		}
		return nil
	}

	for _, uid := range p.MemberUIDs() {
		if err := s.gateway.DeleteAccount(ctx, uid); err != nil && !errors.Is(err, identity.ErrAccountNotFound) {
			s.logger.Warnw("couldnt delete jury identity", "panelID", panelID, "uid", uid, "err", err)
		}
	}

	s.logger.Infow("panel deleted", "panelID", panelID, "members", len(p.Members))
	return nil
}

func (s *Service) List(ctx context.Context) ([]*Panel, error) {
	return s.panels.List(ctx)
}

func (s *Service) Get(ctx context.Context, panelID string) (*Panel, error) {
	return s.panels.Get(ctx, panelID)
}

// AssignTeam - пустой panelID снимает назначение
func (s *Service) AssignTeam(ctx context.Context, teamID, panelID string) (*team.Team, error) {
	s.logger.Debugw("AssignTeam()", "teamID", teamID, "panelID", panelID)

	if panelID == "" {
		return s.teams.AssignPanel(ctx, teamID, nil)
	}

	if _, err := s.panels.Get(ctx, panelID); err != nil {
		return nil, err
	}
	return s.teams.AssignPanel(ctx, teamID, &panelID)
}
