package roster

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
)

type CreateTeamInput struct {
	LeaderUID  string
	Name       string
	Institute  string
	Department string
	Category   team.Category
	Details    user.Details
}

func (s *Service) CreateTeam(ctx context.Context, in CreateTeamInput) (t *team.Team, err error) {
	start := time.Now()
	defer func() { metrics.ObserveRosterOp("create_team", start, err) }()

	s.logger.Debugw("CreateTeam()", "leader", in.LeaderUID, "name", in.Name)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("team name is required: %w", ErrInvalidInput)
	}
	if !in.Category.Valid() {
		return nil, fmt.Errorf("category %q: %w", in.Category, team.ErrInvalidCategory)
	}

	leader, err := s.users.GetByID(ctx, in.LeaderUID)
	if err != nil {
		return nil, err
	}
	if leader.Role.Protected() || leader.Role == user.RoleJury {
		s.logger.Warnw("role cannot lead a team", "uid", leader.UID, "role", leader.Role)
		return nil, ErrForbidden
	}
	if leader.HasTeam() {
		return nil, team.ErrAlreadyInTeam
	}

	exists, err := s.teams.ExistsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		s.logger.Warnw("team name taken", "name", name)
		return nil, team.ErrTeamExists
	}

	details := in.Details
	if in.Institute != "" {
		details.Institute = in.Institute
	}
	if in.Department != "" {
		details.Department = in.Department
	}
	leader.Apply(details)

	t = &team.Team{
		ID:               uuid.NewString(),
		Name:             name,
		Leader:           team.LeaderFromUser(leader),
		Institute:        leader.Institute,
		Department:       leader.Department,
		Category:         in.Category,
		Members:          []team.Member{},
		NominationStatus: team.StatusPending,
		SelectionStatus:  team.StatusPending,
	}

	if err = s.teams.CreateTeam(ctx, t, details); err != nil {
		return nil, err
	}

	s.logger.Infow("team created", "teamID", t.ID, "name", t.Name, "leader", leader.UID)
	return t, nil
}

type AddMemberInput struct {
	UID     string
	TeamID  string
	Details user.Details
}

func (s *Service) AddMember(ctx context.Context, in AddMemberInput) (t *team.Team, err error) {
	start := time.Now()
	defer func() { metrics.ObserveRosterOp("add_member", start, err) }()

	s.logger.Debugw("AddMember()", "uid", in.UID, "teamID", in.TeamID)

	return s.teams.AddMember(ctx, in.TeamID, in.UID, in.Details)
}

type InviteMemberInput struct {
	Principal user.Principal
	TeamID    string
	Name      string
	Email     string
}

type InviteResult struct {
	Team *team.Team
	UID  string
}

// InviteMember - создает аккаунт, добавляет участника и отправляет ему пароль.
// Если запись в команду не прошла, созданный аккаунт удаляется. Если не ушло письмо,
// участник остается в команде, а вызывающий получает notify.ErrSendFailed вместе с результатом
func (s *Service) InviteMember(ctx context.Context, in InviteMemberInput) (res *InviteResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveRosterOp("invite_member", start, err) }()

	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	s.logger.Debugw("InviteMember()", "teamID", in.TeamID, "email", email)

	if email == "" || name == "" {
		return nil, fmt.Errorf("invitee name and email are required: %w", ErrInvalidInput)
	}
	if s.gateway == nil {
		return nil, identity.ErrGatewayUnavailable
	}

	t, err := s.teams.GetTeam(ctx, in.TeamID)
	if err != nil {
		return nil, err
	}
	if t.Leader.UID != in.Principal.UID && !in.Principal.IsAdmin() {
		return nil, ErrForbidden
	}
	if t.Locked {
		return nil, team.ErrTeamLocked
	}
	// проверка до создания аккаунта, в транзакции она повторяется
	if !t.HasCapacity() {
		return nil, team.ErrTeamFull
	}

	password, err := identity.GeneratePassword(identity.TempPasswordLength)
	if err != nil {
		return nil, err
	}

	uid, err := s.gateway.CreateAccount(ctx, email, password, name)
	if err != nil {
		if errors.Is(err, identity.ErrEmailExists) {
			s.logger.Warnw("invitee already registered", "email", email)
			return nil, fmt.Errorf("%s is already registered, check whether they are already in a team: %w", email, err)
		}
		return nil, err
	}

	steps := saga.New(s.logger)
	steps.Push("delete identity "+uid, func(ctx context.Context) error {
		return s.gateway.DeleteAccount(ctx, uid)
	})

	profile := &user.User{
		UID:        uid,
		Name:       name,
		Email:      email,
		Role:       user.RoleMember,
		Institute:  t.Institute,
		Department: t.Department,
		Enrollment: placeholderDetail,
		Contact:    placeholderDetail,
		Gender:     placeholderDetail,
	}

	updated, err := s.teams.AddInvitedMember(ctx, t.ID, profile)
	if err != nil {
		s.logger.Warnw("couldnt add invited member, rolling back account", "teamID", t.ID, "email", email, "err", err)
		steps.Rollback(context.WithoutCancel(ctx))
		return nil, err
	}
	steps.Forget()

	res = &InviteResult{Team: updated, UID: uid}

	msg, err := notify.CredentialsEmail(notify.CredentialsData{
		Name:     name,
		Email:    email,
		Password: password,
		Purpose:  "a member of team " + t.Name,
		LoginURL: s.loginURL(),
	})
	if err != nil {
		return res, err
	}

	sendErr := s.mailer.Send(ctx, msg)
	metrics.ObserveNotification(notify.KindCredentials, sendErr)
	if sendErr != nil {
		s.logger.Errorw("member added but credentials email failed", "teamID", t.ID, "email", email, "err", sendErr)
		return res, fmt.Errorf("member %s added, credentials email failed: %w: %w", email, notify.ErrSendFailed, sendErr)
	}

	s.logger.Infow("member invited", "teamID", t.ID, "uid", uid)
	return res, nil
}

// LeaveTeam - лидер уведомляется в фоне, ошибка письма вызывающему не возвращается
func (s *Service) LeaveTeam(ctx context.Context, uid string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveRosterOp("leave_team", start, err) }()

	s.logger.Debugw("LeaveTeam()", "uid", uid)

	t, u, err := s.teams.LeaveTeam(ctx, uid)
	if err != nil {
		return err
	}

	msg, renderErr := notify.MemberLeftEmail(t.Leader.Email, notify.MemberLeftData{
		LeaderName:  t.Leader.Name,
		MemberName:  u.Name,
		MemberEmail: u.Email,
		TeamName:    t.Name,
	})
	if renderErr != nil {
		s.logger.Errorw("couldnt render member-left email", "teamID", t.ID, "err", renderErr)
		return nil
	}
	s.background.Go(notify.KindMemberLeft, msg)

	return nil
}
