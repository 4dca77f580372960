package roster

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hackportal/internal/metrics"
	"hackportal/pkg/notify"
	"hackportal/pkg/team"
	"hackportal/pkg/user"
)

// loadManaged - команда, которой principal может управлять как SPOC или админ
func (s *Service) loadManaged(ctx context.Context, p user.Principal, teamID string) (*team.Team, error) {
	t, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !p.ManagesInstitute(t.Institute) {
		s.logger.Warnw("principal does not manage team institute", "uid", p.UID, "role", p.Role, "teamID", teamID)
		return nil, ErrForbidden
	}
	return t, nil
}

func (s *Service) RemoveMember(ctx context.Context, p user.Principal, teamID, email string) (t *team.Team, err error) {
	start := time.Now()
	defer func() { metrics.ObserveRosterOp("remove_member", start, err) }()

	email = normalizeEmail(email)
	s.logger.Debugw("RemoveMember()", "teamID", teamID, "email", email, "by", p.UID)

	if email == "" {
		return nil, fmt.Errorf("member email is required: %w", ErrInvalidInput)
	}
	if _, err = s.loadManaged(ctx, p, teamID); err != nil {
		return nil, err
	}

	return s.teams.RemoveMemberByEmail(ctx, teamID, email, p.UID)
}

// DeleteTeam - лидер и участники становятся обычными member без команды
func (s *Service) DeleteTeam(ctx context.Context, p user.Principal, teamID string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveRosterOp("delete_team", start, err) }()

	s.logger.Debugw("DeleteTeam()", "teamID", teamID, "by", p.UID)

	if _, err = s.loadManaged(ctx, p, teamID); err != nil {
		return err
	}

	t, err := s.teams.DeleteTeam(ctx, teamID, p.UID)
	if err != nil {
		return err
	}

	s.logger.Infow("team deleted", "teamID", teamID, "name", t.Name, "by", p.UID)
	return nil
}

func (s *Service) SetLocked(ctx context.Context, p user.Principal, teamID string, locked bool) (*team.Team, error) {
	s.logger.Debugw("SetLocked()", "teamID", teamID, "locked", locked)

	if _, err := s.loadManaged(ctx, p, teamID); err != nil {
		return nil, err
	}

	return s.teams.SetLocked(ctx, teamID, locked)
}

func (s *Service) SetStatus(ctx context.Context, teamID string, upd team.StatusUpdate) (*team.Team, error) {
	s.logger.Debugw("SetStatus()", "teamID", teamID)

	return s.teams.SetStatus(ctx, teamID, upd)
}

// UpdateMentor - письмо ментору уходит в фоне
func (s *Service) UpdateMentor(ctx context.Context, p user.Principal, teamID string, mentor team.Mentor) (*team.Team, error) {
	mentor.Name = strings.TrimSpace(mentor.Name)
	mentor.Email = normalizeEmail(mentor.Email)
	s.logger.Debugw("UpdateMentor()", "teamID", teamID, "mentorEmail", mentor.Email)

	if mentor.Name == "" || mentor.Email == "" {
		return nil, fmt.Errorf("mentor name and email are required: %w", ErrInvalidInput)
	}

	current, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !canManage(p, current) {
		return nil, ErrForbidden
	}

	t, err := s.teams.SetMentor(ctx, teamID, mentor)
	if err != nil {
		return nil, err
	}

	msg, err := notify.MentorAssignedEmail(mentor.Email, notify.MentorAssignedData{
		MentorName:  mentor.Name,
		TeamName:    t.Name,
		Institute:   t.Institute,
		LeaderName:  t.Leader.Name,
		LeaderEmail: t.Leader.Email,
	})
	if err != nil {
		s.logger.Errorw("couldnt render mentor email", "teamID", teamID, "err", err)
		return t, nil
	}
	s.background.Go(notify.KindMentorAssigned, msg)

	return t, nil
}

// ListTeams - админ видит все, SPOC свой институт, остальные только свою команду
func (s *Service) ListTeams(ctx context.Context, p user.Principal) ([]*team.Team, error) {
	s.logger.Debugw("ListTeams()", "uid", p.UID, "role", p.Role)

	switch p.Role {
	case user.RoleAdmin:
		return s.teams.List(ctx, "")
	case user.RoleSpoc:
		return s.teams.List(ctx, p.Institute)
	}

	u, err := s.users.GetByID(ctx, p.UID)
	if err != nil {
		return nil, err
	}
	if !u.HasTeam() {
		return []*team.Team{}, nil
	}

	t, err := s.teams.GetTeam(ctx, *u.TeamID)
	if err != nil {
		return nil, err
	}
	return []*team.Team{t}, nil
}

func (s *Service) GetTeam(ctx context.Context, p user.Principal, teamID string) (*team.Team, error) {
	s.logger.Debugw("GetTeam()", "teamID", teamID, "uid", p.UID)

	t, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !t.Contains(p.UID) && !p.ManagesInstitute(t.Institute) {
		return nil, ErrForbidden
	}
	return t, nil
}
