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

type InviteLink struct {
	InviteID string `json:"invite_id"`
	URL      string `json:"url"`
}

// InviteLink - одна ссылка на команду; кеш только ускоряет повторные запросы
func (s *Service) InviteLink(ctx context.Context, p user.Principal, teamID, baseURL string) (link *InviteLink, err error) {
	start := time.Now()
	defer func() { metrics.ObserveRosterOp("invite_link", start, err) }()

	s.logger.Debugw("InviteLink()", "teamID", teamID, "uid", p.UID)

	t, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !canManage(p, t) {
		return nil, ErrForbidden
	}

	inviteID, cacheErr := s.linkCache.Get(ctx, t.ID)
	if cacheErr != nil {
		s.logger.Warnw("invite cache read failed", "teamID", t.ID, "err", cacheErr)
	}

	if inviteID == "" {
		inv, err := s.invites.GetOrCreate(ctx, t.ID, t.Name)
		if err != nil {
			return nil, err
		}
		inviteID = inv.ID

		if err := s.linkCache.Set(ctx, t.ID, inviteID); err != nil {
			s.logger.Warnw("invite cache write failed", "teamID", t.ID, "err", err)
		}
	}

	if baseURL == "" {
		baseURL = s.baseURL
	}

	return &InviteLink{
		InviteID: inviteID,
		URL:      strings.TrimRight(baseURL, "/") + "/join/" + inviteID,
	}, nil
}

func (s *Service) ResolveInvite(ctx context.Context, inviteID string) (*team.Team, error) {
	s.logger.Debugw("ResolveInvite()", "inviteID", inviteID)

	inv, err := s.invites.Get(ctx, inviteID)
	if err != nil {
		return nil, err
	}

	return s.teams.GetTeam(ctx, inv.TeamID)
}

type SpocRequest struct {
	Name      string
	Email     string
	Institute string
	Contact   string
	Note      string
}

// RequestSpocAccess - письмо админу и есть результат операции, поэтому ошибка отправки возвращается
func (s *Service) RequestSpocAccess(ctx context.Context, req SpocRequest) (err error) {
	req.Email = normalizeEmail(req.Email)
	s.logger.Debugw("RequestSpocAccess()", "email", req.Email, "institute", req.Institute)

	if req.Name == "" || req.Email == "" || req.Institute == "" {
		return fmt.Errorf("name, email and institute are required: %w", ErrInvalidInput)
	}
	if s.adminEmail == "" {
		return fmt.Errorf("admin email is not set: %w", notify.ErrNotConfigured)
	}

	msg, err := notify.SpocRequestEmail(s.adminEmail, notify.SpocRequestData{
		Name:      req.Name,
		Email:     req.Email,
		Institute: req.Institute,
		Contact:   req.Contact,
		Note:      req.Note,
	})
	if err != nil {
		return err
	}

	err = s.mailer.Send(ctx, msg)
	metrics.ObserveNotification(notify.KindSpocRequest, err)
	if err != nil {
		s.logger.Errorw("spoc request email failed", "email", req.Email, "err", err)
		return err
	}

	return nil
}
