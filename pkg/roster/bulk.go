package roster

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"hackportal/internal/metrics"
	"hackportal/pkg/identity"
	"hackportal/pkg/team"
	"hackportal/pkg/user"
)

type BulkDeleteResult struct {
	DeletedUsers   int      `json:"deleted_users"`
	DeletedTeams   int      `json:"deleted_teams"`
	Skipped        []string `json:"skipped"`
	Unknown        []string `json:"unknown"`
	Failed         []string `json:"failed"`
	IdentityErrors int      `json:"identity_errors"`
}

// BulkDeleteUsers - пакетная задача без общего отката: каждая команда и каждый пакет
// профилей коммитятся отдельно. Частичный успех не ошибка: то, что удалить не вышло,
// попадает в Failed, ошибки удаления аккаунтов только логируются
func (s *Service) BulkDeleteUsers(ctx context.Context, uids []string) (res *BulkDeleteResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveRosterOp("bulk_delete_users", start, err) }()

	s.logger.Debugw("BulkDeleteUsers()", "count", len(uids))

	if s.gateway == nil {
		return nil, identity.ErrGatewayUnavailable
	}

	res = &BulkDeleteResult{Skipped: []string{}, Unknown: []string{}, Failed: []string{}}

	uids = dedupe(uids)
	profiles, err := s.users.ListByIDs(ctx, uids)
	if err != nil {
		return nil, err
	}

	found := make(map[string]*user.User, len(profiles))
	for _, p := range profiles {
		found[p.UID] = p
	}

	var (
		deletable   []*user.User
		deletableID []string
	)
	for _, uid := range uids {
		p, ok := found[uid]
		if !ok {
			res.Unknown = append(res.Unknown, uid)
			continue
		}
		if p.Role.Protected() {
			res.Skipped = append(res.Skipped, fmt.Sprintf("%s (%s)", p.Email, p.Role))
			continue
		}
		deletable = append(deletable, p)
		deletableID = append(deletableID, p.UID)
	}

	if len(res.Skipped) > 0 {
		s.logger.Infow("protected accounts skipped", "skipped", res.Skipped)
	}
	if len(deletable) == 0 {
		return res, nil
	}

	deletedTeams, cascadeFailed := s.cascadeLeaderTeams(ctx, deletable)
	res.DeletedTeams = len(deletedTeams)
	if len(cascadeFailed) > 0 {
		// лидер остается, пока его команда не удалена: иначе команда ссылается на пустоту
		deletable, deletableID = without(deletable, cascadeFailed)
		for uid := range cascadeFailed {
			res.Failed = append(res.Failed, uid)
		}
		slices.Sort(res.Failed)
	}
	s.pullFromSurvivingTeams(ctx, deletable, deletedTeams)

	deleted, err := s.users.DeleteByIDs(ctx, deletableID)
	res.DeletedUsers = len(deleted)
	metrics.AddBulkDeleted("teams", res.DeletedTeams)
	metrics.AddBulkDeleted("users", res.DeletedUsers)
	if err != nil {
		s.logger.Errorw("some profile batches were not deleted", "deleted", len(deleted), "requested", len(deletableID), "err", err)
		committed := make(map[string]struct{}, len(deleted))
		for _, uid := range deleted {
			committed[uid] = struct{}{}
		}
		for _, uid := range deletableID {
			if _, ok := committed[uid]; !ok {
				res.Failed = append(res.Failed, uid)
			}
		}
	}

	for _, uid := range deleted {
		if err := s.gateway.DeleteAccount(ctx, uid); err != nil {
			if errors.Is(err, identity.ErrAccountNotFound) {
				continue
			}
			res.IdentityErrors++
			s.logger.Warnw("couldnt delete identity, skipping", "uid", uid, "err", err)
		}
	}

	s.logger.Infow("bulk delete finished",
		"deletedUsers", res.DeletedUsers,
		"deletedTeams", res.DeletedTeams,
		"skipped", len(res.Skipped),
		"failed", len(res.Failed),
		"identityErrors", res.IdentityErrors,
	)
	return res, nil
}

// cascadeLeaderTeams удаляет команды удаляемых лидеров. Возвращает множество удаленных команд
// и uid лидеров, чью команду удалить не удалось
func (s *Service) cascadeLeaderTeams(ctx context.Context, deletable []*user.User) (map[string]struct{}, map[string]struct{}) {
	deleted := make(map[string]struct{})
	failed := make(map[string]struct{})
	for _, u := range deletable {
		if u.Role != user.RoleLeader || !u.HasTeam() {
			continue
		}
		teamID := *u.TeamID
		if _, ok := deleted[teamID]; ok {
			continue
		}

		if err := s.teams.CascadeDelete(ctx, teamID); err != nil {
			if errors.Is(err, team.ErrTeamNotFound) {
				s.logger.Warnw("leader references missing team", "uid", u.UID, "teamID", teamID)
				continue
			}
			s.logger.Errorw("couldnt cascade delete team, keeping its leader", "teamID", teamID, "uid", u.UID, "err", err)
			failed[u.UID] = struct{}{}
			continue
		}
		deleted[teamID] = struct{}{}
	}
	return deleted, failed
}

func without(users []*user.User, drop map[string]struct{}) ([]*user.User, []string) {
	kept := make([]*user.User, 0, len(users))
	ids := make([]string, 0, len(users))
	for _, u := range users {
		if _, ok := drop[u.UID]; ok {
			continue
		}
		kept = append(kept, u)
		ids = append(ids, u.UID)
	}
	return kept, ids
}

// pullFromSurvivingTeams - удаляемые участники чужих команд не должны оставаться снапшотами в составе
func (s *Service) pullFromSurvivingTeams(ctx context.Context, deletable []*user.User, deletedTeams map[string]struct{}) {
	byTeam := make(map[string][]string)
	var order []string
	for _, u := range deletable {
		if !u.HasTeam() {
			continue
		}
		teamID := *u.TeamID
		if _, gone := deletedTeams[teamID]; gone {
			continue
		}
		if _, seen := byTeam[teamID]; !seen {
			order = append(order, teamID)
		}
		byTeam[teamID] = append(byTeam[teamID], u.UID)
	}

	for _, teamID := range order {
		if err := s.teams.PullMembers(ctx, teamID, byTeam[teamID]); err != nil {
			s.logger.Warnw("couldnt pull deleted members from team", "teamID", teamID, "err", err)
		}
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
