package roster

import (
	"context"
	"errors"
	"strings"
	"sync"

	"hackportal/pkg/identity"
	"hackportal/pkg/invite"
	"hackportal/pkg/notify"
	"hackportal/pkg/team"
	"hackportal/pkg/user"

	"github.com/google/uuid"
)

// memStore - teams и users в памяти с теми же правилами, что у Pg-репозиториев
type memStore struct {
	mu    sync.Mutex
	teams map[string]*team.Team
	users map[string]*user.User
	// failInvited - AddInvitedMember вернет эту ошибку
	failInvited error
	// failCascade - CascadeDelete этих команд вернет ошибку
	failCascade map[string]error
	// failCreate - memUsers.Create вернет эту ошибку
	failCreate error
}

func newMemStore() *memStore {
	return &memStore{
		teams:       map[string]*team.Team{},
		users:       map[string]*user.User{},
		failCascade: map[string]error{},
	}
}

func (m *memStore) addUser(uid, email string, role user.Role, teamID string) *user.User {
	u := &user.User{UID: uid, Name: strings.ToUpper(uid), Email: email, Role: role, Institute: "IIT"}
	if teamID != "" {
		id := teamID
		u.TeamID = &id
	}
	m.users[uid] = u
	return u
}

func cloneTeam(t *team.Team) *team.Team {
	c := *t
	c.Members = append([]team.Member{}, t.Members...)
	return &c
}

func cloneUser(u *user.User) *user.User {
	c := *u
	if u.TeamID != nil {
		id := *u.TeamID
		c.TeamID = &id
	}
	return &c
}

type memTeams struct{ *memStore }

func (m memTeams) ExistsByName(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.teams {
		if t.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m memTeams) CreateTeam(_ context.Context, t *team.Team, d user.Details) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.teams {
		if existing.Name == t.Name {
			return team.ErrTeamExists
		}
	}
	leader, ok := m.users[t.Leader.UID]
	if !ok {
		return user.ErrUserNotFound
	}
	m.teams[t.ID] = cloneTeam(t)
	leader.Apply(d)
	leader.Role = user.RoleLeader
	id := t.ID
	leader.TeamID = &id
	return nil
}

func (m memTeams) GetTeam(_ context.Context, teamID string) (*team.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		return nil, team.ErrTeamNotFound
	}
	return cloneTeam(t), nil
}

func (m memTeams) List(_ context.Context, institute string) ([]*team.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*team.Team{}
	for _, t := range m.teams {
		if institute == "" || t.Institute == institute {
			out = append(out, cloneTeam(t))
		}
	}
	return out, nil
}

func (m memTeams) AddMember(_ context.Context, teamID, uid string, d user.Details) (*team.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		return nil, team.ErrTeamNotFound
	}
	if t.Locked {
		return nil, team.ErrTeamLocked
	}
	u, ok := m.users[uid]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	if u.Role != user.RoleMember {
		return nil, team.ErrRoleNotAllowed
	}
	if u.HasTeam() {
		return nil, team.ErrAlreadyInTeam
	}
	if !t.HasCapacity() {
		return nil, team.ErrTeamFull
	}
	u.Apply(d)
	t.Members = append(t.Members, team.MemberFromUser(u))
	id := teamID
	u.TeamID = &id
	return cloneTeam(t), nil
}

func (m memTeams) AddInvitedMember(_ context.Context, teamID string, profile *user.User) (*team.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInvited != nil {
		return nil, m.failInvited
	}
	t, ok := m.teams[teamID]
	if !ok {
		return nil, team.ErrTeamNotFound
	}
	if !t.HasCapacity() {
		return nil, team.ErrTeamFull
	}
	id := teamID
	profile.TeamID = &id
	t.Members = append(t.Members, team.MemberFromUser(profile))
	m.users[profile.UID] = cloneUser(profile)
	return cloneTeam(t), nil
}

func (m memTeams) LeaveTeam(_ context.Context, uid string) (*team.Team, *user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return nil, nil, user.ErrUserNotFound
	}
	if !u.HasTeam() {
		return nil, nil, team.ErrNotInTeam
	}
	if u.Role == user.RoleLeader {
		return nil, nil, team.ErrLeaderCannotLeave
	}
	t, ok := m.teams[*u.TeamID]
	if !ok {
		return nil, nil, team.ErrTeamNotFound
	}
	if t.Locked {
		return nil, nil, team.ErrTeamLocked
	}
	if idx := t.IndexOfMember(uid); idx >= 0 {
		t.Members = append(t.Members[:idx:idx], t.Members[idx+1:]...)
	}
	u.TeamID = nil
	return cloneTeam(t), cloneUser(u), nil
}

func (m memTeams) RemoveMemberByEmail(_ context.Context, teamID, email, _ string) (*team.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		return nil, team.ErrTeamNotFound
	}
	idx := t.IndexOfEmail(email)
	if idx < 0 {
		return nil, team.ErrMemberNotFound
	}
	t.Members = append(t.Members[:idx:idx], t.Members[idx+1:]...)
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) && u.TeamID != nil && *u.TeamID == teamID {
			u.TeamID = nil
		}
	}
	return cloneTeam(t), nil
}

func (m memTeams) DeleteTeam(_ context.Context, teamID, _ string) (*team.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		return nil, team.ErrTeamNotFound
	}
	for _, u := range m.users {
		inTeam := (u.TeamID != nil && *u.TeamID == teamID) || t.Contains(u.UID)
		if inTeam && (u.Role == user.RoleLeader || u.Role == user.RoleMember) {
			u.TeamID = nil
			u.Role = user.RoleMember
		}
	}
	delete(m.teams, teamID)
	return t, nil
}

func (m memTeams) CascadeDelete(_ context.Context, teamID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failCascade[teamID]; ok {
		return err
	}
	t, ok := m.teams[teamID]
	if !ok {
		return team.ErrTeamNotFound
	}
	for _, u := range m.users {
		if (u.TeamID != nil && *u.TeamID == teamID) || t.Contains(u.UID) {
			u.TeamID = nil
		}
	}
	delete(m.teams, teamID)
	return nil
}

func (m memTeams) PullMembers(_ context.Context, teamID string, uids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		return team.ErrTeamNotFound
	}
	for _, uid := range uids {
		if idx := t.IndexOfMember(uid); idx >= 0 {
			t.Members = append(t.Members[:idx:idx], t.Members[idx+1:]...)
		}
	}
	return nil
}

func (m memTeams) mutate(teamID string, f func(t *team.Team) error) (*team.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		return nil, team.ErrTeamNotFound
	}
	if err := f(t); err != nil {
		return nil, err
	}
	return cloneTeam(t), nil
}

func (m memTeams) SetLocked(_ context.Context, teamID string, locked bool) (*team.Team, error) {
	return m.mutate(teamID, func(t *team.Team) error { t.Locked = locked; return nil })
}

func (m memTeams) SetStatus(_ context.Context, teamID string, upd team.StatusUpdate) (*team.Team, error) {
	return m.mutate(teamID, func(t *team.Team) error {
		if upd.Nomination == nil && upd.Selection == nil {
			return team.ErrInvalidStatus
		}
		if upd.Nomination != nil {
			if !upd.Nomination.Valid() {
				return team.ErrInvalidStatus
			}
			t.NominationStatus = *upd.Nomination
		}
		if upd.Selection != nil {
			if !upd.Selection.Valid() {
				return team.ErrInvalidStatus
			}
			t.SelectionStatus = *upd.Selection
		}
		return nil
	})
}

func (m memTeams) SetMentor(_ context.Context, teamID string, mentor team.Mentor) (*team.Team, error) {
	return m.mutate(teamID, func(t *team.Team) error { t.Mentor = mentor; return nil })
}

func (m memTeams) AssignPanel(_ context.Context, teamID string, panelID *string) (*team.Team, error) {
	return m.mutate(teamID, func(t *team.Team) error { t.JuryPanelID = panelID; return nil })
}

type memUsers struct{ *memStore }

func (m memUsers) GetByID(_ context.Context, uid string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m memUsers) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return m.failCreate
	}
	m.users[u.UID] = cloneUser(u)
	return nil
}

func (m memUsers) ListByIDs(_ context.Context, uids []string) ([]*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*user.User{}
	for _, uid := range uids {
		if u, ok := m.users[uid]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (m memUsers) ListByTeam(_ context.Context, teamID string) ([]*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*user.User{}
	for _, u := range m.users {
		if u.TeamID != nil && *u.TeamID == teamID {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (m memUsers) List(_ context.Context, f user.Filter) ([]*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*user.User{}
	for _, u := range m.users {
		if (f.Role == "" || u.Role == f.Role) && (f.Institute == "" || u.Institute == f.Institute) {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (m memUsers) SetPasswordChanged(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return user.ErrUserNotFound
	}
	u.PasswordChanged = true
	return nil
}

func (m memUsers) DeleteByIDs(_ context.Context, uids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted []string
	for _, uid := range uids {
		if _, ok := m.users[uid]; ok {
			delete(m.users, uid)
			deleted = append(deleted, uid)
		}
	}
	return deleted, nil
}

// batchedUsers - DeleteByIDs пакетами по size, пакет с номером failBatch падает целиком
type batchedUsers struct {
	memUsers
	size      int
	failBatch int
}

func (b batchedUsers) DeleteByIDs(ctx context.Context, uids []string) ([]string, error) {
	var deleted []string
	for i := 0; len(uids) > 0; i++ {
		n := min(b.size, len(uids))
		batch := uids[:n]
		uids = uids[n:]
		if i == b.failBatch {
			continue
		}
		done, err := b.memUsers.DeleteByIDs(ctx, batch)
		if err != nil {
			return deleted, err
		}
		deleted = append(deleted, done...)
	}
	if b.failBatch >= 0 {
		return deleted, errors.New("batch rejected: connection reset")
	}
	return deleted, nil
}

type fakeGateway struct {
	mu        sync.Mutex
	accounts  map[string]string // email -> uid
	deleted   []string
	deleteErr map[string]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{accounts: map[string]string{}, deleteErr: map[string]error{}}
}

func (g *fakeGateway) CreateAccount(_ context.Context, email, _, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.accounts[email]; ok {
		return "", identity.ErrEmailExists
	}
	uid := uuid.NewString()
	g.accounts[email] = uid
	return uid, nil
}

func (g *fakeGateway) DeleteAccount(_ context.Context, uid string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.deleteErr[uid]; ok {
		return err
	}
	g.deleted = append(g.deleted, uid)
	for email, id := range g.accounts {
		if id == uid {
			delete(g.accounts, email)
		}
	}
	return nil
}

func (g *fakeGateway) GetAccount(_ context.Context, uid string) (*identity.Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for email, id := range g.accounts {
		if id == uid {
			return &identity.Account{UID: uid, Email: email}, nil
		}
	}
	return nil, identity.ErrAccountNotFound
}

func (g *fakeGateway) SetDisabled(context.Context, string, bool) error { return nil }

func (g *fakeGateway) UpdatePassword(context.Context, string, string) error { return nil }

func (g *fakeGateway) ListAccounts(context.Context) ([]*identity.Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*identity.Account, 0, len(g.accounts))
	for email, uid := range g.accounts {
		out = append(out, &identity.Account{UID: uid, Email: email})
	}
	return out, nil
}

func (g *fakeGateway) Authenticate(context.Context, string, string) (*identity.Account, error) {
	return nil, identity.ErrInvalidCredentials
}

type fakeInvites struct {
	mu      sync.Mutex
	byTeam  map[string]*invite.TeamInvite
	creates int
}

func newFakeInvites() *fakeInvites {
	return &fakeInvites{byTeam: map[string]*invite.TeamInvite{}}
}

func (f *fakeInvites) GetOrCreate(_ context.Context, teamID, teamName string) (*invite.TeamInvite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inv, ok := f.byTeam[teamID]; ok {
		return inv, nil
	}
	f.creates++
	inv := &invite.TeamInvite{ID: uuid.NewString(), TeamID: teamID, TeamName: teamName}
	f.byTeam[teamID] = inv
	return inv, nil
}

func (f *fakeInvites) Get(_ context.Context, inviteID string) (*invite.TeamInvite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.byTeam {
		if inv.ID == inviteID {
			return inv, nil
		}
	}
	return nil, invite.ErrInviteNotFound
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (r *recordingMailer) Send(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingMailer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}
