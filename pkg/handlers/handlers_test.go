package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hackportal/internal/handlers/mdlwr"
	"hackportal/pkg/handlers"
	"hackportal/pkg/identity"
	"hackportal/pkg/invite"
	"hackportal/pkg/notify"
	"hackportal/pkg/problem"
	"hackportal/pkg/roster"
	"hackportal/pkg/team"
	"hackportal/pkg/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubTeams struct {
	team.TeamsRepo
	names map[string]bool
	teams map[string]*team.Team
}

func (s *stubTeams) ExistsByName(_ context.Context, name string) (bool, error) {
	return s.names[name], nil
}

func (s *stubTeams) CreateTeam(_ context.Context, t *team.Team, _ user.Details) error {
	s.names[t.Name] = true
	return nil
}

func (s *stubTeams) GetTeam(_ context.Context, teamID string) (*team.Team, error) {
	t, ok := s.teams[teamID]
	if !ok {
		return nil, team.ErrTeamNotFound
	}
	c := *t
	return &c, nil
}

// AddMember - команда в стабе всегда заполнена
func (s *stubTeams) AddMember(context.Context, string, string, user.Details) (*team.Team, error) {
	return nil, team.ErrTeamFull
}

func (s *stubTeams) AddInvitedMember(_ context.Context, teamID string, profile *user.User) (*team.Team, error) {
	t, err := s.GetTeam(context.Background(), teamID)
	if err != nil {
		return nil, err
	}
	t.Members = append(append([]team.Member{}, t.Members...), team.MemberFromUser(profile))
	return t, nil
}

func (s *stubTeams) LeaveTeam(_ context.Context, uid string) (*team.Team, *user.User, error) {
	for _, t := range s.teams {
		if t.Leader.UID == uid {
			return nil, nil, team.ErrLeaderCannotLeave
		}
	}
	return nil, nil, team.ErrNotInTeam
}

func (s *stubTeams) DeleteTeam(_ context.Context, teamID, _ string) (*team.Team, error) {
	return s.GetTeam(context.Background(), teamID)
}

type stubUsers struct {
	user.UsersRepo
}

func (stubUsers) GetByID(_ context.Context, uid string) (*user.User, error) {
	return &user.User{UID: uid, Name: "Leader", Email: uid + "@example.com", Role: user.RoleMember, Institute: "IIT"}, nil
}

func (stubUsers) Create(context.Context, *user.User) error {
	return nil
}

// ListByIDs - S* профили SPOC, uid с префиксом ghost не существуют
func (stubUsers) ListByIDs(_ context.Context, uids []string) ([]*user.User, error) {
	out := make([]*user.User, 0, len(uids))
	for _, uid := range uids {
		switch {
		case strings.HasPrefix(uid, "ghost"):
		case strings.HasPrefix(uid, "S"):
			out = append(out, &user.User{UID: uid, Email: uid + "@example.com", Role: user.RoleSpoc})
		default:
			out = append(out, &user.User{UID: uid, Email: uid + "@example.com", Role: user.RoleMember})
		}
	}
	return out, nil
}

func (stubUsers) DeleteByIDs(_ context.Context, uids []string) ([]string, error) {
	return uids, nil
}

type stubGateway struct {
	identity.Gateway
}

func (stubGateway) CreateAccount(_ context.Context, email, _, _ string) (string, error) {
	if email == "taken@example.com" {
		return "", identity.ErrEmailExists
	}
	return "uid-" + email, nil
}

func (stubGateway) DeleteAccount(context.Context, string) error {
	return nil
}

// downMailer отвечает так же, как SMTPDispatcher при недоступном сервере
type downMailer struct{}

func (downMailer) Send(context.Context, notify.Message) error {
	return fmt.Errorf("%w: %v", notify.ErrSendFailed, errors.New("dial tcp: connection refused"))
}

type stubInvites struct {
	invite.InvitesRepo
}

func (stubInvites) Get(context.Context, string) (*invite.TeamInvite, error) {
	return nil, invite.ErrInviteNotFound
}

type stubStatements struct {
	problem.StatementsRepo
}

func (stubStatements) BulkInsert(_ context.Context, rows []*problem.Statement) (int, error) {
	for _, r := range rows {
		if !r.Category.Valid() {
			return 0, problem.ErrInvalidCategory
		}
	}
	return len(rows), nil
}

func withPrincipal(p *user.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p != nil {
			c.Set(mdlwr.IdentityKey, p)
		}
		c.Next()
	}
}

// nitTeam - команда чужого для IIT-SPOC института, лидер L1
func nitTeam() *team.Team {
	return &team.Team{
		ID:        "team-1",
		Name:      "Alpha",
		Leader:    team.Leader{UID: "L1", Name: "Lead", Email: "l1@example.com"},
		Institute: "NIT",
		Members:   []team.Member{{UID: "M1", Name: "Mem", Email: "m1@example.com"}},
	}
}

func newRouter(p *user.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop().Sugar()

	svc := roster.NewService(logger, roster.Deps{
		Teams: &stubTeams{
			names: map[string]bool{"Taken": true},
			teams: map[string]*team.Team{"team-1": nitTeam()},
		},
		Users:   stubUsers{},
		Invites: stubInvites{},
		Gateway: stubGateway{},
		Mailer:  downMailer{},
	})
	teamHandler := handlers.NewTeamHandler(logger, svc)
	accountHandler := handlers.NewAccountHandler(logger, svc)
	problemHandler := handlers.NewProblemHandler(logger, stubStatements{})

	r := gin.New()
	r.GET("/invites/:id", teamHandler.ResolveInvite)
	r.POST("/auth/register", accountHandler.Register)
	authed := r.Group("/", withPrincipal(p))
	authed.POST("/teams", teamHandler.CreateTeam)
	authed.POST("/teams/leave", teamHandler.LeaveTeam)
	authed.POST("/teams/:id/join", teamHandler.JoinTeam)
	authed.POST("/teams/:id/invite", teamHandler.InviteMember)
	authed.POST("/spoc/teams/:id/remove-member", teamHandler.RemoveMember)
	authed.DELETE("/spoc/teams/:id", teamHandler.DeleteTeam)
	authed.POST("/admin/users/bulk-delete", teamHandler.BulkDeleteUsers)
	authed.POST("/admin/accounts", accountHandler.ProvisionStaff)
	authed.POST("/admin/problem-statements", problemHandler.BulkInsert)
	return r
}

func do(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestTeamHandler_CreateTeam(t *testing.T) {
	leader := &user.Principal{UID: "L1", Role: user.RoleMember}

	tests := []struct {
		name       string
		principal  *user.Principal
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "created",
			principal:  leader,
			body:       `{"name":"Alpha","category":"Software"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "duplicate name",
			principal:  leader,
			body:       `{"name":"Taken","category":"Software"}`,
			wantStatus: http.StatusConflict,
			wantCode:   "TEAM_EXISTS",
		},
		{
			name:       "bad category",
			principal:  leader,
			body:       `{"name":"Beta","category":"Biology"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "malformed body",
			principal:  leader,
			body:       `{"category":"Software"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "no principal",
			body:       `{"name":"Gamma","category":"Software"}`,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := do(newRouter(tt.principal), http.MethodPost, "/teams", tt.body)

			require.Equal(t, tt.wantStatus, w.Code)
			require.Equal(t, tt.wantCode == "", body["success"])
			if tt.wantCode != "" {
				require.Equal(t, tt.wantCode, body["code"])
			} else {
				teamBody := body["team"].(map[string]interface{})
				require.Equal(t, "Alpha", teamBody["name"])
				require.Equal(t, "L1", teamBody["leader"].(map[string]interface{})["uid"])
			}
		})
	}
}

func TestTeamHandler_ResolveInvite_NotFound(t *testing.T) {
	w, body := do(newRouter(nil), http.MethodGet, "/invites/nope", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, false, body["success"])
	require.Equal(t, "NOT_FOUND", body["code"])
}

func TestProblemHandler_BulkInsert(t *testing.T) {
	r := newRouter(&user.Principal{UID: "admin", Role: user.RoleAdmin})

	w, body := do(r, http.MethodPost, "/admin/problem-statements",
		`{"statements":[{"title":"Smart grid","category":"Hardware"},{"title":"Chatbot","category":"Software"}]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, float64(2), body["inserted"])

	w, body = do(r, http.MethodPost, "/admin/problem-statements",
		`{"statements":[{"title":"Gene","category":"Bio"}]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "VALIDATION_FAILED", body["code"])
}

func TestTeamHandler_InviteMember_EmailFailureKeepsMember(t *testing.T) {
	r := newRouter(&user.Principal{UID: "L1", Role: user.RoleLeader, Institute: "NIT"})

	w, body := do(r, http.MethodPost, "/teams/team-1/invite", `{"name":"New One","email":"new@example.com"}`)

	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Equal(t, false, body["success"])
	require.Equal(t, "NOTIFICATION_FAILED", body["code"])
	require.Equal(t, "member new@example.com added, credentials email failed", body["message"])
}

func TestTeamHandler_InviteMember_EmailTaken(t *testing.T) {
	r := newRouter(&user.Principal{UID: "L1", Role: user.RoleLeader, Institute: "NIT"})

	w, body := do(r, http.MethodPost, "/teams/team-1/invite", `{"name":"Dup","email":"taken@example.com"}`)

	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "EMAIL_EXISTS", body["code"])
	require.Contains(t, body["message"], "taken@example.com")
}

func TestTeamHandler_RosterErrors(t *testing.T) {
	tests := []struct {
		name       string
		principal  *user.Principal
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "leader cannot leave",
			principal:  &user.Principal{UID: "L1", Role: user.RoleLeader},
			method:     http.MethodPost,
			path:       "/teams/leave",
			wantStatus: http.StatusBadRequest,
			wantCode:   "LEADER_CANNOT_LEAVE",
		},
		{
			name:       "join a full team",
			principal:  &user.Principal{UID: "M9", Role: user.RoleMember},
			method:     http.MethodPost,
			path:       "/teams/team-1/join",
			body:       `{"enrollment":"EN1","contact":"123"}`,
			wantStatus: http.StatusConflict,
			wantCode:   "TEAM_FULL",
		},
		{
			name:       "spoc of another institute removes a member",
			principal:  &user.Principal{UID: "spoc-1", Role: user.RoleSpoc, Institute: "IIT"},
			method:     http.MethodPost,
			path:       "/spoc/teams/team-1/remove-member",
			body:       `{"email":"m1@example.com"}`,
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "spoc of another institute deletes the team",
			principal:  &user.Principal{UID: "spoc-1", Role: user.RoleSpoc, Institute: "IIT"},
			method:     http.MethodDelete,
			path:       "/spoc/teams/team-1",
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "spoc of the team institute deletes the team",
			principal:  &user.Principal{UID: "spoc-2", Role: user.RoleSpoc, Institute: "NIT"},
			method:     http.MethodDelete,
			path:       "/spoc/teams/team-1",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := do(newRouter(tt.principal), tt.method, tt.path, tt.body)

			require.Equal(t, tt.wantStatus, w.Code)
			require.Equal(t, tt.wantCode == "", body["success"])
			if tt.wantCode != "" {
				require.Equal(t, tt.wantCode, body["code"])
			}
		})
	}
}

func TestTeamHandler_BulkDeleteUsers_ResponseShape(t *testing.T) {
	r := newRouter(&user.Principal{UID: "admin", Role: user.RoleAdmin})

	w, body := do(r, http.MethodPost, "/admin/users/bulk-delete", `{"uids":["U1","U2","S1","ghost-1"]}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, body["success"])
	require.Equal(t, "users deleted", body["message"])
	require.Equal(t, float64(2), body["deleted_users"])
	require.Equal(t, float64(0), body["deleted_teams"])
	require.Equal(t, []interface{}{"S1@example.com (spoc)"}, body["skipped"])
	require.Equal(t, []interface{}{"ghost-1"}, body["unknown"])
	require.Equal(t, []interface{}{}, body["failed"])
	require.Equal(t, float64(0), body["identity_errors"])
}

func TestAccountHandler_Register(t *testing.T) {
	r := newRouter(nil)

	w, body := do(r, http.MethodPost, "/auth/register",
		`{"name":"Asha","email":"asha@example.com","password":"long-enough","institute":"IIT"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "member", body["user"].(map[string]interface{})["role"])

	w, body = do(r, http.MethodPost, "/auth/register",
		`{"name":"Dup","email":"taken@example.com","password":"long-enough","institute":"IIT"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "EMAIL_EXISTS", body["code"])

	w, _ = do(r, http.MethodPost, "/auth/register",
		`{"name":"Short","email":"short@example.com","password":"123","institute":"IIT"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccountHandler_ProvisionStaff_UndeliveredCredentials(t *testing.T) {
	r := newRouter(&user.Principal{UID: "admin", Role: user.RoleAdmin})

	w, body := do(r, http.MethodPost, "/admin/accounts",
		`{"name":"Ravi","email":"ravi@iit.example","role":"spoc","institute":"IIT"}`)
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Equal(t, "NOTIFICATION_FAILED", body["code"])
	require.Equal(t, "credentials for ravi@iit.example not delivered", body["message"])

	w, _ = do(r, http.MethodPost, "/admin/accounts",
		`{"name":"Ravi","email":"ravi@iit.example","role":"jury","institute":"IIT"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
