package roster

import (
	"errors"
	"strings"

	"hackportal/pkg/identity"
	"hackportal/pkg/invite"
	"hackportal/pkg/notify"
	"hackportal/pkg/team"
	"hackportal/pkg/user"

	"go.uber.org/zap"
)

var (
	ErrForbidden    = errors.New("FORBIDDEN")
	ErrInvalidInput = errors.New("INVALID_INPUT")
)

// placeholderDetail - приглашенный участник сам заполняет эти поля после входа
const placeholderDetail = "N/A"

type Deps struct {
	Teams      team.TeamsRepo
	Users      user.UsersRepo
	Invites    invite.InvitesRepo
	LinkCache  invite.LinkCache
	Gateway    identity.Gateway
	Mailer     notify.Dispatcher
	Background *notify.Background
	BaseURL    string
	AdminEmail string
}

// Service - все операции над составом команд. Каждая многодокументная запись
// уходит в репозиторий одной транзакцией, внешние вызовы (identity, почта) идут вне ее
type Service struct {
	logger     *zap.SugaredLogger
	teams      team.TeamsRepo
	users      user.UsersRepo
	invites    invite.InvitesRepo
	linkCache  invite.LinkCache
	gateway    identity.Gateway
	mailer     notify.Dispatcher
	background *notify.Background
	baseURL    string
	adminEmail string
}

func NewService(logger *zap.SugaredLogger, deps Deps) *Service {
	cache := deps.LinkCache
	if cache == nil {
		cache = invite.NoopCache{}
	}
	mailer := deps.Mailer
	if mailer == nil {
		mailer = notify.Unconfigured{}
	}
	background := deps.Background
	if background == nil {
		background = notify.NewBackground(logger, mailer, 0)
	}

	return &Service{
		logger:     logger,
		teams:      deps.Teams,
		users:      deps.Users,
		invites:    deps.Invites,
		linkCache:  cache,
		gateway:    deps.Gateway,
		mailer:     mailer,
		background: background,
		baseURL:    strings.TrimRight(deps.BaseURL, "/"),
		adminEmail: deps.AdminEmail,
	}
}

func (s *Service) loginURL() string {
	return s.baseURL + "/login"
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// canManage - лидер своей команды, SPOC ее института или админ
func canManage(p user.Principal, t *team.Team) bool {
	return t.Leader.UID == p.UID || p.ManagesInstitute(t.Institute)
}
