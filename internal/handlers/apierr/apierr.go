package apierr

import (
	"errors"
	"net/http"
	"strings"

	"hackportal/pkg/identity"
	"hackportal/pkg/invite"
	"hackportal/pkg/jury"
	"hackportal/pkg/notify"
	"hackportal/pkg/problem"
	"hackportal/pkg/roster"
	"hackportal/pkg/team"
	"hackportal/pkg/user"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrResponse - тот же конверт {success, message}, что и у успешных ответов, плюс стабильный code
type ErrResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Map нужен, чтобы при изменении текста ошибок (для логов, например) коды и статусы в ответах остались те же
func Map(err error) (int, APIError, bool) {
	switch {
	case errors.Is(err, team.ErrTeamNotFound),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, invite.ErrInviteNotFound),
		errors.Is(err, jury.ErrPanelNotFound),
		errors.Is(err, identity.ErrAccountNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, NotFound, true
	case errors.Is(err, team.ErrMemberNotFound):
		return http.StatusNotFound, MemberNotFound, true

	case errors.Is(err, team.ErrTeamExists):
		return http.StatusConflict, TeamExists, true
	case errors.Is(err, team.ErrTeamFull):
		return http.StatusConflict, TeamFull, true
	case errors.Is(err, team.ErrTeamLocked):
		return http.StatusConflict, TeamLocked, true
	case errors.Is(err, team.ErrAlreadyInTeam):
		return http.StatusConflict, AlreadyInTeam, true
	case errors.Is(err, jury.ErrPanelActive):
		return http.StatusConflict, PanelActive, true
	case errors.Is(err, identity.ErrEmailExists):
		return http.StatusConflict, withDetail(EmailExists, err), true

	case errors.Is(err, team.ErrNotInTeam):
		return http.StatusBadRequest, NotInTeam, true
	case errors.Is(err, team.ErrLeaderCannotLeave):
		return http.StatusBadRequest, LeaderCannotLeave, true
	case errors.Is(err, team.ErrInvalidStatus),
		errors.Is(err, team.ErrInvalidCategory),
		errors.Is(err, roster.ErrInvalidInput),
		errors.Is(err, jury.ErrInvalidPanel),
		errors.Is(err, problem.ErrInvalidCategory),
		errors.Is(err, problem.ErrInvalidStatement):
		return http.StatusBadRequest, withDetail(Validation, err), true

	case errors.Is(err, roster.ErrForbidden):
		return http.StatusForbidden, Forbidden, true
	case errors.Is(err, team.ErrRoleNotAllowed):
		return http.StatusForbidden, withDetail(RoleNotAllowed, err), true
	case errors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusUnauthorized, InvalidCredentials, true
	case errors.Is(err, identity.ErrAccountDisabled):
		return http.StatusForbidden, AccountDisabled, true

	// ErrSendFailed раньше ErrNotConfigured: при приглашении обе могут быть в цепочке, а участник уже добавлен
	case errors.Is(err, notify.ErrSendFailed):
		return http.StatusBadGateway, withDetail(NotificationFailed, err), true
	case errors.Is(err, identity.ErrGatewayUnavailable),
		errors.Is(err, notify.ErrNotConfigured):
		return http.StatusServiceUnavailable, DependencyUnavailable, true
	default:
		// Это автоматически не хэндлится, потому что не уточнено ничего, и мы, возможно, хотим захэндлить иначе
		return http.StatusInternalServerError, InternalServerError, false
	}
}

// withDetail - текст обернутой ошибки до первого sentinel-кода, если перед ним есть пояснение
func withDetail(base APIError, err error) APIError {
	parts := strings.Split(err.Error(), ": ")
	detail := make([]string, 0, len(parts))
	for _, p := range parts {
		if isCode(p) {
			break
		}
		detail = append(detail, p)
	}
	if len(detail) == 0 {
		return base
	}
	return APIError{Code: base.Code, Message: strings.Join(detail, ": ")}
}

func isCode(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}

func Handle(c *gin.Context, err error) bool {
	if status, apiErr, ok := Map(err); ok {
		WriteApiErrJSON(c, status, apiErr)
		return true
	}

	return false
}

func WriteApiErrJSON(c *gin.Context, status int, apiErr APIError) {
	c.JSON(status, ErrResponse{
		Success: false,
		Message: apiErr.Message,
		Code:    apiErr.Code,
	})
}
