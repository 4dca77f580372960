package apierr

var (
	BadRequest = APIError{
		Code:    "INVALID_REQUEST",
		Message: "invalid request body",
	}
	Unauthorized = APIError{
		Code:    "UNAUTHORIZED_REQUEST",
		Message: "unauthorized request",
	}
	Forbidden = APIError{
		Code:    "FORBIDDEN",
		Message: "not allowed for this account",
	}
	NotFound = APIError{
		Code:    "NOT_FOUND",
		Message: "resource not found",
	}
	InternalServerError = APIError{
		Code:    "INTERNAL_SERVER_ERROR",
		Message: "internal server error",
	}
	TeamExists = APIError{
		Code:    "TEAM_EXISTS",
		Message: "a team with this name already exists",
	}
	TeamFull = APIError{
		Code:    "TEAM_FULL",
		Message: "team already has the maximum number of members",
	}
	TeamLocked = APIError{
		Code:    "TEAM_LOCKED",
		Message: "team is locked",
	}
	AlreadyInTeam = APIError{
		Code:    "ALREADY_IN_TEAM",
		Message: "user already belongs to a team",
	}
	NotInTeam = APIError{
		Code:    "NOT_IN_TEAM",
		Message: "user is not in a team",
	}
	LeaderCannotLeave = APIError{
		Code:    "LEADER_CANNOT_LEAVE",
		Message: "team leader cannot leave the team",
	}
	MemberNotFound = APIError{
		Code:    "MEMBER_NOT_FOUND",
		Message: "no team member with this email",
	}
	EmailExists = APIError{
		Code:    "EMAIL_EXISTS",
		Message: "email is already registered, check whether this person is already in a team",
	}
	PanelActive = APIError{
		Code:    "PANEL_ALREADY_ACTIVE",
		Message: "jury panel is already active",
	}
	Validation = APIError{
		Code:    "VALIDATION_FAILED",
		Message: "invalid input",
	}
	InvalidCredentials = APIError{
		Code:    "INVALID_CREDENTIALS",
		Message: "invalid email or password",
	}
	RoleNotAllowed = APIError{
		Code:    "ROLE_NOT_ALLOWED",
		Message: "this role cannot join a team",
	}
	AccountDisabled = APIError{
		Code:    "ACCOUNT_DISABLED",
		Message: "account is disabled",
	}
	DependencyUnavailable = APIError{
		Code:    "DEPENDENCY_UNAVAILABLE",
		Message: "service is not configured",
	}
	NotificationFailed = APIError{
		Code:    "NOTIFICATION_FAILED",
		Message: "email could not be sent",
	}
)
