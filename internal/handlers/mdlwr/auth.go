package mdlwr

import (
	"errors"
	"net/http"
	"time"

	"hackportal/internal/handlers/apierr"
	"hackportal/pkg/identity"
	"hackportal/pkg/user"

	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	IdentityKey = "uid"
	claimRole   = "role"
	claimInst   = "institute"
)

type AuthConfig struct {
	Secret     string
	Timeout    time.Duration
	MaxRefresh time.Duration
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResp struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Token   string    `json:"token"`
	Expire  time.Time `json:"expire"`
}

// NewAuthMiddleware - логин через identity gateway, в токен кладем uid, роль и институт из профиля
func NewAuthMiddleware(logger *zap.SugaredLogger, cfg AuthConfig, gateway identity.Gateway, users user.UsersRepo) (*jwt.GinJWTMiddleware, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Hour
	}
	if cfg.MaxRefresh <= 0 {
		cfg.MaxRefresh = 24 * time.Hour
	}

	return jwt.New(&jwt.GinJWTMiddleware{
		Realm:         "hackportal",
		Key:           []byte(cfg.Secret),
		Timeout:       cfg.Timeout,
		MaxRefresh:    cfg.MaxRefresh,
		IdentityKey:   IdentityKey,
		TokenLookup:   "header: Authorization",
		TokenHeadName: "Bearer",
		TimeFunc:      time.Now,
		PayloadFunc: func(data interface{}) jwt.MapClaims {
			if p, ok := data.(*user.Principal); ok {
				return jwt.MapClaims{
					IdentityKey: p.UID,
					claimRole:   string(p.Role),
					claimInst:   p.Institute,
				}
			}
			return jwt.MapClaims{}
		},
		IdentityHandler: func(c *gin.Context) interface{} {
			claims := jwt.ExtractClaims(c)
			uid, _ := claims[IdentityKey].(string)
			role, _ := claims[claimRole].(string)
			inst, _ := claims[claimInst].(string)
			return &user.Principal{UID: uid, Role: user.Role(role), Institute: inst}
		},
		Authenticator: func(c *gin.Context) (interface{}, error) {
			var req loginReq
			if err := c.ShouldBindJSON(&req); err != nil {
				return nil, jwt.ErrMissingLoginValues
			}
			if gateway == nil {
				return nil, identity.ErrGatewayUnavailable
			}

			acc, err := gateway.Authenticate(c.Request.Context(), req.Email, req.Password)
			if err != nil {
				logger.Warnw("login failed", "email", req.Email, "err", err)
				return nil, err
			}

			profile, err := users.GetByID(c.Request.Context(), acc.UID)
			if err != nil {
				logger.Errorw("account without profile", "uid", acc.UID, "err", err)
				return nil, jwt.ErrFailedAuthentication
			}

			logger.Infow("login", "uid", profile.UID, "role", profile.Role)
			return &user.Principal{UID: profile.UID, Role: profile.Role, Institute: profile.Institute}, nil
		},
		// Authorizator - роль и институт в токене могут устареть (создал / удалил команду),
		// поэтому на каждый запрос перечитываем профиль и аккаунт
		Authorizator: func(data interface{}, c *gin.Context) bool {
			p, ok := data.(*user.Principal)
			if !ok || p.UID == "" {
				return false
			}

			profile, err := users.GetByID(c.Request.Context(), p.UID)
			if err != nil {
				logger.Warnw("token for missing profile", "uid", p.UID, "err", err)
				return false
			}
			if gateway != nil {
				acc, err := gateway.GetAccount(c.Request.Context(), p.UID)
				if err != nil {
					logger.Warnw("token for missing account", "uid", p.UID, "err", err)
					return false
				}
				if acc.Disabled {
					logger.Warnw("token for disabled account", "uid", p.UID)
					return false
				}
			}

			// тот же указатель лежит в контексте под IdentityKey
			p.Role = profile.Role
			p.Institute = profile.Institute
			return p.Role.Valid()
		},
		Unauthorized: func(c *gin.Context, code int, message string) {
			apiErr := apierr.Unauthorized
			if message != "" {
				apiErr.Message = message
			}
			c.AbortWithStatusJSON(code, apierr.ErrResponse{Success: false, Message: apiErr.Message, Code: apiErr.Code})
		},
		HTTPStatusMessageFunc: func(err error, _ *gin.Context) string {
			if _, apiErr, ok := apierr.Map(err); ok {
				return apiErr.Message
			}
			if errors.Is(err, jwt.ErrForbidden) {
				return apierr.Forbidden.Message
			}
			return err.Error()
		},
		LoginResponse:   tokenResponse("logged in"),
		RefreshResponse: tokenResponse("token refreshed"),
	})
}

func tokenResponse(message string) func(c *gin.Context, code int, token string, expire time.Time) {
	return func(c *gin.Context, code int, token string, expire time.Time) {
		c.JSON(code, tokenResp{Success: true, Message: message, Token: token, Expire: expire})
	}
}

// PrincipalFrom - после MiddlewareFunc в контексте всегда лежит *user.Principal
func PrincipalFrom(c *gin.Context) (user.Principal, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return user.Principal{}, false
	}
	p, ok := v.(*user.Principal)
	if !ok || p == nil {
		return user.Principal{}, false
	}
	return *p, true
}

func RequireRoles(roles ...user.Role) gin.HandlerFunc {
	allowed := make(map[user.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			apierr.WriteApiErrJSON(c, http.StatusUnauthorized, apierr.Unauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[p.Role]; !ok {
			apierr.WriteApiErrJSON(c, http.StatusForbidden, apierr.Forbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
