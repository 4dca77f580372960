package handlers

import (
	"net/http"

	"hackportal/internal/handlers/apierr"
	"hackportal/pkg/handlers/apidto"
	"hackportal/pkg/identity"
	"hackportal/pkg/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	userRepo user.UsersRepo
	gateway  identity.Gateway
	logger   *zap.SugaredLogger
}

func NewUserHandler(logger *zap.SugaredLogger, userRepo user.UsersRepo, gateway identity.Gateway) *UserHandler {
	return &UserHandler{
		userRepo: userRepo,
		gateway:  gateway,
		logger:   logger,
	}
}

type userResp struct {
	apidto.Envelope
	User apidto.User `json:"user"`
}

func (h *UserHandler) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	usr, err := h.userRepo.GetByID(c.Request.Context(), p.UID)
	if err != nil {
		respondErr(c, h.logger, err, "error loading profile")
		return
	}

	c.JSON(http.StatusOK, userResp{
		Envelope: apidto.OK(""),
		User:     apidto.FromUser(usr),
	})
}

type changePasswordReq struct {
	Password string `json:"password" binding:"required,min=8"`
}

// ChangePassword - после смены временного пароля снимается флаг в профиле
func (h *UserHandler) ChangePassword(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	if h.gateway == nil {
		apierr.WriteApiErrJSON(c, http.StatusServiceUnavailable, apierr.DependencyUnavailable)
		return
	}

	if err := h.gateway.UpdatePassword(c.Request.Context(), p.UID, req.Password); err != nil {
		respondErr(c, h.logger, err, "error updating password")
		return
	}
	if err := h.userRepo.SetPasswordChanged(c.Request.Context(), p.UID); err != nil {
		respondErr(c, h.logger, err, "error marking password changed")
		return
	}

	c.JSON(http.StatusOK, apidto.OK("password changed"))
}

type setDisabledReq struct {
	Disabled *bool `json:"disabled" binding:"required"`
}

func (h *UserHandler) SetDisabled(c *gin.Context) {
	var req setDisabledReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	if h.gateway == nil {
		apierr.WriteApiErrJSON(c, http.StatusServiceUnavailable, apierr.DependencyUnavailable)
		return
	}

	if err := h.gateway.SetDisabled(c.Request.Context(), c.Param("uid"), *req.Disabled); err != nil {
		respondErr(c, h.logger, err, "error setting account state")
		return
	}

	c.JSON(http.StatusOK, apidto.OK(""))
}

type accountsResp struct {
	apidto.Envelope
	Accounts []apidto.Account `json:"accounts"`
}

func (h *UserHandler) ListAccounts(c *gin.Context) {
	if h.gateway == nil {
		apierr.WriteApiErrJSON(c, http.StatusServiceUnavailable, apierr.DependencyUnavailable)
		return
	}

	accounts, err := h.gateway.ListAccounts(c.Request.Context())
	if err != nil {
		respondErr(c, h.logger, err, "error listing accounts")
		return
	}

	c.JSON(http.StatusOK, accountsResp{
		Envelope: apidto.OK(""),
		Accounts: apidto.FromAccounts(accounts),
	})
}
