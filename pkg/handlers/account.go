package handlers

import (
	"net/http"

	"hackportal/pkg/handlers/apidto"
	"hackportal/pkg/roster"
	"hackportal/pkg/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccountHandler - создание аккаунтов: самостоятельная регистрация и заведение SPOC / админов
type AccountHandler struct {
	svc    *roster.Service
	logger *zap.SugaredLogger
}

func NewAccountHandler(logger *zap.SugaredLogger, svc *roster.Service) *AccountHandler {
	return &AccountHandler{
		svc:    svc,
		logger: logger,
	}
}

type registerReq struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Institute  string `json:"institute" binding:"required"`
	Department string `json:"department"`
	Enrollment string `json:"enrollment"`
	Contact    string `json:"contact"`
	Gender     string `json:"gender"`
}

func (h *AccountHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	u, err := h.svc.Register(c.Request.Context(), roster.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Institute:  req.Institute,
		Department: req.Department,
		Enrollment: req.Enrollment,
		Contact:    req.Contact,
		Gender:     req.Gender,
	})
	if err != nil {
		respondErr(c, h.logger, err, "error registering user")
		return
	}

	c.JSON(http.StatusCreated, userResp{
		Envelope: apidto.OK("registered, you can log in now"),
		User:     apidto.FromUser(u),
	})
}

type staffReq struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Role      string `json:"role" binding:"required,oneof=spoc admin"`
	Institute string `json:"institute"`
}

func (h *AccountHandler) ProvisionStaff(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req staffReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	u, err := h.svc.ProvisionStaff(c.Request.Context(), p, roster.StaffInput{
		Name:      req.Name,
		Email:     req.Email,
		Role:      user.Role(req.Role),
		Institute: req.Institute,
	})
	if err != nil {
		respondErr(c, h.logger, err, "error provisioning staff account")
		return
	}

	c.JSON(http.StatusCreated, userResp{
		Envelope: apidto.OK("account created, credentials sent to " + u.Email),
		User:     apidto.FromUser(u),
	})
}
