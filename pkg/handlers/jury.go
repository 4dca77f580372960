package handlers

import (
	"net/http"

	"hackportal/pkg/handlers/apidto"
	"hackportal/pkg/jury"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type JuryHandler struct {
	svc    *jury.Service
	logger *zap.SugaredLogger
}

func NewJuryHandler(logger *zap.SugaredLogger, svc *jury.Service) *JuryHandler {
	return &JuryHandler{
		svc:    svc,
		logger: logger,
	}
}

type panelMemberReq struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Designation string `json:"designation"`
	Institute   string `json:"institute"`
}

type createPanelReq struct {
	Name    string           `json:"name" binding:"required"`
	Members []panelMemberReq `json:"members" binding:"required,min=1,dive"`
	// Activate - сразу создать аккаунты, минуя черновик
	Activate bool `json:"activate"`
}

type panelResp struct {
	apidto.Envelope
	Panel *jury.Panel `json:"panel"`
}

type panelsResp struct {
	apidto.Envelope
	Panels []*jury.Panel `json:"panels"`
}

func (h *JuryHandler) CreatePanel(c *gin.Context) {
	var req createPanelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	members := make([]jury.PanelMember, 0, len(req.Members))
	for _, m := range req.Members {
		members = append(members, jury.PanelMember{
			Name:        m.Name,
			Email:       m.Email,
			Designation: m.Designation,
			Institute:   m.Institute,
		})
	}

	var (
		p   *jury.Panel
		err error
	)
	if req.Activate {
		p, err = h.svc.CreateActive(c.Request.Context(), req.Name, members)
	} else {
		p, err = h.svc.CreateDraft(c.Request.Context(), req.Name, members)
	}
	if err != nil {
		respondErr(c, h.logger, err, "error creating jury panel")
		return
	}

	c.JSON(http.StatusCreated, panelResp{
		Envelope: apidto.OK("jury panel created"),
		Panel:    p,
	})
}

func (h *JuryHandler) Finalize(c *gin.Context) {
	p, err := h.svc.Finalize(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, h.logger, err, "error finalizing jury panel")
		return
	}

	c.JSON(http.StatusOK, panelResp{
		Envelope: apidto.OK("jury panel finalized, credentials sent"),
		Panel:    p,
	})
}

func (h *JuryHandler) Delete(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), actor.UID); err != nil {
		respondErr(c, h.logger, err, "error deleting jury panel")
		return
	}

	c.JSON(http.StatusOK, apidto.OK("jury panel deleted"))
}

func (h *JuryHandler) List(c *gin.Context) {
	panels, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondErr(c, h.logger, err, "error listing jury panels")
		return
	}

	c.JSON(http.StatusOK, panelsResp{
		Envelope: apidto.OK(""),
		Panels:   panels,
	})
}

type assignPanelReq struct {
	PanelID string `json:"panel_id"`
}

func (h *JuryHandler) AssignTeam(c *gin.Context) {
	var req assignPanelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	t, err := h.svc.AssignTeam(c.Request.Context(), c.Param("id"), req.PanelID)
	if err != nil {
		respondErr(c, h.logger, err, "error assigning jury panel")
		return
	}

	c.JSON(http.StatusOK, teamResp{
		Envelope: apidto.OK(""),
		Team:     apidto.FromTeam(t),
	})
}
