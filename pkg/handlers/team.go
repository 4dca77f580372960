package handlers

import (
	"net/http"

	"hackportal/pkg/handlers/apidto"
	"hackportal/pkg/roster"
	"hackportal/pkg/team"
	"hackportal/pkg/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TeamHandler struct {
	svc    *roster.Service
	logger *zap.SugaredLogger
}

func NewTeamHandler(logger *zap.SugaredLogger, svc *roster.Service) *TeamHandler {
	return &TeamHandler{
		svc:    svc,
		logger: logger,
	}
}

type teamResp struct {
	apidto.Envelope
	Team apidto.Team `json:"team"`
}

type teamsResp struct {
	apidto.Envelope
	Teams []apidto.Team `json:"teams"`
}

type createTeamReq struct {
	Name       string `json:"name" binding:"required"`
	Category   string `json:"category" binding:"required"`
	Institute  string `json:"institute"`
	Department string `json:"department"`
	LeaderName string `json:"leader_name"`
	Enrollment string `json:"enrollment"`
	Contact    string `json:"contact"`
	Gender     string `json:"gender"`
}

func (h *TeamHandler) CreateTeam(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req createTeamReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	created, err := h.svc.CreateTeam(c.Request.Context(), roster.CreateTeamInput{
		LeaderUID:  p.UID,
		Name:       req.Name,
		Institute:  req.Institute,
		Department: req.Department,
		Category:   team.Category(req.Category),
		Details: user.Details{
			Name:       req.LeaderName,
			Enrollment: req.Enrollment,
			Contact:    req.Contact,
			Gender:     req.Gender,
		},
	})
	if err != nil {
		respondErr(c, h.logger, err, "error creating team")
		return
	}

	c.JSON(http.StatusCreated, teamResp{
		Envelope: apidto.OK("team created"),
		Team:     apidto.FromTeam(created),
	})
}

func (h *TeamHandler) ListTeams(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	teams, err := h.svc.ListTeams(c.Request.Context(), p)
	if err != nil {
		respondErr(c, h.logger, err, "error listing teams")
		return
	}

	c.JSON(http.StatusOK, teamsResp{
		Envelope: apidto.OK(""),
		Teams:    apidto.FromTeams(teams),
	})
}

func (h *TeamHandler) GetTeam(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	t, err := h.svc.GetTeam(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondErr(c, h.logger, err, "error getting team")
		return
	}

	c.JSON(http.StatusOK, teamResp{
		Envelope: apidto.OK(""),
		Team:     apidto.FromTeam(t),
	})
}

type joinTeamReq struct {
	Name       string `json:"name"`
	Enrollment string `json:"enrollment" binding:"required"`
	Contact    string `json:"contact" binding:"required"`
	Gender     string `json:"gender"`
}

func (h *TeamHandler) JoinTeam(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req joinTeamReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	t, err := h.svc.AddMember(c.Request.Context(), roster.AddMemberInput{
		UID:    p.UID,
		TeamID: c.Param("id"),
		Details: user.Details{
			Name:       req.Name,
			Enrollment: req.Enrollment,
			Contact:    req.Contact,
			Gender:     req.Gender,
		},
	})
	if err != nil {
		respondErr(c, h.logger, err, "error joining team")
		return
	}

	c.JSON(http.StatusOK, teamResp{
		Envelope: apidto.OK("joined team " + t.Name),
		Team:     apidto.FromTeam(t),
	})
}

type inviteMemberReq struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

func (h *TeamHandler) InviteMember(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req inviteMemberReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	res, err := h.svc.InviteMember(c.Request.Context(), roster.InviteMemberInput{
		Principal: p,
		TeamID:    c.Param("id"),
		Name:      req.Name,
		Email:     req.Email,
	})
	if err != nil {
		respondErr(c, h.logger, err, "error inviting member")
		return
	}

	c.JSON(http.StatusCreated, teamResp{
		Envelope: apidto.OK("member invited, credentials sent to " + req.Email),
		Team:     apidto.FromTeam(res.Team),
	})
}

type inviteLinkResp struct {
	apidto.Envelope
	InviteID string `json:"invite_id"`
	URL      string `json:"url"`
}

func (h *TeamHandler) InviteLink(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	link, err := h.svc.InviteLink(c.Request.Context(), p, c.Param("id"), c.Query("base_url"))
	if err != nil {
		respondErr(c, h.logger, err, "error issuing invite link")
		return
	}

	c.JSON(http.StatusOK, inviteLinkResp{
		Envelope: apidto.OK(""),
		InviteID: link.InviteID,
		URL:      link.URL,
	})
}

type invitePreviewResp struct {
	apidto.Envelope
	Team apidto.TeamPreview `json:"team"`
}

func (h *TeamHandler) ResolveInvite(c *gin.Context) {
	t, err := h.svc.ResolveInvite(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, h.logger, err, "error resolving invite")
		return
	}

	c.JSON(http.StatusOK, invitePreviewResp{
		Envelope: apidto.OK(""),
		Team:     apidto.PreviewFromTeam(t),
	})
}

func (h *TeamHandler) LeaveTeam(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	if err := h.svc.LeaveTeam(c.Request.Context(), p.UID); err != nil {
		respondErr(c, h.logger, err, "error leaving team")
		return
	}

	c.JSON(http.StatusOK, apidto.OK("left the team"))
}

type mentorReq struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Contact     string `json:"contact"`
	Designation string `json:"designation"`
}

func (h *TeamHandler) UpdateMentor(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req mentorReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	t, err := h.svc.UpdateMentor(c.Request.Context(), p, c.Param("id"), team.Mentor{
		Name:        req.Name,
		Email:       req.Email,
		Contact:     req.Contact,
		Designation: req.Designation,
	})
	if err != nil {
		respondErr(c, h.logger, err, "error updating mentor")
		return
	}

	c.JSON(http.StatusOK, teamResp{
		Envelope: apidto.OK("mentor updated"),
		Team:     apidto.FromTeam(t),
	})
}

type spocRequestReq struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Institute string `json:"institute" binding:"required"`
	Contact   string `json:"contact"`
	Note      string `json:"note"`
}

func (h *TeamHandler) RequestSpocAccess(c *gin.Context) {
	var req spocRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	err := h.svc.RequestSpocAccess(c.Request.Context(), roster.SpocRequest{
		Name:      req.Name,
		Email:     req.Email,
		Institute: req.Institute,
		Contact:   req.Contact,
		Note:      req.Note,
	})
	if err != nil {
		respondErr(c, h.logger, err, "error sending spoc request")
		return
	}

	c.JSON(http.StatusAccepted, apidto.OK("request sent to the administrator"))
}
