package handlers

import (
	"net/http"

	"hackportal/pkg/handlers/apidto"
	"hackportal/pkg/roster"
	"hackportal/pkg/team"

	"github.com/gin-gonic/gin"
)

// SPOC и админские операции над командами живут в том же TeamHandler

type removeMemberReq struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *TeamHandler) RemoveMember(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req removeMemberReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	t, err := h.svc.RemoveMember(c.Request.Context(), p, c.Param("id"), req.Email)
	if err != nil {
		respondErr(c, h.logger, err, "error removing member")
		return
	}

	c.JSON(http.StatusOK, teamResp{
		Envelope: apidto.OK("member removed"),
		Team:     apidto.FromTeam(t),
	})
}

func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteTeam(c.Request.Context(), p, c.Param("id")); err != nil {
		respondErr(c, h.logger, err, "error deleting team")
		return
	}

	c.JSON(http.StatusOK, apidto.OK("team deleted"))
}

type lockReq struct {
	Locked *bool `json:"locked" binding:"required"`
}

func (h *TeamHandler) SetLocked(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req lockReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	t, err := h.svc.SetLocked(c.Request.Context(), p, c.Param("id"), *req.Locked)
	if err != nil {
		respondErr(c, h.logger, err, "error locking team")
		return
	}

	c.JSON(http.StatusOK, teamResp{
		Envelope: apidto.OK(""),
		Team:     apidto.FromTeam(t),
	})
}

type statusReq struct {
	Nomination *team.Status `json:"nomination_status"`
	Selection  *team.Status `json:"selection_status"`
}

func (h *TeamHandler) SetStatus(c *gin.Context) {
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	t, err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), team.StatusUpdate{
		Nomination: req.Nomination,
		Selection:  req.Selection,
	})
	if err != nil {
		respondErr(c, h.logger, err, "error setting team status")
		return
	}

	c.JSON(http.StatusOK, teamResp{
		Envelope: apidto.OK("status updated"),
		Team:     apidto.FromTeam(t),
	})
}

type bulkDeleteReq struct {
	UIDs []string `json:"uids" binding:"required,min=1"`
}

type bulkDeleteResp struct {
	apidto.Envelope
	*roster.BulkDeleteResult
}

func (h *TeamHandler) BulkDeleteUsers(c *gin.Context) {
	var req bulkDeleteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	res, err := h.svc.BulkDeleteUsers(c.Request.Context(), req.UIDs)
	if err != nil {
		respondErr(c, h.logger, err, "error deleting users")
		return
	}

	msg := "users deleted"
	if len(res.Failed) > 0 {
		msg = "users partially deleted, see failed"
		h.logger.Warnw("bulk delete partially failed", "deletedUsers", res.DeletedUsers, "failed", len(res.Failed))
	}

	c.JSON(http.StatusOK, bulkDeleteResp{
		Envelope:         apidto.OK(msg),
		BulkDeleteResult: res,
	})
}
