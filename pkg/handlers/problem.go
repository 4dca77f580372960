package handlers

import (
	"net/http"

	"hackportal/pkg/handlers/apidto"
	"hackportal/pkg/problem"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProblemHandler struct {
	repo   problem.StatementsRepo
	logger *zap.SugaredLogger
}

func NewProblemHandler(logger *zap.SugaredLogger, repo problem.StatementsRepo) *ProblemHandler {
	return &ProblemHandler{
		repo:   repo,
		logger: logger,
	}
}

type statementReq struct {
	StatementID  string `json:"statement_id"`
	Title        string `json:"title" binding:"required"`
	Category     string `json:"category" binding:"required"`
	Theme        string `json:"theme"`
	DatasetLink  string `json:"dataset_link"`
	Description  string `json:"description"`
	Department   string `json:"department"`
	Organization string `json:"organization"`
}

type bulkStatementsReq struct {
	Statements []statementReq `json:"statements" binding:"required,min=1,dive"`
}

type insertedResp struct {
	apidto.Envelope
	Inserted int `json:"inserted"`
}

type statementsResp struct {
	apidto.Envelope
	Statements []*problem.Statement `json:"statements"`
}

// BulkInsert - строки уже разобраны из таблицы на клиенте
func (h *ProblemHandler) BulkInsert(c *gin.Context) {
	var req bulkStatementsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	rows := make([]*problem.Statement, 0, len(req.Statements))
	for _, s := range req.Statements {
		rows = append(rows, &problem.Statement{
			StatementID:  s.StatementID,
			Title:        s.Title,
			Category:     problem.Category(s.Category),
			Theme:        s.Theme,
			DatasetLink:  s.DatasetLink,
			Description:  s.Description,
			Department:   s.Department,
			Organization: s.Organization,
		})
	}

	n, err := h.repo.BulkInsert(c.Request.Context(), rows)
	if err != nil {
		respondErr(c, h.logger, err, "error loading problem statements")
		return
	}

	c.JSON(http.StatusCreated, insertedResp{
		Envelope: apidto.OK("problem statements loaded"),
		Inserted: n,
	})
}

func (h *ProblemHandler) List(c *gin.Context) {
	rows, err := h.repo.List(c.Request.Context(), problem.Category(c.Query("category")))
	if err != nil {
		respondErr(c, h.logger, err, "error listing problem statements")
		return
	}

	c.JSON(http.StatusOK, statementsResp{
		Envelope:   apidto.OK(""),
		Statements: rows,
	})
}
