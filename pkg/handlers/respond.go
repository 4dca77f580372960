package handlers

import (
	"net/http"

	"hackportal/internal/handlers/apierr"
	"hackportal/internal/handlers/mdlwr"
	"hackportal/pkg/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondErr - известные ошибки мапятся в коды и логируются как Warn, остальное 500 и Error
func respondErr(c *gin.Context, logger *zap.SugaredLogger, err error, what string) {
	if apierr.Handle(c, err) {
		logger.Warnw(what, "error", err)
		return
	}

	logger.Errorw(what, "error", err)
	apierr.WriteApiErrJSON(c, http.StatusInternalServerError, apierr.InternalServerError)
}

func badRequest(c *gin.Context, logger *zap.SugaredLogger, err error) {
	apierr.WriteApiErrJSON(c, http.StatusBadRequest, apierr.BadRequest)
	logger.Warnw("error parsing request", "error", err)
}

func principal(c *gin.Context) (user.Principal, bool) {
	p, ok := mdlwr.PrincipalFrom(c)
	if !ok {
		apierr.WriteApiErrJSON(c, http.StatusUnauthorized, apierr.Unauthorized)
	}
	return p, ok
}
