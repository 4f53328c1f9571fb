package admin

import (
	handlershared "github.com/denver-kabob/internal/http/handlers/shared"
	"github.com/denver-kabob/internal/http/response"
	"github.com/denver-kabob/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type mappedHandlerError = handlershared.MappedError

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	handlershared.RespondMappedError(c, err, rules, fallbackCode, fallbackMsg)
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}

var orderStatusErrorRules = []mappedHandlerError{
	{Target: service.ErrStatusInvalid, Code: response.CodeBadRequest},
	{Target: service.ErrStatusTransition, Code: response.CodeConflict},
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound},
}

var loginErrorRules = []mappedHandlerError{
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized},
	{Target: service.ErrAdminNotConfigured, Code: response.CodeInternal},
}
