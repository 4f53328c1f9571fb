package public

import (
	"github.com/denver-kabob/internal/cart"
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

var cartErrorRules = []mappedHandlerError{
	{Target: cart.ErrCartIDInvalid, Code: response.CodeBadRequest},
	{Target: cart.ErrItemInvalid, Code: response.CodeBadRequest},
	{Target: cart.ErrPriceInvalid, Code: response.CodeBadRequest},
	{Target: cart.ErrLineNotFound, Code: response.CodeNotFound},
}

// checkoutValidationRules cover both the checkout request and the fallback payload
var checkoutValidationRules = []mappedHandlerError{
	{Target: service.ErrCartEmpty, Code: response.CodeBadRequest},
	{Target: service.ErrCustomerInfoRequired, Code: response.CodeBadRequest},
	{Target: service.ErrCustomerNameRequired, Code: response.CodeBadRequest},
	{Target: service.ErrCustomerPhoneRequired, Code: response.CodeBadRequest},
	{Target: service.ErrCustomerPhoneInvalid, Code: response.CodeBadRequest},
	{Target: service.ErrCustomerEmailInvalid, Code: response.CodeBadRequest},
	{Target: service.ErrItemInvalid, Code: response.CodeBadRequest},
	{Target: service.ErrItemPriceInvalid, Code: response.CodeBadRequest},
	{Target: service.ErrOrderTypeInvalid, Code: response.CodeBadRequest},
	{Target: service.ErrTimeChoiceInvalid, Code: response.CodeBadRequest},
	{Target: service.ErrScheduledTimeRequired, Code: response.CodeBadRequest},
	{Target: service.ErrScheduledTimeInvalid, Code: response.CodeBadRequest},
	{Target: service.ErrOrderTotalInvalid, Code: response.CodeBadRequest},
	{Target: service.ErrCartTooLarge, Code: response.CodeBadRequest},
}

var checkoutErrorRules = handlershared.ConcatMappedErrors(checkoutValidationRules, cartErrorRules)

var ensureOrderErrorRules = handlershared.ConcatMappedErrors(
	[]mappedHandlerError{
		{Target: service.ErrSessionIDRequired, Code: response.CodeBadRequest},
		{Target: service.ErrCartItemsRequired, Code: response.CodeBadRequest},
		{Target: service.ErrMetadataMissing, Code: response.CodeBadRequest},
		{Target: service.ErrPaymentNotCompleted, Code: response.CodeConflict},
	},
	checkoutValidationRules,
)

var lookupErrorRules = []mappedHandlerError{
	{Target: service.ErrLookupKeyRequired, Code: response.CodeBadRequest},
	{Target: service.ErrLookupPhoneInvalid, Code: response.CodeBadRequest},
}
