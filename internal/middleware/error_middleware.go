package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/shelfclub/internal/app/models/dto"
	"github.com/yigit/shelfclub/internal/pkg/apperrors"
	"github.com/yigit/shelfclub/internal/pkg/logger"
)

type errorMapping struct {
	kind   error
	status int
	code   dto.ErrorCode
}

// errorMappings is checked in order; the first kind matched by errors.Is wins
var errorMappings = []errorMapping{
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	{apperrors.ErrInvalidFormat, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	{apperrors.ErrNotAuthenticated, http.StatusUnauthorized, dto.ErrorCodeNotAuthenticated},

	{apperrors.ErrNotAuthorized, http.StatusForbidden, dto.ErrorCodeNotAuthorized},
	{apperrors.ErrNotAMember, http.StatusForbidden, dto.ErrorCodeNotAMember},

	{apperrors.ErrClubNotFound, http.StatusNotFound, dto.ErrorCodeClubNotFound},
	{apperrors.ErrBookNotFound, http.StatusNotFound, dto.ErrorCodeBookNotFound},
	{apperrors.ErrSuggestionNotFound, http.StatusNotFound, dto.ErrorCodeSuggestionNotFound},
	{apperrors.ErrVoteNotFound, http.StatusNotFound, dto.ErrorCodeVoteNotFound},

	{apperrors.ErrCycleNotOpen, http.StatusConflict, dto.ErrorCodeCycleNotOpen},
	{apperrors.ErrCycleAlreadyOpen, http.StatusConflict, dto.ErrorCodeCycleAlreadyOpen},
	{apperrors.ErrCycleNotYetExpired, http.StatusConflict, dto.ErrorCodeCycleNotYetExpired},
	{apperrors.ErrVotingClosed, http.StatusConflict, dto.ErrorCodeVotingClosed},
	{apperrors.ErrSuggestionNotEligible, http.StatusConflict, dto.ErrorCodeSuggestionNotEligible},
	{apperrors.ErrSuggestionAlreadyExists, http.StatusConflict, dto.ErrorCodeSuggestionAlreadyExists},
	{apperrors.ErrAlreadyVoted, http.StatusConflict, dto.ErrorCodeAlreadyVoted},
	{apperrors.ErrClubAlreadyReading, http.StatusConflict, dto.ErrorCodeClubAlreadyReading},
	{apperrors.ErrNoCurrentBook, http.StatusConflict, dto.ErrorCodeNoCurrentBook},

	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrStore, http.StatusInternalServerError, dto.ErrorCodeStoreError},
}

// StatusFor returns the HTTP status and error code for err
func StatusFor(err error) (int, dto.ErrorCode) {
	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, dto.ErrorCodeInternalServer
}

// messageFor returns the caller-facing message. Only messages of declared
// kinds are exposed; causes are never rendered.
func messageFor(err error) string {
	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		return custom.Message
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			return m.kind.Error()
		}
	}
	return "internal server error"
}

// HandleAPIError writes the error response for err and aborts the request
func HandleAPIError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		HandleValidationError(c, err)
		return
	}

	status, code := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error().
			Err(err).
			Str("path", c.FullPath()).
			Str("requestID", c.GetString(RequestIDKey)).
			Msg("Request failed")
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(code, messageFor(err)))
}

// NotFoundHandler answers unknown routes in the standard error shape
func NotFoundHandler(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrorCodeRouteNotFound, "route not found"))
}
