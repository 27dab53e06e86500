package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"tritonthenix/api"
	"tritonthenix/schedule"
	"tritonthenix/services/event"
	"tritonthenix/services/mail"
	"tritonthenix/services/profile"
	"tritonthenix/services/session"
	"tritonthenix/services/user"
	"tritonthenix/validator"
)

// toAPIError maps domain errors onto the shared error vocabulary. Anything
// unrecognised becomes internal and is logged.
func toAPIError(err error) *api.Error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var verr *schedule.ValidationError
	if errors.As(err, &verr) {
		return &api.Error{
			Code:    api.CodeInvalidArgument,
			Message: "invalid event",
			Fields:  api.TransformFieldErrors(verr.Fields),
		}
	}

	switch {
	case errors.Is(err, event.ErrUnauthenticated),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrSessionExpired),
		errors.Is(err, session.ErrInvalidToken),
		errors.Is(err, session.ErrMissingEmail),
		errors.Is(err, validator.ErrInvalidCredential),
		errors.Is(err, validator.ErrMissingEmailClaim):
		return api.NewError(api.CodeUnauthenticated, "%s", err.Error())
	case errors.Is(err, event.ErrForbidden):
		return api.NewError(api.CodePermissionDenied, "%s", err.Error())
	case errors.Is(err, event.ErrNotFound), errors.Is(err, user.ErrNotFound):
		return api.NewError(api.CodeNotFound, "%s", err.Error())
	case errors.Is(err, schedule.ErrEventFull):
		return &api.Error{Code: api.CodeFailedPrecondition, Message: err.Error(), HTTPStatus: http.StatusConflict}
	case errors.Is(err, event.ErrConfirmationRequired),
		errors.Is(err, mail.ErrNotConfigured),
		errors.Is(err, profile.ErrNotConfigured):
		return api.NewError(api.CodeFailedPrecondition, "%s", err.Error())
	case errors.Is(err, mail.ErrBlankMessage), errors.Is(err, mail.ErrNoRecipients):
		return api.NewError(api.CodeInvalidArgument, "%s", err.Error())
	case errors.Is(err, profile.ErrUnsupportedType):
		return &api.Error{Code: api.CodeInvalidArgument, Message: err.Error(), HTTPStatus: http.StatusUnsupportedMediaType}
	case errors.Is(err, profile.ErrTooLarge):
		return &api.Error{Code: api.CodeInvalidArgument, Message: err.Error(), HTTPStatus: http.StatusRequestEntityTooLarge}
	case errors.Is(err, mail.ErrDelivery):
		return api.NewError(api.CodeInternal, "Error sending email")
	}
	log.Error().Err(err).Msg("unhandled error")
	return api.NewError(api.CodeInternal, "internal error")
}

func handleError(c *gin.Context, err error) {
	api.WriteError(c, toAPIError(err))
}
