package middleware

import (
	"errors"

	"flowconnect-backend/internal/pkg/apperr"
	"flowconnect-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrorHandler is the global error handler. Taxonomy-tagged errors map to
// their HTTP status and are surfaced verbatim; untagged (domain) errors are
// masked and logged with the trace id.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Message, fe.Code, nil)
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.Kind == apperr.KindDomain {
			log.Error().Err(err).Str("trace_id", GetTraceID(c)).Msg("unclassified error")
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
		if ae.Kind == apperr.KindResourceFailure {
			log.Error().Err(ae.Err).Str("trace_id", GetTraceID(c)).
				Str("code", ae.Code).Msg("dependent service failed")
		}
		details := map[string]interface{}{"code": ae.Code}
		return response.Error(c, ae.Message, statusFor(ae.Kind), details)
	}

	log.Error().Err(err).Str("trace_id", GetTraceID(c)).Msg("unclassified error")
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindConflict:
		return fiber.StatusConflict
	case apperr.KindValidation:
		return fiber.StatusUnprocessableEntity
	case apperr.KindAuthorization:
		return fiber.StatusForbidden
	case apperr.KindResourceFailure:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
