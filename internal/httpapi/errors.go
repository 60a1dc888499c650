package httpapi

import (
	"errors"
	"net/http"

	uperrors "github.com/alexisbeaulieu97/uptimer/pkg/errors"
)

// apiError is the envelope every non-2xx response shares.
type apiError struct {
	Error string `json:"error"`
}

// statusFor maps the typed error kinds of §7 onto HTTP status codes.
// Anything unrecognized is a 500: the handler's own bug, not the
// caller's.
func statusFor(err error) int {
	var (
		unknownStage    *uperrors.UnknownStageError
		badStageConfig  *uperrors.BadStageConfigError
		badPipeline     *uperrors.BadPipelineError
		validationError *uperrors.ValidationError
		notFound        *uperrors.NotFoundError
		storageErr      *uperrors.StorageError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &unknownStage):
		return http.StatusBadRequest
	case errors.As(err, &badStageConfig):
		return http.StatusBadRequest
	case errors.As(err, &badPipeline):
		return http.StatusBadRequest
	case errors.As(err, &validationError):
		return http.StatusBadRequest
	case errors.As(err, &storageErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
