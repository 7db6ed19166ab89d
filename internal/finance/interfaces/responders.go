package interfaces

import (
	"net/http"

	financeErrors "github.com/sebuszqo/ezwallet/internal/finance/errors"
	"github.com/sebuszqo/ezwallet/internal/logger"
)

// Responders write the response envelope. They are injected so handlers can be tested
// without the shared api package.
type Responders struct {
	Data    func(w http.ResponseWriter, r *http.Request, status int, data interface{})
	Message func(w http.ResponseWriter, status int, message string)
	Error   func(w http.ResponseWriter, status int, message string)
}

func (rs Responders) valid() bool {
	return rs.Data != nil && rs.Message != nil && rs.Error != nil
}

func (rs Responders) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	if financeErrors.IsClientError(err) {
		rs.Message(w, http.StatusBadRequest, err.Error())
		return
	}
	log := logger.FromContext(r.Context())
	log.Error().Err(err).Str("path", r.URL.Path).Msg("finance request failed")
	rs.Error(w, http.StatusInternalServerError, "Internal server error")
}
