package server

import (
	"errors"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/gookit/validate"
	"go.uber.org/zap"
)

var (
	errMalformedBody = errors.New("malformed request body")
	errInvalidBody   = errors.New("invalid request body")
)

// errorResponse is the body of every JSON error
type errorResponse struct {
	Error string `json:"error"`
}

// statusResponse is the body of successful admin actions
type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, status int, msg string) {
	writeJSON(w, logger, status, errorResponse{Error: msg})
}

func writeSuccess(w http.ResponseWriter, logger *zap.Logger, msg string) {
	writeJSON(w, logger, http.StatusOK, statusResponse{Status: "success", Message: msg})
}

// decodeRequest unmarshals the JSON body into dst and applies its validate tags
func decodeRequest(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}

	v := validate.Struct(dst)
	if !v.Validate() {
		return fmt.Errorf("%w: %s", errInvalidBody, v.Errors.One())
	}
	return nil
}

// writeDecodeError answers a failed decodeRequest. Validation failures use
// the route's own message.
func writeDecodeError(w http.ResponseWriter, logger *zap.Logger, err error, invalidMsg string) {
	logger.Debug("rejected request body", zap.Error(err))

	if errors.Is(err, errMalformedBody) {
		writeError(w, logger, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	writeError(w, logger, http.StatusBadRequest, invalidMsg)
}
