package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"ecommerce-shop/shared/pkg/apperr"
)

const maxJSONBody = 1 << 20

type successBody struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, successBody{Status: "success", Message: message, Data: data})
}

// writeError renders err as the error envelope. Internal causes are logged
// and replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	ae := apperr.From(err)
	if ae.Status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		ae = &apperr.Error{Code: apperr.CodeInternal, Message: "internal server error", Status: ae.Status}
		if ae.Status == http.StatusBadGateway {
			ae.Code = apperr.CodeUpstream
			ae.Message = "upstream service unavailable"
		}
	}

	body := make(map[string]any, len(ae.Meta)+2)
	for k, v := range ae.Meta {
		body[k] = v
	}
	body["status"] = "error"
	body["error"] = errorDetail{Code: ae.Code, Message: ae.Message, Detail: ae.Detail}
	writeJSON(w, ae.Status, body)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is empty", "")
		}
		return apperr.Validation("malformed JSON body", err.Error())
	}
	return nil
}
