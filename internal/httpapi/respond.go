// Package httpapi holds the JSON plumbing shared by every HTTP handler.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/fekuna/scistore-service/internal/apperr"
	"github.com/fekuna/scistore-service/internal/auth"
	"github.com/fekuna/scistore-service/pkg/i18n"
	"github.com/fekuna/scistore-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
)

const maxBodyBytes = 1 << 20

type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// Responder renders results and localized errors.
type Responder struct {
	tr     *i18n.Translator
	logger logger.ZapLogger
}

func NewResponder(tr *i18n.Translator, log logger.ZapLogger) *Responder {
	return &Responder{tr: tr, logger: log}
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (rs *Responder) JSON(w http.ResponseWriter, code int, v any) {
	WriteJSON(w, code, v)
}

// Message localizes a success message for the caller's language.
func (rs *Responder) Message(r *http.Request, id string, data map[string]any) string {
	return rs.tr.T(auth.GetLang(r.Context()), id, data)
}

func (rs *Responder) NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error maps err onto a status code and a message in the caller's language.
// Field errors are translated individually.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.From(err)
	lang := auth.GetLang(r.Context())

	if e.Code == codes.Internal {
		rs.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	body := ErrorBody{
		Code:    codeName(e.Code),
		Message: rs.tr.T(lang, e.MessageID, e.Data),
	}
	if len(e.Fields) > 0 {
		body.Fields = make(map[string]string, len(e.Fields))
		for field, id := range e.Fields {
			body.Fields[field] = rs.tr.T(lang, id, nil)
		}
	}
	WriteJSON(w, apperr.HTTPStatus(e.Code), errorEnvelope{Error: body})
}

// codeName renders a grpc code in snake case, e.g. "invalid_argument".
func codeName(c codes.Code) string {
	s := c.String()
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DecodeJSON reads at most 1 MiB and rejects empty or malformed bodies.
func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperr.Invalid("error.invalid_request")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return apperr.Invalid("error.invalid_request")
	}
	if err := json.Unmarshal(body, v); err != nil {
		var typ *json.UnmarshalTypeError
		if errors.As(err, &typ) && typ.Field != "" {
			return &apperr.Error{
				Code:      codes.InvalidArgument,
				MessageID: "error.invalid_request",
				Fields:    map[string]string{typ.Field: "validation.failed"},
			}
		}
		return apperr.Invalid("error.invalid_request")
	}
	return nil
}

func IntParam(r *http.Request, key string, def, min, max int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// FloatParam returns nil when the parameter is absent or unparsable.
func FloatParam(r *http.Request, key string) *float64 {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

// BoolParam returns nil when the parameter is absent.
func BoolParam(r *http.Request, key string) *bool {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}

type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page,omitempty"`
	Size  int `json:"page_size,omitempty"`
}
