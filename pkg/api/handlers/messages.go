package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/valyala/bytebufferpool"

	"postit/pkg/ingest"
	"postit/pkg/logger"
	"postit/pkg/models"
	"postit/pkg/security"
	"postit/pkg/utils"
)

// DefaultMaxBodySize caps POST bodies when no limit is configured.
const DefaultMaxBodySize = 1 << 20

// MessageService is the state actor as seen by the HTTP layer.
type MessageService interface {
	Create(ctx context.Context, payload string) error
	List(ctx context.Context) ([]string, error)
}

var (
	errBodyTooLarge   = errors.New("request body too large")
	errNotObject      = errors.New("body is not a JSON object")
	errTrailingData   = errors.New("unexpected data after JSON object")
	errMissingContent = errors.New("missing field content")
)

// emptyList is the body of a failed list request.
var emptyList = []byte("[]")

type messages struct {
	svc     MessageService
	maxBody int64
}

// RegisterMessages registers the message board endpoints on r. Methods other
// than GET and POST on /api/message get 405 from the router.
func RegisterMessages(r *mux.Router, svc MessageService, maxBody int64) {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}
	h := &messages{svc: svc, maxBody: maxBody}
	r.HandleFunc("/api/message", h.create).Methods(http.MethodPost)
	r.HandleFunc("/api/message", h.list).Methods(http.MethodGet, http.MethodHead)
}

func (h *messages) create(w http.ResponseWriter, r *http.Request) {
	content, err := h.decode(r)
	if err != nil {
		logger.Debug("message_rejected", "error", err, "request_id", security.RequestID(r.Context()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := h.svc.Create(r.Context(), content); err != nil {
		logger.Error("message_create_failed", "error", err, "request_id", security.RequestID(r.Context()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	logger.Info("message_created", "length", len(content), "request_id", security.RequestID(r.Context()))
	w.WriteHeader(http.StatusOK)
}

// decode reads and validates the request body. Every error it returns wraps
// ingest.ErrValidation.
func (h *messages) decode(r *http.Request) (string, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := buf.ReadFrom(io.LimitReader(r.Body, h.maxBody+1)); err != nil {
		return "", fmt.Errorf("%w: read body: %w", ingest.ErrValidation, err)
	}
	if int64(buf.Len()) > h.maxBody {
		return "", fmt.Errorf("%w: %w", ingest.ErrValidation, errBodyTooLarge)
	}

	content, err := decodeContent(buf.B)
	if err != nil {
		return "", fmt.Errorf("%w: invalid json: %w", ingest.ErrValidation, err)
	}
	if err := ingest.ValidateContent(content); err != nil {
		return "", err
	}
	return content, nil
}

// decodeContent reads a single JSON object and returns its "content" string.
// Keys match exactly, a repeated key is an error, and other keys are ignored.
func decodeContent(b []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	if tok, err := dec.Token(); err != nil {
		return "", err
	} else if tok != json.Delim('{') {
		return "", errNotObject
	}

	var (
		m    models.NewMessage
		seen = make(map[string]bool)
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		key, _ := tok.(string)
		if seen[key] {
			return "", fmt.Errorf("duplicate field %q", key)
		}
		seen[key] = true

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return "", err
		}
		if key != "content" {
			continue
		}
		if err := json.Unmarshal(raw, &m.Content); err != nil {
			return "", fmt.Errorf("field content: %w", err)
		}
	}
	if _, err := dec.Token(); err != nil {
		return "", err
	}
	if _, err := dec.Token(); err != io.EOF {
		return "", errTrailingData
	}
	if !seen["content"] {
		return "", errMissingContent
	}
	return m.Content, nil
}

func (h *messages) list(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.List(r.Context())
	if err != nil {
		logger.Error("message_list_failed", "error", err, "request_id", security.RequestID(r.Context()))
		utils.WriteBytes(w, http.StatusInternalServerError, "application/json", emptyList)
		return
	}
	if msgs == nil {
		msgs = []string{}
	}
	if err := utils.JSONWrite(w, http.StatusOK, msgs); err != nil {
		logger.Error("message_list_encode_failed", "error", err)
		utils.WriteBytes(w, http.StatusInternalServerError, "application/json", emptyList)
		return
	}
	logger.Debug("messages_list", "count", len(msgs))
}
