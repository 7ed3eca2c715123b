package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"SendLater/internal/csvparser"
	"SendLater/internal/dispatch"
	"SendLater/internal/email"
	"SendLater/internal/models"
)

const (
	maxJSONBody   = 1 << 20
	maxBatchBody  = 10 << 20
	batchFormFile = "recipients"
)

// Dispatcher is the dispatch core as seen by the HTTP layer.
type Dispatcher interface {
	DispatchNow(ctx context.Context, req models.DispatchRequest) (models.HistoryEntry, error)
	DispatchLater(req models.DispatchRequest) (string, error)
	Cancel(id string) bool
	ListPending() []models.ScheduledJob
	ListHistory() []models.HistoryEntry
}

type Options struct {
	SanitizeHTML bool
	BatchMaxRows int
	ScheduleSkew time.Duration
	Now          func() time.Time
}

type Handler struct {
	dispatcher Dispatcher
	log        *zap.Logger
	opts       Options
	validate   *validator.Validate
}

func NewHandler(d Dispatcher, log *zap.Logger, opts Options) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		dispatcher: d,
		log:        log,
		opts:       opts,
		validate:   newValidator(),
	}
}

func (h *Handler) now() time.Time { return h.opts.Now() }

func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	req.ScheduledTime = nil

	if errs := h.check(req, false); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, validationResponse{Errors: errs})
		return
	}
	req.Body = h.prepareBody(req.Body)

	entry, err := h.dispatcher.DispatchNow(r.Context(), req)
	if err != nil {
		h.log.Error("error sending email",
			zap.String("to", req.To),
			zap.String("principal", Subject(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Failed to send email", errors.New(entry.Error))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Email sent successfully",
		"entry":   entry,
	})
}

func (h *Handler) ScheduleEmail(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if errs := h.check(req, true); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, validationResponse{Errors: errs})
		return
	}
	req.Body = h.prepareBody(req.Body)

	id, err := h.dispatcher.DispatchLater(req)
	if err != nil {
		h.log.Error("error scheduling email", zap.String("to", req.To), zap.Error(err))
		writeError(w, scheduleErrorStatus(err), "Failed to schedule email", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Email scheduled successfully",
		"jobId":   id,
	})
}

// ScheduleBatch schedules one job per CSV recipient with the body
// rendered against that recipient's columns. Without a scheduled time
// the jobs fire right away, in the background.
func (h *Handler) ScheduleBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBatchBody)
	if err := r.ParseMultipartForm(maxBatchBody); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	subject := r.FormValue("subject")
	body := r.FormValue("body")
	at, err := parseScheduledTime(r.FormValue("scheduledTime"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, validationResponse{Errors: []fieldError{
			{Field: "scheduledTime", Message: fieldMessages["scheduledTime"]},
		}})
		return
	}
	if at == nil {
		now := h.now()
		at = &now
	}

	// Placeholder address; each row supplies the real one.
	sample := models.DispatchRequest{To: "batch@example.com", Subject: subject, Body: body, ScheduledTime: at}
	if errs := h.check(sample, true); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, validationResponse{Errors: errs})
		return
	}

	tmpl, err := email.ParseTemplate(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, validationResponse{Errors: []fieldError{
			{Field: "body", Message: err.Error()},
		}})
		return
	}

	file, _, err := r.FormFile(batchFormFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Recipients CSV file is required", err)
		return
	}
	defer file.Close()

	batch, err := csvparser.ParseRecipients(file, h.opts.BatchMaxRows)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid recipients CSV", err)
		return
	}

	reqs := make([]models.DispatchRequest, 0, len(batch.Recipients))
	for _, rcpt := range batch.Recipients {
		html, err := tmpl.Render(rcpt.Fields)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to render email body", fmt.Errorf("%s: %w", rcpt.Email, err))
			return
		}
		reqs = append(reqs, models.DispatchRequest{
			To:            rcpt.Email,
			Subject:       subject,
			Body:          h.prepareBody(html),
			ScheduledTime: at,
		})
	}

	ids := make([]string, 0, len(reqs))
	for _, req := range reqs {
		id, err := h.dispatcher.DispatchLater(req)
		if err != nil {
			// Undo what this batch scheduled. Jobs that already fired
			// cannot be recalled and are reported back.
			delivered := make([]string, 0)
			for _, done := range ids {
				if !h.dispatcher.Cancel(done) {
					delivered = append(delivered, done)
				}
			}
			h.log.Error("error scheduling batch",
				zap.Int("scheduled", len(ids)),
				zap.Int("not_recalled", len(delivered)),
				zap.Error(err),
			)
			writeJSON(w, scheduleErrorStatus(err), map[string]any{
				"success":     false,
				"message":     "Failed to schedule batch",
				"error":       err.Error(),
				"notRecalled": delivered,
			})
			return
		}
		ids = append(ids, id)
	}

	h.log.Info("batch scheduled",
		zap.Int("recipients", len(ids)),
		zap.Int("skipped", len(batch.Skipped)),
		zap.String("principal", Subject(r.Context())),
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("%d emails scheduled successfully", len(ids)),
		"jobIds":  ids,
		"skipped": batch.Skipped,
	})
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"history": h.dispatcher.ListHistory(),
	})
}

func (h *Handler) GetScheduled(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"scheduled": h.dispatcher.ListPending(),
	})
}

func (h *Handler) CancelScheduled(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.dispatcher.Cancel(id) {
		writeError(w, http.StatusNotFound, "Scheduled email not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Scheduled email cancelled successfully",
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (models.DispatchRequest, bool) {
	var req models.DispatchRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return req, false
	}

	req.To = strings.TrimSpace(req.To)
	return req, true
}

func (h *Handler) prepareBody(html string) string {
	if !h.opts.SanitizeHTML {
		return html
	}
	return email.Sanitize(html)
}

func scheduleErrorStatus(err error) int {
	if errors.Is(err, dispatch.ErrShuttingDown) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, dispatch.ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
