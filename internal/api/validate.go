package api

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"SendLater/internal/models"
)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type validationResponse struct {
	Errors []fieldError `json:"errors"`
}

var fieldMessages = map[string]string{
	"to":            "Invalid recipient email address",
	"subject":       "Subject is required",
	"body":          "Email body is required",
	"scheduledTime": "Invalid schedule time format",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check validates req. When scheduled is true the scheduled time must be
// present and not earlier than now minus skew.
func (h *Handler) check(req models.DispatchRequest, scheduled bool) []fieldError {
	var out []fieldError

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []fieldError{{Field: "request", Message: err.Error()}}
		}
		for _, fe := range verrs {
			out = append(out, fieldError{Field: fe.Field(), Message: fieldMessages[fe.Field()]})
		}
	}

	if scheduled {
		switch {
		case req.ScheduledTime == nil || req.ScheduledTime.IsZero():
			out = append(out, fieldError{Field: "scheduledTime", Message: fieldMessages["scheduledTime"]})
		case req.ScheduledTime.Before(h.now().Add(-h.opts.ScheduleSkew)):
			out = append(out, fieldError{Field: "scheduledTime", Message: "Scheduled time must not be in the past"})
		}
	}

	return out
}

// parseScheduledTime accepts RFC 3339 as produced by Date.toISOString.
// An empty value yields nil.
func parseScheduledTime(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
