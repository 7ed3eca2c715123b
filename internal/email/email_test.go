package email_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"SendLater/internal/email"
)

func TestTemplateRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		fields map[string]string
		want   string
	}{
		{
			name:   "substitutes fields",
			body:   "<p>Hello {{.Name}}</p>",
			fields: map[string]string{"Name": "Ada"},
			want:   "<p>Hello Ada</p>",
		},
		{
			name:   "escapes values",
			body:   "<p>{{.Name}}</p>",
			fields: map[string]string{"Name": "<b>x</b>"},
			want:   "<p>&lt;b&gt;x&lt;/b&gt;</p>",
		},
		{
			name:   "missing field renders empty",
			body:   "<p>Hi {{.Company}}</p>",
			fields: map[string]string{},
			want:   "<p>Hi </p>",
		},
		{
			name: "plain body passes through",
			body: "<p>no placeholders</p>",
			want: "<p>no placeholders</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tmpl, err := email.ParseTemplate(tt.body)
			require.NoError(t, err)

			got, err := tmpl.Render(tt.fields)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTemplateInvalid(t *testing.T) {
	t.Parallel()

	_, err := email.ParseTemplate("<p>{{.Name</p>")
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	t.Run("removes scripts", func(t *testing.T) {
		t.Parallel()
		got := email.Sanitize(`<p>hi</p><script>alert(1)</script>`)
		assert.Equal(t, "<p>hi</p>", got)
	})

	t.Run("removes event handlers", func(t *testing.T) {
		t.Parallel()
		got := email.Sanitize(`<p onclick="steal()">hi</p>`)
		assert.Equal(t, "<p>hi</p>", got)
	})

	t.Run("keeps formatting", func(t *testing.T) {
		t.Parallel()
		in := "<p><strong>bold</strong> <em>it</em></p>"
		assert.Equal(t, in, email.Sanitize(in))
	})
}

func TestSenderHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &email.Sender{Host: "127.0.0.1", Port: 1, From: "noreply@example.com"}
	err := s.Send(ctx, "a@x.com", "Hi", "<p>hi</p>")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSenderReportsDialFailure(t *testing.T) {
	t.Parallel()

	s := &email.Sender{Host: "127.0.0.1", Port: 1, From: "noreply@example.com"}
	err := s.Send(context.Background(), "a@x.com", "Hi", "<p>hi</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp send error")
}

func TestLogSender(t *testing.T) {
	t.Parallel()

	s := &email.LogSender{Log: zap.NewNop()}
	assert.NoError(t, s.Send(context.Background(), "a@x.com", "Hi", "<p>hi</p>"))
}
