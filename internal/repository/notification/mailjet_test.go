//go:build !integration

package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailjetSendEmail(t *testing.T) {
	var got mailjetPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3.1/send", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := NewMailjetRepository(MailjetConfig{
		MailjetBaseURL:           srv.URL,
		MailjetBasicAuthUsername: "key",
		MailjetBasicAuthPassword: "secret",
		MailjetSenderEmail:       "shop@justeatmore.test",
		MailjetSenderName:        "Just Eat More",
	})

	err := repo.SendEmail(context.Background(), "Rina", "rina@example.com", "Order JEM-1", "line one\nline <two>")
	require.NoError(t, err)

	require.Len(t, got.Messages, 1)
	msg := got.Messages[0]
	assert.Equal(t, "shop@justeatmore.test", msg.From.Email)
	assert.Equal(t, []mailjetAddress{{Email: "rina@example.com", Name: "Rina"}}, msg.To)
	assert.Equal(t, "line one<br>line &lt;two&gt;", msg.HTMLPart)
}

func TestMailjetNegativeResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ErrorMessage":"API key authentication/authorization failure"}`))
	}))
	defer srv.Close()

	repo := NewMailjetRepository(MailjetConfig{MailjetBaseURL: srv.URL})

	err := repo.SendEmail(context.Background(), "Rina", "rina@example.com", "s", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
