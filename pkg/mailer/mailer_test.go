package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/asookemart/asooke-backend/pkg/config"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testConfig() config.SendgridConfig {
	return config.SendgridConfig{APIKey: "SG.key", DefaultFrom: "no-reply@asooke.ng", FromName: "Aso Oke", BaseURL: "http://sendgrid.test"}
}

func TestSendGridPostsPayload(t *testing.T) {
	var captured mail.SGMailV3
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "http://sendgrid.test/v3/mail/send", req.URL.String())
		assert.Equal(t, "Bearer SG.key", req.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&captured))
		return &http.Response{StatusCode: http.StatusAccepted, Body: io.NopCloser(strings.NewReader(""))}, nil
	})
	sg, err := NewSendGrid(testConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	err = sg.Send(context.Background(), Message{To: "ada@example.com", ToName: "Ada", Subject: "Hi", Text: "plain", HTML: "<p>x</p>"})
	require.NoError(t, err)
	require.Len(t, captured.Personalizations, 1)
	assert.Equal(t, "ada@example.com", captured.Personalizations[0].To[0].Address)
	assert.Equal(t, "Ada", captured.Personalizations[0].To[0].Name)
	assert.Equal(t, "no-reply@asooke.ng", captured.From.Address)
	assert.Equal(t, "Hi", captured.Subject)
	require.Len(t, captured.Content, 2)
	assert.Equal(t, "text/plain", captured.Content[0].Type)
	assert.Equal(t, "text/html", captured.Content[1].Type)
}

func TestSendGridAgainstLocalServer(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.BaseURL = srv.URL + "/"
	sg, err := NewSendGrid(cfg)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, sg.Send(context.Background(), Message{To: "a@b.c", Subject: "Your code", Text: "123456"}))
	}
	assert.Equal(t, 2, hits)
}

func TestSendGridNon2xxIsDependencyError(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusUnauthorized, Body: io.NopCloser(strings.NewReader(`{"errors":[]}`))}, nil
	})
	sg, err := NewSendGrid(testConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	err = sg.Send(context.Background(), Message{To: "a@b.c", Subject: "s", Text: "t"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestSendRequiresBody(t *testing.T) {
	sg, err := NewSendGrid(testConfig())
	require.NoError(t, err)
	err = sg.Send(context.Background(), Message{To: "a@b.c", Subject: "s"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestNewFallsBackToLogSender(t *testing.T) {
	buf := &bytes.Buffer{}
	sender := New(config.SendgridConfig{}, logger.New(logger.Options{ServiceName: "test", Output: buf}))
	_, ok := sender.(*LogSender)
	require.True(t, ok)

	require.NoError(t, sender.Send(context.Background(), Message{To: "a@b.c", Subject: "Your code", Text: "123456"}))
	assert.Contains(t, buf.String(), "mail.logged")
}
