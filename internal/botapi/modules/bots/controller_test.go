package bots_module

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kernel-parrot-org/scrum-master-backend/pkg/meetbot"
	"github.com/kernel-parrot-org/scrum-master-backend/pkg/utils"
)

// stubDriver accepts every interaction so sessions run through the happy
// path without a browser.
type stubDriver struct {
	url string
}

func (d *stubDriver) Navigate(url string) error { d.url = url; return nil }
func (d *stubDriver) CurrentURL() (string, error) {
	return d.url, nil
}
func (d *stubDriver) WaitVisible(string, time.Duration) error      { return nil }
func (d *stubDriver) Click(string, time.Duration) error            { return nil }
func (d *stubDriver) SendKeys(string, string, time.Duration) error { return nil }
func (d *stubDriver) PageText() (string, error)                    { return "", nil }
func (d *stubDriver) Close() error                                 { return nil }

type stubRecorder struct{}

func (r *stubRecorder) Start() error        { return nil }
func (r *stubRecorder) Stop() error         { return nil }
func (r *stubRecorder) Path() string        { return "out/stub.opus" }
func (r *stubRecorder) Upload(string) error { return nil }

func setupEngine(admitted bool) *gin.Engine {
	gin.SetMode(gin.TestMode)

	adapter := meetbot.NewAdapter(meetbot.SessionOptions{
		BotName:        "Test Bot",
		MinRecordTime:  10 * time.Millisecond,
		PollInterval:   2 * time.Millisecond,
		AdmissionCheck: func(meetbot.Driver) (bool, error) { return admitted, nil },
		NewDriver:      func() (meetbot.Driver, error) { return &stubDriver{}, nil },
		NewRecorder:    func(string) meetbot.AudioRecorder { return &stubRecorder{} },
	})

	engine := gin.New()
	group := engine.Group("/api/v1")
	RegisterRoutes(group)
	Init(utils.NewConfig(nil), adapter)
	return engine
}

func TestStartBotEndpoint(t *testing.T) {
	engine := setupEngine(true)

	body := `{"meetlink": "https://meet.google.com/abc-defg-hij", "min_record_time": 1}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bots/start", strings.NewReader(body))
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["bot_id"])
	assert.Equal(t, meetbot.ExternalInitialized, resp["status"])
}

func TestStartBotRejectsBadBody(t *testing.T) {
	engine := setupEngine(true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bots/start", strings.NewReader(`{"bot_name": "no link"}`))
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartBotBusy(t *testing.T) {
	engine := setupEngine(false) // never admitted, session stays in flight

	body := `{"meetlink": "https://meet.google.com/abc-defg-hij", "max_waiting_time": 3600}`
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/bots/start", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/bots/start", strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetBotEndpoint(t *testing.T) {
	engine := setupEngine(false)

	body := `{"meetlink": "https://meet.google.com/abc-defg-hij", "max_waiting_time": 3600}`
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/bots/start", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var started map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/bots/"+started["bot_id"], nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		BotID   string              `json:"bot_id"`
		Status  string              `json:"status"`
		Session meetbot.SessionInfo `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, started["bot_id"], resp.BotID)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", resp.Session.MeetLink)
}

func TestGetBotNotFound(t *testing.T) {
	engine := setupEngine(true)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/bots/unknown-id", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
