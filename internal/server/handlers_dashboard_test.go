package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postForm(srv *Server, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

// --- handleDashboard tests ---

func TestHandleDashboard_RendersCurrentState(t *testing.T) {
	st := newMockSettings()
	require.NoError(t, st.SaveCalibration(2.5, -3))
	fl := &mockFlow{liters: 12.345}

	srv := newTestServer(t, st, fl, &mockNetwork{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "density=2.5")
	assert.Contains(t, rec.Body.String(), "offset=-3")
	assert.Contains(t, rec.Body.String(), "liters=12.345")
}

// --- handleDashboardForm tests ---

func TestHandleDashboardForm_SaveSuccess(t *testing.T) {
	st := newMockSettings()
	srv := newTestServer(t, st, &mockFlow{}, &mockNetwork{})

	form := url.Values{}
	form.Set("density", "2.5")
	form.Set("magnet_offset", "-3")

	rec := postForm(srv, "/", form)
	assert.Equal(t, 302, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	cfg := st.Current()
	assert.Equal(t, 2.5, cfg.Density)
	assert.Equal(t, -3.0, cfg.MagnetOffset)
}

func TestHandleDashboardForm_NonNumericDensity(t *testing.T) {
	st := newMockSettings()
	srv := newTestServer(t, st, &mockFlow{}, &mockNetwork{})

	form := url.Values{}
	form.Set("density", "not-a-number")
	form.Set("magnet_offset", "0")

	rec := postForm(srv, "/", form)
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "density=not-a-number", "rejected input echoed back")
	assert.Contains(t, rec.Body.String(), "error=Density must be a number.")
	assert.Equal(t, 1.0, st.Current().Density, "stored config unchanged")
}

func TestHandleDashboardForm_NonPositiveDensity(t *testing.T) {
	st := newMockSettings()
	srv := newTestServer(t, st, &mockFlow{}, &mockNetwork{})

	form := url.Values{}
	form.Set("density", "-1")
	form.Set("magnet_offset", "5")

	rec := postForm(srv, "/", form)
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "error=Density must be greater than zero.")
	assert.Contains(t, rec.Body.String(), "density=-1")
	assert.Equal(t, 1.0, st.Current().Density)
}

func TestHandleDashboardForm_SaveIOError(t *testing.T) {
	st := newMockSettings()
	st.saveErr = fmt.Errorf("disk full")
	srv := newTestServer(t, st, &mockFlow{}, &mockNetwork{})

	form := url.Values{}
	form.Set("density", "2.5")
	form.Set("magnet_offset", "0")

	rec := postForm(srv, "/", form)
	assert.Equal(t, 500, rec.Code)
	assert.Contains(t, rec.Body.String(), "Settings could not be saved")
	assert.Equal(t, 1.0, st.Current().Density, "prior config stays authoritative")
}

func TestHandleDashboardForm_ResetFlow(t *testing.T) {
	fl := &mockFlow{}
	srv := newTestServer(t, newMockSettings(), fl, &mockNetwork{})

	form := url.Values{}
	form.Set("reset_flow", "1")

	rec := postForm(srv, "/", form)
	assert.Equal(t, 302, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, 1, fl.resetCalls)
}

func TestHandleDashboardForm_ResetIgnoresCalibrationFields(t *testing.T) {
	st := newMockSettings()
	fl := &mockFlow{}
	srv := newTestServer(t, st, fl, &mockNetwork{})

	// The reset button wins even if stale calibration fields tag along.
	form := url.Values{}
	form.Set("reset_flow", "1")
	form.Set("density", "9.9")

	rec := postForm(srv, "/", form)
	assert.Equal(t, 302, rec.Code)
	assert.Equal(t, 1, fl.resetCalls)
	assert.Equal(t, 1.0, st.Current().Density)
}
