package api

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manzolo/docker-compose-playground-sub001/lib/operations"
	"github.com/manzolo/docker-compose-playground-sub001/lib/runtime"
)

func postJSON(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func acceptedOperation(t *testing.T, body []byte) string {
	t.Helper()
	var accepted operationAccepted
	require.NoError(t, json.Unmarshal(body, &accepted))
	require.NotEmpty(t, accepted.OperationID)
	return accepted.OperationID
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var out map[string]string
	resp := getJSON(t, srv.URL+"/healthz", &out)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", out["status"])
}

func TestListImages(t *testing.T) {
	srv, rt, _ := newTestServer(t)
	rt.addContainer("playground-redis", "redis", "running")

	var out []imageStatus
	resp := getJSON(t, srv.URL+"/images", &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out, 2)

	// Sorted by name: redis, ubuntu.
	assert.Equal(t, "redis", out[0].Name)
	assert.True(t, out[0].Running)
	assert.Equal(t, "playground-redis", out[0].Container)
	assert.Equal(t, "ubuntu", out[1].Name)
	assert.False(t, out[1].Running)
	assert.Equal(t, "Ubuntu playground", out[1].Description)
	assert.Equal(t, "/bin/bash", out[1].Shell)
}

func TestStartImage(t *testing.T) {
	srv, rt, svc := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/images/ubuntu/start")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	opID := acceptedOperation(t, body)

	op := awaitOperation(t, svc.Tracker, opID)
	assert.Equal(t, operations.StatusCompleted, op.Status)
	assert.Equal(t, operations.KindStart, op.Kind)
	assert.Equal(t, "ubuntu", op.Target)
	assert.Equal(t, 1, op.Count(operations.CounterStarted))

	state, err := rt.InspectContainer(t.Context(), "playground-ubuntu")
	require.NoError(t, err)
	assert.True(t, state.Running())
}

func TestStartImage_UnknownImage(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, _ := postJSON(t, srv.URL+"/images/ghost/start")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStopImage(t *testing.T) {
	srv, rt, svc := newTestServer(t)
	rt.addContainer("playground-ubuntu", "ubuntu", "running")

	resp, body := postJSON(t, srv.URL+"/images/ubuntu/stop")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	op := awaitOperation(t, svc.Tracker, acceptedOperation(t, body))
	assert.Equal(t, operations.StatusCompleted, op.Status)
	assert.Equal(t, 1, op.Count(operations.CounterStopped))

	_, err := rt.InspectContainer(t.Context(), "playground-ubuntu")
	assert.ErrorIs(t, err, runtime.ErrNotFound)
}

func TestStopImage_NotRunningCountsFailed(t *testing.T) {
	srv, _, svc := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/images/ubuntu/stop")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	// The operation still completes; the failure shows up in the counters.
	op := awaitOperation(t, svc.Tracker, acceptedOperation(t, body))
	assert.Equal(t, operations.StatusCompleted, op.Status)
	assert.Equal(t, 1, op.Count(operations.CounterFailed))
	assert.NotEmpty(t, op.Errors)
}

func TestRestartImage(t *testing.T) {
	srv, rt, svc := newTestServer(t)
	rt.addContainer("playground-ubuntu", "ubuntu", "running")

	resp, body := postJSON(t, srv.URL+"/images/ubuntu/restart")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	op := awaitOperation(t, svc.Tracker, acceptedOperation(t, body))
	assert.Equal(t, operations.StatusCompleted, op.Status)
	assert.Equal(t, 1, op.Count(operations.CounterStarted))
}

func TestGetImageLogs(t *testing.T) {
	srv, rt, _ := newTestServer(t)
	rt.addContainer("playground-ubuntu", "ubuntu", "running")
	rt.logs = "hello from ubuntu"

	var out map[string]string
	resp := getJSON(t, srv.URL+"/images/ubuntu/logs?tail=10", &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello from ubuntu", out["logs"])
}

func TestGetImageLogs_BadTail(t *testing.T) {
	srv, rt, _ := newTestServer(t)
	rt.addContainer("playground-ubuntu", "ubuntu", "running")

	resp := getJSON(t, srv.URL+"/images/ubuntu/logs?tail=zero", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetImageLogs_NotRunning(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := getJSON(t, srv.URL+"/images/ubuntu/logs", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
