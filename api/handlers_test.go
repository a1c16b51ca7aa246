package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-lc3/lc3sim/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	srv := api.NewServer(0)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Post(ts.URL+"/api/v1/session", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created api.SessionCreateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	return ts, created.SessionID
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	return resp
}

func TestAPI_Health(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_CreateAndGetSessionStatus(t *testing.T) {
	ts, id := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/session/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var status api.SessionStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, id, status.SessionID)
}

func TestAPI_GetSessionStatus_UnknownIDIs404(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/v1/session/bogus")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_LoadProgram_AssemblesAndReportsOrigin(t *testing.T) {
	ts, id := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/session/"+id+"/load", api.LoadProgramRequest{
		Source: ".orig x3000\nAND R0, R0, #0\nADD R0, R0, #5\nHALT\n.end\n",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loaded api.LoadProgramResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loaded))
	assert.True(t, loaded.Success)
	assert.Equal(t, uint16(0x3000), loaded.Origin)
}

func TestAPI_LoadProgram_AssemblyErrorReportsFailure(t *testing.T) {
	ts, id := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/session/"+id+"/load", api.LoadProgramRequest{Source: ""})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var loaded api.LoadProgramResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loaded))
	assert.False(t, loaded.Success)
	assert.NotEmpty(t, loaded.Error)
}

func TestAPI_Step_AdvancesPCAndReturnsRegisters(t *testing.T) {
	ts, id := newTestServer(t)
	loadResp := postJSON(t, ts.URL+"/api/v1/session/"+id+"/load", api.LoadProgramRequest{
		Source: ".orig x3000\nADD R0, R0, #1\nADD R0, R0, #1\nHALT\n.end\n",
	})
	loadResp.Body.Close()

	resp := postJSON(t, ts.URL+"/api/v1/session/"+id+"/step", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var regs api.RegistersResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&regs))
	assert.Equal(t, uint16(0x3001), regs.PC)
	assert.Equal(t, uint16(1), regs.R[0])
}

func TestAPI_BreakpointsLifecycle(t *testing.T) {
	ts, id := newTestServer(t)

	createResp := postJSON(t, ts.URL+"/api/v1/session/"+id+"/breakpoints", api.BreakpointRequest{Address: 0x3005})
	defer createResp.Body.Close()
	require.Equal(t, http.StatusCreated, createResp.StatusCode)

	listResp, err := http.Get(ts.URL + "/api/v1/session/" + id + "/breakpoints")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var list api.BreakpointsResponse
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
	require.Len(t, list.Breakpoints, 1)
	assert.Equal(t, uint16(0x3005), list.Breakpoints[0].Address)
}

func TestAPI_Registers_GetAndPut(t *testing.T) {
	ts, id := newTestServer(t)

	putResp := postJSONWithMethod(t, http.MethodPut, ts.URL+"/api/v1/session/"+id+"/registers", map[string]uint16{"R0": 0x42})
	defer putResp.Body.Close()
	require.Equal(t, http.StatusOK, putResp.StatusCode)

	var regs api.RegistersResponse
	require.NoError(t, json.NewDecoder(putResp.Body).Decode(&regs))
	assert.Equal(t, uint16(0x42), regs.R[0])
}

func TestAPI_Memory_GetAndPut(t *testing.T) {
	ts, id := newTestServer(t)

	putResp := postJSONWithMethod(t, http.MethodPut, ts.URL+"/api/v1/session/"+id+"/memory", map[string]interface{}{
		"address": 0x4000, "words": []uint16{0xAAAA, 0xBBBB},
	})
	putResp.Body.Close()

	getResp, err := http.Get(ts.URL + "/api/v1/session/" + id + "/memory?address=x4000&length=2")
	require.NoError(t, err)
	defer getResp.Body.Close()
	var mem api.MemoryResponse
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&mem))
	assert.Equal(t, []uint16{0xAAAA, 0xBBBB}, mem.Words)
}

func TestAPI_Disassembly_ReturnsInstructionText(t *testing.T) {
	ts, id := newTestServer(t)
	loadResp := postJSON(t, ts.URL+"/api/v1/session/"+id+"/load", api.LoadProgramRequest{
		Source: ".orig x3000\nADD R0, R0, #1\nHALT\n.end\n",
	})
	loadResp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/v1/session/" + id + "/disassembly?address=x3000&count=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	var dis api.DisassemblyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dis))
	require.Len(t, dis.Instructions, 2)
	assert.Equal(t, "ADD R0, R0, #1", dis.Instructions[0].Disassembly)
}

func TestAPI_KeyboardAndOutput_RoundTrip(t *testing.T) {
	ts, id := newTestServer(t)
	loadResp := postJSON(t, ts.URL+"/api/v1/session/"+id+"/load", api.LoadProgramRequest{
		Source: ".orig x3000\nHALT\n.end\n",
	})
	loadResp.Body.Close()

	kbResp := postJSON(t, ts.URL+"/api/v1/session/"+id+"/keyboard", api.KeyboardRequest{Data: "a"})
	defer kbResp.Body.Close()
	assert.Equal(t, http.StatusOK, kbResp.StatusCode)

	outResp, err := http.Get(ts.URL + "/api/v1/session/" + id + "/output")
	require.NoError(t, err)
	defer outResp.Body.Close()
	assert.Equal(t, http.StatusOK, outResp.StatusCode)
}

func TestAPI_Reset_RestoresDefaultsAndClearsBreakpoints(t *testing.T) {
	ts, id := newTestServer(t)
	loadResp := postJSON(t, ts.URL+"/api/v1/session/"+id+"/load", api.LoadProgramRequest{
		Source: ".orig x3000\nADD R0, R0, #1\nADD R0, R0, #1\nCOUNTER .FILL #0\nHALT\n.end\n",
	})
	loadResp.Body.Close()
	stepResp := postJSON(t, ts.URL+"/api/v1/session/"+id+"/step", nil)
	stepResp.Body.Close()

	bpResp := postJSON(t, ts.URL+"/api/v1/session/"+id+"/breakpoints", api.BreakpointRequest{Address: 0x3001})
	bpResp.Body.Close()

	// Simulate a program that mutates its own data word (COUNTER, x3002)
	// during execution.
	memResp := postJSONWithMethod(t, http.MethodPut, ts.URL+"/api/v1/session/"+id+"/memory", map[string]any{
		"address": 0x3002,
		"words":   []uint16{0x2A},
	})
	memResp.Body.Close()

	resetResp := postJSON(t, ts.URL+"/api/v1/session/"+id+"/reset?mode=reload", nil)
	defer resetResp.Body.Close()
	assert.Equal(t, http.StatusOK, resetResp.StatusCode)

	statusResp, err := http.Get(ts.URL + "/api/v1/session/" + id)
	require.NoError(t, err)
	defer statusResp.Body.Close()
	var status api.SessionStatusResponse
	require.NoError(t, json.NewDecoder(statusResp.Body).Decode(&status))
	assert.Equal(t, uint16(0x3000), status.PC)

	memGetResp, err := http.Get(ts.URL + "/api/v1/session/" + id + "/memory?address=x3002&length=1")
	require.NoError(t, err)
	defer memGetResp.Body.Close()
	var memStatus api.MemoryResponse
	require.NoError(t, json.NewDecoder(memGetResp.Body).Decode(&memStatus))
	require.Len(t, memStatus.Words, 1)
	assert.Equal(t, uint16(0), memStatus.Words[0])

	listResp, err := http.Get(ts.URL + "/api/v1/session/" + id + "/breakpoints")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var list api.BreakpointsResponse
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
	assert.Empty(t, list.Breakpoints)
}

func TestAPI_DestroySession_RemovesItFromListing(t *testing.T) {
	ts, id := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/session/"+id, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	listResp, err := http.Get(ts.URL + "/api/v1/session")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var listed map[string]interface{}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&listed))
	assert.Equal(t, float64(0), listed["count"])
}

func postJSONWithMethod(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}
