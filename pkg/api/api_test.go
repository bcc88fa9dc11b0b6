package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/uniqline/pkg/dedup"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(NewEndpoints(quietLogger())))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url, body string, v any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	var got healthResponse
	if code := getJSON(t, srv.URL+"/v1/health", &got); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if got.Status != "ok" || !slices.Contains(got.Algorithms, "blake3") {
		t.Errorf("health = %+v", got)
	}
}

func TestDedup_Lines(t *testing.T) {
	srv := newTestServer(t)

	var got dedupResponse
	code := postJSON(t, srv.URL+"/v1/dedup",
		`{"lines":["a","A","a ","b"],"options":{"ignore_case":true,"trim_line":true}}`, &got)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if !slices.Equal(got.Lines, []string{"a", "b"}) {
		t.Errorf("lines = %q, want [a b]", got.Lines)
	}
	if got.Stats.Repeated != 2 || got.Stats.Total != 4 {
		t.Errorf("stats = %+v", got.Stats)
	}
}

func TestDedup_TextAndCSV(t *testing.T) {
	srv := newTestServer(t)

	var got dedupResponse
	code := postJSON(t, srv.URL+"/v1/dedup",
		`{"text":"x;1\nx;1\ny;2;3\n","options":{"csv_mode":true,"hash":"sha512"}}`, &got)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if !slices.Equal(got.Lines, []string{"x;1", "y;2;3"}) {
		t.Errorf("lines = %q", got.Lines)
	}
	if got.Algorithm.String() != "sha512" {
		t.Errorf("algorithm = %v", got.Algorithm)
	}
	if got.CSV == nil || got.CSV.Valid || !slices.Equal(got.CSV.Counts, []int{1, 2}) {
		t.Errorf("csv = %+v, want invalid with [1 2]", got.CSV)
	}
}

func TestDedup_Errors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{"lines":`, http.StatusBadRequest},
		{"format without csv", `{"lines":["a"],"options":{"format_date":true}}`, http.StatusBadRequest},
		{"unknown hash", `{"lines":["a"],"options":{"hash":"md5"}}`, http.StatusBadRequest},
		{"pipeline ok", `{"lines":["a;b"],"options":{"csv_mode":true,"format_number":true}}`, http.StatusOK},
		{"bad delimiter", `{"lines":["a"],"options":{"csv_mode":true,"csv_delimiter":"ab"}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			if code := postJSON(t, srv.URL+"/v1/dedup", tt.body, &got); code != tt.code {
				t.Errorf("status = %d, want %d (body %v)", code, tt.code, got)
			}
		})
	}
}

func TestDedup_ResourceOptionsClamped(t *testing.T) {
	srv := newTestServer(t)

	var got dedupResponse
	code := postJSON(t, srv.URL+"/v1/dedup",
		`{"lines":["a","b","a"],"options":{"chunk_size":1099511627776,"workers":1000000}}`, &got)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if !slices.Equal(got.Lines, []string{"a", "b"}) || got.Stats.Repeated != 1 {
		t.Errorf("dedup = %+v", got)
	}
}

func TestClampOptions(t *testing.T) {
	o := dedup.DefaultOptions()
	o.ChunkSize = 1 << 40
	o.Workers = 1 << 20
	got := clampOptions(o)
	if got.ChunkSize != MaxLines {
		t.Errorf("ChunkSize = %d, want %d", got.ChunkSize, MaxLines)
	}
	if got.Workers != runtime.GOMAXPROCS(0) {
		t.Errorf("Workers = %d, want %d", got.Workers, runtime.GOMAXPROCS(0))
	}

	o.ChunkSize = 0
	if err := clampOptions(o).Validate(); err == nil {
		t.Error("clamping must not hide an invalid chunk size")
	}
}

func TestDedup_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	var got map[string]string
	if code := getJSON(t, srv.URL+"/v1/dedup", &got); code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", code)
	}
}

func TestNormalize(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		path    string
		output  string
		changed bool
	}{
		{"/v1/normalize/number/34.542.675,01", "34542675.01", true},
		{"/v1/normalize/number/1.23b.567,89", "1.23b.567,89", false},
		{"/v1/normalize/date/1%20/1/%202013", "01/01/2013", true},
		{"/v1/normalize/date/29/2/1973", "29/2/1973", false},
	}
	for _, tt := range tests {
		var got normalizeResponse
		if code := getJSON(t, srv.URL+tt.path, &got); code != http.StatusOK {
			t.Fatalf("GET %s status = %d", tt.path, code)
		}
		if got.Output != tt.output || got.Changed != tt.changed {
			t.Errorf("GET %s = %+v, want output %q changed %v", tt.path, got, tt.output, tt.changed)
		}
	}
}

func TestValidate(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		path  string
		kind  string
		valid bool
	}{
		{"/v1/validate/11222333000181", KindRegistryNumber, true},
		{"/v1/validate/11.222.333/0001-81", KindRegistryNumber, true},
		{"/v1/validate/11222333000180", KindRegistryNumber, false},
		{"/v1/validate/35230111222333000181550010000000011000000008", KindFiscalKey, true},
		{"/v1/validate/35230111222333000181550010000000011000000009", KindFiscalKey, false},
	}
	for _, tt := range tests {
		var got validateResponse
		if code := getJSON(t, srv.URL+tt.path, &got); code != http.StatusOK {
			t.Fatalf("GET %s status = %d", tt.path, code)
		}
		if got.Kind != tt.kind || got.Valid != tt.valid {
			t.Errorf("GET %s = %+v, want kind %s valid %v", tt.path, got, tt.kind, tt.valid)
		}
	}

	var got map[string]string
	if code := getJSON(t, srv.URL+"/v1/validate/12345", &got); code != http.StatusBadRequest {
		t.Errorf("short input status = %d, want 400", code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("%s = %q, want abc-123", RequestIDHeader, got)
	}

	resp, err = http.Get(srv.URL + "/v1/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing generated request id")
	}
}

// callTool sends a tools/call message and returns the text content and the
// error flag of the result.
func callTool(t *testing.T, srv *server.MCPServer, name string, args map[string]any) (string, bool) {
	t.Helper()
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(srv.HandleMessage(context.Background(), msg))
	if err != nil {
		t.Fatal(err)
	}

	var resp struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	if len(resp.Result.Content) == 0 {
		t.Fatalf("no content in %s", raw)
	}
	return resp.Result.Content[0].Text, resp.Result.IsError
}

func newMCPServer() *server.MCPServer {
	srv := server.NewMCPServer("uniqline-test", "0.0.0", server.WithToolCapabilities(false))
	RegisterMCPTools(srv, NewEndpoints(quietLogger()))
	return srv
}

func TestMCP_Dedup(t *testing.T) {
	srv := newMCPServer()

	text, isErr := callTool(t, srv, "dedup_lines", map[string]any{
		"text":        "a\nA\na \nb\n",
		"ignore_case": true,
		"trim":        true,
		"hash":        "blake3",
	})
	if isErr {
		t.Fatalf("tool error: %s", text)
	}
	var got dedupResponse
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("decode %s: %v", text, err)
	}
	if !slices.Equal(got.Lines, []string{"a", "b"}) || got.Stats.Repeated != 2 {
		t.Errorf("dedup_lines = %+v", got)
	}
	if got.Algorithm.String() != "blake3" {
		t.Errorf("algorithm = %v", got.Algorithm)
	}

	if text, isErr := callTool(t, srv, "dedup_lines", map[string]any{"text": "a", "format_key": true}); !isErr {
		t.Errorf("format_key without csv should fail, got %s", text)
	}
}

func TestMCP_NormalizeAndValidate(t *testing.T) {
	srv := newMCPServer()

	text, isErr := callTool(t, srv, "normalize_number", map[string]any{"value": "7,532106"})
	if isErr || !strings.Contains(text, `"output":"7.532106"`) {
		t.Errorf("normalize_number = %s (error %v)", text, isErr)
	}

	text, isErr = callTool(t, srv, "normalize_date", map[string]any{"value": " 25 / 6 /   2015  "})
	if isErr || !strings.Contains(text, `"output":"25/06/2015"`) {
		t.Errorf("normalize_date = %s (error %v)", text, isErr)
	}

	text, isErr = callTool(t, srv, "validate_identifier", map[string]any{"digits": "60.746.948/0001-12"})
	if isErr || !strings.Contains(text, `"valid":true`) {
		t.Errorf("validate_identifier = %s (error %v)", text, isErr)
	}

	if _, isErr := callTool(t, srv, "validate_identifier", map[string]any{"digits": "abc"}); !isErr {
		t.Error("validate_identifier(abc) should fail")
	}
}
