package httputil

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestStandardClient_Wraps(t *testing.T) {
	customClient := &http.Client{}
	client := NewStandardClient(customClient)

	if client.Client != customClient {
		t.Error("expected custom client to be wrapped")
	}
}

func TestStandardClient_NilDefaults(t *testing.T) {
	client := NewStandardClient(nil)

	if client.Client != http.DefaultClient {
		t.Error("expected nil to default to http.DefaultClient")
	}
}

func TestMockHTTPClient_Get(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddResponse(http.StatusOK, `{"result": "success"}`)

	resp, err := mock.Get("http://example.com/api")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("got status %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"result": "success"}` {
		t.Errorf("got body %q", string(body))
	}

	if mock.RequestCount() != 1 {
		t.Errorf("got %d requests, want 1", mock.RequestCount())
	}
}

func TestMockHTTPClient_Post(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddResponse(http.StatusCreated, `{"id": 123}`)

	resp, err := mock.Post("http://example.com/api", "application/json", strings.NewReader(`{"name": "test"}`))
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("got status %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	req := mock.GetRequest(0)
	if req == nil {
		t.Fatal("expected recorded request")
	}
	if req.Method != http.MethodPost {
		t.Errorf("got method %s, want POST", req.Method)
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("got content-type %s, want application/json", ct)
	}
}

func TestMockHTTPClient_ResponsesInOrder(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddResponse(http.StatusOK, "first").AddResponse(http.StatusNotFound, "second")

	resp1, err := mock.Get("http://example.com/1")
	if err != nil {
		t.Fatalf("first Get failed: %v", err)
	}
	resp1.Body.Close()
	if resp1.StatusCode != http.StatusOK {
		t.Errorf("first status = %d, want 200", resp1.StatusCode)
	}

	resp2, err := mock.Get("http://example.com/2")
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("second status = %d, want 404", resp2.StatusCode)
	}
}

func TestMockHTTPClient_ErrorResponse(t *testing.T) {
	mock := NewMockHTTPClient()
	wantErr := errors.New("connection refused")
	mock.AddErrorResponse(wantErr)

	_, err := mock.Get("http://example.com/api")
	if !errors.Is(err, wantErr) {
		t.Errorf("got error %v, want %v", err, wantErr)
	}
}

func TestMockHTTPClient_DefaultResponseAfterQueue(t *testing.T) {
	mock := NewMockHTTPClient()

	resp, err := mock.Get("http://example.com/api")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("got status %d, want empty 200 default", resp.StatusCode)
	}
}

func TestMockHTTPClient_GetRequestBounds(t *testing.T) {
	mock := NewMockHTTPClient()

	if req := mock.GetRequest(0); req != nil {
		t.Error("expected nil for out-of-range request index")
	}
	if req := mock.GetRequest(-1); req != nil {
		t.Error("expected nil for negative request index")
	}
}

func TestMockHTTPClient_Reset(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddResponse(http.StatusOK, "body")

	resp, err := mock.Get("http://example.com/api")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	resp.Body.Close()

	mock.Reset()

	if mock.RequestCount() != 0 {
		t.Errorf("got %d requests after reset, want 0", mock.RequestCount())
	}
	if len(mock.Responses) != 0 {
		t.Errorf("got %d responses after reset, want 0", len(mock.Responses))
	}
}
