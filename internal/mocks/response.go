package mocks

import (
	"net/http"
	"net/http/httptest"
)

type MockResponse struct {
	ContentType string
	Body        []byte
	StatusCode  int
}

func NewMockResponse(contentType string, body []byte, statusCode int) MockResponse {
	return MockResponse{
		ContentType: contentType,
		Body:        body,
		StatusCode:  statusCode,
	}
}

// NewMockServer answers every request with resp after running the
// assertions on it.
func NewMockServer(resp MockResponse, assertions ...func(r *http.Request)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, assert := range assertions {
			assert(r)
		}
		if resp.ContentType != "" {
			w.Header().Set("Content-Type", resp.ContentType)
		}
		w.WriteHeader(resp.StatusCode)
		//nolint:errcheck // test server
		w.Write(resp.Body)
	}))
}
