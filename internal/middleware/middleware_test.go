package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, remote: "10.0.0.1:5000", want: "203.0.113.7"},
		{name: "bad forwarded falls through", headers: map[string]string{"X-Forwarded-For": "garbage", "X-Real-IP": "198.51.100.2"}, remote: "10.0.0.1:5000", want: "198.51.100.2"},
		{name: "cloudflare", headers: map[string]string{"CF-Connecting-IP": "2001:db8::1"}, remote: "10.0.0.1:5000", want: "2001:db8::1"},
		{name: "remote addr", remote: "[::1]:8080", want: "::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ip, session string
			h := ClientIdentifier(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ip = GetClientIP(r.Context())
				session = GetClientSession(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, ip)
			assert.Len(t, session, 32)
		})
	}
}

func TestRequestID(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, got, rec.Header().Get(RequestIDHeader))

	sent := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, sent)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, sent, got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "not-a-uuid", got)
}
