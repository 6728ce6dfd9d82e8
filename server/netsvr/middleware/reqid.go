package middleware

import (
	"net/http"

	chimid "github.com/go-chi/chi/v5/middleware"
)

const HeaderRequestID = "X-Request-Id"

// RequestID 沿用 chi 的產生規則，並回寫到回應標頭
func RequestID(next http.Handler) http.Handler {
	return chimid.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := GetReqId(r); id != "" {
			w.Header().Set(HeaderRequestID, id)
		}
		next.ServeHTTP(w, r)
	}))
}

func GetReqId(r *http.Request) string {
	return chimid.GetReqID(r.Context())
}
