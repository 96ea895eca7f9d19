package http

import (
	"net/http"
	"os"
)

// RequireAdminToken guards the instructor endpoints with the API_TOKEN
// bearer token.
func RequireAdminToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := os.Getenv("API_TOKEN")
		got := r.Header.Get("Authorization")
		if want == "" || len(got) < 8 || got[:7] != "Bearer " || got[7:] != want {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	got := r.Header.Get("Authorization")
	if len(got) < 8 || got[:7] != "Bearer " {
		return ""
	}
	return got[7:]
}
