package handlers

import (
	"net/http"

	"github.com/crucial707/cloudscan/internal/middleware"
)

// userID returns the authenticated user's id from the request context, or 0
// when the route is not behind the JWT middleware.
func userID(r *http.Request) int {
	if id, ok := r.Context().Value(middleware.UserIDKey).(int); ok {
		return id
	}
	return 0
}
