package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// OwnerMiddleware scopes every request to one ledger owner. Authentication
// lives upstream; the gateway in front of this service sets X-Owner-ID
// after it has verified the caller.
func OwnerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := uuid.Parse(r.Header.Get("X-Owner-ID"))
		if err != nil {
			http.Error(w, "missing or invalid owner id", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "owner_id", ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
