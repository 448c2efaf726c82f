package middleware

import (
	"net/http"

	"github.com/cenk2025/hardpath/internal/api/respond"
	"github.com/cenk2025/hardpath/internal/models"
)

// RequireRole admits the listed roles. Admins are always admitted.
func RequireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := GetRole(r.Context())
			if role == models.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}
			for _, a := range allowed {
				if role == a {
					next.ServeHTTP(w, r)
					return
				}
			}
			respond.Forbidden(w)
		})
	}
}

// RequireAdmin is shorthand for RequireRole(RoleAdmin).
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(models.RoleAdmin)(next)
}

// RequireCareTeam admits clinicians and admins.
func RequireCareTeam(next http.Handler) http.Handler {
	return RequireRole(models.RoleClinician)(next)
}

// RequirePatient admits only patients. Admins have no patient record, so
// they are not let through here.
func RequirePatient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRole(r.Context()) != models.RolePatient {
			respond.Forbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
