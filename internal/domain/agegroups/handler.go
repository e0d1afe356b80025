package agegroups

import (
	"encoding/json"
	"net/http"
	"strings"

	"health-inventory/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, src Source) {
	r.Get("/age-groups", listAgeGroupsHandler(src))
}

// listAgeGroupsHandler godoc
// @Summary Listar grupos etarios
// @Description Devuelve el directorio de grupos etarios en dos formas: `default` (registros completos) y `formatted` (id + etiqueta para formularios). Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags age-groups
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {object} Directory
// @Failure 401 {string} string "unauthorized"
// @Failure 503 {string} string "age group directory unavailable"
// @Router /age-groups [get]
func listAgeGroupsHandler(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		dir, err := src.FetchAgeGroups(r.Context())
		if err != nil {
			http.Error(w, "age group directory unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(dir)
	}
}
