package vaccines

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"health-inventory/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/vaccines", func(vr chi.Router) {
		vr.Get("/", listVaccinesHandler(svc))
		vr.Post("/", createVaccineHandler(svc))

		// Utilidades de formulario (sin escritura)
		vr.Post("/reconstruct", reconstructHandler(svc))
		vr.Post("/form/reconcile", reconcileFormHandler(svc))

		vr.Get("/{id}", getVaccineHandler(svc))
		vr.Put("/{id}", updateVaccineHandler(svc))
		vr.Delete("/{id}", deleteVaccineHandler(svc))
		vr.Get("/{id}/form", editFormHandler(svc))
	})
}

// submitRequest es el cuerpo para crear o editar una vacuna.
// Con confirm=false solo se valida (vista previa); con confirm=true se guarda.
type submitRequest struct {
	Form    Form `json:"form"`
	Confirm bool `json:"confirm"`
}

// submitResponse es el resultado del envío. form siempre es el formulario recibido.
type submitResponse struct {
	State       State               `json:"state"`
	Trail       []State             `json:"trail"`
	Vaccine     *PersistedRecord    `json:"vaccine,omitempty"`
	Normalized  *NormalizedSchedule `json:"normalized,omitempty"`
	Form        Form                `json:"form"`
	ResumeState State               `json:"resume_state,omitempty"`
	Error       string              `json:"error,omitempty"`
	Errors      ValidationErrors    `json:"errors,omitempty"`
}

// editFormResponse es el formulario reconstruido más los avisos de referencias rotas.
type editFormResponse struct {
	Form     EditableForm               `json:"form"`
	Warnings []InconsistentStateWarning `json:"warnings"`
}

// reconcileResponse es el formulario recortado y su estado derivado.
type reconcileResponse struct {
	Form   Form       `json:"form"`
	Status FormStatus `json:"status"`
}

// listVaccinesHandler godoc
// @Summary Listar vacunas
// @Description Lista todas las definiciones de vacunas en formato REST (`vac_name`, `vac_type`, `no_of_doses`, `dose_details`). Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags vaccines
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} PersistedRecord
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "internal error"
// @Router /vaccines [get]
func listVaccinesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}

		items, err := svc.Records(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// createVaccineHandler godoc
// @Summary Crear vacuna
// @Description Valida el formulario (estructura y nombre duplicado). Con `confirm=false` devuelve la vista previa en estado `confirming`; con `confirm=true` la guarda. Solo se permite un envío en curso por formulario (`X-Form-ID`).
// @Tags vaccines
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param X-Form-ID header string false "Identificador del formulario; por defecto create:<usuario>"
// @Param payload body submitRequest true "Formulario y confirmación"
// @Success 200 {object} submitResponse "vista previa"
// @Success 201 {object} submitResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "unauthorized"
// @Failure 409 {object} submitResponse "duplicado, cancelado o envío en curso"
// @Failure 422 {object} submitResponse "formulario inválido"
// @Failure 503 {object} submitResponse "falla de persistencia; el formulario se devuelve intacto"
// @Router /vaccines [post]
func createVaccineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		submit(w, r, svc, SubmitInput{
			FormKey: r.Header.Get("X-Form-ID"),
			Actor:   userID,
		}, http.StatusCreated)
	}
}

// updateVaccineHandler godoc
// @Summary Editar vacuna
// @Description Igual que el alta, sobre una vacuna existente. Si cambia el tipo, se borran los datos del esquema anterior en la misma transacción.
// @Tags vaccines
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param X-Form-ID header string false "Identificador del formulario; por defecto update:<id>"
// @Param id path string true "ID de la vacuna"
// @Param payload body submitRequest true "Formulario y confirmación"
// @Success 200 {object} submitResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "vaccine not found"
// @Failure 409 {object} submitResponse "duplicado, cancelado o envío en curso"
// @Failure 422 {object} submitResponse "formulario inválido"
// @Failure 503 {object} submitResponse "falla de persistencia; el formulario se devuelve intacto"
// @Router /vaccines/{id} [put]
func updateVaccineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		submit(w, r, svc, SubmitInput{
			FormKey:   r.Header.Get("X-Form-ID"),
			VaccineID: chi.URLParam(r, "id"),
			Actor:     userID,
		}, http.StatusOK)
	}
}

func submit(w http.ResponseWriter, r *http.Request, svc *Service, in SubmitInput, okStatus int) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	in.Form = req.Form

	var res SubmitResult
	if req.Confirm {
		res = svc.Submit(r.Context(), in, AutoConfirm)
	} else {
		res = svc.Preview(r.Context(), in)
	}

	if errors.Is(res.Err, ErrNotFound) {
		http.Error(w, "vaccine not found", http.StatusNotFound)
		return
	}

	resp := submitResponse{
		State:       res.State,
		Trail:       res.Trail,
		Normalized:  res.Normalized,
		Form:        res.Form,
		ResumeState: res.ResumeState,
	}
	if res.Vaccine != nil {
		rec := Persist(*res.Vaccine, svc.bestEffortLookup(r.Context()))
		resp.Vaccine = &rec
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
		var verrs ValidationErrors
		if errors.As(res.Err, &verrs) {
			resp.Errors = verrs
		}
	}

	writeJSON(w, submitStatus(res, okStatus), resp)
}

func submitStatus(res SubmitResult, okStatus int) int {
	switch {
	case errors.Is(res.Err, ErrSubmissionInFlight):
		return http.StatusConflict
	case res.State == StateCommitted:
		return okStatus
	case res.State == StateConfirming:
		return http.StatusOK
	case res.State == StateRejectedStructure:
		return http.StatusUnprocessableEntity
	case res.State == StateRejectedDuplicate, res.State == StateCancelled:
		return http.StatusConflict
	case res.State == StateFailedTransport:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// getVaccineHandler godoc
// @Summary Obtener vacuna
// @Description Devuelve la vacuna en formato REST.
// @Tags vaccines
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param id path string true "ID de la vacuna"
// @Success 200 {object} PersistedRecord
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "vaccine not found"
// @Router /vaccines/{id} [get]
func getVaccineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}

		rec, err := svc.Record(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeLookupError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// editFormHandler godoc
// @Summary Formulario de edición
// @Description Reconstruye el formulario de edición. Si el grupo etario guardado ya no existe, `age_group` viene vacío y se agrega un aviso en `warnings`.
// @Tags vaccines
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param id path string true "ID de la vacuna"
// @Success 200 {object} editFormResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "vaccine not found"
// @Failure 503 {string} string "age group directory unavailable"
// @Router /vaccines/{id}/form [get]
func editFormHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}

		form, warnings, err := svc.EditForm(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeLookupError(w, err)
			return
		}
		if warnings == nil {
			warnings = []InconsistentStateWarning{}
		}
		writeJSON(w, http.StatusOK, editFormResponse{Form: form, Warnings: warnings})
	}
}

// reconstructHandler godoc
// @Summary Reconstruir formulario desde un registro
// @Description Arma el formulario de edición a partir de un registro en formato REST (acepta `no_of_doses` numérico, string o "N/A", y `agegrp_id` o `age_group`).
// @Tags vaccines
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body PersistedRecord true "Registro persistido"
// @Success 200 {object} editFormResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "unauthorized"
// @Failure 503 {string} string "age group directory unavailable"
// @Router /vaccines/reconstruct [post]
func reconstructHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}

		var rec PersistedRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		form, warnings, err := svc.ReconstructRecord(r.Context(), rec)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		if warnings == nil {
			warnings = []InconsistentStateWarning{}
		}
		writeJSON(w, http.StatusOK, editFormResponse{Form: form, Warnings: warnings})
	}
}

// reconcileFormHandler godoc
// @Summary Recalcular formulario
// @Description Aplica un cambio del formulario: recorta intervalos y unidades al largo que exige el tipo y la cantidad de dosis, y devuelve qué dosis faltan y si se puede enviar.
// @Tags vaccines
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body Form true "Formulario actual"
// @Success 200 {object} reconcileResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "unauthorized"
// @Router /vaccines/form/reconcile [post]
func reconcileFormHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}

		var f Form
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		out, st := f.Reconcile()
		writeJSON(w, http.StatusOK, reconcileResponse{Form: out, Status: st})
	}
}

// deleteVaccineHandler godoc
// @Summary Borrar vacuna
// @Description Borra la vacuna y su esquema (borrado físico, no hay archivo).
// @Tags vaccines
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param id path string true "ID de la vacuna"
// @Success 204 {string} string "no content"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "vaccine not found"
// @Router /vaccines/{id} [delete]
func deleteVaccineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeLookupError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

func writeLookupError(w http.ResponseWriter, err error) {
	var terr *TransportError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidInput):
		http.Error(w, "vaccine not found", http.StatusNotFound)
	case errors.As(err, &terr):
		http.Error(w, "age group directory unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
