package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ukydev/engineeye/internal/apperr"
	"github.com/ukydev/engineeye/internal/middleware"
	"github.com/ukydev/engineeye/internal/models"
	"github.com/ukydev/engineeye/internal/status"
	"github.com/ukydev/engineeye/internal/vehicle"
)

// VehicleService is the owner-scoped vehicle repository.
type VehicleService interface {
	List(ctx context.Context, who models.Identity) ([]models.VehicleRecord, error)
	Get(ctx context.Context, who models.Identity, id string) (*models.VehicleRecord, error)
	Summary(ctx context.Context, who models.Identity, id string) (status.VehicleSummary, error)
	Create(ctx context.Context, who models.Identity, details models.VehicleDetails) (*models.VehicleRecord, error)
	Update(ctx context.Context, who models.Identity, id string, u vehicle.Update) (*models.VehicleRecord, error)
	ToggleFavorite(ctx context.Context, who models.Identity, id string) (*models.VehicleRecord, error)
	AddMaintenance(ctx context.Context, who models.Identity, id string, m models.MaintenanceRecord) (*models.VehicleRecord, error)
	AddFuel(ctx context.Context, who models.Identity, id string, f models.FuelRecord) (*models.VehicleRecord, error)
	OpenIssue(ctx context.Context, who models.Identity, id string, issue models.IssueRecord) (*models.VehicleRecord, error)
	ResolveIssue(ctx context.Context, who models.Identity, id, issueID, resolution string) (*models.VehicleRecord, error)
	Delete(ctx context.Context, who models.Identity, id string, confirmed bool) error
}

// VehicleHandler serves /vehicles.
type VehicleHandler struct {
	vehicles VehicleService
}

// NewVehicleHandler creates a vehicle handler.
func NewVehicleHandler(vehicles VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles}
}

// Routes registers the vehicle routes.
func (h *VehicleHandler) Routes(r chi.Router) {
	r.Route("/vehicles", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Route("/{vehicleID}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Put("/", h.update)
			r.Patch("/", h.patch)
			r.Delete("/", h.delete)
			r.Get("/summary", h.summary)
			r.Post("/favorite", h.toggleFavorite)
			r.Post("/maintenance", h.addMaintenance)
			r.Post("/fuel", h.addFuel)
			r.Post("/issues", h.openIssue)
			r.Post("/issues/{issueID}/resolve", h.resolveIssue)
		})
	})
}

type resolveRequest struct {
	Resolution string `json:"resolution"`
}

func (h *VehicleHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.vehicles.List(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *VehicleHandler) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.vehicles.Get(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "vehicleID"))
	respondRecord(w, r, http.StatusOK, rec, err)
}

func (h *VehicleHandler) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.vehicles.Summary(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "vehicleID"))
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *VehicleHandler) create(w http.ResponseWriter, r *http.Request) {
	var details models.VehicleDetails
	if err := decodeJSON(w, r, &details); err != nil {
		apperr.Write(w, r, err)
		return
	}
	rec, err := h.vehicles.Create(r.Context(), middleware.IdentityFromContext(r.Context()), details)
	respondRecord(w, r, http.StatusCreated, rec, err)
}

// update applies an edit whose mode the client names explicitly.
func (h *VehicleHandler) update(w http.ResponseWriter, r *http.Request) {
	var u vehicle.Update
	if err := decodeJSON(w, r, &u); err != nil {
		apperr.Write(w, r, err)
		return
	}
	rec, err := h.vehicles.Update(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "vehicleID"), u)
	respondRecord(w, r, http.StatusOK, rec, err)
}

// patch is shorthand for a patch_fields update.
func (h *VehicleHandler) patch(w http.ResponseWriter, r *http.Request) {
	var p vehicle.Patch
	if err := decodeJSON(w, r, &p); err != nil {
		apperr.Write(w, r, err)
		return
	}
	u := vehicle.Update{Mode: vehicle.ModePatchFields, Patch: &p}
	rec, err := h.vehicles.Update(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "vehicleID"), u)
	respondRecord(w, r, http.StatusOK, rec, err)
}

func (h *VehicleHandler) delete(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := h.vehicles.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "vehicleID"), confirmed); err != nil {
		apperr.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *VehicleHandler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	rec, err := h.vehicles.ToggleFavorite(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "vehicleID"))
	respondRecord(w, r, http.StatusOK, rec, err)
}

func (h *VehicleHandler) addMaintenance(w http.ResponseWriter, r *http.Request) {
	var m models.MaintenanceRecord
	if err := decodeJSON(w, r, &m); err != nil {
		apperr.Write(w, r, err)
		return
	}
	rec, err := h.vehicles.AddMaintenance(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "vehicleID"), m)
	respondRecord(w, r, http.StatusCreated, rec, err)
}

func (h *VehicleHandler) addFuel(w http.ResponseWriter, r *http.Request) {
	var f models.FuelRecord
	if err := decodeJSON(w, r, &f); err != nil {
		apperr.Write(w, r, err)
		return
	}
	rec, err := h.vehicles.AddFuel(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "vehicleID"), f)
	respondRecord(w, r, http.StatusCreated, rec, err)
}

func (h *VehicleHandler) openIssue(w http.ResponseWriter, r *http.Request) {
	var issue models.IssueRecord
	if err := decodeJSON(w, r, &issue); err != nil {
		apperr.Write(w, r, err)
		return
	}
	rec, err := h.vehicles.OpenIssue(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "vehicleID"), issue)
	respondRecord(w, r, http.StatusCreated, rec, err)
}

func (h *VehicleHandler) resolveIssue(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			apperr.Write(w, r, err)
			return
		}
	}
	rec, err := h.vehicles.ResolveIssue(r.Context(), middleware.IdentityFromContext(r.Context()),
		chi.URLParam(r, "vehicleID"), chi.URLParam(r, "issueID"), req.Resolution)
	respondRecord(w, r, http.StatusOK, rec, err)
}

func respondRecord(w http.ResponseWriter, r *http.Request, code int, rec *models.VehicleRecord, err error) {
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, code, rec)
}
