package vehicle

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/engineeye/internal/apperr"
	"github.com/ukydev/engineeye/internal/db"
	"github.com/ukydev/engineeye/internal/metrics"
	"github.com/ukydev/engineeye/internal/models"
	"github.com/ukydev/engineeye/internal/status"
	"github.com/ukydev/engineeye/internal/validation"
)

// Service is the owner-scoped vehicle repository. Every method takes the
// caller's identity explicitly.
type Service struct {
	vehicles db.VehicleCollection
	validate *validation.Validator
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService creates a vehicle service over the given collection.
func NewService(vehicles db.VehicleCollection, v *validation.Validator, m *metrics.Metrics) *Service {
	return &Service{
		vehicles: vehicles,
		validate: v,
		metrics:  m,
		now:      time.Now,
	}
}

// List returns the caller's vehicles, newest first.
func (s *Service) List(ctx context.Context, who models.Identity) ([]models.VehicleRecord, error) {
	if who.IsZero() {
		return nil, apperr.Unauthenticated("sign in to see your vehicles")
	}
	list, err := s.vehicles.FindVehicles(ctx, who.UserID)
	if err != nil {
		return nil, storeError("list vehicles", err)
	}
	return list, nil
}

// Get returns one of the caller's vehicles.
func (s *Service) Get(ctx context.Context, who models.Identity, id string) (*models.VehicleRecord, error) {
	if who.IsZero() {
		return nil, apperr.Unauthenticated("sign in to see your vehicles")
	}
	return s.load(ctx, who, id)
}

// Summary returns the derived dashboard of one of the caller's vehicles.
func (s *Service) Summary(ctx context.Context, who models.Identity, id string) (status.VehicleSummary, error) {
	rec, err := s.Get(ctx, who, id)
	if err != nil {
		return status.VehicleSummary{}, err
	}
	return status.Summarize(*rec, s.now()), nil
}

// Create stores a new vehicle for the caller and returns it with its id.
func (s *Service) Create(ctx context.Context, who models.Identity, details models.VehicleDetails) (*models.VehicleRecord, error) {
	if who.IsZero() {
		return nil, apperr.Unauthenticated("sign in to add a vehicle")
	}
	if err := s.validate.Struct(details); err != nil {
		return nil, err
	}

	rec := New(details, who, s.now())
	id, err := s.vehicles.InsertVehicle(ctx, rec)
	if err != nil {
		return nil, storeError("insert vehicle", err)
	}
	rec.ID = id

	s.metrics.VehicleEvent("created")
	log.WithFields(log.Fields{
		"vehicle_id": id.Hex(),
		"user_id":    who.UserID,
		"brand":      rec.Brand,
		"model":      rec.Model,
	}).Info("Vehicle created")
	return &rec, nil
}

// Update edits a vehicle and returns the record as written.
func (s *Service) Update(ctx context.Context, who models.Identity, id string, u Update) (*models.VehicleRecord, error) {
	if who.IsZero() {
		return nil, apperr.Unauthenticated("sign in to edit a vehicle")
	}
	if err := s.validate.Struct(u); err != nil {
		return nil, err
	}
	return s.mutate(ctx, who, id, "updated", func(rec *models.VehicleRecord, now time.Time) (db.VehicleUpdate, error) {
		return Apply(rec, u, now)
	})
}

// ToggleFavorite flips the favorite flag of a vehicle.
func (s *Service) ToggleFavorite(ctx context.Context, who models.Identity, id string) (*models.VehicleRecord, error) {
	if who.IsZero() {
		return nil, apperr.Unauthenticated("sign in to edit a vehicle")
	}
	return s.mutate(ctx, who, id, "favorite_toggled", func(rec *models.VehicleRecord, now time.Time) (db.VehicleUpdate, error) {
		return ToggleFavorite(rec, now), nil
	})
}

// AddMaintenance appends a maintenance record.
func (s *Service) AddMaintenance(ctx context.Context, who models.Identity, id string, m models.MaintenanceRecord) (*models.VehicleRecord, error) {
	if who.IsZero() {
		return nil, apperr.Unauthenticated("sign in to edit a vehicle")
	}
	if err := s.validate.Struct(m); err != nil {
		return nil, err
	}
	return s.mutate(ctx, who, id, "maintenance_added", func(rec *models.VehicleRecord, now time.Time) (db.VehicleUpdate, error) {
		return AppendMaintenance(rec, m, now), nil
	})
}

// AddFuel appends a fuel record.
func (s *Service) AddFuel(ctx context.Context, who models.Identity, id string, f models.FuelRecord) (*models.VehicleRecord, error) {
	if who.IsZero() {
		return nil, apperr.Unauthenticated("sign in to edit a vehicle")
	}
	if err := s.validate.Struct(f); err != nil {
		return nil, err
	}
	return s.mutate(ctx, who, id, "fuel_added", func(rec *models.VehicleRecord, now time.Time) (db.VehicleUpdate, error) {
		_, upd := AppendFuel(rec, f, now)
		return upd, nil
	})
}

// OpenIssue reports a new issue on a vehicle.
func (s *Service) OpenIssue(ctx context.Context, who models.Identity, id string, issue models.IssueRecord) (*models.VehicleRecord, error) {
	if who.IsZero() {
		return nil, apperr.Unauthenticated("sign in to edit a vehicle")
	}
	if err := s.validate.Struct(issue); err != nil {
		return nil, err
	}
	return s.mutate(ctx, who, id, "issue_opened", func(rec *models.VehicleRecord, now time.Time) (db.VehicleUpdate, error) {
		_, upd := OpenIssue(rec, issue, now)
		return upd, nil
	})
}

// ResolveIssue closes an active issue.
func (s *Service) ResolveIssue(ctx context.Context, who models.Identity, id, issueID, resolution string) (*models.VehicleRecord, error) {
	if who.IsZero() {
		return nil, apperr.Unauthenticated("sign in to edit a vehicle")
	}
	return s.mutate(ctx, who, id, "issue_resolved", func(rec *models.VehicleRecord, now time.Time) (db.VehicleUpdate, error) {
		_, upd, err := ResolveIssue(rec, issueID, resolution, now)
		return upd, err
	})
}

// Delete hard-deletes a vehicle. It refuses unless confirmed is true.
func (s *Service) Delete(ctx context.Context, who models.Identity, id string, confirmed bool) error {
	if who.IsZero() {
		return apperr.Unauthenticated("sign in to delete a vehicle")
	}
	if !confirmed {
		return apperr.ConfirmationRequired("deleting a vehicle cannot be undone; confirm to continue")
	}
	if err := s.vehicles.DeleteVehicle(ctx, who.UserID, id); err != nil {
		return storeError("delete vehicle", err)
	}

	s.metrics.VehicleEvent("deleted")
	log.WithFields(log.Fields{"vehicle_id": id, "user_id": who.UserID}).Info("Vehicle deleted")
	return nil
}

func (s *Service) load(ctx context.Context, who models.Identity, id string) (*models.VehicleRecord, error) {
	rec, err := s.vehicles.FindVehicleByID(ctx, who.UserID, id)
	if err != nil {
		return nil, storeError("find vehicle", err)
	}
	return rec, nil
}

// mutate loads the caller's vehicle, applies fn and writes the resulting
// update. The returned record is the loaded one with fn's changes.
func (s *Service) mutate(ctx context.Context, who models.Identity, id, event string, fn func(*models.VehicleRecord, time.Time) (db.VehicleUpdate, error)) (*models.VehicleRecord, error) {
	rec, err := s.load(ctx, who, id)
	if err != nil {
		return nil, err
	}
	upd, err := fn(rec, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.vehicles.UpdateVehicle(ctx, who.UserID, id, upd); err != nil {
		return nil, storeError("update vehicle", err)
	}

	s.metrics.VehicleEvent(event)
	log.WithFields(log.Fields{"vehicle_id": id, "user_id": who.UserID, "event": event}).Debug("Vehicle updated")
	return rec, nil
}

func storeError(op string, err error) error {
	switch {
	case errors.Is(err, db.ErrNotFound), errors.Is(err, db.ErrInvalidID):
		return apperr.NotFound("vehicle not found")
	default:
		return apperr.StoreUnavailable(op, err)
	}
}
