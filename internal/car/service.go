package car

import (
	"context"
	"errors"
	"fmt"

	"github.com/CarVault/CarVault/internal/events"
)

// Service orchestrates the Car mutation protocol: boundary normalization,
// optimistic version pre-checks, group validation, persistence and
// post-commit event emission. Transport concerns stay out of it.
type Service struct {
	repo Repository
	bus  *events.Bus
}

func NewService(repo Repository, bus *events.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

// List returns one page of cars. When both make and model are given the
// result is the full, unpaginated match list wrapped in the requested page's
// metadata — the window is deliberately ignored, matching the established
// contract of the filter endpoint.
func (s *Service) List(ctx context.Context, page Page, make, model *string) (*PageResult, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	page = page.Normalized()

	if make != nil && model != nil {
		items, err := s.repo.FindByMakeAndModel(ctx, *make, *model)
		if err != nil {
			return nil, err
		}
		return &PageResult{
			Content:       items,
			Number:        page.Number,
			Size:          page.Size,
			TotalElements: int64(len(items)),
		}, nil
	}

	items, total, err := s.repo.FindAll(ctx, page)
	if err != nil {
		return nil, err
	}
	return &PageResult{
		Content:       items,
		Number:        page.Number,
		Size:          page.Size,
		TotalElements: total,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id uint64) (*Car, error) {
	return s.repo.FindByID(ctx, id)
}

// GetByVIN canonicalizes rawVin before the lookup, so lookups are
// case-insensitive. An empty VIN after trimming resolves to nothing.
func (s *Service) GetByVIN(ctx context.Context, rawVin string) (*Car, error) {
	vin := NormalizeVIN(rawVin)
	if vin == "" {
		return nil, ErrNotFound
	}
	return s.repo.FindByVIN(ctx, vin)
}

// Create persists a new car and, once the write has committed, releases a
// CarCreated event to the bus. The request must not carry an id or version.
func (s *Service) Create(ctx context.Context, req Request) (*Car, error) {
	if shape := req.shapeViolations(GroupCreate); len(shape) > 0 {
		return nil, &ValidationError{Violations: shape}
	}

	entity := &Car{
		Make:            strOrEmpty(req.Make),
		Model:           strOrEmpty(req.Model),
		ManufactureYear: intOrZero(req.ManufactureYear),
		VIN:             strOrEmpty(req.VIN),
		OdometerKm:      req.OdometerKm,
	}
	entity.normalize()
	if v := Validate(GroupCreate, entity); len(v) > 0 {
		return nil, &ValidationError{Violations: v}
	}

	outbox := s.bus.Outbox()
	defer outbox.Discard()

	saved, err := s.repo.Save(ctx, entity)
	if err != nil {
		// ErrDuplicateVIN surfaces as-is; the deferred Discard keeps the
		// event from ever reaching listeners.
		return nil, err
	}

	outbox.Enqueue(CarCreated{ID: saved.ID, VIN: saved.VIN})
	outbox.Commit()
	return saved, nil
}

// Replace overwrites the mutable fields of an existing car. The stored VIN
// is kept: clients cannot change a VIN through replace, and sending one is
// rejected. The caller must present the current version; it is checked here
// before any mutation and again by the store at write time.
func (s *Service) Replace(ctx context.Context, id uint64, req Request) (*Car, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if shape := req.shapeViolations(GroupUpdate); len(shape) > 0 {
		return nil, &ValidationError{Violations: shape}
	}
	if *req.Version != current.Version {
		return nil, ErrVersionConflict
	}

	current.Make = strOrEmpty(req.Make)
	current.Model = strOrEmpty(req.Model)
	current.ManufactureYear = intOrZero(req.ManufactureYear)
	current.OdometerKm = req.OdometerKm
	current.normalize()

	if v := Validate(GroupUpdate, current); len(v) > 0 {
		return nil, &ValidationError{Violations: v}
	}

	saved, err := s.repo.Save(ctx, current)
	if err != nil {
		return nil, mapStale(err)
	}
	return saved, nil
}

// Patch applies the provided scalar fields only. make, model and vin are
// immutable or replace-only here and must be absent; a missing or stale
// version is a conflict either way, since null never equals a stored version.
func (s *Service) Patch(ctx context.Context, id uint64, req Request) (*Car, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Version == nil || *req.Version != current.Version {
		return nil, ErrVersionConflict
	}
	if shape := req.shapeViolations(GroupPatch); len(shape) > 0 {
		return nil, &ValidationError{Violations: shape}
	}

	if req.ManufactureYear != nil {
		current.ManufactureYear = *req.ManufactureYear
	}
	if req.OdometerKm != nil {
		current.OdometerKm = req.OdometerKm
	}

	if v := Validate(GroupPatch, current); len(v) > 0 {
		return nil, &ValidationError{Violations: v}
	}

	saved, err := s.repo.Save(ctx, current)
	if err != nil {
		return nil, mapStale(err)
	}
	return saved, nil
}

func (s *Service) Delete(ctx context.Context, id uint64) error {
	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return s.repo.DeleteByID(ctx, id)
}

// mapStale turns the store's write-time version failure into the same
// conflict the pre-check produces, so callers see one error kind.
func mapStale(err error) error {
	if errors.Is(err, ErrStaleVersion) {
		return ErrVersionConflict
	}
	return err
}
