package car

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CarVault/CarVault/internal/common/logger"
	"github.com/CarVault/CarVault/internal/events"
)

// fakeRepo is an in-memory Repository with the same version-guard semantics
// as the real store.
type fakeRepo struct {
	seq  uint64
	rows map[uint64]Car

	saveErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[uint64]Car)}
}

func (f *fakeRepo) FindByID(_ context.Context, id uint64) (*Car, error) {
	c, ok := f.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (f *fakeRepo) FindByVIN(_ context.Context, vin string) (*Car, error) {
	for _, c := range f.rows {
		if c.VIN == vin {
			c := c
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) FindByMakeAndModel(_ context.Context, make, model string) ([]Car, error) {
	var out []Car
	for _, c := range f.rows {
		if c.Make == make && c.Model == model {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindAll(_ context.Context, page Page) ([]Car, int64, error) {
	var out []Car
	for _, c := range f.rows {
		out = append(out, c)
	}
	return out, int64(len(f.rows)), nil
}

func (f *fakeRepo) Save(_ context.Context, c *Car) (*Car, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	c.normalize()
	if c.ID == 0 {
		for _, existing := range f.rows {
			if existing.VIN == c.VIN {
				return nil, ErrDuplicateVIN
			}
		}
		f.seq++
		c.ID = f.seq
		c.Version = 0
	} else {
		stored, ok := f.rows[c.ID]
		if !ok {
			return nil, ErrNotFound
		}
		if stored.Version != c.Version {
			return nil, ErrStaleVersion
		}
		c.Version++
	}
	f.rows[c.ID] = *c
	saved := *c
	return &saved, nil
}

func (f *fakeRepo) ExistsByID(_ context.Context, id uint64) (bool, error) {
	_, ok := f.rows[id]
	return ok, nil
}

func (f *fakeRepo) DeleteByID(_ context.Context, id uint64) error {
	delete(f.rows, id)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, chan events.Envelope, func()) {
	t.Helper()
	repo := newFakeRepo()
	bus := events.NewBus(logger.NewNop())
	received := make(chan events.Envelope, 16)
	bus.Subscribe(func(_ context.Context, env events.Envelope) {
		received <- env
	})
	return NewService(repo, bus), repo, received, bus.Close
}

func waitForEvent(t *testing.T, ch chan events.Envelope) events.Envelope {
	t.Helper()
	select {
	case env := <-ch:
		return env
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for event")
		return events.Envelope{}
	}
}

func ptrStr(s string) *string { return &s }
func ptrInt(i int) *int       { return &i }
func ptrI64(i int64) *int64   { return &i }

func createReq() Request {
	return Request{
		Make:            ptrStr("Honda"),
		Model:           ptrStr("Civic"),
		ManufactureYear: ptrInt(2019),
		VIN:             ptrStr(testVIN),
		OdometerKm:      ptrI64(42000),
	}
}

func TestServiceCreateNormalizesLowercaseVIN(t *testing.T) {
	svc, _, received, closeBus := newTestService(t)
	defer closeBus()

	req := createReq()
	req.VIN = ptrStr("  1hgbh41jxmn109186 ")

	created, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.VIN != testVIN {
		t.Fatalf("VIN not canonical: %q", created.VIN)
	}
	if created.Version != 0 {
		t.Fatalf("expected version 0, got %d", created.Version)
	}

	env := waitForEvent(t, received)
	ev, ok := env.Event.(CarCreated)
	if !ok {
		t.Fatalf("unexpected event type %T", env.Event)
	}
	if ev.ID != created.ID || ev.VIN != testVIN {
		t.Fatalf("event payload mismatch: %+v", ev)
	}
}

func TestServiceCreateRejectsIDAndVersion(t *testing.T) {
	svc, _, _, closeBus := newTestService(t)
	defer closeBus()

	id := uint64(7)
	req := createReq()
	req.ID = &id
	req.Version = ptrInt(0)

	_, err := svc.Create(context.Background(), req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !hasViolation(verr.Violations, "id") || !hasViolation(verr.Violations, "version") {
		t.Fatalf("expected id and version violations, got %v", verr.Violations)
	}
}

func TestServiceCreateNoEventOnFailure(t *testing.T) {
	svc, _, received, closeBus := newTestService(t)

	if _, err := svc.Create(context.Background(), createReq()); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	waitForEvent(t, received)

	_, err := svc.Create(context.Background(), createReq())
	if !errors.Is(err, ErrDuplicateVIN) {
		t.Fatalf("expected ErrDuplicateVIN, got %v", err)
	}

	// Close flushes the queue; anything enqueued by the failed create would
	// be visible afterwards.
	closeBus()
	select {
	case env := <-received:
		t.Fatalf("unexpected event after failed create: %+v", env)
	default:
	}
}

func TestServiceReplaceHappyPath(t *testing.T) {
	svc, _, received, closeBus := newTestService(t)
	defer closeBus()

	created, err := svc.Create(context.Background(), createReq())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	waitForEvent(t, received)

	updated, err := svc.Replace(context.Background(), created.ID, Request{
		Make:            ptrStr("Honda"),
		Model:           ptrStr("Accord"),
		ManufactureYear: ptrInt(2021),
		Version:         ptrInt(created.Version),
	})
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if updated.Model != "Accord" || updated.Version != created.Version+1 {
		t.Fatalf("unexpected result: %+v", updated)
	}
	if updated.VIN != testVIN {
		t.Fatalf("replace must keep stored VIN, got %q", updated.VIN)
	}
	if updated.OdometerKm != nil {
		t.Fatalf("replace must overwrite odometer with the request value, got %v", *updated.OdometerKm)
	}
}

func TestServiceReplaceRejectsVIN(t *testing.T) {
	svc, _, received, closeBus := newTestService(t)
	defer closeBus()

	created, _ := svc.Create(context.Background(), createReq())
	waitForEvent(t, received)

	_, err := svc.Replace(context.Background(), created.ID, Request{
		Make:            ptrStr("Honda"),
		Model:           ptrStr("Accord"),
		ManufactureYear: ptrInt(2021),
		VIN:             ptrStr("5YJSA1DG9DFP14705"),
		Version:         ptrInt(created.Version),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || !hasViolation(verr.Violations, "vin") {
		t.Fatalf("expected vin violation, got %v", err)
	}
}

func TestServiceReplaceMissingVersionIsValidation(t *testing.T) {
	svc, _, received, closeBus := newTestService(t)
	defer closeBus()

	created, _ := svc.Create(context.Background(), createReq())
	waitForEvent(t, received)

	_, err := svc.Replace(context.Background(), created.ID, Request{
		Make:            ptrStr("Honda"),
		Model:           ptrStr("Accord"),
		ManufactureYear: ptrInt(2021),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || !hasViolation(verr.Violations, "version") {
		t.Fatalf("expected version violation, got %v", err)
	}
}

func TestServiceReplaceStaleVersionConflicts(t *testing.T) {
	svc, _, received, closeBus := newTestService(t)
	defer closeBus()

	created, _ := svc.Create(context.Background(), createReq())
	waitForEvent(t, received)

	_, err := svc.Replace(context.Background(), created.ID, Request{
		Make:            ptrStr("Honda"),
		Model:           ptrStr("Accord"),
		ManufactureYear: ptrInt(2021),
		Version:         ptrInt(created.Version + 5),
	})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestServicePatchUpdatesYearAndOdometerOnly(t *testing.T) {
	svc, _, received, closeBus := newTestService(t)
	defer closeBus()

	created, _ := svc.Create(context.Background(), createReq())
	waitForEvent(t, received)

	patched, err := svc.Patch(context.Background(), created.ID, Request{
		ManufactureYear: ptrInt(2020),
		OdometerKm:      ptrI64(50000),
		Version:         ptrInt(created.Version),
	})
	if err != nil {
		t.Fatalf("patch failed: %v", err)
	}
	if patched.ManufactureYear != 2020 || *patched.OdometerKm != 50000 {
		t.Fatalf("unexpected result: %+v", patched)
	}
	if patched.Make != "Honda" || patched.Model != "Civic" || patched.VIN != testVIN {
		t.Fatalf("patch must leave identity fields untouched: %+v", patched)
	}
}

func TestServicePatchRejectsImmutableFields(t *testing.T) {
	svc, _, received, closeBus := newTestService(t)
	defer closeBus()

	created, _ := svc.Create(context.Background(), createReq())
	waitForEvent(t, received)

	_, err := svc.Patch(context.Background(), created.ID, Request{
		Make:    ptrStr("Toyota"),
		Version: ptrInt(created.Version),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || !hasViolation(verr.Violations, "make") {
		t.Fatalf("expected make violation, got %v", err)
	}
}

func TestServicePatchMissingVersionConflicts(t *testing.T) {
	svc, _, received, closeBus := newTestService(t)
	defer closeBus()

	created, _ := svc.Create(context.Background(), createReq())
	waitForEvent(t, received)

	_, err := svc.Patch(context.Background(), created.ID, Request{
		ManufactureYear: ptrInt(2020),
	})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestServiceGetByVINNormalizes(t *testing.T) {
	svc, _, received, closeBus := newTestService(t)
	defer closeBus()

	created, _ := svc.Create(context.Background(), createReq())
	waitForEvent(t, received)

	found, err := svc.GetByVIN(context.Background(), "  1hgbh41jxmn109186 ")
	if err != nil {
		t.Fatalf("get by vin failed: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("found wrong row: %d", found.ID)
	}
}

func TestServiceListBothFiltersIgnoresPageWindow(t *testing.T) {
	svc, _, received, closeBus := newTestService(t)
	defer closeBus()

	for i := 0; i < 3; i++ {
		req := createReq()
		vin := testVIN[:16] + string(rune('0'+i))
		req.VIN = &vin
		if _, err := svc.Create(context.Background(), req); err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
		waitForEvent(t, received)
	}

	mk, md := "Honda", "Civic"
	result, err := svc.List(context.Background(), Page{Number: 0, Size: 1}, &mk, &md)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	// The filter path returns every match regardless of the window.
	if len(result.Content) != 3 {
		t.Fatalf("expected 3 items, got %d", len(result.Content))
	}
	if result.Size != 1 || result.TotalElements != 3 {
		t.Fatalf("unexpected metadata: %+v", result)
	}
}

func TestServiceDeleteMissing(t *testing.T) {
	svc, _, _, closeBus := newTestService(t)
	defer closeBus()

	if err := svc.Delete(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
