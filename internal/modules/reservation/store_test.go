// README: DB-backed reservation tests (run with -race against a scratch database).
package reservation

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MacTheAnon/joco-exec/internal/modules/pricing"
	"github.com/MacTheAnon/joco-exec/internal/types"
)

func TestConcurrentCreateSameSlot(t *testing.T) {
	ctx := context.Background()
	svc := NewService(setupTestStore(t))

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		r := testReservation(fmt.Sprintf("txn_slot_%d", i))
		wg.Add(1)
		go func(r *Reservation) {
			defer wg.Done()
			errs <- svc.Create(ctx, r)
		}(r)
	}

	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if err != ErrSlotTaken {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 successful create, got %d", success)
	}
}

func TestCreateWithoutStops(t *testing.T) {
	ctx := context.Background()
	svc := NewService(setupTestStore(t))

	// The common booking has no intermediate stops; the JSON field is
	// omitted and the slice arrives nil. That must still insert cleanly.
	r := testReservation("txn_no_stops")
	r.Stops = nil
	if err := svc.Create(ctx, r); err != nil {
		t.Fatalf("create without stops: %v", err)
	}

	got, err := svc.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Stops) != 0 {
		t.Fatalf("expected no stops, got %v", got.Stops)
	}

	withStops := testReservation("txn_with_stops")
	withStops.TripTime = "19:00"
	withStops.Stops = []string{"Union Station", "Crown Center"}
	if err := svc.Create(ctx, withStops); err != nil {
		t.Fatalf("create with stops: %v", err)
	}
	got, err = svc.Get(ctx, withStops.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Stops) != 2 || got.Stops[0] != "Union Station" {
		t.Fatalf("stops did not round-trip: %v", got.Stops)
	}
}

func TestCancelledSlotIsFree(t *testing.T) {
	ctx := context.Background()
	svc := NewService(setupTestStore(t))

	first := testReservation("txn_cancel_free_1")
	if err := svc.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	available, err := svc.IsAvailable(ctx, first.TripDate, first.TripTime)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if available {
		t.Fatal("expected slot to be taken while active")
	}

	if err := svc.Cancel(ctx, first.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	available, err = svc.IsAvailable(ctx, first.TripDate, first.TripTime)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if !available {
		t.Fatal("expected cancelled slot to be free")
	}

	second := testReservation("txn_cancel_free_2")
	if err := svc.Create(ctx, second); err != nil {
		t.Fatalf("rebook after cancel: %v", err)
	}
}

func TestListByDriverMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	svc := NewService(setupTestStore(t))

	driver := types.ID("d_list")
	var ids []types.ID
	for i := 0; i < 3; i++ {
		r := testReservation(fmt.Sprintf("txn_list_%d", i))
		r.TripTime = fmt.Sprintf("0%d:00", i+1)
		r.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		if err := svc.Create(ctx, r); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if _, err := svc.Assign(ctx, r.ID, driver); err != nil {
			t.Fatalf("assign %d: %v", i, err)
		}
		ids = append(ids, r.ID)
	}

	// An unrelated reservation must not show up in the driver's list.
	other := testReservation("txn_list_other")
	other.TripTime = "04:00"
	if err := svc.Create(ctx, other); err != nil {
		t.Fatalf("create other: %v", err)
	}

	got, err := svc.List(ctx, ListFilter{DriverID: driver})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 reservations for driver, got %d", len(got))
	}
	for i, r := range got {
		want := ids[len(ids)-1-i]
		if r.ID != want {
			t.Errorf("position %d: got %s, want %s (most-recent-first)", i, r.ID, want)
		}
	}
}

func TestAssignIdempotentAndReassign(t *testing.T) {
	ctx := context.Background()
	svc := NewService(setupTestStore(t))

	r := testReservation("txn_assign")
	if err := svc.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	changed, err := svc.Assign(ctx, r.ID, "d1")
	if err != nil || !changed {
		t.Fatalf("first assign: changed=%v err=%v", changed, err)
	}

	// Same driver again: no-op.
	changed, err = svc.Assign(ctx, r.ID, "d1")
	if err != nil {
		t.Fatalf("repeat assign: %v", err)
	}
	if changed {
		t.Fatal("reassigning the same driver must be a no-op")
	}

	// Different driver: allowed, stays assigned.
	changed, err = svc.Assign(ctx, r.ID, "d2")
	if err != nil || !changed {
		t.Fatalf("reassign: changed=%v err=%v", changed, err)
	}
	got, err := svc.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusAssigned || got.DriverID == nil || *got.DriverID != "d2" {
		t.Fatalf("unexpected state after reassign: %+v", got)
	}
}

func TestConcurrentClaim(t *testing.T) {
	ctx := context.Background()
	svc := NewService(setupTestStore(t))

	r := testReservation("txn_claim")
	if err := svc.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	const attempts = 6
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		driverID := types.ID(fmt.Sprintf("d_claim_%d", i))
		wg.Add(1)
		go func(did types.ID) {
			defer wg.Done()
			errs <- svc.Claim(ctx, r.ID, did)
		}(driverID)
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if err != ErrConflict && err != ErrInvalidState {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 successful claim, got %d", success)
	}
}

func TestCompletedNeverRegresses(t *testing.T) {
	ctx := context.Background()
	svc := NewService(setupTestStore(t))

	r := testReservation("txn_done")
	if err := svc.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Assign(ctx, r.ID, "d1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := svc.Complete(ctx, r.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := svc.Claim(ctx, r.ID, "d2"); err != ErrInvalidState {
		t.Fatalf("claim after complete: expected ErrInvalidState, got %v", err)
	}
	if _, err := svc.Assign(ctx, r.ID, "d2"); err != ErrInvalidState {
		t.Fatalf("assign after complete: expected ErrInvalidState, got %v", err)
	}
	if err := svc.Cancel(ctx, r.ID); err != ErrInvalidState {
		t.Fatalf("cancel after complete: expected ErrInvalidState, got %v", err)
	}
}

func TestDeleteIsHardRemove(t *testing.T) {
	ctx := context.Background()
	svc := NewService(setupTestStore(t))

	r := testReservation("txn_delete")
	if err := svc.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, r.ID); err != ErrNotFound {
		t.Fatalf("get after delete: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, r.ID); err != ErrNotFound {
		t.Fatalf("repeat delete: expected ErrNotFound, got %v", err)
	}
}

func testReservation(txn string) *Reservation {
	return &Reservation{
		ID:             types.ID(txn),
		TripDate:       "2026-06-01",
		TripTime:       "18:00",
		Pickup:         "KCI Terminal B",
		Dropoff:        "Overland Park",
		Passengers:     2,
		VehicleClass:   "Luxury Sedan",
		ServiceMode:    pricing.ModeDistance,
		DistanceMiles:  21.4,
		QuoteAmount:    8500,
		PricingMethod:  pricing.MethodBase,
		AmountCaptured: 8500,
		TransactionID:  txn,
		CreatedAt:      time.Now(),
	}
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("JOCO_TEST_DSN")
	if dsn == "" {
		t.Skip("JOCO_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	if _, err := db.Exec(ctx, "TRUNCATE TABLE reservations"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	return NewStore(db)
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	path := filepath.Join(root, "migrations", "0001_init.sql")
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cleaned := stripSQLComments(string(content))
	for _, stmt := range splitSQL(cleaned) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
