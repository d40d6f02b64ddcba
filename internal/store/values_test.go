package store

import (
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaVersion(t *testing.T) {
	db := testDB(t)

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("schema version = %d, want %d", v, len(migrations))
	}
}

func TestCreateAndGetValue(t *testing.T) {
	db := testDB(t)

	v := &DecayValue{
		ID:         "val-001",
		Mode:       "sim",
		ContentLen: 11,
	}
	if err := db.CreateValue(v); err != nil {
		t.Fatalf("CreateValue: %v", err)
	}
	if v.CreatedAt == 0 {
		t.Error("expected CreatedAt to be stamped")
	}

	got, err := db.GetValue("val-001")
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if got == nil {
		t.Fatal("expected value, got nil")
	}
	if got.Mode != "sim" || got.ContentLen != 11 {
		t.Errorf("got %+v, want mode=sim len=11", got)
	}
	if got.ClosedAt != nil {
		t.Error("new value should not be closed")
	}
	if got.DevicePath != "" {
		t.Errorf("device path = %q, want empty for sim mode", got.DevicePath)
	}
}

func TestGetValueUnknown(t *testing.T) {
	db := testDB(t)

	got, err := db.GetValue("nope")
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown id, got %+v", got)
	}
}

func TestInvalidModeRejected(t *testing.T) {
	db := testDB(t)

	err := db.CreateValue(&DecayValue{ID: "val-bad", Mode: "quantum", ContentLen: 3})
	if err == nil {
		t.Error("expected CHECK constraint failure for unknown mode")
	}
}

func TestMarkClosed(t *testing.T) {
	db := testDB(t)

	v := &DecayValue{ID: "val-002", Mode: "device", ContentLen: 5, DevicePath: "/dev/entropy_mem"}
	if err := db.CreateValue(v); err != nil {
		t.Fatalf("CreateValue: %v", err)
	}

	if err := db.MarkClosed("val-002"); err != nil {
		t.Fatalf("MarkClosed: %v", err)
	}
	got, err := db.GetValue("val-002")
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if got.ClosedAt == nil {
		t.Fatal("expected closed_at to be set")
	}

	first := *got.ClosedAt
	if err := db.MarkClosed("val-002"); err != nil {
		t.Fatalf("second MarkClosed: %v", err)
	}
	got, _ = db.GetValue("val-002")
	if *got.ClosedAt != first {
		t.Error("second MarkClosed changed the close timestamp")
	}
}

func TestRecordAndListReads(t *testing.T) {
	db := testDB(t)

	v := &DecayValue{ID: "val-003", Mode: "sim", ContentLen: 11}
	if err := db.CreateValue(v); err != nil {
		t.Fatalf("CreateValue: %v", err)
	}

	for sec, corrupted := range map[int]int{0: 0, 2: 2, 5: 4} {
		if err := db.RecordRead("val-003", sec, corrupted); err != nil {
			t.Fatalf("RecordRead: %v", err)
		}
	}

	reads, err := db.ReadsForValue("val-003")
	if err != nil {
		t.Fatalf("ReadsForValue: %v", err)
	}
	if len(reads) != 3 {
		t.Fatalf("len(reads) = %d, want 3", len(reads))
	}
	for _, r := range reads {
		if r.ValueID != "val-003" {
			t.Errorf("read %d has value_id %q", r.ID, r.ValueID)
		}
	}
}

func TestRecordReadUnknownValue(t *testing.T) {
	db := testDB(t)

	// foreign_keys pragma is on; a read for an unknown value must fail.
	if err := db.RecordRead("ghost", 1, 1); err == nil {
		t.Error("expected foreign key failure for unknown value")
	}
}

func TestListValuesAndCountOpen(t *testing.T) {
	db := testDB(t)

	for _, id := range []string{"a", "b", "c"} {
		if err := db.CreateValue(&DecayValue{ID: id, Mode: "sim", ContentLen: 1}); err != nil {
			t.Fatalf("CreateValue %s: %v", id, err)
		}
	}
	if err := db.MarkClosed("b"); err != nil {
		t.Fatalf("MarkClosed: %v", err)
	}

	values, err := db.ListValues()
	if err != nil {
		t.Fatalf("ListValues: %v", err)
	}
	if len(values) != 3 {
		t.Errorf("len(values) = %d, want 3", len(values))
	}

	open, err := db.CountOpen()
	if err != nil {
		t.Fatalf("CountOpen: %v", err)
	}
	if open != 2 {
		t.Errorf("CountOpen() = %d, want 2", open)
	}
}
