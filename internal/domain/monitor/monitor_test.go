package monitor

import (
	"testing"
	"time"
)

func TestUsesCronPrefersScheduleOverInterval(t *testing.T) {
	m := Monitor{Interval: 60, Schedule: "*/5 * * * *"}
	if !m.UsesCron() {
		t.Fatal("expected UsesCron to report true when Schedule is set")
	}

	m.Schedule = ""
	if m.UsesCron() {
		t.Fatal("expected UsesCron to report false when Schedule is empty")
	}
}

func TestNormalizeTagsDedupesAndSorts(t *testing.T) {
	got := NormalizeTags([]string{"b", "a", "a", "", "c"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("NormalizeTags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NormalizeTags = %v, want %v", got, want)
		}
	}
}

func TestHasTag(t *testing.T) {
	m := Monitor{Tags: []string{"prod", "web"}}
	if !m.HasTag("prod") {
		t.Fatal("expected HasTag to find existing tag")
	}
	if m.HasTag("staging") {
		t.Fatal("expected HasTag to report false for missing tag")
	}
}

func TestPatchApplyOnlyTouchesNonNilFields(t *testing.T) {
	m := Monitor{Name: "old", URL: "https://old.example.com", Interval: 60, Enabled: true}
	newName := "new"
	patch := Patch{Name: &newName}

	before := m.UpdatedAt
	patch.Apply(&m, time.Now().UTC())

	if m.Name != "new" {
		t.Fatalf("expected name to be updated, got %q", m.Name)
	}
	if m.URL != "https://old.example.com" {
		t.Fatalf("expected URL to be untouched, got %q", m.URL)
	}
	if m.Interval != 60 {
		t.Fatalf("expected interval to be untouched, got %d", m.Interval)
	}
	if !m.UpdatedAt.After(before) {
		t.Fatal("expected UpdatedAt to advance")
	}
}

func TestPatchAffectsSchedule(t *testing.T) {
	name := "cosmetic"
	if (Patch{Name: &name}).AffectsSchedule() {
		t.Fatal("expected a name-only patch not to affect scheduling")
	}

	interval := 30
	if !(Patch{Interval: &interval}).AffectsSchedule() {
		t.Fatal("expected an interval patch to affect scheduling")
	}

	enabled := false
	if !(Patch{Enabled: &enabled}).AffectsSchedule() {
		t.Fatal("expected an enabled patch to affect scheduling")
	}
}
