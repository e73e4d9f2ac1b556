package spend

import "testing"

func TestNewKey(t *testing.T) {
	key, err := NewKey("team-a", 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.ConfigName() != "team-a" {
		t.Errorf("expected team-a, got %q", key.ConfigName())
	}
	if key.ProjectID() != 42 {
		t.Errorf("expected 42, got %d", key.ProjectID())
	}
	if key.String() != "team-a/42" {
		t.Errorf("unexpected string form %q", key.String())
	}
}

func TestNewKey_EmptyConfigName(t *testing.T) {
	if _, err := NewKey("", 1); err == nil {
		t.Fatal("expected error for empty config name")
	}
}

func TestNewKey_ZeroProjectID(t *testing.T) {
	key, err := NewKey("team-a", 0)
	if err != nil {
		t.Fatalf("project id 0 is a valid identifier: %v", err)
	}
	if key.ProjectID() != 0 {
		t.Errorf("expected 0, got %d", key.ProjectID())
	}
}
