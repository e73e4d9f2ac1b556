package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "ledger.db",
		},
		Budgets: BudgetsConfig{File: "budgets.yaml"},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validConfig()
		cfg.HTTP.Port = port
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for port %d", port)
		}
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "postgres"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	expected := `database.driver must be "sqlite" or "redis", got "postgres"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_SqliteRequiresPath(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Path = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing sqlite path")
	}
}

func TestValidate_RedisRequiresAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "redis"
	cfg.Database.Path = ""
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
}

func TestValidate_BudgetsFileRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Budgets.File = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing budgets file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected driver=sqlite, got %q", cfg.Database.Driver)
	}
	if cfg.Database.Path != "budgetd.db" {
		t.Errorf("expected Path='budgetd.db', got %q", cfg.Database.Path)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Budgets.DebounceMs != 100 {
		t.Errorf("expected DebounceMs=100, got %d", cfg.Budgets.DebounceMs)
	}
	if cfg.Storage.KeyPrefix != "budgetd:" {
		t.Errorf("expected KeyPrefix='budgetd:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{Driver: "redis", ReadinessTimeout: 15},
		Budgets:  BudgetsConfig{DebounceMs: 250},
		Storage:  StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.Driver != "redis" {
		t.Errorf("expected driver=redis, got %q", cfg.Database.Driver)
	}
	if cfg.Database.Path != "" {
		t.Errorf("redis driver should not get a sqlite path, got %q", cfg.Database.Path)
	}
	if cfg.Budgets.DebounceMs != 250 {
		t.Errorf("expected DebounceMs=250, got %d", cfg.Budgets.DebounceMs)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("BUDGETD_TEST_VAR", "redis:6379")

	in := []byte("addrs: [${BUDGETD_TEST_VAR}]\npassword: ${BUDGETD_TEST_MISSING:-fallback}\n")
	out := string(expandEnvVars(in))

	want := "addrs: [redis:6379]\npassword: fallback\n"
	if out != want {
		t.Errorf("unexpected expansion:\ngot:  %q\nwant: %q", out, want)
	}
}

func TestExpandEnvVars_EmptyWithoutDefault(t *testing.T) {
	out := string(expandEnvVars([]byte("password: ${BUDGETD_TEST_UNSET}")))
	if out != "password: " {
		t.Errorf("unset variable should expand to empty, got %q", out)
	}
}
