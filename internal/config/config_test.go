package config

import "testing"

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DB_DRIVER", "ENABLE_DEV_LOGIN", "CORS_ORIGINS_OFFLINE", "SITE_ID"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	if cfg.Mode != ModeOffline {
		t.Fatalf("mode = %q, want offline", cfg.Mode)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("addr = %q", cfg.HTTPAddr)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("driver = %q", cfg.DBDriver)
	}
	if !cfg.EnableDevLogin {
		t.Fatalf("dev login should default on in offline mode")
	}
	if cfg.SiteID != "local" {
		t.Fatalf("site = %q", cfg.SiteID)
	}
	if got := cfg.CORSOrigins(); len(got) != 2 || got[0] != "http://localhost:3000" {
		t.Fatalf("offline origins = %v", got)
	}
}

func TestFromEnv_OnlineOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("ENABLE_DEV_LOGIN", "")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")

	cfg := FromEnv()
	if cfg.EnableDevLogin {
		t.Fatalf("dev login should default off in online mode")
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("driver = %q", cfg.DBDriver)
	}
	got := cfg.CORSOrigins()
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("online origins = %v", got)
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("X_FLAG", "no")
	if envBool("X_FLAG", true) {
		t.Fatal("expected false")
	}
	t.Setenv("X_FLAG", "garbage")
	if !envBool("X_FLAG", true) {
		t.Fatal("expected default")
	}
}
