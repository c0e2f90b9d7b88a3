package config

import (
	"reflect"
	"testing"
)

func TestLoadProjectRootDefault(t *testing.T) {
	// empty value means unset for getEnv, so the default applies
	t.Setenv("PROJECT_ROOT", "")

	cfg := Load()
	if cfg.ProjectRoot != "." {
		t.Errorf("ProjectRoot = %q, want .", cfg.ProjectRoot)
	}
}

func TestLoadProjectRootOverride(t *testing.T) {
	t.Setenv("PROJECT_ROOT", "/srv/askpair")

	cfg := Load()
	if cfg.ProjectRoot != "/srv/askpair" {
		t.Errorf("ProjectRoot = %q, want /srv/askpair", cfg.ProjectRoot)
	}
}

func TestLoadEngineAliases(t *testing.T) {
	t.Setenv("ENGINE_ALIASES", "gpt=openai, flash = gemini ,broken,also=")

	cfg := Load()
	want := map[string]string{"gpt": "openai", "flash": "gemini"}
	if !reflect.DeepEqual(cfg.EngineAliases, want) {
		t.Errorf("EngineAliases = %v, want %v", cfg.EngineAliases, want)
	}
}

func TestLoadServedPolicyFallsBackToRule(t *testing.T) {
	t.Setenv("SERVED_POLICY", "bandit")

	cfg := Load()
	if cfg.ServedPolicy != "rule" {
		t.Errorf("ServedPolicy = %q, want rule", cfg.ServedPolicy)
	}
}
