package config

import (
	"os"
	"testing"

	"gopkg.in/yaml.v3"
)

// TestExampleYAML_ParsesAndMatchesDefaults guards config.example.yaml against
// drifting out of sync with setDefaults: the file must parse as valid YAML,
// carry each top-level section it documents, and keep server.port at the
// 8080 default.
func TestExampleYAML_ParsesAndMatchesDefaults(t *testing.T) {
	raw, err := os.ReadFile("../../config/config.example.yaml")
	if err != nil {
		t.Fatalf("read config.example.yaml: %v", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal config.example.yaml: %v", err)
	}

	for _, section := range []string{"server", "database", "log", "river", "security", "eventbus", "notification"} {
		if _, ok := doc[section]; !ok {
			t.Errorf("config.example.yaml missing %q section", section)
		}
	}

	server, ok := doc["server"].(map[string]any)
	if !ok {
		t.Fatal("server section is not a map")
	}
	if port, _ := server["port"].(int); port != 8080 {
		t.Errorf("server.port = %v, want 8080", server["port"])
	}
}
