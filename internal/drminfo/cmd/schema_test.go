package cmd

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSchemaJSON(t *testing.T) {
	for _, which := range []string{"config", "report"} {
		bts, err := schemaJSON(which)
		if err != nil {
			t.Fatalf("schemaJSON(%q) error = %v", which, err)
		}
		var doc map[string]any
		if err := json.Unmarshal(bts, &doc); err != nil {
			t.Fatalf("schema %q is not JSON: %v", which, err)
		}
		if _, ok := doc["$schema"]; !ok {
			t.Errorf("schema %q has no $schema key", which)
		}
	}

	bts, _ := schemaJSON("config")
	for _, want := range []string{"sysfsRoot", "noTui", "Enable debug logging"} {
		if !strings.Contains(string(bts), want) {
			t.Errorf("config schema missing %q", want)
		}
	}
	bts, _ = schemaJSON("report")
	for _, want := range []string{"raw_value", "fb_size", "possible_crtcs"} {
		if !strings.Contains(string(bts), want) {
			t.Errorf("report schema missing %q", want)
		}
	}

	if _, err := schemaJSON("other"); err == nil {
		t.Error("schemaJSON(other) succeeded")
	}
}
