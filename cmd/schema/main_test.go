package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tidwall/gjson"
)

func TestWriteSchema(t *testing.T) {
	out := filepath.Join(t.TempDir(), "schema", "loot_table.schema.json")
	if err := writeSchema(out, buildSchema()); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be renamed away")
	}

	doc := gjson.ParseBytes(data)
	if doc.Get("title").String() != "Loot Tier Table" {
		t.Fatalf("unexpected title %q", doc.Get("title").String())
	}
	for _, key := range []string{"loot_min_count", "loot_max_count", "loot_entries", "allow_duplicate_drops", "on_open_command"} {
		if !doc.Get("properties." + key).Exists() {
			t.Fatalf("expected property %s in %s", key, data)
		}
	}
	required := map[string]bool{}
	for _, r := range doc.Get("required").Array() {
		required[r.String()] = true
	}
	if !required["loot_min_count"] || !required["loot_entries"] || required["on_open_command"] {
		t.Fatalf("unexpected required set %v", required)
	}
	if !doc.Get("properties.loot_entries.items.properties.item").Exists() {
		t.Fatalf("expected inline entry schema")
	}
}
