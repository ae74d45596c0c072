package db

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestReadMigrationsSortsByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.sql":  {Data: []byte("SELECT 10;")},
		"002_second.sql": {Data: []byte("SELECT 2;")},
		"001_init.sql":   {Data: []byte("SELECT 1;")},
		"README.md":      {Data: []byte("ignored")},
	}
	got, err := ReadMigrations(fsys)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d migrations, want 3", len(got))
	}
	for i, want := range []struct {
		v    int
		name string
	}{{1, "init"}, {2, "second"}, {10, "later"}} {
		if got[i].Version != want.v || got[i].Name != want.name {
			t.Errorf("migration %d = %d/%s, want %d/%s", i, got[i].Version, got[i].Name, want.v, want.name)
		}
	}
}

func TestReadMigrationsRejectsBadNames(t *testing.T) {
	tests := map[string]fstest.MapFS{
		"no underscore": {"001.sql": {Data: []byte("")}},
		"not a number":  {"abc_init.sql": {Data: []byte("")}},
		"zero version":  {"000_init.sql": {Data: []byte("")}},
		"duplicate": {
			"001_a.sql": {Data: []byte("")},
			"01_b.sql":  {Data: []byte("")},
		},
	}
	for name, fsys := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadMigrations(fsys); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestPending(t *testing.T) {
	all := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}

	got, err := Pending(all, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Version != 2 {
		t.Errorf("Pending(1) = %v", got)
	}
	if got, _ := Pending(all, 3); len(got) != 0 {
		t.Errorf("Pending(3) = %v, want none", got)
	}
	if _, err := Pending(all, 4); err == nil {
		t.Error("a newer database should be rejected")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	all, err := ReadMigrations(Migrations())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) == 0 || all[0].Version != 1 {
		t.Fatalf("embedded migrations = %v", all)
	}
	if !strings.Contains(all[0].SQL, "CREATE TABLE meal_foods") {
		t.Error("initial migration is missing the meal_foods table")
	}
}
