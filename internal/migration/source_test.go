package migration

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

func canonicals(set Set) []string {
	out := make([]string, len(set))
	for i, m := range set {
		out[i] = m.String()
	}
	return out
}

func TestSource_ListAllSortsByTimestamp(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"20230301000000-c.cql",
		"20230101000000-a.cql",
		"20230201000000-b.cql",
	)
	if err := os.Mkdir(filepath.Join(dir, "archive"), 0o755); err != nil {
		t.Fatal(err)
	}

	set, err := NewSource(dir).ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}

	want := []string{"20230101000000-a", "20230201000000-b", "20230301000000-c"}
	if got := canonicals(set); !reflect.DeepEqual(got, want) {
		t.Errorf("ListAll() = %v, want %v", got, want)
	}
	for _, m := range set {
		if m.Loaded() {
			t.Errorf("migration %s should not be loaded by ListAll", m)
		}
	}
}

func TestSource_ListAllEmptyDirectory(t *testing.T) {
	set, err := NewSource(t.TempDir()).ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(set) != 0 {
		t.Errorf("expected no migrations, got %v", canonicals(set))
	}
}

func TestSource_ListAllUnreadableDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	_, err := NewSource(missing).ListAll()
	if !errors.Is(err, ErrDirectoryUnreadable) {
		t.Fatalf("expected ErrDirectoryUnreadable, got %v", err)
	}
	var fsErr *FileSystemError
	if !errors.As(err, &fsErr) || fsErr.Path != missing {
		t.Errorf("expected FileSystemError for %s, got %#v", missing, err)
	}

	notDir := filepath.Join(t.TempDir(), "file")
	writeFiles(t, filepath.Dir(notDir), filepath.Base(notDir))
	if _, err := NewSource(notDir).ListAll(); !errors.Is(err, ErrDirectoryUnreadable) {
		t.Errorf("expected ErrDirectoryUnreadable for a regular file, got %v", err)
	}
}

func TestSource_ListAllRejectsForeignFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "20230101000000-a.cql", "README.md")

	_, err := NewSource(dir).ListAll()
	if !errors.Is(err, ErrInvalidIdentityFormat) {
		t.Fatalf("expected ErrInvalidIdentityFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "README.md") {
		t.Errorf("error should name the offending file: %v", err)
	}
}

func TestSet_SortIsStable(t *testing.T) {
	set := Set{
		New(Identity{Timestamp: "20230102000000", Slug: "x"}),
		New(Identity{Timestamp: "20230101000000", Slug: "b"}),
		New(Identity{Timestamp: "20230101000000", Slug: "a"}),
	}
	set.Sort()

	want := []string{"20230101000000-b", "20230101000000-a", "20230102000000-x"}
	if got := canonicals(set); !reflect.DeepEqual(got, want) {
		t.Errorf("Sort() = %v, want %v", got, want)
	}
	if ids := set.Identities(); len(ids) != 3 || ids[2].Slug != "x" {
		t.Errorf("unexpected identities %v", ids)
	}
}

func TestSource_ResolveOne(t *testing.T) {
	source := NewSource(filepath.Join(t.TempDir(), "absent"))

	m, err := source.ResolveOne("20230101000000-init")
	if err != nil {
		t.Fatalf("ResolveOne failed: %v", err)
	}
	if m.Identity != (Identity{Timestamp: "20230101000000", Slug: "init"}) {
		t.Errorf("unexpected identity %+v", m.Identity)
	}
	if m.Loaded() {
		t.Error("ResolveOne should not load content")
	}

	if _, err := source.ResolveOne("init"); !errors.Is(err, ErrInvalidIdentityFormat) {
		t.Errorf("expected ErrInvalidIdentityFormat, got %v", err)
	}
}

func TestSource_CreateTemplate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", DefaultDir)
	now := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	source := NewSource(dir, WithClock(func() time.Time { return now }))

	m, err := source.CreateTemplate("create users")
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	if m.String() != "20230101000000-create-users" {
		t.Errorf("unexpected identifier %s", m)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "20230101000000-create-users.cql"))
	if err != nil {
		t.Fatalf("template not written: %v", err)
	}
	want := "-- create users\n\n-- Write your migration here"
	if string(raw) != want {
		t.Errorf("template body = %q, want %q", raw, want)
	}
	if content, ok := m.Content(); !ok || content != want {
		t.Errorf("returned migration content = %q, %v", content, ok)
	}

	set, err := source.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if got := canonicals(set); !reflect.DeepEqual(got, []string{m.String()}) {
		t.Errorf("created migration not discovered: %v", got)
	}
}

func TestSource_CreateTemplateKeepsTitleOnOneLine(t *testing.T) {
	now := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	source := NewSource(t.TempDir(), WithClock(func() time.Time { return now }))

	m, err := source.CreateTemplate("multi\nline  title")
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	content, _ := m.Content()
	if !strings.HasPrefix(content, "-- multi line title\n") {
		t.Errorf("unexpected template %q", content)
	}
	if m.Identity.Slug != "multi-line--title" {
		t.Errorf("unexpected slug %q", m.Identity.Slug)
	}
}

func TestSource_CreateTemplateNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	source := NewSource(dir, WithClock(func() time.Time { return now }))

	first, err := source.CreateTemplate("init")
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	path := source.Path(first.Identity)
	if err := os.WriteFile(path, []byte("CREATE TABLE t (id int PRIMARY KEY);"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = source.CreateTemplate("init")
	if !errors.Is(err, ErrFilesystem) {
		t.Fatalf("expected ErrFilesystem, got %v", err)
	}
	if !errors.Is(err, fs.ErrExist) {
		t.Errorf("expected the cause to be fs.ErrExist, got %v", err)
	}

	raw, _ := os.ReadFile(path)
	if string(raw) != "CREATE TABLE t (id int PRIMARY KEY);" {
		t.Errorf("existing migration was overwritten: %q", raw)
	}
}

func TestSource_Load(t *testing.T) {
	dir := t.TempDir()
	body := "CREATE TABLE a (id int PRIMARY KEY);\nCREATE TABLE b (id int PRIMARY KEY);\n"
	if err := os.WriteFile(filepath.Join(dir, "20230101000000-init.cql"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	source := NewSource(dir)

	m, err := source.ResolveOne("20230101000000-init")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Load(context.Background(), source); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if content, ok := m.Content(); !ok || content != body {
		t.Errorf("Content() = %q, %v", content, ok)
	}

	missing, _ := source.ResolveOne("20230102000000-missing")
	err = missing.Load(context.Background(), source)
	if !errors.Is(err, ErrContentLoad) {
		t.Fatalf("expected ErrContentLoad, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist cause, got %v", err)
	}
	if missing.Loaded() {
		t.Error("failed load must leave content absent")
	}
}

func TestNewSource_DefaultDir(t *testing.T) {
	if got := NewSource("").Dir(); got != DefaultDir {
		t.Errorf("Dir() = %q, want %q", got, DefaultDir)
	}
}
