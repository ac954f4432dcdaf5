package manifest

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	apperr "github.com/matzehuels/importaudit/pkg/errors"
)

type entry struct {
	name string
	ok   bool
}

func (e entry) ManifestName() (string, bool) { return e.name, e.ok }

func entries(names ...string) []entry {
	out := make([]entry, len(names))
	for i, n := range names {
		out[i] = entry{name: n, ok: true}
	}
	return out
}

func TestSelect(t *testing.T) {
	in := []entry{
		{"requests", true},
		{"Pillow", true},
		{"numpy", true},
		{"requests", true},
		{"os", false},
		{"", true},
		{"missing-pkg", false},
	}
	got := Select(in)
	want := []string{"Pillow", "numpy", "requests"}
	if !slices.Equal(got, want) {
		t.Errorf("Select() = %v, want %v", got, want)
	}
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requirements.txt")

	res, err := Write(path, entries("requests", "numpy", "Pillow"))
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if res.NoOp {
		t.Error("Write() should not be a no-op")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Pillow\nnumpy\nrequests" {
		t.Errorf("file content = %q", data)
	}
	if !slices.Equal(res.Added, []string{"Pillow", "numpy", "requests"}) {
		t.Errorf("Added = %v", res.Added)
	}
}

func TestWriteIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requirements.txt")
	in := entries("b", "a", "c")

	if _, err := Write(path, in); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(path)

	res, err := Write(path, in)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(path)

	if string(first) != string(second) {
		t.Errorf("second write changed the file: %q vs %q", first, second)
	}
	if res.Changed() {
		t.Errorf("second write reported changes: added=%v removed=%v", res.Added, res.Removed)
	}
}

func TestWriteEmptySelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requirements.txt")

	res, err := Write(path, []entry{{"os", false}, {"sys", false}})
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if !res.NoOp {
		t.Error("empty selection should be a no-op")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("empty selection must not create a file")
	}
}

func TestWriteReportsDiff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requirements.txt")
	if err := os.WriteFile(path, []byte("# pinned\nrequests==2.31.0\nflask>=2\nPyYAML\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Write(path, entries("requests", "pyyaml", "numpy"))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Added, []string{"numpy"}) {
		t.Errorf("Added = %v, want [numpy]", res.Added)
	}
	if !slices.Equal(res.Removed, []string{"flask"}) {
		t.Errorf("Removed = %v, want [flask]", res.Removed)
	}
}

func TestWriteCreatesParentAndRejectsBadPath(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "out", "reqs.txt")
	if _, err := Write(nested, entries("requests")); err != nil {
		t.Fatalf("Write(nested) error: %v", err)
	}

	if _, err := Write(dir+"/", entries("requests")); !apperr.Is(err, apperr.ErrCodeInvalidPath) {
		t.Errorf("Write(dir/) error = %v, want INVALID_PATH", err)
	}

	if _, err := Write(dir, entries("requests")); !apperr.Is(err, apperr.ErrCodeManifestWrite) {
		t.Errorf("Write(existing dir) error = %v, want MANIFEST_WRITE_FAILED", err)
	}
}

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requirements.txt")
	content := `# comment
-r base.txt
--index-url https://example.com/simple

requests>=2.0
Django==4.2  # web
numpy[extra]; python_version >= "3.8"
git+https://github.com/user/repo.git
https://example.com/pkg.tar.gz
zope.interface
requests
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	want := []string{"requests", "Django", "numpy", "zope.interface"}
	if !slices.Equal(got, want) {
		t.Errorf("Read() = %v, want %v", got, want)
	}

	if _, err := Read(filepath.Join(t.TempDir(), "missing.txt")); !os.IsNotExist(err) {
		t.Errorf("Read(missing) error = %v, want not-exist", err)
	}
}

func TestPath(t *testing.T) {
	root := t.TempDir()
	if got := Path(root, ""); got != filepath.Join(root, DefaultName) {
		t.Errorf("Path(root, \"\") = %q", got)
	}
	abs := filepath.Join(root, "custom.txt")
	if got := Path(root, abs); got != abs {
		t.Errorf("Path(root, abs) = %q", got)
	}
	if got := Path(root, "rel.txt"); !filepath.IsAbs(got) {
		t.Errorf("Path(root, rel) = %q, want absolute", got)
	}
}
