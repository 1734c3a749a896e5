package targets

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_SkipsBlanksAndComments(t *testing.T) {
	in := "https://a.test\n\n   \n# comment\n  https://b.test  \r\n\thttps://a.test\n  # indented comment\nhttps://c.test"
	got, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"https://a.test", "https://b.test", "https://a.test", "https://c.test"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("targets mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Empty(t *testing.T) {
	got, err := Parse(strings.NewReader("\n# only comments\n\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want no targets, got %v", got)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte("https://example.com\nhttps://example.org\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[1] != "https://example.org" {
		t.Fatalf("unexpected targets: %v", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatalf("want error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("want a not-exist error, got %v", err)
	}
}

func TestCheckURL(t *testing.T) {
	cases := []struct {
		in   string
		want error
	}{
		{"https://example.com", nil},
		{"http://EXAMPLE.com:8080/x", nil},
		{"ftp://example.com", ErrScheme},
		{"example.com", ErrScheme},
		{"https://", ErrNoHost},
		{"http://[::1", ErrUnparsable},
	}
	for _, c := range cases {
		err := CheckURL(c.in)
		if c.want == nil && err != nil {
			t.Fatalf("CheckURL(%q) = %v, want nil", c.in, err)
		}
		if c.want != nil && !errors.Is(err, c.want) {
			t.Fatalf("CheckURL(%q) = %v, want %v", c.in, err, c.want)
		}
	}
}

func TestDuplicates(t *testing.T) {
	got := Duplicates([]string{"a", "b", "a", "c", "a", "b"})
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Fatalf("duplicates mismatch (-want +got):\n%s", diff)
	}
	if got := Duplicates([]string{"a", "b"}); len(got) != 0 {
		t.Fatalf("want none, got %v", got)
	}
}
