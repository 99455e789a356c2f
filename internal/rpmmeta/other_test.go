package rpmmeta

import (
	"bytes"
	"strings"
	"testing"
)

func TestOtherXMLRoundTripChangelogs(t *testing.T) {
	pkg := samplePackage()
	pkg.Changelogs = []Changelog{
		{Author: "Jane Dev <jane@example.com>", Date: 1609459200, Description: "Initial build"},
		{Author: "John Dev <john@example.com>", Date: 1612137600, Description: `Fixed <bug> & "quote" issue`},
	}

	var buf bytes.Buffer
	w := NewOtherXMLWriter(&buf)
	if err := w.WriteHeader(1); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if err := w.WritePackage(pkg); err != nil {
		t.Fatalf("WritePackage: %v", err)
	}
	if err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	// The partial-escaping wart (spec §4.3) means quotes pass through
	// unescaped in the raw changelog text, only &, <, > are entity-escaped.
	if !strings.Contains(buf.String(), `Fixed &lt;bug&gt; &amp; "quote" issue`) {
		t.Errorf("expected partially-escaped changelog text, got: %s", buf.String())
	}

	repo := NewRepository()
	if err := ReadOtherXML(&buf, repo); err != nil {
		t.Fatalf("ReadOtherXML: %v", err)
	}

	got, ok := repo.Packages.Get(pkg.Pkgid())
	if !ok {
		t.Fatalf("package not found after merge")
	}
	if len(got.Changelogs) != 2 {
		t.Fatalf("expected 2 changelogs, got %d", len(got.Changelogs))
	}
	if got.Changelogs[1].Description != `Fixed <bug> & "quote" issue` {
		t.Errorf("changelog text not round-tripped exactly: %q", got.Changelogs[1].Description)
	}
	if got.Changelogs[0].Author != "Jane Dev <jane@example.com>" {
		t.Errorf("author not round-tripped: %q", got.Changelogs[0].Author)
	}
}

func TestOtherXMLWriterFinishPanicsOnCountMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Finish to panic on count mismatch")
		}
	}()
	var buf bytes.Buffer
	w := NewOtherXMLWriter(&buf)
	_ = w.WriteHeader(3)
	_ = w.WritePackage(samplePackage())
	_ = w.Finish()
}

func TestParseOtherPackageRequiresAttributes(t *testing.T) {
	repo := NewRepository()
	xmlData := `<?xml version="1.0"?><otherdata xmlns="http://linux.duke.edu/metadata/other" packages="1">` +
		`<package pkgid="abc" name="bash"><version epoch="0" ver="5.1" rel="2"/></package></otherdata>`
	if err := ReadOtherXML(strings.NewReader(xmlData), repo); err == nil {
		t.Fatal("expected error for package missing arch attribute")
	}
}
