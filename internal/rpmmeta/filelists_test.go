package rpmmeta

import (
	"bytes"
	"strings"
	"testing"
)

func TestFilelistsXMLRoundTripKeepsFullFileList(t *testing.T) {
	pkg := samplePackage()

	var buf bytes.Buffer
	w := NewFilelistsXMLWriter(&buf)
	if err := w.WriteHeader(1); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if err := w.WritePackage(pkg); err != nil {
		t.Fatalf("WritePackage: %v", err)
	}
	if err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	repo := NewRepository()
	if err := ReadFilelistsXML(&buf, repo); err != nil {
		t.Fatalf("ReadFilelistsXML: %v", err)
	}

	got, ok := repo.Packages.Get(pkg.Pkgid())
	if !ok {
		t.Fatalf("package %s not found after merge", pkg.Pkgid())
	}
	if len(got.Files) != len(pkg.Files) {
		t.Fatalf("expected unpruned file list of %d entries, got %d: %+v", len(pkg.Files), len(got.Files), got.Files)
	}
	if got.Name != pkg.Name || got.Arch != pkg.Arch {
		t.Errorf("name/arch not merged in: %+v", got)
	}
}

func TestFilelistsXMLWriterFinishPanicsOnCountMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Finish to panic on count mismatch")
		}
	}()
	var buf bytes.Buffer
	w := NewFilelistsXMLWriter(&buf)
	_ = w.WriteHeader(5)
	_ = w.WritePackage(samplePackage())
	_ = w.Finish()
}

func TestFilelistsFileTypeAttributeOmittedForPlainFiles(t *testing.T) {
	pkg := samplePackage()
	pkg.Files = []PackageFile{{Type: FileTypeFile, Path: "/usr/bin/bash"}}

	var buf bytes.Buffer
	w := NewFilelistsXMLWriter(&buf)
	_ = w.WriteHeader(1)
	_ = w.WritePackage(pkg)
	_ = w.Finish()

	if strings.Contains(buf.String(), `type="dir"`) || strings.Contains(buf.String(), `type="ghost"`) {
		t.Error("plain files should not carry a type attribute")
	}
	if !strings.Contains(buf.String(), "/usr/bin/bash") {
		t.Error("expected file path to be written")
	}
}

func TestParseFilelistsPackageRequiresPkgidNameArch(t *testing.T) {
	repo := NewRepository()
	xmlData := `<?xml version="1.0"?><filelists xmlns="http://linux.duke.edu/metadata/filelists" packages="1">` +
		`<package name="bash" arch="x86_64"><version epoch="0" ver="5.1" rel="2"/></package></filelists>`
	if err := ReadFilelistsXML(strings.NewReader(xmlData), repo); err == nil {
		t.Fatal("expected error for package missing pkgid attribute")
	}
}
