package rpmmeta

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPackageIteratorStreamsAndMergesInLockstep(t *testing.T) {
	dir := t.TempDir()
	repo := NewRepository()
	pkgA := NewPackage("bash", NewEVR("0", "5.1", "2"), "x86_64", Checksum{Type: ChecksumSHA256, Digest: strings.Repeat("a", 64)}, "Packages/bash.rpm")
	pkgA.Files = []PackageFile{{Type: FileTypeFile, Path: "/usr/bin/bash"}}
	pkgA.Changelogs = []Changelog{{Author: "Dev", Date: 1, Description: "first"}}
	pkgB := NewPackage("zsh", NewEVR("0", "5.9", "1"), "x86_64", Checksum{Type: ChecksumSHA256, Digest: strings.Repeat("b", 64)}, "Packages/zsh.rpm")
	pkgB.Files = []PackageFile{{Type: FileTypeFile, Path: "/usr/bin/zsh"}}

	if err := repo.AddPackage(pkgA); err != nil {
		t.Fatalf("AddPackage: %v", err)
	}
	if err := repo.AddPackage(pkgB); err != nil {
		t.Fatalf("AddPackage: %v", err)
	}
	if err := WriteRepository(repo, dir, DefaultRepositoryOptions()); err != nil {
		t.Fatalf("WriteRepository: %v", err)
	}

	rr, err := NewRepositoryReader(dir)
	if err != nil {
		t.Fatalf("NewRepositoryReader: %v", err)
	}
	it, err := rr.IteratePackages(IteratorOptions{})
	if err != nil {
		t.Fatalf("IteratePackages: %v", err)
	}
	defer it.Close()

	if it.TotalPackages() != 2 {
		t.Fatalf("TotalPackages() = %d, want 2", it.TotalPackages())
	}
	if it.RemainingPackages() != 2 {
		t.Fatalf("RemainingPackages() = %d, want 2", it.RemainingPackages())
	}

	var seen []string
	for {
		pkg, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if pkg == nil {
			break
		}
		seen = append(seen, pkg.Name)
		if len(pkg.Files) == 0 {
			t.Errorf("expected %s to have files merged in from filelists.xml", pkg.Name)
		}
		if pkg.Name == "bash" && len(pkg.Changelogs) == 0 {
			t.Error("expected bash's changelog merged in from other.xml")
		}
	}
	if len(seen) != 2 || seen[0] != "bash" || seen[1] != "zsh" {
		t.Errorf("unexpected package order/set: %v", seen)
	}
	if it.RemainingPackages() != 0 {
		t.Errorf("expected RemainingPackages() == 0 after draining, got %d", it.RemainingPackages())
	}
}

// writeRawPrimary writes an uncompressed primary.xml with numDeclared
// packages declared in its header but only pkgs actually written, to
// exercise the iterator's strict vs. lenient count-mismatch handling
// without needing a full RepositoryWriter round trip.
func writeRawPrimary(t *testing.T, path string, numDeclared int, pkgs ...*Package) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	w := NewPrimaryXMLWriter(f)
	if err := w.WriteHeader(numDeclared); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	for _, p := range pkgs {
		if err := w.WritePackage(p); err != nil {
			t.Fatalf("WritePackage: %v", err)
		}
	}
	if err := w.bw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if _, err := f.WriteString("</metadata>"); err != nil {
		t.Fatalf("write close tag: %v", err)
	}
}

func TestPackageIteratorStrictModeRejectsCountMismatch(t *testing.T) {
	dir := t.TempDir()
	repodata := filepath.Join(dir, "repodata")
	if err := os.MkdirAll(repodata, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	pkg := NewPackage("bash", NewEVR("0", "5.1", "2"), "x86_64", Checksum{Type: ChecksumSHA256, Digest: strings.Repeat("a", 64)}, "Packages/bash.rpm")

	writeRawPrimary(t, filepath.Join(repodata, "primary.xml"), 2, pkg)

	flF, _ := os.Create(filepath.Join(repodata, "filelists.xml"))
	fw := NewFilelistsXMLWriter(flF)
	_ = fw.WriteHeader(1)
	_ = fw.WritePackage(pkg)
	_ = fw.Finish()
	flF.Close()

	data := &RepomdData{}
	primaryRec, _ := NewRepomdRecord("primary", "repodata/primary.xml", 1, Checksum{Type: ChecksumSHA256, Digest: strings.Repeat("0", 64)})
	data.AddRecord(primaryRec)
	filelistsRec, _ := NewRepomdRecord("filelists", "repodata/filelists.xml", 1, Checksum{Type: ChecksumSHA256, Digest: strings.Repeat("1", 64)})
	data.AddRecord(filelistsRec)

	repomdFile, _ := os.Create(filepath.Join(repodata, "repomd.xml"))
	if err := WriteRepomdXML(repomdFile, data); err != nil {
		t.Fatalf("WriteRepomdXML: %v", err)
	}
	repomdFile.Close()

	rr, err := NewRepositoryReader(dir)
	if err != nil {
		t.Fatalf("NewRepositoryReader: %v", err)
	}

	if _, err := rr.IteratePackages(IteratorOptions{Lenient: false}); err == nil {
		t.Fatal("expected strict iterator construction to fail on declared-count mismatch")
	}

	it, err := rr.IteratePackages(IteratorOptions{Lenient: true})
	if err != nil {
		t.Fatalf("lenient IteratePackages: %v", err)
	}
	defer it.Close()

	pkg1, err := it.Next()
	if err != nil {
		t.Fatalf("Next (1st): %v", err)
	}
	if pkg1 == nil || pkg1.Name != "bash" {
		t.Fatalf("expected bash on first Next, got %+v", pkg1)
	}

	pkg2, err := it.Next()
	if err != nil {
		t.Fatalf("Next (2nd): %v", err)
	}
	if pkg2 != nil {
		t.Errorf("expected nil once primary.xml (declared 2, written 1) is exhausted, got %+v", pkg2)
	}
}
