package rpmmeta

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRepositoryAddPackageRejectsDuplicatePkgid(t *testing.T) {
	repo := NewRepository()
	pkg1 := NewPackage("bash", NewEVR("0", "5.1", "2"), "x86_64", Checksum{Type: ChecksumSHA256, Digest: "abc"}, "Packages/bash.rpm")
	if err := repo.AddPackage(pkg1); err != nil {
		t.Fatalf("first AddPackage: %v", err)
	}

	pkg2 := NewPackage("bash-other", NewEVR("0", "5.1", "2"), "x86_64", Checksum{Type: ChecksumSHA256, Digest: "abc"}, "Packages/bash2.rpm")
	if err := repo.AddPackage(pkg2); err == nil {
		t.Fatal("expected duplicate-pkgid error")
	}
}

func TestRepositoryAddPackageRejectsDuplicateNevra(t *testing.T) {
	repo := NewRepository()
	pkg1 := NewPackage("bash", NewEVR("0", "5.1", "2"), "x86_64", Checksum{Type: ChecksumSHA256, Digest: "abc"}, "Packages/bash.rpm")
	if err := repo.AddPackage(pkg1); err != nil {
		t.Fatalf("first AddPackage: %v", err)
	}

	pkg2 := NewPackage("bash", NewEVR("0", "5.1", "2"), "x86_64", Checksum{Type: ChecksumSHA256, Digest: "def"}, "Packages/bash-dup.rpm")
	if err := repo.AddPackage(pkg2); err == nil {
		t.Fatal("expected duplicate-nevra error")
	}
}

func TestRepositorySortOrdersByLocationHref(t *testing.T) {
	repo := NewRepository()
	mustAdd := func(name, href, digest string) {
		pkg := NewPackage(name, NewEVR("0", "1.0", "1"), "x86_64", Checksum{Type: ChecksumSHA256, Digest: digest}, href)
		if err := repo.AddPackage(pkg); err != nil {
			t.Fatalf("AddPackage(%s): %v", name, err)
		}
	}
	mustAdd("zsh", "Packages/z/zsh.rpm", "3")
	mustAdd("bash", "Packages/b/bash.rpm", "1")
	mustAdd("mksh", "Packages/m/mksh.rpm", "2")

	repo.Sort()

	var hrefs []string
	repo.Packages.Each(func(_ string, p *Package) { hrefs = append(hrefs, p.LocationHref) })
	want := []string{"Packages/b/bash.rpm", "Packages/m/mksh.rpm", "Packages/z/zsh.rpm"}
	if len(hrefs) != len(want) {
		t.Fatalf("got %v, want %v", hrefs, want)
	}
	for i := range want {
		if hrefs[i] != want[i] {
			t.Errorf("position %d: got %q, want %q (full: %v)", i, hrefs[i], want[i], hrefs)
		}
	}
}

func TestDefaultRepositoryOptions(t *testing.T) {
	opts := DefaultRepositoryOptions()
	if opts.MetadataCompressionType != CompressionGzip {
		t.Errorf("expected gzip compression by default, got %v", opts.MetadataCompressionType)
	}
	if opts.MetadataChecksumType != ChecksumSHA256 || opts.PackageChecksumType != ChecksumSHA256 {
		t.Errorf("expected sha256 checksums by default, got metadata=%v package=%v", opts.MetadataChecksumType, opts.PackageChecksumType)
	}
	if opts.SimpleMetadataFilenames {
		t.Error("expected SimpleMetadataFilenames to default to false")
	}
}

func TestLoadRepositoryFromDirectoryEndToEnd(t *testing.T) {
	dir := t.TempDir()

	repo := NewRepository()
	pkg := samplePackage()
	if err := repo.AddPackage(pkg); err != nil {
		t.Fatalf("AddPackage: %v", err)
	}
	rec := &UpdateRecord{ID: "FEDORA-2026-xyz", UpdateType: "bugfix", Status: "final", Title: "test advisory"}
	repo.AddAdvisory(rec)

	if err := WriteRepository(repo, dir, DefaultRepositoryOptions()); err != nil {
		t.Fatalf("WriteRepository: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "repodata", "repomd.xml")); err != nil {
		t.Fatalf("expected repomd.xml to exist: %v", err)
	}

	loaded, err := LoadRepositoryFromDirectory(dir)
	if err != nil {
		t.Fatalf("LoadRepositoryFromDirectory: %v", err)
	}

	got, ok := loaded.Packages.Get(pkg.Pkgid())
	if !ok {
		t.Fatalf("package %s not found after reload", pkg.Pkgid())
	}
	if got.Name != pkg.Name || got.Arch != pkg.Arch {
		t.Errorf("loaded package identity mismatch: %+v", got)
	}
	if len(got.Files) == 0 {
		t.Error("expected filelists data merged in on reload")
	}

	gotAdv, ok := loaded.Advisories.Get("FEDORA-2026-xyz")
	if !ok {
		t.Fatal("expected advisory to survive write/reload round trip")
	}
	if gotAdv.Title != "test advisory" {
		t.Errorf("advisory title mismatch: %+v", gotAdv)
	}
}

func TestRepositoryReaderRepomdAndMetadataPath(t *testing.T) {
	dir := t.TempDir()
	repo := NewRepository()
	if err := repo.AddPackage(samplePackage()); err != nil {
		t.Fatalf("AddPackage: %v", err)
	}
	if err := WriteRepository(repo, dir, DefaultRepositoryOptions()); err != nil {
		t.Fatalf("WriteRepository: %v", err)
	}

	rr, err := NewRepositoryReader(dir)
	if err != nil {
		t.Fatalf("NewRepositoryReader: %v", err)
	}
	if rr.Repomd().GetRecord("primary") == nil {
		t.Fatal("expected a primary record in the parsed repomd.xml")
	}
}
