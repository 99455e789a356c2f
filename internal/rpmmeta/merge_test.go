package rpmmeta

import "testing"

func TestMergeFilelistsThenPrimaryKeepsFileList(t *testing.T) {
	repo := NewRepository()
	pkgid := "deadbeef"

	mergeFilelistsPackage(repo, pkgid, "bash", "x86_64", NewEVR("0", "5.1", "2"), []PackageFile{
		{Type: FileTypeFile, Path: "/usr/bin/bash"},
	})

	primaryPkg := NewPackage("bash", NewEVR("0", "5.1", "2"), "x86_64", Checksum{Type: ChecksumSHA256, Digest: pkgid}, "Packages/bash.rpm")
	mergePrimaryPackage(repo, primaryPkg)

	got, ok := repo.Packages.Get(pkgid)
	if !ok {
		t.Fatal("package not found")
	}
	if len(got.Files) != 1 || got.Files[0].Path != "/usr/bin/bash" {
		t.Errorf("expected filelists' file list to survive the primary merge, got %+v", got.Files)
	}
	if got.LocationHref != "Packages/bash.rpm" {
		t.Errorf("expected primary's location to win, got %q", got.LocationHref)
	}
}

func TestMergePrimaryThenFilelistsAttachesFiles(t *testing.T) {
	repo := NewRepository()
	pkgid := "cafebabe"

	primaryPkg := NewPackage("vim", NewEVR("0", "9.0", "1"), "x86_64", Checksum{Type: ChecksumSHA256, Digest: pkgid}, "Packages/vim.rpm")
	mergePrimaryPackage(repo, primaryPkg)

	mergeFilelistsPackage(repo, pkgid, "vim", "x86_64", NewEVR("0", "9.0", "1"), []PackageFile{
		{Type: FileTypeFile, Path: "/usr/bin/vim"},
	})

	got, _ := repo.Packages.Get(pkgid)
	if len(got.Files) != 1 {
		t.Errorf("expected filelists merge to attach files to the existing primary record, got %+v", got.Files)
	}
	if got.Name != "vim" {
		t.Errorf("expected identity to remain vim, got %q", got.Name)
	}
}

func TestMergeOtherPackageCreatesStubWhenArrivesFirst(t *testing.T) {
	repo := NewRepository()
	pkgid := "feedface"

	mergeOtherPackage(repo, pkgid, "zsh", "x86_64", []Changelog{
		{Author: "Dev", Date: 1000, Description: "first build"},
	})

	got, ok := repo.Packages.Get(pkgid)
	if !ok {
		t.Fatal("expected other.xml to create a stub package")
	}
	if got.Name != "zsh" || got.Arch != "x86_64" {
		t.Errorf("stub identity wrong: %+v", got)
	}
	if len(got.Changelogs) != 1 {
		t.Errorf("expected changelog attached to stub, got %+v", got.Changelogs)
	}
}

func TestMergeDoesNotOverwriteAlreadyKnownNameOrArch(t *testing.T) {
	repo := NewRepository()
	pkgid := "0123456789"

	mergeFilelistsPackage(repo, pkgid, "", "", EVR{}, nil)
	mergeOtherPackage(repo, pkgid, "realname", "realarch", nil)

	got, _ := repo.Packages.Get(pkgid)
	if got.Name != "realname" || got.Arch != "realarch" {
		t.Errorf("expected later arrival to fill empty sentinel fields, got %+v", got)
	}

	mergeOtherPackage(repo, pkgid, "othername", "otherarch", nil)
	got, _ = repo.Packages.Get(pkgid)
	if got.Name != "realname" || got.Arch != "realarch" {
		t.Errorf("expected already-known name/arch not to be overwritten, got %+v", got)
	}
}
