package rpmmeta

// This file centralizes the three-way primary/filelists/other merge point
// (spec §3, §4.4). primary.xml, filelists.xml, and other.xml can arrive in
// any order, so each merge function tolerates either: a fresh Package
// struct being inserted, or an existing stub (created by whichever source
// ran first) being filled in. The one quirk this carries over from the
// original implementation (documented as Open Question #1 in the
// project's design notes): a name that filelists.xml or other.xml reports
// after a stub already exists is written in only when the stub's Name is
// still "" — the empty string doubles as the "not yet known" sentinel, same
// as the reference. A primary.xml record replaces the stub's identity
// outright.

// mergePrimaryPackage merges a fully-parsed primary.xml package record
// into repo, keyed by pkgid.
func mergePrimaryPackage(repo *Repository, incoming *Package) {
	pkgid := incoming.Pkgid()
	existing, found := repo.Packages.Get(pkgid)
	if !found {
		repo.Packages.Set(pkgid, incoming)
		return
	}

	keepFiles := existing.Files
	keepFilesComplete := existing.filesComplete
	keepChangelogs := existing.Changelogs

	*existing = *incoming

	if keepFilesComplete {
		existing.Files = keepFiles
		existing.filesComplete = true
	}
	if len(keepChangelogs) > 0 {
		existing.Changelogs = keepChangelogs
	}
}

// mergeFilelistsPackage merges one filelists.xml package record (name,
// arch, pkgid, evr, and its complete file list) into repo.
func mergeFilelistsPackage(repo *Repository, pkgid, name, arch string, evr EVR, files []PackageFile) {
	existing, found := repo.Packages.Get(pkgid)
	if !found {
		stub := NewPackage(name, evr, arch, Checksum{Type: ChecksumUnknown, Digest: pkgid}, "")
		repo.Packages.Set(pkgid, stub)
		existing = stub
	} else {
		if existing.Name == "" {
			existing.Name = name
		}
		if existing.Arch == "" {
			existing.Arch = arch
		}
		if existing.EVR == (EVR{}) {
			existing.EVR = evr
		}
	}
	existing.Files = files
	existing.filesComplete = true
}

// mergeOtherPackage merges one other.xml package record (name, arch,
// pkgid, and its changelog list) into repo.
func mergeOtherPackage(repo *Repository, pkgid, name, arch string, changelogs []Changelog) {
	existing, found := repo.Packages.Get(pkgid)
	if !found {
		stub := NewPackage(name, EVR{}, arch, Checksum{Type: ChecksumUnknown, Digest: pkgid}, "")
		repo.Packages.Set(pkgid, stub)
		existing = stub
	} else {
		if existing.Name == "" {
			existing.Name = name
		}
		if existing.Arch == "" {
			existing.Arch = arch
		}
	}
	existing.Changelogs = changelogs
}
