package rpmmeta

import (
	"os"
	"path/filepath"
)

// Repository is the in-memory union of a repomd.xml index plus every
// package and advisory merged in from primary/filelists/other/updateinfo
// (spec §3). Packages is keyed by pkgid; Advisories by advisory id.
type Repository struct {
	Repomd     *RepomdData
	Packages   *OrderedMap[string, *Package]
	Advisories *OrderedMap[string, *UpdateRecord]
}

// NewRepository returns an empty Repository ready to receive merged entries.
func NewRepository() *Repository {
	return &Repository{
		Repomd:     &RepomdData{},
		Packages:   NewOrderedMap[string, *Package](),
		Advisories: NewOrderedMap[string, *UpdateRecord](),
	}
}

// AddPackage inserts pkg directly, enforcing the two uniqueness invariants
// spec §3 names: no duplicate pkgid, no duplicate NEVRA (epoch-normalized).
// Unlike the merge functions in merge.go, which tolerate partial records
// arriving across three files, AddPackage is for callers (the RPM-header
// collaborator, tests) building a Repository directly from whole packages.
func (r *Repository) AddPackage(pkg *Package) error {
	if _, exists := r.Packages.Get(pkg.Pkgid()); exists {
		return &Error{Type: ErrInconsistentMetadata, Field: "duplicate pkgid: " + pkg.Pkgid()}
	}
	nevra := NewNevra(pkg)
	found := false
	r.Packages.Each(func(_ string, p *Package) {
		if !found && NewNevra(p).EVR.Equal(nevra.EVR) && p.Name == nevra.Name && p.Arch == nevra.Arch {
			found = true
		}
	})
	if found {
		return &Error{Type: ErrInconsistentMetadata, Field: "duplicate nevra: " + nevra.Canonical()}
	}
	r.Packages.Set(pkg.Pkgid(), pkg)
	return nil
}

// AddAdvisory inserts an UpdateRecord keyed by its id, overwriting any
// existing advisory with the same id.
func (r *Repository) AddAdvisory(rec *UpdateRecord) {
	r.Advisories.Set(rec.ID, rec)
}

// Sort reorders Packages by LocationHref, matching the on-disk package
// ordering createrepo-family tools produce (spec §3).
func (r *Repository) Sort() {
	type entry struct {
		key string
		pkg *Package
	}
	entries := make([]entry, 0, r.Packages.Len())
	r.Packages.Each(func(k string, p *Package) { entries = append(entries, entry{k, p}) })

	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].pkg.LocationHref < entries[j-1].pkg.LocationHref; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}

	sorted := NewOrderedMap[string, *Package]()
	for _, e := range entries {
		sorted.Set(e.key, e.pkg)
	}
	r.Packages = sorted
}

// RepositoryOptions configures RepositoryWriter: metadata filename style,
// compression codec, and checksum algorithms for metadata files versus
// package pkgids. Defaults match the reference implementation's: gzip
// compression, sha256 checksums throughout.
type RepositoryOptions struct {
	SimpleMetadataFilenames bool
	MetadataCompressionType CompressionType
	MetadataChecksumType    ChecksumType
	PackageChecksumType     ChecksumType
}

// DefaultRepositoryOptions returns the reference implementation's defaults.
func DefaultRepositoryOptions() RepositoryOptions {
	return RepositoryOptions{
		SimpleMetadataFilenames: false,
		MetadataCompressionType: CompressionGzip,
		MetadataChecksumType:    ChecksumSHA256,
		PackageChecksumType:     ChecksumSHA256,
	}
}

// LoadRepositoryFromDirectory reads repomd.xml and every metadata file it
// indexes from path, merging all packages and advisories eagerly (the
// equivalent of RepositoryReader::into_repo).
func LoadRepositoryFromDirectory(path string) (*Repository, error) {
	reader, err := NewRepositoryReader(path)
	if err != nil {
		return nil, err
	}
	return reader.IntoRepository()
}

// RepositoryReader holds a repository's parsed repomd.xml and lazily reads
// the metadata files it indexes, either streaming (IteratePackages) or all
// at once (IntoRepository).
type RepositoryReader struct {
	path   string
	repomd *RepomdData
}

// NewRepositoryReader reads repodata/repomd.xml under path and returns a
// reader positioned to load the metadata files it describes.
func NewRepositoryReader(path string) (*RepositoryReader, error) {
	repomdPath := filepath.Join(path, "repodata", "repomd.xml")
	f, err := os.Open(repomdPath)
	if err != nil {
		return nil, wrapIO(err)
	}
	defer f.Close()

	data, err := ReadRepomdXML(f)
	if err != nil {
		return nil, err
	}
	return &RepositoryReader{path: path, repomd: data}, nil
}

// Repomd returns the reader's parsed repomd.xml index.
func (rr *RepositoryReader) Repomd() *RepomdData {
	return rr.repomd
}

// metadataPath resolves a RepomdRecord's location to an absolute path.
func (rr *RepositoryReader) metadataPath(rec *RepomdRecord) string {
	return filepath.Join(rr.path, rec.LocationHref)
}

// IteratePackages returns a PackageIterator that streams primary.xml,
// filelists.xml, and other.xml in lockstep, merging by pkgid as each
// arrives (spec §5 C4).
func (rr *RepositoryReader) IteratePackages(opts IteratorOptions) (*PackageIterator, error) {
	return newPackageIterator(rr.path, rr.repomd, opts)
}

// IntoRepository eagerly materializes every package (and advisory, if
// updateinfo.xml is present) into a fully merged Repository.
func (rr *RepositoryReader) IntoRepository() (*Repository, error) {
	repo := NewRepository()
	repo.Repomd = rr.repomd

	it, err := rr.IteratePackages(IteratorOptions{})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	for {
		pkg, err := it.Next()
		if err != nil {
			return nil, err
		}
		if pkg == nil {
			break
		}
		repo.Packages.Set(pkg.Pkgid(), pkg)
	}

	if rec := rr.repomd.GetRecord("updateinfo"); rec != nil {
		r, _, err := openReader(rr.metadataPath(rec))
		if err != nil {
			return nil, err
		}
		err = ReadUpdateinfoXML(r, repo)
		r.Close()
		if err != nil {
			return nil, err
		}
	}

	return repo, nil
}
