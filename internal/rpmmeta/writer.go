package rpmmeta

import (
	"io"
	"os"
	"path/filepath"
)

// RepositoryWriter streams primary.xml, filelists.xml, other.xml (and,
// lazily, updateinfo.xml) to repodata/ under a directory, one package at a
// time, then assembles repomd.xml on Finish (spec §5 C5). The declared
// package count is asserted against what was actually written by panicking
// with a typed *Error, matching the fatal-invariant pattern the writers in
// primary.go/filelists.go/other.go already use.
type RepositoryWriter struct {
	options RepositoryOptions
	path    string

	primaryWriter   *PrimaryXMLWriter
	filelistsWriter *FilelistsXMLWriter
	otherWriter     *OtherXMLWriter
	primaryC        io.WriteCloser
	filelistsC      io.WriteCloser
	otherC          io.WriteCloser

	updateinfoWriter *UpdateinfoXMLWriter
	updateinfoC      io.WriteCloser

	numPackages    int
	numPkgsWritten int

	repomd *RepomdData
}

// NewRepositoryWriter opens a writer for numPackages packages under path,
// using DefaultRepositoryOptions.
func NewRepositoryWriter(path string, numPackages int) (*RepositoryWriter, error) {
	return NewRepositoryWriterWithOptions(path, numPackages, DefaultRepositoryOptions())
}

// WriteRepository writes every package and advisory in repo to path using
// options, a convenience wrapper equivalent to driving RepositoryWriter by
// hand.
func WriteRepository(repo *Repository, path string, options RepositoryOptions) error {
	w, err := NewRepositoryWriterWithOptions(path, repo.Packages.Len(), options)
	if err != nil {
		return err
	}

	var writeErr error
	repo.Packages.Each(func(_ string, pkg *Package) {
		if writeErr != nil {
			return
		}
		writeErr = w.AddPackage(pkg)
	})
	if writeErr != nil {
		return writeErr
	}

	repo.Advisories.Each(func(_ string, rec *UpdateRecord) {
		if writeErr != nil {
			return
		}
		writeErr = w.AddAdvisory(rec)
	})
	if writeErr != nil {
		return writeErr
	}

	return w.Finish()
}

// NewRepositoryWriterWithOptions creates path/repodata, opens the three
// mandatory metadata writers, and writes their headers immediately.
func NewRepositoryWriterWithOptions(path string, numPackages int, options RepositoryOptions) (*RepositoryWriter, error) {
	repodataDir := filepath.Join(path, "repodata")
	if err := os.MkdirAll(repodataDir, 0o755); err != nil {
		return nil, wrapIO(err)
	}

	_, primaryRaw, err := openWriter(filepath.Join(repodataDir, "primary.xml"), options.MetadataCompressionType)
	if err != nil {
		return nil, err
	}
	_, filelistsRaw, err := openWriter(filepath.Join(repodataDir, "filelists.xml"), options.MetadataCompressionType)
	if err != nil {
		return nil, err
	}
	_, otherRaw, err := openWriter(filepath.Join(repodataDir, "other.xml"), options.MetadataCompressionType)
	if err != nil {
		return nil, err
	}

	w := &RepositoryWriter{
		options:     options,
		path:        path,
		numPackages: numPackages,
		repomd:      &RepomdData{},

		primaryC:   primaryRaw,
		filelistsC: filelistsRaw,
		otherC:     otherRaw,
	}

	w.primaryWriter = NewPrimaryXMLWriter(primaryRaw)
	w.filelistsWriter = NewFilelistsXMLWriter(filelistsRaw)
	w.otherWriter = NewOtherXMLWriter(otherRaw)

	if err := w.primaryWriter.WriteHeader(numPackages); err != nil {
		return nil, err
	}
	if err := w.filelistsWriter.WriteHeader(numPackages); err != nil {
		return nil, err
	}
	if err := w.otherWriter.WriteHeader(numPackages); err != nil {
		return nil, err
	}

	return w, nil
}

// Repomd returns the in-progress repomd.xml data, for callers that want to
// add repo/content/distro tags before Finish.
func (w *RepositoryWriter) Repomd() *RepomdData {
	return w.repomd
}

// AddPackage writes pkg to primary.xml, filelists.xml, and other.xml.
// Panics with a typed *Error if more packages are added than were declared
// at construction — the same fatal-assertion pattern as the underlying
// per-file writers' Finish methods, since this invariant can only be
// violated by caller error, not malformed input.
func (w *RepositoryWriter) AddPackage(pkg *Package) error {
	w.numPkgsWritten++
	if w.numPkgsWritten > w.numPackages {
		panic(&Error{
			Type:  ErrInconsistentMetadata,
			Field: "repository writer",
			Err:   errInconsistentMetadata(countMismatchMsg("repository", w.numPkgsWritten, w.numPackages)),
		})
	}

	if err := w.primaryWriter.WritePackage(pkg); err != nil {
		return err
	}
	if err := w.filelistsWriter.WritePackage(pkg); err != nil {
		return err
	}
	if err := w.otherWriter.WritePackage(pkg); err != nil {
		return err
	}
	return nil
}

// AddAdvisory writes rec to updateinfo.xml, opening that file (and writing
// its header) on first use.
func (w *RepositoryWriter) AddAdvisory(rec *UpdateRecord) error {
	if w.updateinfoWriter == nil {
		repodataDir := filepath.Join(w.path, "repodata")
		_, raw, err := openWriter(filepath.Join(repodataDir, "updateinfo.xml"), w.options.MetadataCompressionType)
		if err != nil {
			return err
		}
		w.updateinfoC = raw
		w.updateinfoWriter = NewUpdateinfoXMLWriter(raw)
		if err := w.updateinfoWriter.WriteHeader(); err != nil {
			return err
		}
	}
	return w.updateinfoWriter.WriteUpdate(rec)
}

// Finish closes every open metadata writer, computes each metadata file's
// RepomdRecord (checksums of the on-disk and decompressed bytes, per spec
// §4.1), and writes repomd.xml uncompressed. Panics with a typed *Error if
// fewer packages were written than declared.
func (w *RepositoryWriter) Finish() error {
	if w.numPkgsWritten != w.numPackages {
		panic(&Error{
			Type:  ErrInconsistentMetadata,
			Field: "repository writer",
			Err:   errInconsistentMetadata(countMismatchMsg("repository", w.numPkgsWritten, w.numPackages)),
		})
	}

	repodataDir := filepath.Join(w.path, "repodata")

	if err := w.primaryWriter.Finish(); err != nil {
		return err
	}
	if err := w.primaryC.Close(); err != nil {
		return wrapIO(err)
	}
	if err := w.filelistsWriter.Finish(); err != nil {
		return err
	}
	if err := w.filelistsC.Close(); err != nil {
		return wrapIO(err)
	}
	if err := w.otherWriter.Finish(); err != nil {
		return err
	}
	if err := w.otherC.Close(); err != nil {
		return wrapIO(err)
	}

	primaryRel := applyCompressionSuffix(filepath.Join("repodata", "primary.xml"), w.options.MetadataCompressionType)
	filelistsRel := applyCompressionSuffix(filepath.Join("repodata", "filelists.xml"), w.options.MetadataCompressionType)
	otherRel := applyCompressionSuffix(filepath.Join("repodata", "other.xml"), w.options.MetadataCompressionType)

	rec, err := w.finalizeMetadataFile("primary", primaryRel)
	if err != nil {
		return err
	}
	w.repomd.AddRecord(rec)

	rec, err = w.finalizeMetadataFile("filelists", filelistsRel)
	if err != nil {
		return err
	}
	w.repomd.AddRecord(rec)

	rec, err = w.finalizeMetadataFile("other", otherRel)
	if err != nil {
		return err
	}
	w.repomd.AddRecord(rec)

	if w.updateinfoWriter != nil {
		if err := w.updateinfoWriter.Finish(); err != nil {
			return err
		}
		if err := w.updateinfoC.Close(); err != nil {
			return wrapIO(err)
		}
		updateinfoRel := applyCompressionSuffix(filepath.Join("repodata", "updateinfo.xml"), w.options.MetadataCompressionType)
		rec, err := w.finalizeMetadataFile("updateinfo", updateinfoRel)
		if err != nil {
			return err
		}
		w.repomd.AddRecord(rec)
	}

	repomdFile, err := os.Create(filepath.Join(repodataDir, "repomd.xml"))
	if err != nil {
		return wrapIO(err)
	}
	defer repomdFile.Close()

	return WriteRepomdXML(repomdFile, w.repomd)
}

// finalizeMetadataFile builds metadataName's RepomdRecord from the file
// already written at w.path/relPath, then, unless
// options.SimpleMetadataFilenames is set, renames that file to prefix its
// basename with its own (compressed-form) checksum, updating
// location_href to match the on-disk name (spec §6: "when
// simple_metadata_filenames=false, the xml file basenames are prefixed
// with their compressed-form checksum ... location_href must match the
// on-disk name exactly").
func (w *RepositoryWriter) finalizeMetadataFile(metadataName, relPath string) (*RepomdRecord, error) {
	rec, err := newRepomdRecordFromFile(metadataName, relPath, w.path, w.options.MetadataChecksumType)
	if err != nil {
		return nil, err
	}
	if w.options.SimpleMetadataFilenames {
		return rec, nil
	}

	prefixedRel := filepath.Join(filepath.Dir(relPath), rec.Checksum.Digest+"-"+filepath.Base(relPath))
	if err := os.Rename(filepath.Join(w.path, relPath), filepath.Join(w.path, prefixedRel)); err != nil {
		return nil, wrapIO(err)
	}
	rec.LocationHref = filepath.ToSlash(prefixedRel)
	return rec, nil
}

// newRepomdRecordFromFile stats the file at base/relPath, computes its
// on-disk checksum and decompressed checksum/size under algo, and builds
// the RepomdRecord repomd.xml indexes it under. Grounded on
// original_source/src/metadata.rs's RepomdRecord::fill, generalized to a
// configurable checksum algorithm rather than a hardcoded sha256.
func newRepomdRecordFromFile(metadataName, relPath, base string, algo ChecksumType) (*RepomdRecord, error) {
	fullPath := filepath.Join(base, relPath)

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, wrapIO(err)
	}

	digest, size, err := checksumFile(fullPath, algo)
	if err != nil {
		return nil, err
	}
	checksum, err := NewChecksum(algo, digest)
	if err != nil {
		return nil, err
	}

	openDigest, err := checksumInnerFile(fullPath, algo)
	if err != nil {
		return nil, err
	}
	openChecksum, err := NewChecksum(algo, openDigest)
	if err != nil {
		return nil, err
	}
	openSize, err := sizeInnerFile(fullPath)
	if err != nil {
		return nil, err
	}

	rec, err := NewRepomdRecord(metadataName, filepath.ToSlash(relPath), info.ModTime().Unix(), checksum)
	if err != nil {
		return nil, err
	}
	rec.Size, rec.HasSize = size, true
	rec.OpenChecksum, rec.HasOpenChecksum = openChecksum, true
	rec.OpenSize, rec.HasOpenSize = openSize, true
	return rec, nil
}
