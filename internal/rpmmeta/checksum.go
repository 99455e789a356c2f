package rpmmeta

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"os"
)

// ChecksumType names one of the digest algorithms used as a pkgid or a
// RepomdRecord checksum. ChecksumUnknown is an intermediate state used only
// while merging filelists/other packages before primary's algorithm choice
// is known (spec §3); it must never survive into a finalized Repository.
type ChecksumType int

const (
	ChecksumUnknown ChecksumType = iota
	ChecksumMD5
	ChecksumSHA1
	ChecksumSHA224
	ChecksumSHA256
	ChecksumSHA384
	ChecksumSHA512
)

func (t ChecksumType) String() string {
	switch t {
	case ChecksumMD5:
		return "md5"
	case ChecksumSHA1:
		return "sha1"
	case ChecksumSHA224:
		return "sha224"
	case ChecksumSHA256:
		return "sha256"
	case ChecksumSHA384:
		return "sha384"
	case ChecksumSHA512:
		return "sha512"
	default:
		return "unknown"
	}
}

// ParseChecksumType maps the wire-level algorithm name (as it appears in
// <checksum type="...">) to a ChecksumType.
func ParseChecksumType(name string) (ChecksumType, error) {
	switch name {
	case "md5":
		return ChecksumMD5, nil
	case "sha", "sha1":
		return ChecksumSHA1, nil
	case "sha224":
		return ChecksumSHA224, nil
	case "sha256":
		return ChecksumSHA256, nil
	case "sha384":
		return ChecksumSHA384, nil
	case "sha512":
		return ChecksumSHA512, nil
	default:
		return ChecksumUnknown, errUnsupportedChecksumAlgo(name)
	}
}

// digestLength returns the canonical hex-digest length for the algorithm,
// used to validate a Checksum on construction (spec §8 property 6).
func (t ChecksumType) digestLength() int {
	switch t {
	case ChecksumMD5:
		return 32
	case ChecksumSHA1:
		return 40
	case ChecksumSHA224:
		return 56
	case ChecksumSHA256:
		return 64
	case ChecksumSHA384:
		return 96
	case ChecksumSHA512:
		return 128
	default:
		return -1
	}
}

func (t ChecksumType) newHash() hash.Hash {
	switch t {
	case ChecksumMD5:
		return md5.New()
	case ChecksumSHA1:
		return sha1.New()
	case ChecksumSHA224:
		return sha256.New224()
	case ChecksumSHA256:
		return sha256.New()
	case ChecksumSHA384:
		return sha512.New384()
	case ChecksumSHA512:
		return sha512.New()
	default:
		return nil
	}
}

// Checksum is a tagged digest: the pkgid of a package, or the checksum of
// a metadata file. Digest is always lowercase hex.
type Checksum struct {
	Type   ChecksumType
	Digest string
}

// NewChecksum validates digest length against algo before constructing,
// per spec §3's "digest length is validated against algorithm on
// construction."
func NewChecksum(algo ChecksumType, digest string) (Checksum, error) {
	if algo == ChecksumUnknown {
		return Checksum{Type: ChecksumUnknown, Digest: digest}, nil
	}
	if n := algo.digestLength(); n >= 0 && len(digest) != n {
		return Checksum{}, errInvalidChecksum(digest, algo)
	}
	return Checksum{Type: algo, Digest: digest}, nil
}

// ChecksumFile computes the digest and size of a file's on-disk bytes
// exactly as stored, under algo. Exported for collaborators outside this
// package (internal/rpmheader) that need a package's pkgid before it has
// an rpmmeta.Package to attach it to.
func ChecksumFile(path string, algo ChecksumType) (digest string, size int64, err error) {
	return checksumFile(path, algo)
}

// checksumFile computes the digest and size of a file's on-disk bytes
// exactly as stored (the "compressed" view when the file is compressed).
func checksumFile(path string, algo ChecksumType) (digest string, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, wrapIO(err)
	}
	defer f.Close()

	h := algo.newHash()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, wrapIO(err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// checksumInnerFile computes the digest of the *decompressed* contents of
// path, auto-detecting the codec by magic bytes. Used to fill
// RepomdRecord.open_checksum.
func checksumInnerFile(path string, algo ChecksumType) (digest string, err error) {
	r, _, err := openReader(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	h := algo.newHash()
	if _, err := io.Copy(h, r); err != nil {
		return "", wrapIO(err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// sizeInnerFile returns the decompressed byte length of path.
func sizeInnerFile(path string) (int64, error) {
	r, _, err := openReader(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return 0, wrapIO(err)
	}
	return n, nil
}

// multiChecksum streams data through every supported hash algorithm in one
// pass, yielding the file's digest under every algorithm at once (the
// RPM-header collaborator does not use it; it calls ChecksumFile with a
// single algorithm). Grounded on
// internal/utils/checksum.go's io.MultiWriter pattern, extended to the
// full sha224/sha384 algorithm set required by spec §3.
type multiChecksum struct {
	Size   int64
	MD5    string
	SHA1   string
	SHA224 string
	SHA256 string
	SHA384 string
	SHA512 string
}

func calculateMultiChecksum(path string) (*multiChecksum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapIO(err)
	}
	defer f.Close()

	md5h := md5.New()
	sha1h := sha1.New()
	sha224h := sha256.New224()
	sha256h := sha256.New()
	sha384h := sha512.New384()
	sha512h := sha512.New()

	mw := io.MultiWriter(md5h, sha1h, sha224h, sha256h, sha384h, sha512h)
	n, err := io.Copy(mw, f)
	if err != nil {
		return nil, wrapIO(err)
	}

	return &multiChecksum{
		Size:   n,
		MD5:    hex.EncodeToString(md5h.Sum(nil)),
		SHA1:   hex.EncodeToString(sha1h.Sum(nil)),
		SHA224: hex.EncodeToString(sha224h.Sum(nil)),
		SHA256: hex.EncodeToString(sha256h.Sum(nil)),
		SHA384: hex.EncodeToString(sha384h.Sum(nil)),
		SHA512: hex.EncodeToString(sha512h.Sum(nil)),
	}, nil
}

// Get returns the digest for algo, or "" for ChecksumUnknown.
func (m *multiChecksum) Get(algo ChecksumType) string {
	switch algo {
	case ChecksumMD5:
		return m.MD5
	case ChecksumSHA1:
		return m.SHA1
	case ChecksumSHA224:
		return m.SHA224
	case ChecksumSHA256:
		return m.SHA256
	case ChecksumSHA384:
		return m.SHA384
	case ChecksumSHA512:
		return m.SHA512
	default:
		return ""
	}
}
