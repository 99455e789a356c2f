package rpmmeta

import "strings"

// EVR is the RPM version tuple: epoch, version, release. Epoch defaults to
// "0" when absent; "" and "0" compare equal.
type EVR struct {
	Epoch   string
	Version string
	Release string
}

// NewEVR builds an EVR from its three components as parsed off the wire.
func NewEVR(epoch, version, release string) EVR {
	return EVR{Epoch: epoch, Version: version, Release: release}
}

// ParseEVR parses "[epoch:]version[-release]". Parsing is total: a missing
// epoch yields "", a missing release yields "".
func ParseEVR(s string) EVR {
	epoch := ""
	rest := s
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		epoch = s[:idx]
		rest = s[idx+1:]
	}
	version := rest
	release := ""
	if idx := strings.LastIndexByte(rest, '-'); idx >= 0 {
		version = rest[:idx]
		release = rest[idx+1:]
	}
	return EVR{Epoch: epoch, Version: version, Release: release}
}

// String renders "V-R" when epoch is empty, else "E:V-R".
func (e EVR) String() string {
	if e.Epoch == "" {
		return e.Version + "-" + e.Release
	}
	return e.Epoch + ":" + e.Version + "-" + e.Release
}

// Values returns the three components with epoch normalized to "0" when
// absent, matching the wire representation used by <version epoch ver rel/>.
func (e EVR) Values() (epoch, version, release string) {
	epoch = e.Epoch
	if epoch == "" {
		epoch = "0"
	}
	return epoch, e.Version, e.Release
}

// Equal treats "" and "0" epochs as equivalent, per spec §3.
func (a EVR) Equal(b EVR) bool {
	return a.Compare(b) == 0
}

// Compare orders two EVRs: epoch, then version, then release, each via
// rpmCompareVersionString. Returns <0, 0, >0 like strings.Compare.
func (a EVR) Compare(b EVR) int {
	ae, be := a.Epoch, b.Epoch
	if ae == "" {
		ae = "0"
	}
	if be == "" {
		be = "0"
	}
	if c := rpmCompareVersionString(ae, be); c != 0 {
		return c
	}
	if c := rpmCompareVersionString(a.Version, b.Version); c != 0 {
		return c
	}
	return rpmCompareVersionString(a.Release, b.Release)
}

// RpmVerCmp compares two full "[epoch:]version[-release]" strings by
// parsing each as an EVR and comparing. This is the public entry point
// named in spec §8 S6.
func RpmVerCmp(evr1, evr2 string) int {
	return ParseEVR(evr1).Compare(ParseEVR(evr2))
}

func isAlphaASCII(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigitASCII(b byte) bool {
	return b >= '0' && b <= '9'
}

func isAlnumASCII(b byte) bool {
	return isAlphaASCII(b) || isDigitASCII(b)
}

// rpmCompareVersionString is the canonical rpmvercmp algorithm (spec §4.2),
// ported behavior-for-behavior from original_source/src/common.rs so that
// every corner case matches the reference implementation exactly: '~' sorts
// before everything, including the end of the string, and '^' sorts after
// the end of the string but before any further segment, symmetrically in
// both argument orders.
func rpmCompareVersionString(version1, version2 string) int {
	s1, s2 := version1, version2

	for len(s1) > 0 || len(s2) > 0 {
		// Strip leading characters that are neither alphanumeric nor ~ or ^.
		for len(s1) > 0 && !isAlnumASCII(s1[0]) && s1[0] != '~' && s1[0] != '^' {
			s1 = s1[1:]
		}
		for len(s2) > 0 && !isAlnumASCII(s2[0]) && s2[0] != '~' && s2[0] != '^' {
			s2 = s2[1:]
		}

		has1Tilde := len(s1) > 0 && s1[0] == '~'
		has2Tilde := len(s2) > 0 && s2[0] == '~'
		if has1Tilde || has2Tilde {
			if has1Tilde && !has2Tilde {
				return -1
			}
			if !has1Tilde && has2Tilde {
				return 1
			}
			// both have it: strip and continue
			s1 = s1[1:]
			s2 = s2[1:]
			continue
		}

		has1Caret := len(s1) > 0 && s1[0] == '^'
		has2Caret := len(s2) > 0 && s2[0] == '^'
		if has1Caret || has2Caret {
			if has1Caret && !has2Caret {
				if s2 == "" {
					return 1
				}
				return -1
			}
			if !has1Caret && has2Caret {
				if s1 == "" {
					return -1
				}
				return 1
			}
			// both have it: strip and continue
			s1 = s1[1:]
			s2 = s2[1:]
			continue
		}

		if len(s1) == 0 || len(s2) == 0 {
			break
		}

		var seg1, seg2 string
		var numeric bool

		if isDigitASCII(s1[0]) {
			i := 0
			for i < len(s1) && isDigitASCII(s1[i]) {
				i++
			}
			seg1, s1 = s1[:i], s1[i:]

			j := 0
			for j < len(s2) && isDigitASCII(s2[j]) {
				j++
			}
			seg2, s2 = s2[:j], s2[j:]

			numeric = true
		} else {
			i := 0
			for i < len(s1) && isAlphaASCII(s1[i]) {
				i++
			}
			seg1, s1 = s1[:i], s1[i:]

			j := 0
			for j < len(s2) && isAlphaASCII(s2[j]) {
				j++
			}
			seg2, s2 = s2[:j], s2[j:]

			numeric = false
		}

		if numeric {
			// A numeric segment on one side with nothing to compare on the
			// other (because the other started with a letter) wins.
			if seg2 == "" {
				return 1
			}
			seg1Trimmed := strings.TrimLeft(seg1, "0")
			seg2Trimmed := strings.TrimLeft(seg2, "0")
			if len(seg1Trimmed) != len(seg2Trimmed) {
				if len(seg1Trimmed) > len(seg2Trimmed) {
					return 1
				}
				return -1
			}
			if c := strings.Compare(seg1Trimmed, seg2Trimmed); c != 0 {
				return c
			}
		} else {
			if seg2 == "" {
				return -1
			}
			if c := strings.Compare(seg1, seg2); c != 0 {
				return c
			}
		}
	}

	if len(s1) == len(s2) {
		return 0
	}
	if len(s1) > len(s2) {
		return 1
	}
	return -1
}
