package rpmheader

import (
	"testing"

	"github.com/rpmrepo/rpmrepo-metadata/internal/rpmmeta"
)

func TestDecodeSenseFlags(t *testing.T) {
	cases := []struct {
		flags int64
		want  rpmmeta.RequirementType
	}{
		{0, rpmmeta.RequirementNone},
		{senseLess, rpmmeta.RequirementLT},
		{senseGreater, rpmmeta.RequirementGT},
		{senseEqual, rpmmeta.RequirementEQ},
		{senseLess | senseEqual, rpmmeta.RequirementLE},
		{senseGreater | senseEqual, rpmmeta.RequirementGE},
		{senseLess | senseEqual | 64, rpmmeta.RequirementLE}, // stray PREREQ-ish bit ignored
	}
	for _, c := range cases {
		if got := decodeSenseFlags(c.flags); got != c.want {
			t.Errorf("decodeSenseFlags(%#x) = %v, want %v", c.flags, got, c.want)
		}
	}
}

func TestFileBaseName(t *testing.T) {
	cases := map[string]string{
		"/var/cache/pkgs/foo-1.0-1.x86_64.rpm": "foo-1.0-1.x86_64.rpm",
		"foo-1.0-1.x86_64.rpm":                 "foo-1.0-1.x86_64.rpm",
		"./rel/foo.rpm":                        "foo.rpm",
	}
	for in, want := range cases {
		if got := fileBaseName(in); got != want {
			t.Errorf("fileBaseName(%q) = %q, want %q", in, got, want)
		}
	}
}
