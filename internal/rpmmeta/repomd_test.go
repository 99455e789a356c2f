package rpmmeta

import (
	"bytes"
	"strings"
	"testing"
)

func TestRepomdXMLRoundTrip(t *testing.T) {
	data := &RepomdData{Revision: "1700000000", HasRevision: true}
	data.AddRepoTag("rpm-md")
	data.AddContentTag("binary-x86_64")
	data.AddDistroTag("Fedora 40", "cpe:/o:fedoraproject:fedora:40")

	primary, err := NewRepomdRecord("primary", "repodata/primary.xml.gz", 1700000001, Checksum{Type: ChecksumSHA256, Digest: strings.Repeat("1", 64)})
	if err != nil {
		t.Fatalf("NewRepomdRecord: %v", err)
	}
	primary.Size, primary.HasSize = 1234, true
	primary.OpenSize, primary.HasOpenSize = 5678, true
	primary.OpenChecksum, primary.HasOpenChecksum = Checksum{Type: ChecksumSHA256, Digest: strings.Repeat("2", 64)}, true
	data.AddRecord(primary)

	var buf bytes.Buffer
	if err := WriteRepomdXML(&buf, data); err != nil {
		t.Fatalf("WriteRepomdXML: %v", err)
	}

	got, err := ReadRepomdXML(&buf)
	if err != nil {
		t.Fatalf("ReadRepomdXML: %v", err)
	}

	if got.Revision != "1700000000" {
		t.Errorf("Revision = %q, want 1700000000", got.Revision)
	}
	if len(got.RepoTags) != 1 || got.RepoTags[0] != "rpm-md" {
		t.Errorf("RepoTags = %v", got.RepoTags)
	}
	if len(got.ContentTags) != 1 || got.ContentTags[0] != "binary-x86_64" {
		t.Errorf("ContentTags = %v", got.ContentTags)
	}
	if len(got.DistroTags) != 1 || got.DistroTags[0].CPEID != "cpe:/o:fedoraproject:fedora:40" {
		t.Errorf("DistroTags = %v", got.DistroTags)
	}

	rec := got.GetRecord("primary")
	if rec == nil {
		t.Fatal("primary record not found after round trip")
	}
	if rec.LocationHref != "repodata/primary.xml.gz" || rec.Timestamp != 1700000001 {
		t.Errorf("record identity mismatch: %+v", rec)
	}
	if !rec.HasOpenChecksum || rec.OpenChecksum.Digest != strings.Repeat("2", 64) {
		t.Errorf("open-checksum not round-tripped: %+v", rec)
	}
	if !rec.HasSize || rec.Size != 1234 {
		t.Errorf("size not round-tripped: %+v", rec)
	}
}

func TestWriteRepomdXMLOmitsTagsBlockWhenEmpty(t *testing.T) {
	data := &RepomdData{Revision: "1", HasRevision: true}
	rec, _ := NewRepomdRecord("primary", "repodata/primary.xml", 1, Checksum{Type: ChecksumSHA256, Digest: strings.Repeat("0", 64)})
	data.AddRecord(rec)

	var buf bytes.Buffer
	if err := WriteRepomdXML(&buf, data); err != nil {
		t.Fatalf("WriteRepomdXML: %v", err)
	}
	if strings.Contains(buf.String(), "<tags>") {
		t.Error("expected no <tags> block when there are no repo/content/distro tags")
	}
}

func TestWriteRepomdXMLDefaultsRevisionWhenUnset(t *testing.T) {
	data := &RepomdData{}
	rec, _ := NewRepomdRecord("primary", "repodata/primary.xml", 1, Checksum{Type: ChecksumSHA256, Digest: strings.Repeat("0", 64)})
	data.AddRecord(rec)

	var buf bytes.Buffer
	if err := WriteRepomdXML(&buf, data); err != nil {
		t.Fatalf("WriteRepomdXML: %v", err)
	}
	if strings.Contains(buf.String(), "<revision></revision>") {
		t.Error("expected a non-empty generated revision when none was set")
	}
}

func TestNewRepomdRecordRequiresFields(t *testing.T) {
	if _, err := NewRepomdRecord("", "href", 1, Checksum{Digest: "x"}); err == nil {
		t.Error("expected error for missing metadata type")
	}
	if _, err := NewRepomdRecord("primary", "", 1, Checksum{Digest: "x"}); err == nil {
		t.Error("expected error for missing location_href")
	}
	if _, err := NewRepomdRecord("primary", "href", 1, Checksum{}); err == nil {
		t.Error("expected error for missing checksum digest")
	}
}

func TestReadRepomdXMLMissingRootIsError(t *testing.T) {
	if _, err := ReadRepomdXML(strings.NewReader(`<?xml version="1.0"?><notrepomd/>`)); err == nil {
		t.Fatal("expected error for missing <repomd> root")
	}
}

func TestGetRecordReturnsNilWhenAbsent(t *testing.T) {
	data := &RepomdData{}
	if data.GetRecord("primary") != nil {
		t.Error("expected nil for absent record type")
	}
}
