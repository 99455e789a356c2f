package rpmmeta

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"
)

// readCharData consumes character data up to the matching end element
// named local, concatenating any CharData tokens in between (mirroring
// quick_xml's read_text). Nested elements are not expected here; any
// encountered are skipped.
func readCharData(dec *xml.Decoder, local string) (string, error) {
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return "", wrapXMLParse(io.ErrUnexpectedEOF)
		}
		if err != nil {
			return "", wrapXMLParse(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			if err := skipElement(dec); err != nil {
				return "", err
			}
		case xml.EndElement:
			if t.Name.Local == local {
				return b.String(), nil
			}
		}
	}
}

// readCharDataInt reads character data up to the end element named local
// and parses it as a base-10 int64.
func readCharDataInt(dec *xml.Decoder, local string) (int64, error) {
	text, err := readCharData(dec, local)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, wrapIntParse(local, err)
	}
	return v, nil
}

// skipElement consumes tokens until the end of the element whose start
// has already been read, including any nested children.
func skipElement(dec *xml.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err == io.EOF {
			return wrapXMLParse(io.ErrUnexpectedEOF)
		}
		if err != nil {
			return wrapXMLParse(err)
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

// skipToEnd consumes tokens until the end element named local is seen,
// used after an element whose content (if any) is irrelevant, e.g.
// <location href="..."/>.
func skipToEnd(dec *xml.Decoder, local string) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err == io.EOF {
			return wrapXMLParse(io.ErrUnexpectedEOF)
		}
		if err != nil {
			return wrapXMLParse(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == local {
				depth++
			}
		case xml.EndElement:
			if t.Name.Local == local {
				depth--
			}
		}
	}
	return nil
}

// attrValue returns the value of the unprefixed attribute named local on
// se, or "" if absent.
func attrValue(se xml.StartElement, local string) string {
	for _, attr := range se.Attr {
		if attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}

// parseAttrInt reads a required integer attribute, failing with
// ErrMissingAttribute if absent or ErrIntParse if malformed.
func parseAttrInt(se xml.StartElement, local string) (int64, error) {
	text := attrValue(se, local)
	if text == "" {
		return 0, errMissingAttribute(local)
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, wrapIntParse(local, err)
	}
	return v, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func itoa64(n int64) string {
	return strconv.FormatInt(n, 10)
}
