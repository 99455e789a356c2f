package rpmmeta

import (
	"bufio"
	"strconv"
	"strings"
)

// xmlw is a hand-rolled XML emitter writing directly to a *bufio.Writer.
// encoding/xml.Encoder cannot produce self-closing empty elements, cannot
// hold attribute order independent of struct field order across a
// namespaced document, and has no hook for the partial-escaping wart
// changelog text requires — so output here is built tag-by-tag instead,
// matching attribute order and empty-element conventions byte-for-byte.
type xmlw struct {
	w   *bufio.Writer
	err error
}

func newXMLWriter(w *bufio.Writer) *xmlw {
	return &xmlw{w: w}
}

func (x *xmlw) fail(err error) {
	if x.err == nil {
		x.err = err
	}
}

// attr is one name="value" pair, written in the order given.
type attr struct {
	name  string
	value string
}

func a(name, value string) attr { return attr{name: name, value: value} }

func (x *xmlw) writeDecl() {
	if x.err != nil {
		return
	}
	_, err := x.w.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	x.fail(err)
}

// writeStart writes "<name attr="val" ...>".
func (x *xmlw) writeStart(name string, attrs ...attr) {
	if x.err != nil {
		return
	}
	x.raw("<")
	x.raw(name)
	x.writeAttrs(attrs)
	x.raw(">")
}

// writeEmpty writes "<name attr="val" .../>".
func (x *xmlw) writeEmpty(name string, attrs ...attr) {
	if x.err != nil {
		return
	}
	x.raw("<")
	x.raw(name)
	x.writeAttrs(attrs)
	x.raw("/>")
}

func (x *xmlw) writeEnd(name string) {
	if x.err != nil {
		return
	}
	x.raw("</")
	x.raw(name)
	x.raw(">")
}

// writeElemText writes "<name attr="val">text</name>" with text fully escaped.
func (x *xmlw) writeElemText(name string, text string, attrs ...attr) {
	x.writeStart(name, attrs...)
	x.writeText(text)
	x.writeEnd(name)
}

// writeElemTextPartial is writeElemText with partial escaping (spec §4.3:
// changelog description text escapes <, >, & but not quotes).
func (x *xmlw) writeElemTextPartial(name string, text string, attrs ...attr) {
	x.writeStart(name, attrs...)
	x.writePartialText(text)
	x.writeEnd(name)
}

func (x *xmlw) writeElemInt(name string, value int64, attrs ...attr) {
	x.writeElemText(name, strconv.FormatInt(value, 10), attrs...)
}

func (x *xmlw) writeAttrs(attrs []attr) {
	for _, at := range attrs {
		x.raw(` `)
		x.raw(at.name)
		x.raw(`="`)
		x.raw(escapeAttr(at.value))
		x.raw(`"`)
	}
}

func (x *xmlw) writeText(s string) {
	x.raw(escapeFull(s))
}

func (x *xmlw) writePartialText(s string) {
	x.raw(escapePartial(s))
}

func (x *xmlw) newline() {
	x.raw("\n")
}

func (x *xmlw) raw(s string) {
	if x.err != nil {
		return
	}
	_, err := x.w.WriteString(s)
	x.fail(err)
}

func (x *xmlw) flush() error {
	if x.err != nil {
		return x.err
	}
	return x.w.Flush()
}

// escapeFull escapes &, <, >, ", ' — the full set, used for attribute
// values and ordinary element text.
func escapeFull(s string) string {
	if !strings.ContainsAny(s, "&<>\"'") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// escapeAttr is escapeFull restricted to what an attribute value needs
// (quotes always escaped since every attribute here is double-quoted).
func escapeAttr(s string) string {
	return escapeFull(s)
}

// escapePartial escapes only &, <, > — the compatibility wart changelog
// description text carries over from createrepo_c (spec §4.3): quotes and
// apostrophes pass through unescaped.
func escapePartial(s string) string {
	if !strings.ContainsAny(s, "&<>") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
