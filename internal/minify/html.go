package minify

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// blockTags are elements whose surrounding whitespace does not render.
var blockTags = map[string]bool{
	"html": true, "head": true, "body": true, "meta": true, "link": true,
	"title": true, "style": true, "script": true, "base": true, "template": true,
	"div": true, "p": true, "ul": true, "ol": true, "li": true, "dl": true,
	"dt": true, "dd": true, "table": true, "thead": true, "tbody": true,
	"tfoot": true, "tr": true, "td": true, "th": true, "section": true,
	"article": true, "header": true, "footer": true, "nav": true, "main": true,
	"aside": true, "form": true, "fieldset": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "hr": true, "br": true,
	"figure": true, "figcaption": true, "blockquote": true, "details": true,
	"summary": true, "dialog": true, "option": true, "select": true,
}

// verbatimTags keep their content byte for byte.
var verbatimTags = map[string]bool{
	"pre": true, "textarea": true, "script": true, "style": true,
}

type htmlToken struct {
	typ html.TokenType
	raw string
	tag string // lower-cased tag name for tag tokens
}

// HTML minifies markup: comments other than conditional comments are
// removed, whitespace runs collapse to one space and whitespace next to
// block-level tags is dropped. Tags keep their original spelling, so SVG
// attribute case survives.
func HTML(src string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(src))
	var toks []htmlToken
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", err
			}
			break
		}
		tok := htmlToken{typ: tt, raw: string(z.Raw())}
		if tt == html.StartTagToken || tt == html.EndTagToken || tt == html.SelfClosingTagToken {
			name, _ := z.TagName()
			tok.tag = string(name)
		}
		toks = append(toks, tok)
	}

	var sb strings.Builder
	verbatim := 0
	for i, tok := range toks {
		switch tok.typ {
		case html.CommentToken:
			if strings.HasPrefix(tok.raw, "<!--[if") {
				sb.WriteString(tok.raw)
			}
		case html.TextToken:
			if verbatim > 0 {
				sb.WriteString(tok.raw)
				continue
			}
			sb.WriteString(collapseText(tok.raw, blockBoundary(toks, i, -1), blockBoundary(toks, i, 1)))
		case html.StartTagToken:
			sb.WriteString(compactTag(tok.raw))
			if verbatimTags[tok.tag] {
				verbatim++
			}
		case html.EndTagToken:
			if verbatimTags[tok.tag] && verbatim > 0 {
				verbatim--
			}
			sb.WriteString(compactTag(tok.raw))
		case html.SelfClosingTagToken:
			sb.WriteString(compactTag(tok.raw))
		default:
			sb.WriteString(tok.raw)
		}
	}
	return sb.String(), nil
}

// blockBoundary reports whether the token beside text index i in direction
// dir is a block tag, a doctype, a dropped comment or the document edge.
func blockBoundary(toks []htmlToken, i, dir int) bool {
	for j := i + dir; j >= 0 && j < len(toks); j += dir {
		t := toks[j]
		switch t.typ {
		case html.CommentToken:
			if strings.HasPrefix(t.raw, "<!--[if") {
				return true
			}
			continue
		case html.DoctypeToken:
			return true
		case html.TextToken:
			return false
		default:
			return blockTags[t.tag]
		}
	}
	return true
}

func collapseText(s string, trimLeft, trimRight bool) string {
	var sb strings.Builder
	space := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' {
			space = true
			continue
		}
		if space && (sb.Len() > 0 || !trimLeft) {
			sb.WriteByte(' ')
		}
		space = false
		sb.WriteByte(c)
	}
	if space && !trimRight && (sb.Len() > 0 || !trimLeft) {
		sb.WriteByte(' ')
	}
	return sb.String()
}

// compactTag collapses whitespace inside a raw tag outside quoted values and
// drops it around = and before the closing bracket.
func compactTag(raw string) string {
	var sb strings.Builder
	space := false
	var quote, last byte
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if quote != 0 {
			sb.WriteByte(c)
			if c == quote {
				quote = 0
			}
			last = c
			continue
		}
		switch c {
		case ' ', '\t', '\n', '\r', '\f':
			space = true
			continue
		case '"', '\'':
			quote = c
		}
		if space && last != '=' {
			switch {
			case c == '=' || c == '>':
			case c == '/' && i+1 < len(raw) && raw[i+1] == '>':
			default:
				sb.WriteByte(' ')
			}
		}
		space = false
		sb.WriteByte(c)
		last = c
	}
	return sb.String()
}
