package parser

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

func testParser() *Parser {
	return &Parser{Now: func() time.Time { return fixedNow }}
}

func TestParse_FullFrontmatter(t *testing.T) {
	input := []byte(`---
slug: custom-slug
title: Hello
description: A greeting
date: 2024-06-01
modifiedDate: 2024-06-03T10:00:00Z
tags:
  - Go
  - testing
featured: true
draft: false
heroImage: /images/hero.png
unknown: ignored
---
# Hello
Body text.
`)
	p, err := testParser().Parse("blog/hello.md", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Slug != "custom-slug" {
		t.Errorf("slug = %q", p.Slug)
	}
	if p.Title != "Hello" || p.Description != "A greeting" {
		t.Errorf("title/description = %q/%q", p.Title, p.Description)
	}
	if !p.Date.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", p.Date)
	}
	if p.ModifiedDate == nil || !p.ModifiedDate.Equal(time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("modifiedDate = %v", p.ModifiedDate)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "Go" || p.Tags[1] != "testing" {
		t.Errorf("tags = %v, want [Go testing]", p.Tags)
	}
	if !p.Featured || p.Draft {
		t.Errorf("featured/draft = %v/%v", p.Featured, p.Draft)
	}
	if p.HeroImage != "/images/hero.png" {
		t.Errorf("heroImage = %q", p.HeroImage)
	}
	if p.Content != "# Hello\nBody text.\n" {
		t.Errorf("content = %q", p.Content)
	}
	if p.Path != "blog/hello.md" {
		t.Errorf("path = %q", p.Path)
	}
}

func TestParse_Defaults(t *testing.T) {
	p, err := testParser().Parse("nested/dir/my-post.mdx", []byte("Just a body.\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Slug != "my-post" {
		t.Errorf("slug = %q, want my-post", p.Slug)
	}
	if p.Title != DefaultTitle {
		t.Errorf("title = %q, want %q", p.Title, DefaultTitle)
	}
	if p.Description != "" || p.HeroImage != "" {
		t.Errorf("description/heroImage should be empty: %q/%q", p.Description, p.HeroImage)
	}
	if !p.Date.Equal(fixedNow) {
		t.Errorf("date = %v, want clock value %v", p.Date, fixedNow)
	}
	if p.ModifiedDate != nil {
		t.Errorf("modifiedDate = %v, want nil", p.ModifiedDate)
	}
	if p.Tags == nil || len(p.Tags) != 0 {
		t.Errorf("tags = %#v, want empty non-nil", p.Tags)
	}
	if p.Featured || p.Draft {
		t.Error("featured and draft should default to false")
	}
}

func TestParse_SlugFromMarkdownName(t *testing.T) {
	p, err := testParser().Parse("post.md", []byte("---\ntitle: T\n---\nbody"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Slug != "post" {
		t.Errorf("slug = %q, want post", p.Slug)
	}
}

func TestParse_BlankSlugFallsBackToFileName(t *testing.T) {
	p, err := testParser().Parse("fallback.md", []byte("---\nslug: \"  \"\n---\nbody"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Slug != "fallback" {
		t.Errorf("slug = %q, want fallback", p.Slug)
	}
}

func TestParse_MalformedFieldsUseDefaults(t *testing.T) {
	input := []byte(`---
title: [not, a, string]
featured: "yes please"
draft: {nested: true}
tags: {a: b}
description:
---
body`)
	p, err := testParser().Parse("m.md", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Title != DefaultTitle {
		t.Errorf("title = %q", p.Title)
	}
	if p.Featured || p.Draft {
		t.Errorf("featured/draft = %v/%v", p.Featured, p.Draft)
	}
	if len(p.Tags) != 0 {
		t.Errorf("tags = %v", p.Tags)
	}
	if p.Description != "" {
		t.Errorf("description = %q", p.Description)
	}
}

func TestParse_ScalarTagBecomesList(t *testing.T) {
	p, err := testParser().Parse("s.md", []byte("---\ntags: solo\n---\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Tags) != 1 || p.Tags[0] != "solo" {
		t.Errorf("tags = %v, want [solo]", p.Tags)
	}
}

func TestParse_BlankTagsDropped(t *testing.T) {
	p, err := testParser().Parse("s.md", []byte("---\ntags: [\"a\", \" \", ~, \"b\"]\n---\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "a" || p.Tags[1] != "b" {
		t.Errorf("tags = %v, want [a b]", p.Tags)
	}
}

func TestParse_InvalidDate(t *testing.T) {
	_, err := testParser().Parse("bad.md", []byte("---\ndate: next tuesday\n---\nbody"))
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("err = %v, want ErrInvalidDate", err)
	}
	if !strings.Contains(err.Error(), "bad.md") {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestParse_InvalidModifiedDate(t *testing.T) {
	_, err := testParser().Parse("bad.md", []byte("---\ndate: 2024-01-01\nmodifiedDate: 2024-13-45\n---\n"))
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("err = %v, want ErrInvalidDate", err)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := testParser().Parse("broken.md", []byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if !errors.Is(err, ErrFrontmatter) {
		t.Fatalf("err = %v, want ErrFrontmatter", err)
	}
}

func TestParse_NonMappingFrontmatter(t *testing.T) {
	_, err := testParser().Parse("list.md", []byte("---\n- a\n- b\n---\nBody\n"))
	if !errors.Is(err, ErrFrontmatter) {
		t.Fatalf("err = %v, want ErrFrontmatter", err)
	}
}

func TestParse_UnterminatedFrontmatterIsBody(t *testing.T) {
	input := "---\ntitle: never closed\nstill going"
	p, err := testParser().Parse("open.md", []byte(input))
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != DefaultTitle || p.Content != input {
		t.Errorf("title = %q, content = %q", p.Title, p.Content)
	}
}

func TestParse_EmptySlug(t *testing.T) {
	_, err := testParser().Parse(".md", []byte("body"))
	if !errors.Is(err, ErrEmptySlug) {
		t.Fatalf("err = %v, want ErrEmptySlug", err)
	}
}

func TestParseDate_Layouts(t *testing.T) {
	cases := map[string]time.Time{
		"2024-01-01":                 time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"2024-01-01 08:30":           time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC),
		"2024-01-01 08:30:15":        time.Date(2024, 1, 1, 8, 30, 15, 0, time.UTC),
		"2024-01-01T08:30:15":        time.Date(2024, 1, 1, 8, 30, 15, 0, time.UTC),
		"2024-01-01T08:30:15+02:00":  time.Date(2024, 1, 1, 6, 30, 15, 0, time.UTC),
		"2024-01-01T08:30:15.5Z":     time.Date(2024, 1, 1, 8, 30, 15, 500_000_000, time.UTC),
		"2024-1-5":                   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		"2024-01-05 10:00:00 +02:00": time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC),
		"2024-01-05t10:00:00Z":       time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ParseDate(in)
		if err != nil {
			t.Errorf("ParseDate(%q): %v", in, err)
			continue
		}
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Errorf("ParseDate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParse_YAMLTimestampForms(t *testing.T) {
	cases := map[string]time.Time{
		"2024-1-5":                     time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		"2024-01-05 10:00:00 +02:00":   time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC),
		"2024-01-05t10:00:00Z":         time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC),
		"2024-01-05T10:00:00.25+01:00": time.Date(2024, 1, 5, 9, 0, 0, 250_000_000, time.UTC),
		`"2024-01-05"`:                 time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		p, err := testParser().Parse("dated.md", []byte("---\ndate: "+in+"\nmodifiedDate: "+in+"\n---\n"))
		if err != nil {
			t.Errorf("date %s: %v", in, err)
			continue
		}
		if !p.Date.Equal(want) || p.Date.Location() != time.UTC {
			t.Errorf("date %s = %v, want %v", in, p.Date, want)
		}
		if p.ModifiedDate == nil || !p.ModifiedDate.Equal(want) {
			t.Errorf("modifiedDate %s = %v, want %v", in, p.ModifiedDate, want)
		}
	}
}

func TestParse_HorizontalRuleIsNotFrontmatter(t *testing.T) {
	input := "----\ntitle: not metadata\n---\nText after a rule.\n"
	p, err := testParser().Parse("rule.md", []byte(input))
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != DefaultTitle || p.Content != input {
		t.Errorf("title = %q, content = %q", p.Title, p.Content)
	}
}

func TestParse_CRLFDelimiters(t *testing.T) {
	p, err := testParser().Parse("crlf.md", []byte("---\r\ntitle: CRLF\r\n---\r\nBody\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "CRLF" || !strings.HasPrefix(p.Content, "Body") {
		t.Errorf("title = %q, content = %q", p.Title, p.Content)
	}
}
