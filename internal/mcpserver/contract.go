package mcpserver

// ContentFormatContract describes the content file format the index reads.
const ContentFormatContract = `# Folio Content Format

Posts are Markdown (` + "`.md`" + `) or MDX (` + "`.mdx`" + `) files anywhere under the content
directory. Sub-directories are only for organisation; they do not change URLs.

## Structure

` + "```" + `markdown
---
title: Human-readable title          # default "Untitled"
description: One-line summary         # default ""
date: 2024-05-01                      # default: time of indexing
modifiedDate: 2024-05-03T10:00:00Z    # optional
slug: custom-slug                     # default: file name without extension
tags:                                 # optional list (a single string is accepted)
  - go
  - testing
featured: false
draft: false                          # drafts are never published
heroImage: /images/hero.png           # optional
---

Body in Markdown.
` + "```" + `

## Rules

1. The front-matter block must start on the first line with ` + "`---`" + ` and close with
   a line containing only ` + "`---`" + `. Without it the whole file is the body.
2. Dates accept RFC 3339, ` + "`YYYY-MM-DD`" + `, ` + "`YYYY-MM-DD HH:MM`" + ` and
   ` + "`YYYY-MM-DD HH:MM:SS`" + `. Values without a zone are UTC. A date that does
   not parse excludes the file from the index.
3. Tags are matched case-insensitively and listed in lowercase.
4. Unknown keys are ignored. A wrongly typed known key falls back to its default.
5. Reading time is derived from the body at 200 words per minute.
`
