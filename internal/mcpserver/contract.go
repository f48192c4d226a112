package mcpserver

// ArticleFormatContract describes the Markdown article format that LLM
// consumers should follow when saving drafts.
const ArticleFormatContract = `# Article Format Contract

Drafts are saved through the ` + "`" + `save_draft` + "`" + ` tool. The server writes the
YAML frontmatter itself; you supply the fields below and a Markdown body.

## Fields

| Field | Required | Rules |
|---|---|---|
| title | yes | Plain text, no Markdown. Used for the URL slug. |
| content | yes | Markdown body. Do NOT include frontmatter. |
| meta_description | no | At most 160 characters; longer text is truncated. When omitted, the first paragraph of the body is used. |
| tags | no | Comma-separated; duplicates and blanks are dropped. |
| featured_image | no | A URL returned by ` + "`" + `upload_image` + "`" + `. |
| id | no | Pass the id of an existing article to overwrite it. |

## Body rules

1. Start with a single ` + "`" + `# Title` + "`" + ` heading matching the title.
2. Follow with a short introductory paragraph; it becomes the default meta description.
3. Use ` + "`" + `##` + "`" + ` and ` + "`" + `###` + "`" + ` for sections. Do not skip heading levels.
4. Use standard Markdown (GitHub flavoured tables and task lists are rendered).
5. Raw HTML is dropped from previews; prefer Markdown equivalents.
6. Encoding is UTF-8.

## Stored file

For reference, each article is stored as:

` + "```" + `markdown
---
id: 3f2c7a4e-...
owner: 9b1d...
status: draft
title: Getting Started with Go Generics
meta_description: A practical tour of type parameters in Go.
tags:
  - go
  - generics
featured_image: /api/images/1c0e....png
created_at: 2025-01-20T10:00:00Z
---

# Getting Started with Go Generics

A practical tour of type parameters in Go.

## Why generics
...
` + "```" + `

Articles are saved as drafts only; publishing happens in the article wizard.
`
