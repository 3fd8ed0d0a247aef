package mcpserver

const fence = "```"

// NoteFormat describes the notes shelfmark writes, so that LLM consumers
// can read and edit them without breaking the index.
const NoteFormat = `# shelfmark Note Format

shelfmark writes one Markdown note per looked-up title. Notes live under the
per-kind directories configured in the vault (for example Books/, Movies/,
Series/). The file name is the title with every character that is not a
letter, digit, space or hyphen removed, plus ` + "`.md`" + `.

## Book notes

` + fence + `markdown
---
title: Dune
author: Frank Herbert
year: 1965
genre: Science Fiction
description: Set on the desert planet Arrakis...
type: book
cover: http://books.google.com/...
---

# Dune

![Cover](http://books.google.com/...)

**Author:** [[Frank Herbert]]  
**Year:** [[1965]]  
**Genre:** [[Science Fiction]]  

## Description
Set on the desert planet Arrakis...

[[Recommendations]]
[[Library]]
` + fence + `

## Movie and series notes

` + fence + `markdown
---
title: Inception
year: 2010
director: Christopher Nolan
genre: Action, Science Fiction
description: Cobb, a skilled thief...
type: movie
cover: https://image.tmdb.org/t/p/w500/...
watched: false
---

# Inception

![Poster](https://image.tmdb.org/t/p/w500/...)

**Year:** [[2010]]  
**Director:** [[Christopher Nolan]]  
**Cast:** [[Leonardo DiCaprio]], [[Joseph Gordon-Levitt]]  
**Genre:** [[Action]], [[Science Fiction]]  

## Description
Cobb, a skilled thief...

### References

[[Recommendations]]
` + fence + `

Series use ` + "`type: tv`" + ` and label the director line **Creator**.

## Rules

1. Front matter keys appear in the order shown. ` + "`year`" + ` is an integer,
   or the string "Unknown year" when the release date is unknown.
2. The front matter ` + "`description`" + ` is cut to 500 characters with "..." appended.
   Book bodies repeat the cut text; movie and series bodies carry it in full.
3. People, years and genres are [[wikilinks]], so ` + "`get_backlinks`" + ` answers
   questions such as "which notes link to [[Frank Herbert]]".
4. Missing values are written as "Unknown author", "Unknown director" or
   "Unknown genre"; a missing movie description as "No description available.".
5. Only ` + "`watched`" + ` is meant to change after a note is written. Use the
   ` + "`mark_watched`" + ` tool rather than rewriting the file.
`
