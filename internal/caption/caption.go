/*
Copyright 2013 The Perkeep Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package caption extracts #tags and @location references from free
// text (§4.5). It is a hand-rolled scanner in the style of
// Perkeep's search lexer (pkg/search/lexer.go): a small rune-at-a-time
// reader with explicit state, rather than a regexp, since the grammar
// needs to track quoting and separator runs that a single regexp would
// make hard to read.
package caption

import (
	"strings"
	"unicode"

	"tanuki/internal/location"
)

// separators are the punctuation runes that, like whitespace, bound a
// tag or an unquoted location word (§4.5).
const separators = ".,;:()"

func isTagRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}

func isBoundary(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(separators, r)
}

// Result is the parsed caption: the tags found, in first-seen order
// after case-folding and de-duplication, and at most one location.
type Result struct {
	Tags     []string
	Location location.Location
	HasLoc   bool
}

// Parse scans caption for "#word" tags and a single "@word" or
// '@"quoted text"' location reference. A caption may contain at most
// one location; later '@' tokens are ignored once one has matched
// (§4.5).
func Parse(caption string) Result {
	var res Result
	seen := make(map[string]bool)
	runes := []rune(caption)
	n := len(runes)

	for i := 0; i < n; {
		switch runes[i] {
		case '#':
			i++
			start := i
			for i < n && isTagRune(runes[i]) {
				i++
			}
			if i > start {
				tag := strings.ToLower(string(runes[start:i]))
				if !seen[tag] {
					seen[tag] = true
					res.Tags = append(res.Tags, tag)
				}
			}
		case '@':
			i++
			if res.HasLoc {
				// Only the first location reference counts; skip
				// this token's text without recording it.
				i = skipLocationToken(runes, i)
				continue
			}
			var text string
			text, i = readLocationToken(runes, i)
			if text != "" {
				res.Location = location.Parse(text)
				res.HasLoc = true
			}
		default:
			i++
		}
	}
	return res
}

// readLocationToken consumes either a quoted "..." span or a single
// run of non-boundary runes, returning the text and the position just
// past it.
func readLocationToken(runes []rune, i int) (text string, next int) {
	n := len(runes)
	if i < n && runes[i] == '"' {
		i++
		start := i
		for i < n && runes[i] != '"' {
			i++
		}
		text = string(runes[start:i])
		if i < n {
			i++ // consume closing quote
		}
		return text, i
	}
	start := i
	for i < n && !isBoundary(runes[i]) {
		i++
	}
	return string(runes[start:i]), i
}

func skipLocationToken(runes []rune, i int) int {
	_, next := readLocationToken(runes, i)
	return next
}
