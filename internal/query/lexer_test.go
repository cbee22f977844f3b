/*
Copyright 2014 The Perkeep Authors

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

package query

import (
	"reflect"
	"testing"
)

func collect(in string) []token {
	l := lex(in)
	var toks []token
	for t := range l.tokens {
		toks = append(toks, t)
		if t.typ == tokenEOF || t.typ == tokenError {
			break
		}
	}
	return toks
}

var lexerTests = []struct {
	in   string
	want []token
}{
	{
		in: "tag:kitten",
		want: []token{
			{tokenPredicate, "tag", 0},
			{tokenColon, ":", 3},
			{tokenArg, "kitten", 4},
			{tokenEOF, "", 10},
		},
	},
	{
		in: "tag:kitten tag:puppy",
		want: []token{
			{tokenPredicate, "tag", 0},
			{tokenColon, ":", 3},
			{tokenArg, "kitten", 4},
			{tokenPredicate, "tag", 11},
			{tokenColon, ":", 14},
			{tokenArg, "puppy", 15},
			{tokenEOF, "", 20},
		},
	},
	{
		in: "tag:kitten and tag:puppy",
		want: []token{
			{tokenPredicate, "tag", 0},
			{tokenColon, ":", 3},
			{tokenArg, "kitten", 4},
			{tokenAnd, "and", 11},
			{tokenPredicate, "tag", 15},
			{tokenColon, ":", 18},
			{tokenArg, "puppy", 19},
			{tokenEOF, "", 24},
		},
	},
	{
		in: "-tag:kitten",
		want: []token{
			{tokenNot, "-", 0},
			{tokenPredicate, "tag", 1},
			{tokenColon, ":", 4},
			{tokenArg, "kitten", 5},
			{tokenEOF, "", 11},
		},
	},
	{
		in: `loc:city:"san francisco"`,
		want: []token{
			{tokenPredicate, "loc", 0},
			{tokenColon, ":", 3},
			{tokenArg, "city", 4},
			{tokenColon, ":", 8},
			{tokenArg, "san francisco", 10},
			{tokenEOF, "", 24},
		},
	},
	{
		in: "(tag:kitten or tag:fluffy) and is:image",
		want: []token{
			{tokenOpen, "(", 0},
			{tokenPredicate, "tag", 1},
			{tokenColon, ":", 4},
			{tokenArg, "kitten", 5},
			{tokenOr, "or", 12},
			{tokenPredicate, "tag", 15},
			{tokenColon, ":", 18},
			{tokenArg, "fluffy", 19},
			{tokenClose, ")", 25},
			{tokenAnd, "and", 27},
			{tokenPredicate, "is", 31},
			{tokenColon, ":", 33},
			{tokenArg, "image", 34},
			{tokenEOF, "", 39},
		},
	},
	{
		in: `loc:city:"unclosed`,
		want: []token{
			{tokenPredicate, "loc", 0},
			{tokenColon, ":", 3},
			{tokenArg, "city", 4},
			{tokenColon, ":", 8},
			{tokenError, "unclosed quote starting at 10", 10},
		},
	},
	{
		in: "tag",
		want: []token{
			{tokenError, `expected ':' after "tag"`, 0},
		},
	},
}

func TestLex(t *testing.T) {
	for _, tt := range lexerTests {
		got := collect(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("lex(%q) = %#v; want %#v", tt.in, got, tt.want)
		}
	}
}
