/*
Copyright 2011 Google Inc.

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

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tanuki/internal/location"
	"tanuki/internal/magic"
	"tanuki/internal/query"
	"tanuki/internal/record"
	"tanuki/internal/usecase"
)

func init() {
	registerCommand("import", &importCmd{})
	registerCommand("update", &updateCmd{})
	registerCommand("replace", &replaceCmd{})
	registerCommand("edit", &editCmd{})
	registerCommand("search", &searchCmd{})
	registerCommand("count", &searchCmd{countOnly: true})
	registerCommand("query", &queryCmd{})
	registerCommand("dump", &dumpCmd{})
	registerCommand("load", &loadCmd{})
	registerCommand("tags", &aggregateCmd{kind: "tags"})
	registerCommand("locations", &aggregateCmd{kind: "locations"})
	registerCommand("years", &aggregateCmd{kind: "years"})
	registerCommand("pending", &pendingCmd{})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// guessMediaType sniffs a file's content, falling back to its
// extension, the same two-step lookup Perkeep's own uploader
// paths use. Callers use it only when no -mediatype hint was given.
func guessMediaType(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	hdr := make([]byte, 1024)
	n, _ := f.Read(hdr)
	if mt := magic.MIMEType(hdr[:n]); mt != "" {
		return mt
	}
	return magic.MIMETypeByExtension(filepath.Ext(path))
}

// importCmd stages and imports one or more files (§4.3).
type importCmd struct{}

func (*importCmd) Usage() {
	fmt.Fprintln(os.Stderr, "Usage: mediarepo import [-mediatype type] file...")
}

func (c *importCmd) RunCommand(a *app, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	mediaType := fs.String("mediatype", "", "override the sniffed media type")
	fs.Parse(args)

	if fs.NArg() == 0 {
		c.Usage()
		return fmt.Errorf("no files given")
	}
	for _, path := range fs.Args() {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		mt := *mediaType
		if mt == "" {
			mt = guessMediaType(path)
		}
		asset, err := a.engine.Import(context.Background(), path, filepath.Base(path), mt, info.ModTime())
		if err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}
		fmt.Printf("%s\t%s\n", asset.ID, asset.Filename)
	}
	return nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// updateCmd patches an existing asset's record (§4.4).
type updateCmd struct{}

func (*updateCmd) Usage() {
	fmt.Fprintln(os.Stderr, "Usage: mediarepo update -id ID [-filename name] [-mediatype type] [-tags a,b,c] [-caption text] [-city name] [-region name] [-label name] [-date RFC3339]")
}

func (c *updateCmd) RunCommand(a *app, args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	id := fs.String("id", "", "asset id")
	filename := fs.String("filename", "", "new filename")
	mediaType := fs.String("mediatype", "", "new media type")
	tags := fs.String("tags", "", "comma-separated replacement tag list (empty string clears all tags)")
	hasTags := fs.Bool("set-tags", false, "apply -tags even if empty (distinguishes clearing from not mentioning)")
	caption := fs.String("caption", "", "new caption")
	hasCaption := fs.Bool("set-caption", false, "apply -caption even if empty")
	label := fs.String("label", "", "location label component")
	city := fs.String("city", "", "location city component")
	region := fs.String("region", "", "location region component")
	date := fs.String("date", "", "user date, RFC3339")
	fs.Parse(args)

	if *id == "" {
		c.Usage()
		return fmt.Errorf("-id is required")
	}

	patch := usecase.AssetInput{}
	if *filename != "" {
		patch.Filename = filename
	}
	if *mediaType != "" {
		patch.MediaType = mediaType
	}
	if *hasTags {
		t := splitCSV(*tags)
		patch.Tags = &t
	}
	if *hasCaption {
		patch.Caption = caption
	}
	var loc usecase.LocationInput
	if *label != "" {
		loc.Label = label
	}
	if *city != "" {
		loc.City = city
	}
	if *region != "" {
		loc.Region = region
	}
	if loc.HasAny() {
		patch.Location = &loc
	}
	if *date != "" {
		t, err := time.Parse(time.RFC3339, *date)
		if err != nil {
			return fmt.Errorf("parsing -date: %w", err)
		}
		patch.UserDate = &usecase.OptionalTime{Value: &t}
	}

	asset, err := a.engine.Update(*id, patch)
	if err != nil {
		return err
	}
	return printJSON(asset)
}

// replaceCmd swaps an asset's underlying file (§3).
type replaceCmd struct{}

func (*replaceCmd) Usage() {
	fmt.Fprintln(os.Stderr, "Usage: mediarepo replace -id ID file")
}

func (c *replaceCmd) RunCommand(a *app, args []string) error {
	fs := flag.NewFlagSet("replace", flag.ExitOnError)
	id := fs.String("id", "", "asset id to replace")
	mediaType := fs.String("mediatype", "", "override the sniffed media type")
	fs.Parse(args)

	if *id == "" || fs.NArg() != 1 {
		c.Usage()
		return fmt.Errorf("-id and exactly one file are required")
	}
	path := fs.Arg(0)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	mt := *mediaType
	if mt == "" {
		mt = guessMediaType(path)
	}
	asset, err := a.engine.Replace(context.Background(), *id, path, filepath.Base(path), mt, info.ModTime())
	if err != nil {
		return err
	}
	return printJSON(asset)
}

// editCmd applies a batch of atomic ops across one or more assets
// (§4.9).
type editCmd struct{}

func (*editCmd) Usage() {
	fmt.Fprintln(os.Stderr, "Usage: mediarepo edit -ids id1,id2 [-tag-add t] [-tag-remove t] [-caption text] [-date RFC3339] [-label L] [-city C] [-region R]")
}

func (c *editCmd) RunCommand(a *app, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	ids := fs.String("ids", "", "comma-separated asset ids")
	tagAdd := fs.String("tag-add", "", "tag to add")
	tagRemove := fs.String("tag-remove", "", "tag to remove")
	caption := fs.String("caption", "", "replacement caption")
	hasCaption := fs.Bool("set-caption", false, "apply -caption even if empty")
	date := fs.String("date", "", "user date, RFC3339")
	label := fs.String("label", "", "location label component")
	city := fs.String("city", "", "location city component")
	region := fs.String("region", "", "location region component")
	fs.Parse(args)

	idList := splitCSV(*ids)
	if len(idList) == 0 {
		c.Usage()
		return fmt.Errorf("-ids is required")
	}

	var ops []usecase.EditOp
	if *tagAdd != "" {
		ops = append(ops, usecase.TagAdd(*tagAdd))
	}
	if *tagRemove != "" {
		ops = append(ops, usecase.TagRemove(*tagRemove))
	}
	if *hasCaption {
		ops = append(ops, usecase.CaptionSet(*caption))
	}
	if *label != "" || *city != "" || *region != "" {
		ops = append(ops, usecase.LocationSet(location.Location{Label: *label, City: *city, Region: *region}))
	}
	if *date != "" {
		t, err := time.Parse(time.RFC3339, *date)
		if err != nil {
			return fmt.Errorf("parsing -date: %w", err)
		}
		ops = append(ops, usecase.DateSet(t))
	}
	if len(ops) == 0 {
		c.Usage()
		return fmt.Errorf("at least one edit operation is required")
	}

	n, err := a.engine.Edit(idList, ops)
	if err != nil {
		return err
	}
	fmt.Printf("%d asset(s) modified\n", n)
	return nil
}

// searchCmd runs structured search (§4.8); count-only mode backs
// the "count" subcommand registration.
type searchCmd struct {
	countOnly bool
}

func (*searchCmd) Usage() {
	fmt.Fprintln(os.Stderr, "Usage: mediarepo search|count [-tags a,b] [-city name] [-mediatype type] [-filename name] [-after RFC3339] [-before RFC3339] [-sort date|id|filename|mediatype] [-desc] [-offset n] [-count n]")
}

func (c *searchCmd) RunCommand(a *app, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	tags := fs.String("tags", "", "comma-separated tags, all must match")
	noTags := fs.Bool("no-tags", false, "match only assets with no tags at all")
	city := fs.String("city", "", "location city to match")
	mediaType := fs.String("mediatype", "", "media type to match")
	filename := fs.String("filename", "", "filename to match")
	after := fs.String("after", "", "only assets on/after this RFC3339 instant")
	before := fs.String("before", "", "only assets strictly before this RFC3339 instant")
	sortField := fs.String("sort", "date", "sort field: date, id, filename, mediatype")
	desc := fs.Bool("desc", false, "sort descending")
	offset := fs.Int("offset", 0, "result offset")
	count := fs.Int("count", 0, "result limit, 0 = unlimited")
	fs.Parse(args)

	p := usecase.SearchParams{
		Tags:      splitCSV(*tags),
		MediaType: *mediaType,
		Filename:  *filename,
		Offset:    *offset,
		Count:     *count,
	}
	if *noTags {
		p.Tags = []string{""}
	}
	if *city != "" {
		p.Locations = []location.Location{{City: *city}}
	}
	if *after != "" {
		t, err := time.Parse(time.RFC3339, *after)
		if err != nil {
			return fmt.Errorf("parsing -after: %w", err)
		}
		p.After = &t
	}
	if *before != "" {
		t, err := time.Parse(time.RFC3339, *before)
		if err != nil {
			return fmt.Errorf("parsing -before: %w", err)
		}
		p.Before = &t
	}
	switch *sortField {
	case "id":
		p.SortField = usecase.SortByIdentifier
	case "filename":
		p.SortField = usecase.SortByFilename
	case "mediatype":
		p.SortField = usecase.SortByMediaType
	default:
		p.SortField = usecase.SortByDate
	}
	if *desc {
		p.SortOrder = usecase.Descending
	}

	if c.countOnly {
		n, err := a.engine.Count(p)
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	}

	assets, err := a.engine.Search(p)
	if err != nil {
		return err
	}
	for _, asset := range assets {
		if err := printJSON(asset); err != nil {
			return err
		}
	}
	return nil
}

// queryCmd evaluates the free-form boolean query language of §4.6
// over the full record set.
type queryCmd struct{}

func (*queryCmd) Usage() {
	fmt.Fprintln(os.Stderr, `Usage: mediarepo query 'tag:beach and -tag:private'`)
}

func (c *queryCmd) RunCommand(a *app, args []string) error {
	if len(args) != 1 {
		c.Usage()
		return fmt.Errorf("exactly one query string is required")
	}
	all, err := a.engine.Records.FetchAssets()
	if err != nil {
		return err
	}
	matched, err := query.Filter(args[0], all)
	if err != nil {
		return fmt.Errorf("parsing query: %w", err)
	}
	for _, asset := range matched {
		if err := printJSON(asset); err != nil {
			return err
		}
	}
	return nil
}

// dumpCmd streams every asset as newline-delimited JSON (§4.10).
type dumpCmd struct{}

func (*dumpCmd) Usage() {
	fmt.Fprintln(os.Stderr, "Usage: mediarepo dump [-out file] [-batch n]")
}

func (c *dumpCmd) RunCommand(a *app, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	out := fs.String("out", "", "output file, defaults to stdout")
	batch := fs.Int("batch", usecase.DefaultDumpBatch, "page size read per repository round trip")
	fs.Parse(args)

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	return a.engine.Dump(*batch, func(d record.DumpRecord) error {
		return enc.Encode(d)
	})
}

// loadCmd restores records from a dump's newline-delimited JSON (spec
// §4.10), preserving each asset's original id.
type loadCmd struct{}

func (*loadCmd) Usage() {
	fmt.Fprintln(os.Stderr, "Usage: mediarepo load [-in file]")
}

func (c *loadCmd) RunCommand(a *app, args []string) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	in := fs.String("in", "", "input file, defaults to stdin")
	fs.Parse(args)

	r := os.Stdin
	if *in != "" {
		f, err := os.Open(*in)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	var dumps []record.DumpRecord
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var d record.DumpRecord
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			return fmt.Errorf("decoding dump line: %w", err)
		}
		dumps = append(dumps, d)
	}
	if err := sc.Err(); err != nil {
		return err
	}

	n, err := a.engine.Load(dumps)
	if err != nil {
		return err
	}
	fmt.Printf("%d asset(s) loaded\n", n)
	return nil
}

// aggregateCmd prints one of the tags/locations/years reference-count
// aggregations (§4.2).
type aggregateCmd struct {
	kind string
}

func (c *aggregateCmd) Usage() {
	fmt.Fprintf(os.Stderr, "Usage: mediarepo %s\n", c.kind)
}

func (c *aggregateCmd) RunCommand(a *app, args []string) error {
	var (
		m   map[string]int
		err error
	)
	switch c.kind {
	case "tags":
		m, err = a.engine.GetAssetTags()
	case "locations":
		m, err = a.engine.GetLocationValues()
	case "years":
		m, err = a.engine.GetYears()
	}
	if err != nil {
		return err
	}
	return printJSON(m)
}

// pendingCmd lists newborn assets (spec's Newborn glossary entry).
type pendingCmd struct{}

func (*pendingCmd) Usage() {
	fmt.Fprintln(os.Stderr, "Usage: mediarepo pending [-after RFC3339]")
}

func (c *pendingCmd) RunCommand(a *app, args []string) error {
	fs := flag.NewFlagSet("pending", flag.ExitOnError)
	after := fs.String("after", "", "only assets imported on/after this RFC3339 instant")
	fs.Parse(args)

	var afterPtr *time.Time
	if *after != "" {
		t, err := time.Parse(time.RFC3339, *after)
		if err != nil {
			return fmt.Errorf("parsing -after: %w", err)
		}
		afterPtr = &t
	}

	assets, err := a.engine.FindPending(afterPtr)
	if err != nil {
		return err
	}
	for _, asset := range assets {
		if err := printJSON(asset); err != nil {
			return err
		}
	}
	return nil
}
