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

// Package usecase wires the collaborators (blobstore, repository,
// mediaprobe, thumbnail, geocode, query) into the operations of
// §4.3-§4.10: Import, Update, Replace, Edit, Search, FindPending, Dump
// and Load. It is the engine's single entry point: Perkeep pairs
// pkg/importer with pkg/search.Handler, and this package collapses that
// pairing into one collaborator-driven type per asset-management concern.
package usecase

import (
	"time"

	"tanuki/internal/location"
)

// OptionalTime distinguishes "field not mentioned" (the containing
// pointer is nil) from "field explicitly set to a value or cleared"
// (Value is non-nil or nil, respectively), matching §4.4's
// three-valued field semantics for datetime.
type OptionalTime struct {
	Value *time.Time
}

// LocationInput carries per-component merge instructions for
// §4.4's location field: a nil pointer means "leave this component
// untouched", a pointer to "" means "clear it", and a pointer to a
// non-empty string means "replace it".
type LocationInput struct {
	Label  *string
	City   *string
	Region *string
}

// HasAny reports whether any component was mentioned at all.
func (l *LocationInput) HasAny() bool {
	return l != nil && (l.Label != nil || l.City != nil || l.Region != nil)
}

// Apply merges this LocationInput onto base per §4.4's
// per-component rule, returning the merged Location.
func (l *LocationInput) Apply(base location.Location) location.Location {
	out := base
	if l == nil {
		return out
	}
	if l.Label != nil {
		out.Label = *l.Label
	}
	if l.City != nil {
		out.City = *l.City
	}
	if l.Region != nil {
		out.Region = *l.Region
	}
	return out
}

// AssetInput is the patch document accepted by Update (§4.4).
// Every field is optional: a nil pointer/slice means "unset, leave
// untouched." Tags uses a non-nil (possibly empty) slice to
// distinguish "replace with this set" from "don't touch tags", since
// an explicit empty list must clear all tags.
type AssetInput struct {
	Filename  *string
	MediaType *string
	Tags      *[]string
	Caption   *string
	Location  *LocationInput
	UserDate  *OptionalTime
}

// SortField names the field Search results are ordered by
// (§4.8).
type SortField int

const (
	SortByDate SortField = iota
	SortByIdentifier
	SortByFilename
	SortByMediaType
)

// SortOrder is ascending (default) or descending.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// SearchParams is the structured search input of §4.8.
type SearchParams struct {
	Tags      []string
	Locations []location.Location
	MediaType string
	Filename  string
	After     *time.Time
	Before    *time.Time

	SortField SortField
	SortOrder SortOrder

	// Count and Offset page the sorted result set (§8 scenario
	// 6); Count == 0 means "no limit".
	Offset int
	Count  int
}

// EditOp is one atomic per-asset operation applied by Edit
// (§4.9). The concrete types are unexported; callers build one via the
// TagAdd/TagRemove/LocationSet/CaptionSet/DateSet constructors and
// Edit type-switches over them.
type EditOp interface {
	editOp()
}

type tagAddOp struct{ tag string }
type tagRemoveOp struct{ tag string }
type locationSetOp struct{ loc location.Location }
type captionSetOp struct{ caption string }
type dateSetOp struct{ when time.Time }

func (tagAddOp) editOp()      {}
func (tagRemoveOp) editOp()   {}
func (locationSetOp) editOp() {}
func (captionSetOp) editOp()  {}
func (dateSetOp) editOp()     {}

// TagAdd adds t to an asset's tag set, a no-op if already present.
func TagAdd(t string) EditOp { return tagAddOp{tag: t} }

// TagRemove removes t from an asset's tag set, a no-op if absent.
func TagRemove(t string) EditOp { return tagRemoveOp{tag: t} }

// LocationSet replaces an asset's location wholesale.
func LocationSet(l location.Location) EditOp { return locationSetOp{loc: l} }

// CaptionSet replaces an asset's caption, re-running the caption
// parser (§4.5) to merge extracted tags/location.
func CaptionSet(c string) EditOp { return captionSetOp{caption: c} }

// DateSet sets an asset's user_date.
func DateSet(d time.Time) EditOp { return dateSetOp{when: d} }
