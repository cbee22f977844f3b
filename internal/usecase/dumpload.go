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

package usecase

import (
	"tanuki/internal/assetserr"
	"tanuki/internal/record"
)

// DefaultDumpBatch is the page size Dump reads through FetchAssetsPage
// when the caller doesn't specify one.
const DefaultDumpBatch = 500

// Dump streams every asset as a DumpRecord projection (§4.10),
// advancing a batched cursor over the repository rather than
// materializing the whole index at once. yield is called once per
// record, in scan order; returning an error from yield stops the dump
// and that error is returned from Dump.
func (e *Engine) Dump(batch int, yield func(record.DumpRecord) error) error {
	if batch <= 0 {
		batch = DefaultDumpBatch
	}
	cursor := ""
	for {
		assets, next, err := e.Records.FetchAssetsPage(cursor, batch)
		if err != nil {
			return assetserr.Wrap(assetserr.Backend, "dump: fetch page", err)
		}
		for _, a := range assets {
			d, err := record.ToDump(a)
			if err != nil {
				return assetserr.Wrap(assetserr.Invalid, "dump: project record", err)
			}
			if err := yield(d); err != nil {
				return err
			}
		}
		if next == "" {
			return nil
		}
		cursor = next
	}
}

// Load reconstructs records from dump projections and writes them
// directly via store_assets, preserving each asset's id rather than
// minting a new one (§4.10). It returns the number of records
// written.
func (e *Engine) Load(dumps []record.DumpRecord) (int, error) {
	assets := make([]*record.Asset, 0, len(dumps))
	for _, d := range dumps {
		a, err := record.FromDump(d)
		if err != nil {
			return 0, assetserr.Wrap(assetserr.Invalid, "load: decode record", err)
		}
		assets = append(assets, &a)
	}
	if err := e.Records.StoreAssets(assets); err != nil {
		return 0, assetserr.Wrap(assetserr.Backend, "load: store assets", err)
	}
	return len(assets), nil
}
