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

import "tanuki/internal/record"

// Filter parses q and returns the subset of assets it matches, in
// their original order. Callers needing the parsed Expr more than
// once (e.g. to evaluate against a streamed asset source) should call
// Parse directly instead.
func Filter(q string, assets []*record.Asset) ([]*record.Asset, error) {
	expr, err := Parse(q)
	if err != nil {
		return nil, err
	}
	var out []*record.Asset
	for _, a := range assets {
		if expr.Eval(a) {
			out = append(out, a)
		}
	}
	return out, nil
}
