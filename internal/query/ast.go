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

// Expr is a parsed query node, evaluated by structural recursion
// against an asset (§4.6 "Evaluation").
type Expr interface {
	Eval(a *record.Asset) bool
}

type notExpr struct{ inner Expr }

func (n notExpr) Eval(a *record.Asset) bool { return !n.inner.Eval(a) }

type andExpr struct{ l, r Expr }

func (n andExpr) Eval(a *record.Asset) bool { return n.l.Eval(a) && n.r.Eval(a) }

type orExpr struct{ l, r Expr }

func (n orExpr) Eval(a *record.Asset) bool { return n.l.Eval(a) || n.r.Eval(a) }

// predExpr is a leaf predicate: "name:arg0[:arg1]".
type predExpr struct {
	name string
	args []string
	pos  int
}

func (p predExpr) Eval(a *record.Asset) bool {
	fn, ok := predicates[p.name]
	if !ok {
		return false
	}
	return fn(a, p.args)
}
