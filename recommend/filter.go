// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package recommend

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/gorse-io/cinerank/base/log"
	"github.com/gorse-io/cinerank/storage/items"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Filter keeps items for which a boolean expression holds, such as
// `item.YearOfRelease >= 2000`.
type Filter struct {
	program *vm.Program
}

// NewFilter compiles a filter expression. An empty expression keeps every item.
func NewFilter(expression string) (*Filter, error) {
	if expression == "" {
		return &Filter{}, nil
	}
	program, err := expr.Compile(expression, expr.Env(map[string]any{
		"item": items.Item{},
	}), expr.AsBool())
	if err != nil {
		return nil, errors.NewNotValid(err, "filter "+expression)
	}
	return &Filter{program: program}, nil
}

// Keep reports whether an item passes the filter.
func (f *Filter) Keep(item items.Item) bool {
	if f == nil || f.program == nil {
		return true
	}
	result, err := expr.Run(f.program, map[string]any{
		"item": item,
	})
	if err != nil {
		log.Logger().Error("evaluate filter", zap.String("item_id", item.ItemId), zap.Error(err))
		return false
	}
	return result.(bool)
}
