// Copyright 2026 gorse Project Authors
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


package logics

import (
	"time"

	"github.com/gorse-io/cinerank/storage/factors"
	"go.uber.org/atomic"
)

// Snapshot is a consistent view of the item catalog and the known users.
// A nil Catalog means the store had no item factors at load time.
type Snapshot struct {
	Catalog  *factors.Catalog
	UserIds  []string
	LoadedAt time.Time
}

// NumItems returns the number of items in the catalog.
func (s *Snapshot) NumItems() int {
	if s == nil {
		return 0
	}
	return s.Catalog.Len()
}

// NumUsers returns the number of known users.
func (s *Snapshot) NumUsers() int {
	if s == nil {
		return 0
	}
	return len(s.UserIds)
}

// SnapshotHolder publishes snapshots to concurrent readers. Readers keep the
// snapshot they loaded for the whole request, even if a newer one is stored.
type SnapshotHolder struct {
	snapshot atomic.Pointer[Snapshot]
}

// Load returns the current snapshot, or nil if none was stored.
func (h *SnapshotHolder) Load() *Snapshot {
	return h.snapshot.Load()
}

// Swap stores a snapshot and returns the previous one.
func (h *SnapshotHolder) Swap(snapshot *Snapshot) *Snapshot {
	return h.snapshot.Swap(snapshot)
}
