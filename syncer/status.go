// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package syncer

import (
	"context"
	"fmt"
)

// Status is the node's sync status as seen by the syncer. ProgressHeight
// is only set while the node is still syncing
type Status struct {
	Synced         bool
	TipHeight      uint64
	ProgressHeight *uint64
}

// Status queries the node's blockchain state
func (s *Syncer) Status(ctx context.Context) (*Status, error) {
	state, err := s.config.Node.GetBlockchainState(ctx)
	if err != nil {
		return nil, fmt.Errorf("get blockchain state: %w", err)
	}
	if state.Sync.Synced {
		if state.Peak == nil {
			return nil, fmt.Errorf("%w: synced node reported no peak", ErrNodeUnsynced)
		}
		return &Status{
			Synced:    true,
			TipHeight: state.Peak.Height,
		}, nil
	}
	progress := state.Sync.SyncProgressHeight
	return &Status{
		Synced:         false,
		TipHeight:      state.Sync.SyncTipHeight,
		ProgressHeight: &progress,
	}, nil
}
