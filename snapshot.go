// Copyright 2025 Blink Labs Software
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

package hydra

import (
	"log/slog"
	"sync"

	"github.com/blinklabs-io/gohydra/ledger"
	"github.com/blinklabs-io/gohydra/protocol"
)

// snapshotTracker keeps the most recent UTxO set streamed by the node
type snapshotTracker struct {
	logger *slog.Logger
	mutex  sync.RWMutex
	utxos  ledger.UTxOs
	number uint64
}

func newSnapshotTracker(logger *slog.Logger) *snapshotTracker {
	return &snapshotTracker{
		logger: logger,
	}
}

func (t *snapshotTracker) handleMessage(msg protocol.Message) error {
	var utxos ledger.UTxOs
	var number uint64
	switch m := msg.(type) {
	case *protocol.MsgGreetings:
		if m.SnapshotUtxo == nil {
			return nil
		}
		utxos = m.SnapshotUtxo
	case *protocol.MsgHeadIsOpen:
		utxos = m.Utxo
	case *protocol.MsgSnapshotConfirmed:
		utxos = m.Snapshot.Utxo
		number = m.Snapshot.Number
	case *protocol.MsgGetUTxOResponse:
		utxos = m.Utxo
	case *protocol.MsgHeadIsFinalized:
		utxos = m.Utxo
	default:
		return nil
	}
	if utxos == nil {
		utxos = ledger.UTxOs{}
	}
	t.mutex.Lock()
	t.utxos = utxos
	if number > 0 {
		t.number = number
	}
	t.mutex.Unlock()
	t.logger.Debug(
		"updated snapshot UTxO",
		"component", "hydra",
		"tag", msg.Tag(),
		"utxos", len(utxos),
	)
	return nil
}

// latest returns a copy of the most recent UTxO set, or nil if none was seen
func (t *snapshotTracker) latest() (ledger.UTxOs, uint64, error) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	utxos, err := t.utxos.Clone()
	if err != nil {
		return nil, 0, err
	}
	return utxos, t.number, nil
}
