// Copyright 2026 The Parallelproof Authors
// This file is part of Parallelproof.
//
// Parallelproof is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Parallelproof is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Parallelproof. If not, see <http://www.gnu.org/licenses/>.

package pos

import (
	"encoding/binary"

	"github.com/parallelproof/node/address"
	"github.com/parallelproof/node/bitseq"
	"github.com/parallelproof/node/kv"
	"github.com/parallelproof/node/xhash"
)

// IsCycleHistoryKeyValueValid reports whether a raw cycle_history key/value
// pair is well-formed, used by FinalState.IsDBValid.
func IsCycleHistoryKeyValueValid(key, value []byte) bool {
	if len(key) < 9 {
		return false
	}
	switch key[8] {
	case kv.CycleSubkeyComplete:
		return len(value) == 1
	case kv.CycleSubkeyRNGSeed:
		_, err := bitseq.Decode(value)
		return err == nil
	case kv.CycleSubkeySnapshot:
		return len(value) == 1+xhash.Size
	case kv.CycleSubkeyRollCount:
		if len(key) != 9+address.Size {
			return false
		}
		_, n := binary.Uvarint(value)
		return n > 0
	case kv.CycleSubkeyProdStats:
		if len(key) != 9+address.Size+1 {
			return false
		}
		_, n := binary.Uvarint(value)
		return n > 0
	default:
		return false
	}
}

// IsDeferredCreditKeyValueValid reports whether a raw deferred_credits
// key/value pair is well-formed, used by FinalState.IsDBValid.
func IsDeferredCreditKeyValueValid(key, value []byte) bool {
	if _, _, err := decodeDeferredCreditKey(key); err != nil {
		return false
	}
	_, n := binary.Uvarint(value)
	return n > 0
}
