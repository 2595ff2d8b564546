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
	"fmt"

	"github.com/parallelproof/node/address"
	"github.com/parallelproof/node/consensus/timeslot"
	"github.com/parallelproof/node/kv"
)

// DeferredCreditsInRange returns every deferred credit targeting a slot in
// [start, end], inclusive.
func (p *PoSFinalState) DeferredCreditsInRange(start, end timeslot.Slot) (map[timeslot.Slot]map[address.Address]uint64, error) {
	out := map[timeslot.Slot]map[address.Address]uint64{}
	err := p.store.View(func(tx kv.Tx) error {
		return tx.ForPrefix(kv.DeferredCredits, nil, func(k, v []byte) (bool, error) {
			slot, addr, err := decodeDeferredCreditKey(k)
			if err != nil {
				return false, err
			}
			if slot.Compare(start) < 0 || slot.Compare(end) > 0 {
				return true, nil
			}
			amount, _ := binary.Uvarint(v)
			perAddr, ok := out[slot]
			if !ok {
				perAddr = map[address.Address]uint64{}
				out[slot] = perAddr
			}
			perAddr[addr] = amount
			return true, nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodeDeferredCreditKey(k []byte) (timeslot.Slot, address.Address, error) {
	period, n := binary.Uvarint(k)
	if n <= 0 || n+1+address.Size != len(k) {
		return timeslot.Slot{}, address.Address{}, fmt.Errorf("pos: malformed deferred-credit key")
	}
	thread := k[n]
	addr, ok := address.FromBytes(k[n+1:])
	if !ok {
		return timeslot.Slot{}, address.Address{}, fmt.Errorf("pos: malformed deferred-credit address")
	}
	return timeslot.Slot{Period: period, Thread: thread}, addr, nil
}
