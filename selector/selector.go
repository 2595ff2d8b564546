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

// Package selector is the draw producer: given (cycle, rolls, seed) it
// computes the block producer and endorsers for every slot in that cycle.
// It runs as an independent actor reached only through request/response
// channels — PoSFinalState holds a handle to it, never a back-pointer.
package selector

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/parallelproof/node/address"
	"github.com/parallelproof/node/consensus/timeslot"
	"github.com/parallelproof/node/rollset"
	"github.com/parallelproof/node/xhash"
)

type cycleDraws struct {
	draws map[timeslot.Slot]Selection
	err   error
	ready chan struct{}
}

type feedRequest struct {
	cycle uint64
	rolls *rollset.Set
	seed  xhash.Hash
	resp  chan error
}

type waitRequest struct {
	cycle uint64
	resp  chan error
}

type getRequest struct {
	slot timeslot.Slot
	resp chan getResponse
}

type getResponse struct {
	sel Selection
	ok  bool
}

// Selector is the draw actor. All of its fields are owned by its single
// worker goroutine except the LRU cache, which is safe for concurrent use.
type Selector struct {
	grid             *timeslot.Grid
	endorsementCount int

	feedCh chan feedRequest
	waitCh chan waitRequest
	getCh  chan getRequest

	group  *errgroup.Group
	cancel context.CancelFunc

	mu     sync.Mutex
	cycles *lru.Cache[uint64, *cycleDraws]
}

// New starts a selector actor. cacheSize bounds how many cycles' draws are
// kept at once; a handful more than cycle_history_length comfortably covers
// the look-ahead window feed_selector ever queries.
func New(grid *timeslot.Grid, endorsementCount, cacheSize int) (*Selector, error) {
	cache, err := lru.New[uint64, *cycleDraws](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("selector: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)
	s := &Selector{
		grid:             grid,
		endorsementCount: endorsementCount,
		feedCh:           make(chan feedRequest),
		waitCh:           make(chan waitRequest),
		getCh:            make(chan getRequest),
		group:            group,
		cancel:           cancel,
		cycles:           cache,
	}
	group.Go(func() error { return s.run(ctx) })
	return s, nil
}

func (s *Selector) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-s.feedCh:
			s.handleFeed(req)
		case req := <-s.waitCh:
			s.handleWait(req)
		case req := <-s.getCh:
			s.handleGet(req)
		}
	}
}

// handleFeed registers the cycle and kicks off draw computation in the
// background, acknowledging immediately: feed_cycle enqueues work and
// returns, it does not wait for draws to be ready.
func (s *Selector) handleFeed(req feedRequest) {
	s.mu.Lock()
	if _, exists := s.cycles.Get(req.cycle); exists {
		s.mu.Unlock()
		req.resp <- nil
		return
	}
	cd := &cycleDraws{ready: make(chan struct{})}
	s.cycles.Add(req.cycle, cd)
	s.mu.Unlock()

	req.resp <- nil

	s.group.Go(func() error {
		draws, err := computeDraws(s.grid, req.cycle, req.rolls, req.seed, s.endorsementCount)
		cd.draws, cd.err = draws, err
		close(cd.ready)
		return nil
	})
}

func (s *Selector) handleWait(req waitRequest) {
	s.mu.Lock()
	cd, ok := s.cycles.Get(req.cycle)
	s.mu.Unlock()
	if !ok {
		req.resp <- fmt.Errorf("selector: cycle %d was never fed", req.cycle)
		return
	}
	<-cd.ready
	req.resp <- cd.err
}

func (s *Selector) handleGet(req getRequest) {
	cycle := s.grid.Cycle(req.slot)
	s.mu.Lock()
	cd, ok := s.cycles.Get(cycle)
	s.mu.Unlock()
	if !ok {
		req.resp <- getResponse{}
		return
	}
	<-cd.ready
	sel, ok := cd.draws[req.slot]
	req.resp <- getResponse{sel: sel, ok: ok && cd.err == nil}
}

// FeedCycle implements pos.SelectorFeeder.
func (s *Selector) FeedCycle(cycle uint64, rolls *rollset.Set, seed xhash.Hash) error {
	resp := make(chan error, 1)
	s.feedCh <- feedRequest{cycle: cycle, rolls: rolls, seed: seed, resp: resp}
	return <-resp
}

// WaitForDraws implements pos.SelectorFeeder.
func (s *Selector) WaitForDraws(cycle uint64) error {
	resp := make(chan error, 1)
	s.waitCh <- waitRequest{cycle: cycle, resp: resp}
	return <-resp
}

// GetProducer returns the drawn block producer for slot.
func (s *Selector) GetProducer(slot timeslot.Slot) (address.Address, error) {
	sel, err := s.getSelection(slot)
	if err != nil {
		return address.Address{}, err
	}
	return sel.Producer, nil
}

// GetSelection returns the full drawn selection (producer + endorsers) for
// slot.
func (s *Selector) GetSelection(slot timeslot.Slot) (Selection, error) {
	return s.getSelection(slot)
}

func (s *Selector) getSelection(slot timeslot.Slot) (Selection, error) {
	resp := make(chan getResponse, 1)
	s.getCh <- getRequest{slot: slot, resp: resp}
	r := <-resp
	if !r.ok {
		return Selection{}, fmt.Errorf("selector: no draw computed for slot %s", slot)
	}
	return r.sel, nil
}

// Close stops the selector's worker loop and waits for any in-flight draw
// computations to finish.
func (s *Selector) Close() error {
	s.cancel()
	return s.group.Wait()
}
