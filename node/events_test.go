// Copyright (C) 2019-2026 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package node

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-abciledger/data/txntest"
	"github.com/algorand/go-abciledger/test/partitiontest"
)

func TestEventsDeliverInOrder(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	ev := MakeEvents()
	var got []uint64
	ev.Subscribe(EventListenerFunc(func(e Event) { got = append(got, e.Height) }))
	for h := uint64(1); h <= 5; h++ {
		ev.Publish(Event{Type: BlockValid, Height: h})
	}
	ev.Close()
	require.Equal(t, []uint64{1, 2, 3, 4, 5}, got)

	ev.Publish(Event{Type: BlockValid, Height: 6})
	ev.Close()
	require.Len(t, got, 5)
}

func TestCommitPublishesBlockValid(t *testing.T) {
	partitiontest.PartitionTest(t)

	tn := makeTestNode(t, 1)
	tn.app.InitChain(tn.genesis(testChainID))

	ch := make(chan Event, 1)
	tn.events.Subscribe(EventListenerFunc(func(e Event) { ch <- e }))

	create := txntest.Create(t, txntest.NewAccount(), 3)
	tn.block(create)

	select {
	case e := <-ch:
		require.Equal(t, BlockValid, e.Type)
		require.Equal(t, "block_valid", e.Type.String())
		require.Equal(t, uint64(1), e.Height)
		require.Len(t, e.Transactions, 1)
		require.Equal(t, create.ID, e.Transactions[0].ID)
	case <-time.After(5 * time.Second):
		t.Fatal("no event after commit")
	}
}
