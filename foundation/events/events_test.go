package events_test

import (
	"encoding/json"
	"testing"

	"github.com/aeroledger/aeroledger/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Events(t *testing.T) {
	t.Log("Given the need to fan ledger events out to subscribers.")
	{
		evts := events.New()

		ch1 := evts.Subscribe("one")
		ch2 := evts.Subscribe("two")

		if evts.Count() != 2 {
			t.Fatalf("\t%s\tShould have two subscribers, got %d.", failed, evts.Count())
		}
		t.Logf("\t%s\tShould have two subscribers.", success)

		evts.Publish(events.Ledger("ledger: AppendBlock: started"))

		for _, ch := range []<-chan events.Event{ch1, ch2} {
			e := <-ch
			if e.Kind != events.KindLedger || e.Message != "ledger: AppendBlock: started" {
				t.Logf("\t%s\tgot: %+v", failed, e)
				t.Fatalf("\t%s\tShould receive the ledger event.", failed)
			}
		}
		t.Logf("\t%s\tShould deliver the ledger event to every subscriber.", success)

		dropped, err := evts.Unsubscribe("one")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to unsubscribe: %s", failed, err)
		}
		if dropped != 0 {
			t.Fatalf("\t%s\tShould not have dropped events, got %d.", failed, dropped)
		}
		t.Logf("\t%s\tShould be able to unsubscribe.", success)

		if _, err := evts.Unsubscribe("one"); err == nil {
			t.Fatalf("\t%s\tShould not be able to unsubscribe twice.", failed)
		}
		t.Logf("\t%s\tShould not be able to unsubscribe twice.", success)

		if _, open := <-ch1; open {
			t.Fatalf("\t%s\tShould close the unsubscribed channel.", failed)
		}
		t.Logf("\t%s\tShould close the unsubscribed channel.", success)

		evts.Shutdown()

		if _, open := <-ch2; open {
			t.Fatalf("\t%s\tShould close all channels on shutdown.", failed)
		}
		if evts.Count() != 0 {
			t.Fatalf("\t%s\tShould have no subscribers after shutdown.", failed)
		}
		t.Logf("\t%s\tShould close all channels on shutdown.", success)
	}
}

func Test_BlockAppended(t *testing.T) {
	t.Log("Given the need to announce an appended block.")
	{
		evts := events.New()
		ch := evts.Subscribe("ws")

		evts.Publish(events.Appended(events.BlockAppended{
			Index:        2,
			Hash:         "0000abc",
			PreviousHash: "0000def",
			AircraftName: "Boeing 737",
			Nonce:        42,
		}))

		e := <-ch
		if e.Kind != events.KindBlockAppended || e.Block == nil {
			t.Fatalf("\t%s\tShould receive a block appended event: %+v", failed, e)
		}
		if e.Block.Index != 2 || e.Block.Hash != "0000abc" || e.Block.AircraftName != "Boeing 737" {
			t.Fatalf("\t%s\tShould carry the block details: %+v", failed, e.Block)
		}
		t.Logf("\t%s\tShould receive the block details.", success)

		data, err := json.Marshal(e)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to marshal the event: %s", failed, err)
		}

		var got struct {
			Kind  string `json:"kind"`
			Block struct {
				Index        uint64 `json:"index"`
				PreviousHash string `json:"previous_hash"`
			} `json:"block"`
		}
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("\t%s\tShould be able to unmarshal the event: %s", failed, err)
		}
		if got.Kind != "block_appended" || got.Block.Index != 2 || got.Block.PreviousHash != "0000def" {
			t.Logf("\t%s\tgot: %s", failed, data)
			t.Fatalf("\t%s\tShould use the documented wire names.", failed)
		}
		t.Logf("\t%s\tShould use the documented wire names.", success)
	}
}

func Test_SlowSubscriber(t *testing.T) {
	t.Log("Given a subscriber that never reads.")
	{
		evts := events.New()
		evts.Subscribe("slow")

		const extra = 10
		for i := 0; i < 256+extra; i++ {
			evts.Publish(events.Ledger("mining"))
		}
		t.Logf("\t%s\tShould not block publishing.", success)

		dropped, err := evts.Unsubscribe("slow")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to unsubscribe: %s", failed, err)
		}
		if dropped != extra {
			t.Fatalf("\t%s\tShould report %d dropped events, got %d.", failed, extra, dropped)
		}
		t.Logf("\t%s\tShould report the dropped events.", success)

		var nilEvts *events.Events
		nilEvts.Publish(events.Ledger("ignored"))
		t.Logf("\t%s\tShould ignore publishing on a nil value.", success)
	}
}
