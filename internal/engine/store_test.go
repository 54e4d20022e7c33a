package engine

import (
	"encoding/json"
	"testing"
)

func TestCreateOrderAssignsMonotonicIDs(t *testing.T) {
	s := NewStore()

	for i := int64(1); i <= 5; i++ {
		order := s.CreateOrder([]byte(`{"getAddress_":"addrA","amt":10}`))
		if order.ID != i {
			t.Errorf("order id = %d, want %d", order.ID, i)
		}
	}
	if s.OrderCount() != 5 {
		t.Errorf("OrderCount() = %d, want 5", s.OrderCount())
	}
}

func TestCreateOrderExtractsAddress(t *testing.T) {
	s := NewStore()

	order := s.CreateOrder([]byte(`{"getAddress_":"addrA","amt":10,"cur":"BTC"}`))
	if order.Address != "addrA" {
		t.Errorf("Address = %q, want %q", order.Address, "addrA")
	}

	// Non-string address values leave the address empty.
	order = s.CreateOrder([]byte(`{"getAddress_":42}`))
	if order.Address != "" {
		t.Errorf("Address = %q, want empty", order.Address)
	}
}

func TestCreateOrderMalformedPayload(t *testing.T) {
	s := NewStore()

	// Non-object payloads still allocate an order, with no fields.
	order := s.CreateOrder([]byte(`"not an object"`))
	if order == nil {
		t.Fatal("CreateOrder() returned nil")
	}
	if order.ID != 1 {
		t.Errorf("order id = %d, want 1", order.ID)
	}
	if order.Address != "" {
		t.Errorf("Address = %q, want empty", order.Address)
	}
}

func TestOrderMarshalInjectsID(t *testing.T) {
	s := NewStore()
	order := s.CreateOrder([]byte(`{"getAddress_":"addrA","amt":10}`))

	data, err := json.Marshal(order)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got["id"] != float64(1) {
		t.Errorf("id = %v, want 1", got["id"])
	}
	if got["getAddress_"] != "addrA" {
		t.Errorf("getAddress_ = %v, want addrA", got["getAddress_"])
	}
	if got["amt"] != float64(10) {
		t.Errorf("amt = %v, want 10", got["amt"])
	}
}

func TestDeleteOrder(t *testing.T) {
	s := NewStore()
	order := s.CreateOrder([]byte(`{"getAddress_":"addrA"}`))

	if !s.DeleteOrder(order.ID) {
		t.Error("DeleteOrder() = false, want true")
	}
	// Second delete of the same id finds nothing.
	if s.DeleteOrder(order.ID) {
		t.Error("DeleteOrder() second call = true, want false")
	}
	if s.DeleteOrder(999) {
		t.Error("DeleteOrder(999) = true, want false")
	}
}

func TestDeletedIDsAreNotReused(t *testing.T) {
	s := NewStore()

	first := s.CreateOrder([]byte(`{}`))
	s.DeleteOrder(first.ID)

	second := s.CreateOrder([]byte(`{}`))
	if second.ID != first.ID+1 {
		t.Errorf("order id after delete = %d, want %d", second.ID, first.ID+1)
	}
}

func TestCreateTradeConsumesOrder(t *testing.T) {
	s := NewStore()
	order := s.CreateOrder([]byte(`{"getAddress_":"addrA","amt":10}`))

	trade := s.CreateTrade(order.ID, "addrB")
	if trade == nil {
		t.Fatal("CreateTrade() returned nil")
	}
	if trade.ID != 1 {
		t.Errorf("trade id = %d, want 1", trade.ID)
	}
	if trade.Order != order {
		t.Error("trade does not own the consumed order")
	}
	if trade.InitiatorAddress != "addrB" {
		t.Errorf("InitiatorAddress = %q, want addrB", trade.InitiatorAddress)
	}
	if trade.MakerAddress() != "addrA" {
		t.Errorf("MakerAddress() = %q, want addrA", trade.MakerAddress())
	}

	// The order left the book.
	if s.Order(order.ID) != nil {
		t.Error("order still in the book after trade creation")
	}
	if s.OrderCount() != 0 {
		t.Errorf("OrderCount() = %d, want 0", s.OrderCount())
	}

	// A second take of the same order fails.
	if s.CreateTrade(order.ID, "addrC") != nil {
		t.Error("CreateTrade() on consumed order should return nil")
	}
}

func TestCreateTradeUnknownOrder(t *testing.T) {
	s := NewStore()
	if s.CreateTrade(7, "addrB") != nil {
		t.Error("CreateTrade(7) = trade, want nil")
	}
}

func TestOrderAndTradeCountersAreDisjoint(t *testing.T) {
	s := NewStore()

	o1 := s.CreateOrder([]byte(`{}`))
	o2 := s.CreateOrder([]byte(`{}`))
	t1 := s.CreateTrade(o1.ID, "addrB")
	t2 := s.CreateTrade(o2.ID, "addrC")

	if t1.ID != 1 || t2.ID != 2 {
		t.Errorf("trade ids = %d, %d, want 1, 2", t1.ID, t2.ID)
	}

	o3 := s.CreateOrder([]byte(`{}`))
	if o3.ID != 3 {
		t.Errorf("order id = %d, want 3", o3.ID)
	}
}

func TestUpdateTradeOverwritesSlots(t *testing.T) {
	s := NewStore()
	order := s.CreateOrder([]byte(`{"getAddress_":"addrA"}`))
	trade := s.CreateTrade(order.ID, "addrB")

	got := s.UpdateTrade([]byte(`{
		"id": 1,
		"secretHash": "h1",
		"contractInitiator": "ci",
		"contractParticipant": "cp",
		"initiatorContractTransaction": "ict",
		"participantContractTransaction": "pct",
		"initiatorRedemptionTransaction": "irt",
		"participantRedemptionTransaction": "prt"
	}`))
	if got == nil {
		t.Fatal("UpdateTrade() returned nil")
	}
	if got != trade {
		t.Error("UpdateTrade() returned a different trade")
	}
	if trade.SecretHash != "h1" || trade.ContractInitiator != "ci" || trade.ContractParticipant != "cp" {
		t.Errorf("contract slots = %q, %q, %q", trade.SecretHash, trade.ContractInitiator, trade.ContractParticipant)
	}
	if trade.InitiatorContractTransaction != "ict" || trade.ParticipantContractTransaction != "pct" {
		t.Errorf("contract txs = %q, %q", trade.InitiatorContractTransaction, trade.ParticipantContractTransaction)
	}
	if trade.InitiatorRedemptionTransaction != "irt" || trade.ParticipantRedemptionTransaction != "prt" {
		t.Errorf("redemption txs = %q, %q", trade.InitiatorRedemptionTransaction, trade.ParticipantRedemptionTransaction)
	}

	// A later update with missing slots clears them; the slots are opaque
	// and always overwritten wholesale.
	s.UpdateTrade([]byte(`{"id": 1, "secretHash": "h2"}`))
	if trade.SecretHash != "h2" {
		t.Errorf("SecretHash = %q, want h2", trade.SecretHash)
	}
	if trade.ContractInitiator != "" {
		t.Errorf("ContractInitiator = %q, want empty", trade.ContractInitiator)
	}
}

func TestUpdateTradeCommissionFlagsAreMonotonic(t *testing.T) {
	s := NewStore()
	order := s.CreateOrder([]byte(`{"getAddress_":"addrA"}`))
	s.CreateTrade(order.ID, "addrB")

	trade := s.UpdateTrade([]byte(`{"id":1,"commissionInitiatorPaid":true}`))
	if !trade.InitiatorCommissionPaid {
		t.Error("InitiatorCommissionPaid = false, want true")
	}
	if trade.ParticipantCommissionPaid {
		t.Error("ParticipantCommissionPaid = true, want false")
	}

	// A later false never reverts the flag.
	trade = s.UpdateTrade([]byte(`{"id":1,"commissionInitiatorPaid":false,"commissionParticipantPaid":true}`))
	if !trade.InitiatorCommissionPaid {
		t.Error("InitiatorCommissionPaid reverted to false")
	}
	if !trade.ParticipantCommissionPaid {
		t.Error("ParticipantCommissionPaid = false, want true")
	}

	trade = s.UpdateTrade([]byte(`{"id":1}`))
	if !trade.InitiatorCommissionPaid || !trade.ParticipantCommissionPaid {
		t.Error("commission flags reverted by an update omitting them")
	}
}

func TestUpdateTradeUnknownID(t *testing.T) {
	s := NewStore()
	if s.UpdateTrade([]byte(`{"id":42,"secretHash":"h"}`)) != nil {
		t.Error("UpdateTrade(unknown id) should return nil")
	}
	if s.UpdateTrade([]byte(`not json`)) != nil {
		t.Error("UpdateTrade(malformed) should return nil")
	}
}

func TestSnapshotSortedByID(t *testing.T) {
	s := NewStore()
	for i := 0; i < 10; i++ {
		s.CreateOrder([]byte(`{"getAddress_":"addrA"}`))
	}
	s.CreateTrade(3, "addrB")
	s.CreateTrade(7, "addrC")

	orders, trades := s.Snapshot()
	if len(orders) != 8 {
		t.Fatalf("len(orders) = %d, want 8", len(orders))
	}
	for i := 1; i < len(orders); i++ {
		if orders[i-1].ID >= orders[i].ID {
			t.Fatalf("orders not sorted: %d before %d", orders[i-1].ID, orders[i].ID)
		}
	}
	if len(trades) != 2 {
		t.Fatalf("len(trades) = %d, want 2", len(trades))
	}
	if trades[0].ID != 1 || trades[1].ID != 2 {
		t.Errorf("trade ids = %d, %d, want 1, 2", trades[0].ID, trades[1].ID)
	}
}

func TestSnapshotEmptyStoreMarshalsAsArrays(t *testing.T) {
	s := NewStore()
	orders, trades := s.Snapshot()

	data, err := json.Marshal(orders)
	if err != nil {
		t.Fatalf("Marshal(orders) error = %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("orders marshal = %s, want []", data)
	}

	data, err = json.Marshal(trades)
	if err != nil {
		t.Fatalf("Marshal(trades) error = %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("trades marshal = %s, want []", data)
	}
}
