package engine

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/atomicswap/atomengine/pkg/logging"
)

func testLogger() *logging.Logger {
	return logging.New(&logging.Config{Level: "error", Output: io.Discard})
}

// snapshotJSON renders a store snapshot for value comparison.
func snapshotJSON(t *testing.T, s *Store) string {
	t.Helper()
	orders, trades := s.Snapshot()
	data, err := json.Marshal(struct {
		Orders []*Order `json:"orders"`
		Trades []*Trade `json:"trades"`
	}{orders, trades})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	return string(data)
}

func TestRecoverRebuildsState(t *testing.T) {
	tmpDir := t.TempDir()
	clog := NewCommandLog(tmpDir)

	// Drive a live store the way the dispatcher does: mutate, then append
	// the accepted command.
	live := NewStore()
	commands := []string{
		`{"command":"create_order","order":{"getAddress_":"addrA","amt":10,"cur":"BTC"}}`,
		`{"command":"create_order","order":{"getAddress_":"addrB","amt":20}}`,
		`{"command":"create_order","order":{"getAddress_":"addrC","amt":30}}`,
		`{"command":"delete_order","id":2}`,
		`{"command":"create_trade","orderId":1,"address":"addrT"}`,
		`{"command":"update_trade","trade":{"id":1,"secretHash":"h1","commissionInitiatorPaid":true}}`,
		`{"command":"update_trade","trade":{"id":1,"secretHash":"h2","commissionInitiatorPaid":false}}`,
	}
	for _, raw := range commands {
		cmd := []byte(raw)
		var env struct {
			Command string          `json:"command"`
			Order   json.RawMessage `json:"order"`
			ID      int64           `json:"id"`
			OrderID int64           `json:"orderId"`
			Address string          `json:"address"`
			Trade   json.RawMessage `json:"trade"`
		}
		if err := json.Unmarshal(cmd, &env); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		switch env.Command {
		case "create_order":
			live.CreateOrder(env.Order)
		case "delete_order":
			live.DeleteOrder(env.ID)
		case "create_trade":
			live.CreateTrade(env.OrderID, env.Address)
		case "update_trade":
			live.UpdateTrade(env.Trade)
		}
		clog.Append(cmd)
	}

	recovered := NewStore()
	Recover(recovered, clog, testLogger())

	if got, want := snapshotJSON(t, recovered), snapshotJSON(t, live); got != want {
		t.Errorf("recovered snapshot = %s, want %s", got, want)
	}

	// The commission flag survived the later false.
	trade := recovered.Trade(1)
	if trade == nil {
		t.Fatal("trade 1 missing after recovery")
	}
	if !trade.InitiatorCommissionPaid {
		t.Error("InitiatorCommissionPaid = false after recovery, want true")
	}
	if trade.SecretHash != "h2" {
		t.Errorf("SecretHash = %q, want h2", trade.SecretHash)
	}

	if recovered.OrderCount() != 1 {
		t.Errorf("OrderCount() = %d, want 1", recovered.OrderCount())
	}
	if recovered.Order(3) == nil {
		t.Error("order 3 missing after recovery")
	}
}

func TestRecoverResumesIDCounters(t *testing.T) {
	tmpDir := t.TempDir()
	clog := NewCommandLog(tmpDir)
	clog.Append([]byte(`{"command":"create_order","order":{"getAddress_":"addrA"}}`))
	clog.Append([]byte(`{"command":"create_order","order":{"getAddress_":"addrB"}}`))
	clog.Append([]byte(`{"command":"create_trade","orderId":2,"address":"addrT"}`))

	store := NewStore()
	Recover(store, clog, testLogger())

	order := store.CreateOrder([]byte(`{}`))
	if order.ID != 3 {
		t.Errorf("next order id = %d, want 3", order.ID)
	}
	trade := store.CreateTrade(1, "addrU")
	if trade == nil {
		t.Fatal("CreateTrade() returned nil")
	}
	if trade.ID != 2 {
		t.Errorf("next trade id = %d, want 2", trade.ID)
	}
}

func TestRecoverSkipsBadLines(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, LogFileName)
	content := `{"command":"create_order","order":{"getAddress_":"addrA"}}` + "\n" +
		"garbage line\n" +
		`[1,2,3]` + "\n" +
		`{"command":"create_order","order":{"getAddress_":"addrB"}}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	store := NewStore()
	Recover(store, NewCommandLog(tmpDir), testLogger())

	if store.OrderCount() != 2 {
		t.Errorf("OrderCount() = %d, want 2", store.OrderCount())
	}
	if store.Order(2) == nil || store.Order(2).Address != "addrB" {
		t.Error("order 2 not rebuilt from the line after the bad ones")
	}
}

func TestRecoverMissingFileIsFreshStart(t *testing.T) {
	store := NewStore()
	Recover(store, NewCommandLog(t.TempDir()), testLogger())

	if store.OrderCount() != 0 || store.TradeCount() != 0 {
		t.Error("fresh start should leave the store empty")
	}
	if order := store.CreateOrder([]byte(`{}`)); order.ID != 1 {
		t.Errorf("first order id = %d, want 1", order.ID)
	}
}
