package engine

import (
	"github.com/atomicswap/atomengine/internal/protocol"
	"github.com/atomicswap/atomengine/pkg/logging"
)

// Recover replays the command log into the store through the same primitives
// the dispatcher uses. It runs once at startup, before the listener accepts
// connections, and produces no replies and no re-appends. Address claims are
// connection-scoped and are not replayed.
//
// A missing or unreadable log file is not fatal: the server starts with an
// empty book. Lines that do not parse are skipped.
func Recover(store *Store, clog *CommandLog, log *logging.Logger) {
	log.Info("Initialization ...")

	err := clog.Replay(func(line []byte) {
		cmd, err := protocol.ParseCommand(line)
		if err != nil {
			log.Warn("skipping unparseable log line", "line", string(line))
			return
		}
		switch cmd.Command {
		case protocol.CmdCreateOrder:
			store.CreateOrder(cmd.Order)
		case protocol.CmdDeleteOrder:
			store.DeleteOrder(cmd.ID)
		case protocol.CmdCreateTrade:
			store.CreateTrade(cmd.OrderID, cmd.Address)
		case protocol.CmdUpdateTrade:
			store.UpdateTrade(cmd.Trade)
		}
	})
	if err != nil {
		log.Info("Load engine data failed", "error", err)
		return
	}

	log.Info("Load engine data success", "orders", store.OrderCount(), "trades", store.TradeCount())
}
