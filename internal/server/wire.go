package server

import (
	"github.com/atomicswap/atomengine/internal/engine"
)

// Server-to-client reply shapes. Every frame carries a "reply" field naming
// one of the protocol reply values; the rest of the shape depends on it.

// initReply answers an init command with the full order book and the trades
// relevant to the addresses announced in that command. Commissions is
// vestigial and always empty on the wire.
type initReply struct {
	Reply       string          `json:"reply"`
	IsActual    bool            `json:"isActual"`
	Orders      []*engine.Order `json:"orders"`
	Trades      []*engine.Trade `json:"trades"`
	Commissions []interface{}   `json:"commissions"`
}

// commissionReply answers request_swap_commission.
type commissionReply struct {
	Reply       string        `json:"reply"`
	Commissions []interface{} `json:"commissions"`
}

// orderReply carries a full order, for create_order_success and the
// create_order broadcast.
type orderReply struct {
	Reply string        `json:"reply"`
	Order *engine.Order `json:"order"`
}

// idReply carries an order id, for delete_order_success and the delete_order
// broadcast.
type idReply struct {
	Reply string `json:"reply"`
	ID    int64  `json:"id"`
}

// tradeReply carries a full trade, for create_trade_success, create_trade,
// and update_trade.
type tradeReply struct {
	Reply string        `json:"reply"`
	Trade *engine.Trade `json:"trade"`
}

// failReply is the create_trade_failed frame. The misspelled "reasone" field
// is part of the wire contract.
type failReply struct {
	Reply   string `json:"reply"`
	Reasone string `json:"reasone"`
}

// simpleReply is a bare acknowledgment, for update_trade_success.
type simpleReply struct {
	Reply string `json:"reply"`
}

// emptyCommissions marshals as [] rather than null.
func emptyCommissions() []interface{} {
	return []interface{}{}
}
