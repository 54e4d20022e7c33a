// Package protocol defines the newline-delimited JSON wire protocol between
// wallet clients and the atom engine server.
package protocol

import (
	"encoding/json"
	"errors"
)

// Command names recognized by the dispatcher. The first two are read-only;
// the remaining four mutate the book and are appended to the command log.
const (
	CmdInit                  = "init"
	CmdRequestSwapCommission = "request_swap_commission"
	CmdCreateOrder           = "create_order"
	CmdDeleteOrder           = "delete_order"
	CmdCreateTrade           = "create_trade"
	CmdUpdateTrade           = "update_trade"
)

// Reply names sent by the server. Every outgoing frame carries exactly one
// of these in its "reply" field.
const (
	ReplyInitSuccess                  = "init_success"
	ReplyRequestSwapCommissionSuccess = "request_swap_commission_success"
	ReplyCreateOrderSuccess           = "create_order_success"
	ReplyCreateOrder                  = "create_order"
	ReplyDeleteOrderSuccess           = "delete_order_success"
	ReplyDeleteOrder                  = "delete_order"
	ReplyCreateTradeSuccess           = "create_trade_success"
	ReplyCreateTrade                  = "create_trade"
	ReplyCreateTradeFailed            = "create_trade_failed"
	ReplyUpdateTradeSuccess           = "update_trade_success"
	ReplyUpdateTrade                  = "update_trade"
)

// ReasonOrderOutOfDate is the create_trade_failed reason for a missing
// order. The reply field carrying it is spelled "reasone" on the wire; the
// misspelling is part of the contract.
const ReasonOrderOutOfDate = "order out of date"

// Command is the decoded client command envelope. Fields beyond Command are
// populated according to the command name; the rest stay zero.
type Command struct {
	Command string          `json:"command"`
	Order   json.RawMessage `json:"order,omitempty"`
	ID      int64           `json:"id,omitempty"`
	OrderID int64           `json:"orderId,omitempty"`
	Address string          `json:"address,omitempty"`
	Trade   json.RawMessage `json:"trade,omitempty"`
	Curs    []Currency      `json:"curs,omitempty"`
}

// Currency groups the addresses a peer controls on one chain. Only the
// addresses are used; the grouping is informational.
type Currency struct {
	Addrs []string `json:"addrs"`
}

// ErrNotObject reports a frame whose top-level JSON value is not an object.
var ErrNotObject = errors.New("frame is not a JSON object")

// ParseCommand decodes one frame into a command envelope. Frames that are
// not JSON objects are rejected; the caller discards them.
func ParseCommand(line []byte) (*Command, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(line, &probe); err != nil || probe == nil {
		return nil, ErrNotObject
	}
	var cmd Command
	if err := json.Unmarshal(line, &cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}

// Encode marshals a reply and appends the LF terminator, producing one
// complete outgoing frame.
func Encode(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
