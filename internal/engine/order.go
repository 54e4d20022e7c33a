// Package engine implements the order/trade coordination core: the in-memory
// book of open orders and in-flight trades, the append-only command log, and
// the recovery driver that rebuilds the book from it.
package engine

import (
	"encoding/json"
)

// AddressField is the order payload field naming the maker's payout address.
// The trailing underscore is part of the wire contract.
const AddressField = "getAddress_"

// Order is an open offer to swap one currency for another. The payload sent
// by the creator (amounts, currencies, counter-address) is kept verbatim and
// redistributed to peers with the server-assigned id injected. Orders are
// never mutated after creation.
type Order struct {
	ID      int64
	Address string

	fields map[string]json.RawMessage
}

// NewOrder builds an order from the raw payload of a create_order command.
// A missing or non-object payload yields an order with no fields, matching
// the permissive decoding of the original protocol.
func NewOrder(id int64, payload []byte) *Order {
	var fields map[string]json.RawMessage
	if len(payload) == 0 || json.Unmarshal(payload, &fields) != nil || fields == nil {
		fields = map[string]json.RawMessage{}
	}

	var address string
	if raw, ok := fields[AddressField]; ok {
		// Non-string values leave the address empty.
		_ = json.Unmarshal(raw, &address)
	}

	return &Order{ID: id, Address: address, fields: fields}
}

// MarshalJSON emits the creator's payload with the server-assigned id.
func (o *Order) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(o.fields)+1)
	for k, v := range o.fields {
		out[k] = v
	}
	id, err := json.Marshal(o.ID)
	if err != nil {
		return nil, err
	}
	out["id"] = id
	return json.Marshal(out)
}

// Field returns the raw payload value for a key, for tests and callers that
// need to inspect the opaque payload.
func (o *Order) Field(key string) (json.RawMessage, bool) {
	v, ok := o.fields[key]
	return v, ok
}
