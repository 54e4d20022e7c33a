package engine

import "sort"

// Store is the in-memory book of open orders and in-flight trades. Order and
// trade ids are allocated from disjoint counters that pre-increment from 0
// and never reuse a value.
//
// The store is not safe for concurrent use; the server serializes every
// command around it.
type Store struct {
	orders map[int64]*Order
	trades map[int64]*Trade

	lastOrderID int64
	lastTradeID int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		orders: make(map[int64]*Order),
		trades: make(map[int64]*Trade),
	}
}

// CreateOrder allocates the next order id and stores a new order built from
// the raw create_order payload.
func (s *Store) CreateOrder(payload []byte) *Order {
	s.lastOrderID++
	order := NewOrder(s.lastOrderID, payload)
	s.orders[order.ID] = order
	return order
}

// DeleteOrder removes an order from the book. It reports whether the order
// was present.
func (s *Store) DeleteOrder(id int64) bool {
	if _, ok := s.orders[id]; !ok {
		return false
	}
	delete(s.orders, id)
	return true
}

// CreateTrade consumes the order and opens a trade with the next trade id.
// The trade takes ownership of the order. Returns nil when the order is not
// in the book.
func (s *Store) CreateTrade(orderID int64, initiatorAddress string) *Trade {
	order, ok := s.orders[orderID]
	if !ok {
		return nil
	}
	delete(s.orders, orderID)

	s.lastTradeID++
	trade := &Trade{
		ID:               s.lastTradeID,
		Order:            order,
		InitiatorAddress: initiatorAddress,
	}
	s.trades[trade.ID] = trade
	return trade
}

// UpdateTrade applies an update_trade payload to the trade it names: the
// seven opaque slots are overwritten and the commission flags are ORed in.
// Returns nil when no trade has the payload's id.
func (s *Store) UpdateTrade(payload []byte) *Trade {
	u := parseTradeUpdate(payload)
	trade, ok := s.trades[u.ID]
	if !ok {
		return nil
	}
	trade.apply(u)
	return trade
}

// Trade returns the trade with the given id, or nil.
func (s *Store) Trade(id int64) *Trade {
	return s.trades[id]
}

// Order returns the order with the given id, or nil.
func (s *Store) Order(id int64) *Order {
	return s.orders[id]
}

// OrderCount returns the number of open orders.
func (s *Store) OrderCount() int {
	return len(s.orders)
}

// TradeCount returns the number of trades.
func (s *Store) TradeCount() int {
	return len(s.trades)
}

// Snapshot returns the open orders and trades sorted by id. The slices are
// never nil so they marshal as JSON arrays.
func (s *Store) Snapshot() ([]*Order, []*Trade) {
	orders := make([]*Order, 0, len(s.orders))
	for _, o := range s.orders {
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })

	trades := make([]*Trade, 0, len(s.trades))
	for _, t := range s.trades {
		trades = append(trades, t)
	}
	sort.Slice(trades, func(i, j int) bool { return trades[i].ID < trades[j].ID })

	return orders, trades
}
