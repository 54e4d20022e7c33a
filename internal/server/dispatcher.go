package server

import (
	"github.com/atomicswap/atomengine/internal/engine"
	"github.com/atomicswap/atomengine/internal/protocol"
	"github.com/atomicswap/atomengine/pkg/logging"
)

// Dispatcher executes one framed command at a time against the store, the
// command log, and the registry. The caller holds the server's command mutex
// for the whole execution, so a command's mutation, log append, reply, and
// fan-out are observed as a single step.
type Dispatcher struct {
	store    *engine.Store
	clog     *engine.CommandLog
	registry *Registry
	log      *logging.Logger
}

// NewDispatcher creates a dispatcher over the given store, log, and registry.
func NewDispatcher(store *engine.Store, clog *engine.CommandLog, registry *Registry, log *logging.Logger) *Dispatcher {
	return &Dispatcher{store: store, clog: clog, registry: registry, log: log}
}

// Dispatch parses one complete frame and runs the command it names. Frames
// that are not JSON objects and unknown commands are dropped with a log
// line; neither produces a reply.
func (d *Dispatcher) Dispatch(sess *session, line []byte) {
	d.log.Info("command received", "conn", sess.id, "data", string(line))

	cmd, err := protocol.ParseCommand(line)
	if err != nil {
		d.log.Warn("discarding unparseable frame", "conn", sess.id, "line", string(line))
		return
	}

	switch cmd.Command {
	case protocol.CmdInit:
		d.handleInit(sess, cmd)
	case protocol.CmdRequestSwapCommission:
		d.handleRequestSwapCommission(sess, cmd)
	case protocol.CmdCreateOrder:
		d.handleCreateOrder(sess, cmd, line)
	case protocol.CmdDeleteOrder:
		d.handleDeleteOrder(sess, cmd, line)
	case protocol.CmdCreateTrade:
		d.handleCreateTrade(sess, cmd, line)
	case protocol.CmdUpdateTrade:
		d.handleUpdateTrade(sess, cmd, line)
	default:
		d.log.Warn("unknown command", "conn", sess.id, "command", cmd.Command)
	}
}

// handleInit claims every announced address for the connection and returns
// the full order book plus the trades whose maker or initiator address was
// announced in this init call. The filter deliberately uses only the
// addresses from this command, not the connection's cumulative claims.
func (d *Dispatcher) handleInit(sess *session, cmd *protocol.Command) {
	active := make(map[string]struct{})
	for _, cur := range cmd.Curs {
		for _, addr := range cur.Addrs {
			d.registry.Claim(addr, sess.id)
			active[addr] = struct{}{}
		}
	}

	orders, trades := d.store.Snapshot()
	relevant := make([]*engine.Trade, 0)
	for _, t := range trades {
		_, maker := active[t.MakerAddress()]
		_, taker := active[t.InitiatorAddress]
		if maker || taker {
			relevant = append(relevant, t)
		}
	}

	d.reply(sess.id, initReply{
		Reply:       protocol.ReplyInitSuccess,
		IsActual:    true,
		Orders:      orders,
		Trades:      relevant,
		Commissions: emptyCommissions(),
	})
}

// handleRequestSwapCommission claims the announced addresses like init does.
// The commissions list is vestigial and always empty.
func (d *Dispatcher) handleRequestSwapCommission(sess *session, cmd *protocol.Command) {
	for _, cur := range cmd.Curs {
		for _, addr := range cur.Addrs {
			d.registry.Claim(addr, sess.id)
		}
	}

	d.reply(sess.id, commissionReply{
		Reply:       protocol.ReplyRequestSwapCommissionSuccess,
		Commissions: emptyCommissions(),
	})
}

func (d *Dispatcher) handleCreateOrder(sess *session, cmd *protocol.Command, line []byte) {
	order := d.store.CreateOrder(cmd.Order)
	d.clog.Append(line)

	d.reply(sess.id, orderReply{Reply: protocol.ReplyCreateOrderSuccess, Order: order})
	d.broadcast(orderReply{Reply: protocol.ReplyCreateOrder, Order: order}, sess.id)

	d.registry.Claim(order.Address, sess.id)
}

// handleDeleteOrder acknowledges the sender even when the order id is
// unknown; only an actual removal is logged and broadcast.
func (d *Dispatcher) handleDeleteOrder(sess *session, cmd *protocol.Command, line []byte) {
	deleted := d.store.DeleteOrder(cmd.ID)

	d.reply(sess.id, idReply{Reply: protocol.ReplyDeleteOrderSuccess, ID: cmd.ID})

	if deleted {
		d.clog.Append(line)
		d.broadcast(idReply{Reply: protocol.ReplyDeleteOrder, ID: cmd.ID}, sess.id)
	}
}

// handleCreateTrade consumes the order and fans out three different frames:
// create_trade_success to the taker, create_trade to the maker, and
// delete_order to everyone else, for whom the order simply disappeared.
func (d *Dispatcher) handleCreateTrade(sess *session, cmd *protocol.Command, line []byte) {
	d.registry.Claim(cmd.Address, sess.id)

	trade := d.store.CreateTrade(cmd.OrderID, cmd.Address)
	if trade == nil {
		d.reply(sess.id, failReply{Reply: protocol.ReplyCreateTradeFailed, Reasone: protocol.ReasonOrderOutOfDate})
		return
	}
	d.clog.Append(line)

	d.reply(sess.id, tradeReply{Reply: protocol.ReplyCreateTradeSuccess, Trade: trade})

	makerConn := int64(-1)
	if id, ok := d.registry.Lookup(trade.MakerAddress()); ok {
		makerConn = id
		if id != sess.id {
			d.send(id, tradeReply{Reply: protocol.ReplyCreateTrade, Trade: trade})
		}
	}

	d.broadcast(idReply{Reply: protocol.ReplyDeleteOrder, ID: cmd.OrderID}, sess.id, makerConn)
}

// handleUpdateTrade acknowledges the sender unconditionally, then notifies
// the other party: when both trade addresses are mapped, the frame goes to
// whichever is not the sender (defaulting to the maker); when either is
// unmapped, the notification is silently dropped.
func (d *Dispatcher) handleUpdateTrade(sess *session, cmd *protocol.Command, line []byte) {
	trade := d.store.UpdateTrade(cmd.Trade)

	d.reply(sess.id, simpleReply{Reply: protocol.ReplyUpdateTradeSuccess})

	if trade == nil {
		return
	}
	d.clog.Append(line)

	makerID, makerOK := d.registry.Owner(trade.MakerAddress())
	takerID, takerOK := d.registry.Owner(trade.InitiatorAddress)
	if !makerOK || !takerOK {
		return
	}

	other := makerID
	if makerID == sess.id {
		other = takerID
	}
	d.send(other, tradeReply{Reply: protocol.ReplyUpdateTrade, Trade: trade})
}

// reply encodes a frame and sends it to the originating connection.
func (d *Dispatcher) reply(id int64, v interface{}) {
	d.send(id, v)
}

// send encodes a frame and delivers it to one connection.
func (d *Dispatcher) send(id int64, v interface{}) {
	frame, err := protocol.Encode(v)
	if err != nil {
		d.log.Error("failed to encode frame", "error", err)
		return
	}
	d.registry.Send(id, frame)
}

// broadcast encodes a frame and delivers it to every open connection except
// the given ids.
func (d *Dispatcher) broadcast(v interface{}, except ...int64) {
	frame, err := protocol.Encode(v)
	if err != nil {
		d.log.Error("failed to encode frame", "error", err)
		return
	}
	d.registry.Broadcast(frame, except...)
}
