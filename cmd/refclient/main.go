// Command refclient is a minimal FIX initiator used to exercise
// cmd/gateway's FIX acceptor from the command line: logon, submit a new
// order, cancel, or request status, printing each inbound
// ExecutionReport/OrderCancelReject as it arrives. It plays the
// external "reference FIX client test harness" role SPEC_FULL.md's
// ambient stack calls for, grounded on cmd_teacher_ref/client/main.go's
// flag-per-subcommand CLI shape but reimplemented over a raw FIX
// session instead of HTTP+JSON, since the gateway speaks FIX on the
// wire, not REST.
package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marketsim/exchange-sim/internal/fix"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var addr, senderCompID, targetCompID string

	root := &cobra.Command{
		Use:   "refclient",
		Short: "FIX reference client for the exchange simulator gateway",
	}
	root.PersistentFlags().StringVar(&addr, "addr", "localhost:9001", "gateway FIX listener address")
	root.PersistentFlags().StringVar(&senderCompID, "sender-comp-id", "CLIENT", "our CompID (tag 49)")
	root.PersistentFlags().StringVar(&targetCompID, "target-comp-id", "EXCHANGE", "gateway's CompID (tag 56)")

	var symbol, side, ordType, clOrdID, origClOrdID string
	var qty, price int64

	submit := &cobra.Command{
		Use:   "submit",
		Short: "logon, submit a NewOrderSingle, and print the execution reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := dial(addr, senderCompID, targetCompID)
			if err != nil {
				return err
			}
			defer sess.Close()
			if clOrdID == "" {
				clOrdID = fmt.Sprintf("ORD%d", time.Now().UnixNano()%1_000_000)
			}
			if err := sess.newOrderSingle(clOrdID, symbol, side, ordType, qty, price); err != nil {
				return err
			}
			return sess.printUntilIdle()
		},
	}
	submit.Flags().StringVar(&symbol, "symbol", "AAPL", "stock symbol")
	submit.Flags().StringVar(&side, "side", "buy", "buy/sell/sell-short/sell-short-exempt")
	submit.Flags().StringVar(&ordType, "type", "limit", "market/limit/stop/stop-limit")
	submit.Flags().Int64Var(&qty, "qty", 100, "order quantity")
	submit.Flags().Int64Var(&price, "price", 15000, "order price in ticks")
	submit.Flags().StringVar(&clOrdID, "cl-ord-id", "", "client order id (generated if empty)")

	cancel := &cobra.Command{
		Use:   "cancel",
		Short: "logon and cancel a live order",
		RunE: func(cmd *cobra.Command, args []string) error {
			if origClOrdID == "" {
				return fmt.Errorf("refclient: --orig-cl-ord-id is required")
			}
			sess, err := dial(addr, senderCompID, targetCompID)
			if err != nil {
				return err
			}
			defer sess.Close()
			if clOrdID == "" {
				clOrdID = fmt.Sprintf("CXL%d", time.Now().UnixNano()%1_000_000)
			}
			if err := sess.cancelOrder(clOrdID, origClOrdID); err != nil {
				return err
			}
			return sess.printUntilIdle()
		},
	}
	cancel.Flags().StringVar(&origClOrdID, "orig-cl-ord-id", "", "ClOrdID of the order to cancel")
	cancel.Flags().StringVar(&clOrdID, "cl-ord-id", "", "this request's own ClOrdID (generated if empty)")

	status := &cobra.Command{
		Use:   "status",
		Short: "logon and request an order's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clOrdID == "" {
				return fmt.Errorf("refclient: --cl-ord-id is required")
			}
			sess, err := dial(addr, senderCompID, targetCompID)
			if err != nil {
				return err
			}
			defer sess.Close()
			if err := sess.statusRequest(clOrdID); err != nil {
				return err
			}
			return sess.printUntilIdle()
		},
	}
	status.Flags().StringVar(&clOrdID, "cl-ord-id", "", "ClOrdID to request status for")

	demo := &cobra.Command{
		Use:   "demo",
		Short: "logon, submit one order, and report what comes back",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := dial(addr, senderCompID, targetCompID)
			if err != nil {
				return err
			}
			defer sess.Close()
			id := fmt.Sprintf("DEMO%d", time.Now().UnixNano()%1_000_000)
			if err := sess.newOrderSingle(id, "AAPL", "buy", "limit", 100, 15000); err != nil {
				return err
			}
			return sess.printUntilIdle()
		},
	}

	root.AddCommand(submit, cancel, status, demo)
	return root
}

// fixSession is a bare-bones initiator: one TCP connection, a single
// outbound MsgSeqNum counter, and a fix.Reader for inbound reassembly.
// It has no resend/heartbeat logic (unlike internal/session.FIXSession)
// since a short-lived CLI tool has nothing to gap-fill or resend.
type fixSession struct {
	conn         net.Conn
	senderCompID string
	targetCompID string
	outSeq       uint64
	reader       *fix.Reader
}

func dial(addr, senderCompID, targetCompID string) (*fixSession, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("refclient: dial %s: %w", addr, err)
	}
	sess := &fixSession{
		conn:         conn,
		senderCompID: senderCompID,
		targetCompID: targetCompID,
		reader:       fix.NewReader(),
	}
	if err := sess.logon(); err != nil {
		conn.Close()
		return nil, err
	}
	return sess, nil
}

func (s *fixSession) Close() error {
	return s.conn.Close()
}

func (s *fixSession) send(msgType string, fields func(*fix.Encoder) error) error {
	region := make([]byte, 1024)
	enc, err := fix.Wrap(region, fix.BeginStringFIX42, msgType, s.senderCompID, s.targetCompID)
	if err != nil {
		return err
	}
	if err := fields(enc); err != nil {
		return err
	}
	s.outSeq++
	if err := enc.PrepareForSend(s.outSeq, time.Now().UnixMilli()); err != nil {
		return err
	}
	_, err = s.conn.Write(enc.Bytes())
	return err
}

func (s *fixSession) logon() error {
	return s.send(fix.MsgTypeLogon, func(enc *fix.Encoder) error {
		if err := enc.PutInt(fix.TagEncryptMethod, 0); err != nil {
			return err
		}
		return enc.PutInt(fix.TagHeartBtInt, 30)
	})
}

func (s *fixSession) newOrderSingle(clOrdID, symbol, side, ordType string, qty, price int64) error {
	return s.send(fix.MsgTypeNewOrderSingle, func(enc *fix.Encoder) error {
		if err := enc.PutString(fix.TagClOrdID, clOrdID); err != nil {
			return err
		}
		if err := enc.PutString(fix.TagSymbol, symbol); err != nil {
			return err
		}
		if err := enc.PutString(fix.TagSide, sideToFIX(side)); err != nil {
			return err
		}
		if err := enc.PutString(fix.TagOrdType, ordTypeToFIX(ordType)); err != nil {
			return err
		}
		if err := enc.PutInt(fix.TagOrderQty, qty); err != nil {
			return err
		}
		return enc.PutDecimal(fix.TagPrice, float64(price)/fix.PriceScale, fix.PriceDecimals)
	})
}

func (s *fixSession) cancelOrder(clOrdID, origClOrdID string) error {
	return s.send(fix.MsgTypeOrderCancelRequest, func(enc *fix.Encoder) error {
		if err := enc.PutString(fix.TagClOrdID, clOrdID); err != nil {
			return err
		}
		return enc.PutString(fix.TagOrigClOrdID, origClOrdID)
	})
}

func (s *fixSession) statusRequest(clOrdID string) error {
	return s.send(fix.MsgTypeOrderStatusRequest, func(enc *fix.Encoder) error {
		return enc.PutString(fix.TagClOrdID, clOrdID)
	})
}

// printUntilIdle reads and prints inbound messages until no new bytes
// arrive for one read timeout, which is good enough for a CLI tool that
// just wants to see what the gateway sent back for one request.
func (s *fixSession) printUntilIdle() error {
	buf := make([]byte, 4096)
	for {
		s.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.reader.AddData(buf[:n])
			for {
				msg, decErr := s.reader.ReadIncomingMessage()
				if decErr != nil {
					fmt.Fprintf(os.Stderr, "refclient: dropping unreadable message: %v\n", decErr)
					break
				}
				if msg == nil {
					break
				}
				printMessage(msg)
			}
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil
			}
			return err
		}
	}
}

func printMessage(msg *fix.Message) {
	switch msg.MsgType() {
	case fix.MsgTypeExecutionReport:
		ordStatus, _ := msg.GetString(fix.TagOrdStatus)
		clOrdID, _ := msg.GetString(fix.TagClOrdID)
		cumQty, _ := msg.GetInt(fix.TagCumQty)
		leavesQty, _ := msg.GetInt(fix.TagLeavesQty)
		lastQty, _ := msg.GetInt(fix.TagLastQty)
		lastPx, _ := msg.GetDecimal(fix.TagLastPx)
		fmt.Printf("ExecutionReport ClOrdID=%s OrdStatus=%s CumQty=%d LeavesQty=%d LastQty=%d LastPx=%.4f\n",
			clOrdID, ordStatus, cumQty, leavesQty, lastQty, lastPx)
	case fix.MsgTypeOrderCancelReject:
		clOrdID, _ := msg.GetString(fix.TagClOrdID)
		reason, _ := msg.GetString(fix.TagCxlRejReason)
		text, _ := msg.GetString(fix.TagText)
		fmt.Printf("OrderCancelReject ClOrdID=%s Reason=%s Text=%s\n", clOrdID, reason, text)
	case fix.MsgTypeLogon:
		fmt.Println("Logon acknowledged")
	case fix.MsgTypeReject:
		reason, _ := msg.GetString(fix.TagSessionRejectReason)
		text, _ := msg.GetString(fix.TagText)
		fmt.Printf("Reject Reason=%s Text=%s\n", reason, text)
	default:
		fmt.Printf("%s MsgSeqNum=%d\n", msg.MsgType(), msg.MsgSeqNum())
	}
}

func sideToFIX(s string) string {
	switch s {
	case "sell":
		return fix.SideSell
	case "sell-short":
		return fix.SideSellShort
	case "sell-short-exempt":
		return fix.SideSellShortExempt
	default:
		return fix.SideBuy
	}
}

func ordTypeToFIX(t string) string {
	switch t {
	case "market":
		return fix.OrdTypeMarket
	case "stop":
		return fix.OrdTypeStop
	case "stop-limit":
		return fix.OrdTypeStopLimit
	default:
		return fix.OrdTypeLimit
	}
}
