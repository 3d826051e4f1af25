package server

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"asciiarena/pkg/protocol"
)

// Transport owns the server's two listening sockets and every open
// connection. It is the only thing other goroutines touch directly; all
// of its methods are safe for concurrent use. It never reaches into game
// state — it only turns socket activity into Events on the queue handed
// to it at construction, and accepts outbound sends keyed by endpoint id.
type Transport struct {
	queue   *EventQueue
	metrics *Metrics

	tcpListener net.Listener
	udpConn     *net.UDPConn

	mu    sync.Mutex
	conns map[ReliableEndpointID]net.Conn
	addrs map[FastEndpointID]*net.UDPAddr
}

// NewTransport binds the reliable (TCP) and unreliable (UDP) listeners on
// 0.0.0.0 at the given ports. A non-nil error means a bind failure; the
// caller should treat that as fatal per the configuration-error policy.
func NewTransport(queue *EventQueue, metrics *Metrics, tcpPort, udpPort int) (*Transport, error) {
	tcpListener, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", tcpPort))
	if err != nil {
		return nil, fmt.Errorf("server: listen tcp %d: %w", tcpPort, err)
	}

	udpAddr := &net.UDPAddr{IP: net.IPv4zero, Port: udpPort}
	udpConn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		tcpListener.Close()
		return nil, fmt.Errorf("server: listen udp %d: %w", udpPort, err)
	}

	return &Transport{
		queue:       queue,
		metrics:     metrics,
		tcpListener: tcpListener,
		udpConn:     udpConn,
		conns:       make(map[ReliableEndpointID]net.Conn),
		addrs:       make(map[FastEndpointID]*net.UDPAddr),
	}, nil
}

// TCPAddr returns the address the reliable listener is bound to, useful
// when the configured port was 0 and the OS chose one.
func (t *Transport) TCPAddr() net.Addr {
	return t.tcpListener.Addr()
}

// UDPAddr returns the address the unreliable socket is bound to.
func (t *Transport) UDPAddr() net.Addr {
	return t.udpConn.LocalAddr()
}

// Close shuts down both listening sockets and every open connection.
func (t *Transport) Close() {
	t.tcpListener.Close()
	t.udpConn.Close()

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.conns {
		c.Close()
	}
}

// AcceptLoop accepts reliable connections until ctx is cancelled or the
// listener is closed.
func (t *Transport) AcceptLoop(ctx context.Context) {
	for {
		conn, err := t.tcpListener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				logrus.WithError(err).Warn("server: tcp accept failed")
				return
			}
		}
		t.handleConn(conn)
	}
}

func (t *Transport) handleConn(conn net.Conn) {
	id := ReliableEndpointID(conn.RemoteAddr().String())

	t.mu.Lock()
	t.conns[id] = conn
	t.mu.Unlock()

	t.metrics.connectionsActive.Inc()
	t.metrics.connectionsTotal.WithLabelValues("accepted").Inc()
	logrus.WithField("endpoint", id).Debug("server: reliable endpoint connected")

	go func() {
		defer func() {
			t.mu.Lock()
			delete(t.conns, id)
			t.mu.Unlock()
			conn.Close()
			t.metrics.connectionsActive.Dec()
			t.metrics.connectionsTotal.WithLabelValues("closed").Inc()
			t.queue.Push(Event{
				Kind:     EventNetworkRemoved,
				Endpoint: EndpointRef{Channel: ChannelReliable, Reliable: id},
			})
		}()

		for {
			msg, err := protocol.ReadClientFrame(conn)
			if err != nil {
				logrus.WithField("endpoint", id).WithError(err).Debug("server: reliable endpoint read ended")
				return
			}
			t.queue.Push(Event{
				Kind:     EventNetworkMessage,
				Endpoint: EndpointRef{Channel: ChannelReliable, Reliable: id},
				Message:  msg,
			})
		}
	}()
}

// ReadUDPLoop reads datagrams until ctx is cancelled or the socket is
// closed. Each datagram's source address becomes its FastEndpointID.
func (t *Transport) ReadUDPLoop(ctx context.Context) {
	buf := make([]byte, 65535)
	for {
		n, addr, err := t.udpConn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				logrus.WithError(err).Debug("server: udp read ended")
				return
			}
		}

		id := FastEndpointID(addr.String())
		t.mu.Lock()
		t.addrs[id] = addr
		t.mu.Unlock()

		msg, err := protocol.DecodeClient(buf[:n])
		if err != nil {
			logrus.WithField("endpoint", id).WithError(err).Debug("server: malformed datagram dropped")
			continue
		}
		t.queue.Push(Event{
			Kind:     EventNetworkMessage,
			Endpoint: EndpointRef{Channel: ChannelFast, Fast: id},
			Message:  msg,
		})
	}
}

// SendReliable writes msg to a single reliable endpoint. It returns an
// error if the endpoint is unknown or the write fails; callers should
// treat a failure as grounds to drop the endpoint, per the reliable-send
// error policy.
func (t *Transport) SendReliable(id ReliableEndpointID, msg ServerMessage) error {
	t.mu.Lock()
	conn, ok := t.conns[id]
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("server: unknown reliable endpoint %q", id)
	}
	return protocol.WriteServerFrame(conn, msg)
}

// BroadcastReliable sends msg to every listed reliable endpoint,
// swallowing per-endpoint failures individually (one bad connection must
// never block delivery to the rest of the room).
func (t *Transport) BroadcastReliable(ids []ReliableEndpointID, msg ServerMessage) {
	for _, id := range ids {
		if err := t.SendReliable(id, msg); err != nil {
			logrus.WithField("endpoint", id).WithError(err).Debug("server: reliable broadcast send failed")
		}
	}
}

// SendFast writes msg as a single datagram to a fast endpoint. Failures
// are the caller's to swallow; the unreliable channel never drops a
// connection over a failed send.
func (t *Transport) SendFast(id FastEndpointID, msg ServerMessage) error {
	t.mu.Lock()
	addr, ok := t.addrs[id]
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("server: unknown fast endpoint %q", id)
	}
	payload, err := protocol.EncodeServer(msg)
	if err != nil {
		return err
	}
	_, err = t.udpConn.WriteToUDP(payload, addr)
	return err
}

// BroadcastFast sends msg as a datagram to every listed fast endpoint,
// swallowing individual failures.
func (t *Transport) BroadcastFast(ids []FastEndpointID, msg ServerMessage) {
	for _, id := range ids {
		if err := t.SendFast(id, msg); err != nil {
			logrus.WithField("endpoint", id).WithError(err).Debug("server: fast broadcast send failed")
		}
	}
}

// CloseReliable forcibly closes a reliable connection, e.g. after a
// version rejection. The connection's reader goroutine will observe the
// close and push the corresponding EventNetworkRemoved itself.
func (t *Transport) CloseReliable(id ReliableEndpointID) {
	t.mu.Lock()
	conn, ok := t.conns[id]
	t.mu.Unlock()
	if ok {
		conn.Close()
	}
}
