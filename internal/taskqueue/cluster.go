package taskqueue

import (
	"encoding/gob"
	"net"
	"sync"

	"github.com/pkg/errors"
)

// MessageKind tags an active message crossing the cluster server:
// steal requests, task migrations, or termination-detection probes.
type MessageKind int

const (
	MsgStealRequest MessageKind = iota
	MsgTaskMigration
	MsgTerminationProbe
)

// Message is one active message exchanged between node servers.
type Message struct {
	Kind     MessageKind
	FromRank int
	Worker   int
	Task     Task
}

// ClusterServer is the one server thread per process: it services
// incoming active messages (steal requests, task migrations,
// termination-detection probes) via a progress callback, and is the
// only thread allowed to mutate remote-visible queue tails. This stays
// a plain stdlib net+encoding/gob server rather than reaching for an
// ecosystem RPC framework, since no RDMA/active-message transport
// fits a statically partitioned, single-cluster workload like this one.
type ClusterServer struct {
	// Handle is the progress callback: given the sender's rank and
	// the decoded Message, it returns a reply and whether one should
	// be sent back at all.
	Handle func(from int, m Message) (reply Message, ok bool)

	ln net.Listener
	wg sync.WaitGroup
}

// Listen starts accepting connections on addr. Each connection is
// served by its own goroutine decoding a stream of gob-encoded
// Messages until the peer disconnects.
func (s *ClusterServer) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "taskqueue: listen on %s", addr)
	}
	s.ln = ln
	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the bound address, useful when Listen was given ":0".
func (s *ClusterServer) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *ClusterServer) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.serve(conn)
	}
}

func (s *ClusterServer) serve(conn net.Conn) {
	defer conn.Close()
	dec := gob.NewDecoder(conn)
	enc := gob.NewEncoder(conn)
	for {
		var m Message
		if err := dec.Decode(&m); err != nil {
			return
		}
		reply, ok := s.Handle(m.FromRank, m)
		if !ok {
			continue
		}
		if err := enc.Encode(reply); err != nil {
			return
		}
	}
}

// Close stops accepting new connections and waits for the accept
// loop to exit. Connections already being served are left to close on
// EOF from their peer.
func (s *ClusterServer) Close() error {
	if s.ln == nil {
		return nil
	}
	err := s.ln.Close()
	s.wg.Wait()
	return err
}

// SendMessage dials addr, sends a single Message, and returns the
// peer's reply -- the steal-request/migration/termination-probe round
// trip.
func SendMessage(addr string, m Message) (Message, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return Message{}, errors.Wrapf(err, "taskqueue: dial %s", addr)
	}
	defer conn.Close()
	if err := gob.NewEncoder(conn).Encode(m); err != nil {
		return Message{}, errors.Wrap(err, "taskqueue: encode message")
	}
	var reply Message
	if err := gob.NewDecoder(conn).Decode(&reply); err != nil {
		return Message{}, errors.Wrap(err, "taskqueue: decode reply")
	}
	return reply, nil
}
