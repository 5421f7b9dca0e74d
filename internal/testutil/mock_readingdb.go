// Package testutil provides testing utilities for the readingdb client.
package testutil

import (
	"bufio"
	"errors"
	"net"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/readingdb-client/pkg/wire"
)

// MockReadingDB is an in-process readingdb server speaking the framed protocol.
// Each query is answered with at most PageSize readings in [start, end].
type MockReadingDB struct {
	listener net.Listener
	pageSize int

	mu      sync.RWMutex
	streams map[uint64][]wire.Reading
	failing map[uint64]wire.Status
	garbled map[uint64]bool
	dropped map[uint64]bool
	delay   time.Duration
	conns   map[net.Conn]struct{}
	queries map[uint64]int
	closed  bool

	wg sync.WaitGroup

	// Tracking
	queryCount      atomic.Int64
	connectionCount atomic.Int64
	activeConns     atomic.Int64
	peakConns       atomic.Int64
}

// NewMockReadingDB starts a mock server on a random local port.
func NewMockReadingDB(pageSize int) (*MockReadingDB, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	m := &MockReadingDB{
		listener: ln,
		pageSize: pageSize,
		streams:  make(map[uint64][]wire.Reading),
		failing:  make(map[uint64]wire.Status),
		garbled:  make(map[uint64]bool),
		dropped:  make(map[uint64]bool),
		conns:    make(map[net.Conn]struct{}),
		queries:  make(map[uint64]int),
	}

	m.wg.Add(1)
	go m.acceptLoop()

	return m, nil
}

// Host returns the listening host.
func (m *MockReadingDB) Host() string {
	host, _, _ := net.SplitHostPort(m.listener.Addr().String())
	return host
}

// Port returns the listening port.
func (m *MockReadingDB) Port() int {
	_, port, _ := net.SplitHostPort(m.listener.Addr().String())
	p, _ := strconv.Atoi(port)
	return p
}

// Close stops the server and drops every open connection.
func (m *MockReadingDB) Close() {
	m.listener.Close()

	m.mu.Lock()
	m.closed = true
	for c := range m.conns {
		c.Close()
	}
	m.mu.Unlock()

	m.wg.Wait()
}

// SetStream replaces the readings of a stream. Readings are sorted by timestamp.
func (m *MockReadingDB) SetStream(id uint64, readings []wire.Reading) {
	sorted := append([]wire.Reading(nil), readings...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.streams[id] = sorted
}

// GenerateStream fills a stream with n readings at first, first+step, ...
// The value of each reading is its timestamp scaled by id.
func (m *MockReadingDB) GenerateStream(id uint64, n int, first, step uint64) []wire.Reading {
	readings := make([]wire.Reading, n)
	for i := range readings {
		ts := first + uint64(i)*step
		readings[i] = wire.Reading{Timestamp: ts, Value: float64(ts) * float64(id)}
	}
	m.SetStream(id, readings)
	return readings
}

// FailStream makes every query for id return status.
func (m *MockReadingDB) FailStream(id uint64, status wire.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[id] = status
}

// GarbleStream makes every query for id return an undecodable body.
func (m *MockReadingDB) GarbleStream(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.garbled[id] = true
}

// DropStream makes the server close the connection when id is queried.
func (m *MockReadingDB) DropStream(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped[id] = true
}

// SetDelay delays every response.
func (m *MockReadingDB) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// QueryCount returns the number of queries served.
func (m *MockReadingDB) QueryCount() int {
	return int(m.queryCount.Load())
}

// QueriesFor returns the number of queries received for one stream.
func (m *MockReadingDB) QueriesFor(id uint64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queries[id]
}

// ConnectionCount returns the number of accepted connections.
func (m *MockReadingDB) ConnectionCount() int {
	return int(m.connectionCount.Load())
}

// PeakConnections returns the highest number of simultaneously open connections.
func (m *MockReadingDB) PeakConnections() int {
	return int(m.peakConns.Load())
}

func (m *MockReadingDB) acceptLoop() {
	defer m.wg.Done()
	for {
		c, err := m.listener.Accept()
		if err != nil {
			return
		}

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			c.Close()
			return
		}
		m.conns[c] = struct{}{}
		m.mu.Unlock()

		m.connectionCount.Add(1)
		active := m.activeConns.Add(1)
		for {
			peak := m.peakConns.Load()
			if active <= peak || m.peakConns.CompareAndSwap(peak, active) {
				break
			}
		}

		m.wg.Add(1)
		go m.serve(c)
	}
}

func (m *MockReadingDB) serve(c net.Conn) {
	defer m.wg.Done()
	defer func() {
		m.activeConns.Add(-1)
		m.mu.Lock()
		delete(m.conns, c)
		m.mu.Unlock()
		c.Close()
	}()

	r := bufio.NewReader(c)
	for {
		msgType, body, err := wire.ReadFrame(r)
		if err != nil {
			return
		}
		if msgType != wire.MessageQuery {
			return
		}
		q, err := wire.DecodeQuery(body)
		if err != nil {
			return
		}
		m.queryCount.Add(1)

		reply, err := m.answer(q)
		if errors.Is(err, errDrop) {
			return
		}
		if err := wire.WriteFrame(c, wire.MessageResponse, reply); err != nil {
			return
		}
	}
}

var errDrop = errors.New("drop connection")

func (m *MockReadingDB) answer(q *wire.Query) ([]byte, error) {
	m.mu.Lock()
	m.queries[q.StreamID]++
	delay := m.delay
	status, failing := m.failing[q.StreamID]
	garbled := m.garbled[q.StreamID]
	dropped := m.dropped[q.StreamID]
	readings := m.streams[q.StreamID]
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	switch {
	case dropped:
		return nil, errDrop
	case failing:
		return wire.EncodeResponse(&wire.Response{Status: status}), nil
	case garbled:
		return []byte{0x12, 0xff, 0x01}, nil
	}

	lo := sort.Search(len(readings), func(i int) bool { return readings[i].Timestamp >= q.StartTime })
	page := make([]wire.Reading, 0, m.pageSize)
	for i := lo; i < len(readings) && len(page) < m.pageSize; i++ {
		if readings[i].Timestamp > q.EndTime {
			break
		}
		page = append(page, readings[i])
	}

	return wire.EncodeResponse(&wire.Response{
		Status: wire.StatusOK,
		Data: wire.ReadingSet{
			StreamID:  q.StreamID,
			Substream: q.Substream,
			Data:      page,
		},
	}), nil
}
