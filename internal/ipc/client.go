package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net"
	"sync"
	"sync/atomic"
)

// conn pairs a socket with its own reader/writer and a mutex so
// concurrent callers routed to the same connection serialize safely.
type conn struct {
	mu     sync.Mutex
	nc     net.Conn
	reader *bufio.Reader
}

func (c *conn) roundTrip(req Request) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	encoded, err := json.Marshal(map[string]interface{}{
		"id": req.ID, "method": req.Method, "params": req.Params,
	})
	if err != nil {
		return Response{}, err
	}
	if _, err := c.nc.Write(append(encoded, '\n')); err != nil {
		return Response{}, err
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return Response{}, err
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("ipc client: decode response: %w", err)
	}
	return resp, nil
}

// ClientPool opens N connections to one IPC server and routes calls
// either round-robin or, when a context id is present, by a stable
// hash of that id — so all commands for the same browser context
// always land on the same connection and observe the server's
// per-context serialization in the order the client issued them.
type ClientPool struct {
	conns  []*conn
	nextID atomic.Int64
	rrIdx  atomic.Uint64
}

// DialPool opens size connections to a UNIX socket path.
func DialPool(socketPath string, size int) (*ClientPool, error) {
	if size <= 0 {
		size = 1
	}
	conns := make([]*conn, 0, size)
	for i := 0; i < size; i++ {
		nc, err := net.Dial("unix", socketPath)
		if err != nil {
			for _, c := range conns {
				c.nc.Close()
			}
			return nil, fmt.Errorf("ipc client: dial %s: %w", socketPath, err)
		}
		conns = append(conns, &conn{nc: nc, reader: bufio.NewReader(nc)})
	}
	return &ClientPool{conns: conns}, nil
}

// Close closes every pooled connection.
func (p *ClientPool) Close() error {
	var firstErr error
	for _, c := range p.conns {
		if err := c.nc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Call sends a method with flat params, routed by contextID affinity
// when non-empty, round-robin otherwise, and returns the decoded result.
func (p *ClientPool) Call(method string, contextID string, params map[string]interface{}) (Response, error) {
	id := p.nextID.Add(1)
	encodedParams, err := json.Marshal(params)
	if err != nil {
		return Response{}, err
	}

	c := p.pick(contextID)
	return c.roundTrip(Request{ID: id, Method: method, Params: encodedParams})
}

func (p *ClientPool) pick(contextID string) *conn {
	if contextID != "" {
		h := fnv.New32a()
		h.Write([]byte(contextID))
		return p.conns[h.Sum32()%uint32(len(p.conns))]
	}
	idx := p.rrIdx.Add(1)
	return p.conns[idx%uint64(len(p.conns))]
}
