package printer

import (
	"fmt"
	"image"
	"sync"

	"github.com/thereceipt/label-engine/internal/registry"
)

// Pool keeps one open connection per printer id.
type Pool struct {
	dial        Dialer
	connections map[string]Connection
	mu          sync.RWMutex
}

// NewPool creates a pool. A nil dialer uses Dial.
func NewPool(dial Dialer) *Pool {
	if dial == nil {
		dial = Dial
	}
	return &Pool{dial: dial, connections: make(map[string]Connection)}
}

// Connect opens a connection to entry unless one is already open.
func (p *Pool) Connect(entry registry.Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.connections[entry.ID]; ok {
		return nil
	}
	conn, err := p.dial(entry)
	if err != nil {
		return err
	}
	p.connections[entry.ID] = conn
	return nil
}

// Print sends labels to a connected printer. A failed write drops the
// connection so the next attempt redials.
func (p *Pool) Print(printerID string, imgs []image.Image) error {
	p.mu.RLock()
	conn, ok := p.connections[printerID]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("printer not connected: %s", printerID)
	}

	if err := Print(conn, imgs); err != nil {
		p.Disconnect(printerID)
		return err
	}
	return nil
}

// Disconnect closes a printer connection.
func (p *Pool) Disconnect(printerID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, ok := p.connections[printerID]
	if !ok {
		return nil
	}
	delete(p.connections, printerID)
	return conn.Close()
}

// DisconnectAll closes all connections.
func (p *Pool) DisconnectAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, conn := range p.connections {
		conn.Close()
		delete(p.connections, id)
	}
}

// IsConnected checks if a printer is connected.
func (p *Pool) IsConnected(printerID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.connections[printerID]
	return ok
}
