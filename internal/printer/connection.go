package printer

import (
	"fmt"
	"image"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/thereceipt/label-engine/internal/registry"
)

// Connection is an open link to a printer.
type Connection interface {
	Write(data []byte) (int, error)
	Close() error
}

// Print writes a batch of labels to conn.
func Print(conn Connection, imgs []image.Image) error {
	if _, err := conn.Write(EncodeLabels(imgs)); err != nil {
		return fmt.Errorf("failed to write to printer: %w", err)
	}
	return nil
}

// Dialer opens a connection to a registered printer.
type Dialer func(entry registry.Entry) (Connection, error)

// Dial opens a network or serial connection for entry.
func Dial(entry registry.Entry) (Connection, error) {
	var (
		conn Connection
		err  error
	)
	switch entry.Type {
	case registry.TypeNetwork:
		conn, err = ConnectNetwork(entry.Host, entry.Port)
	case registry.TypeSerial:
		conn, err = ConnectSerial(entry.Device, entry.Baud)
	default:
		return nil, fmt.Errorf("unsupported printer type: %s", entry.Type)
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// NetworkConnection is a raw TCP (port 9100) printer connection.
type NetworkConnection struct {
	conn net.Conn
	mu   sync.Mutex
}

// ConnectNetwork connects to a network printer.
func ConnectNetwork(host string, port int) (*NetworkConnection, error) {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to network printer: %w", err)
	}
	return &NetworkConnection{conn: conn}, nil
}

func (c *NetworkConnection) Write(data []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Write(data)
}

func (c *NetworkConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

// SerialConnection is a serial port printer connection.
type SerialConnection struct {
	port *serial.Port
	mu   sync.Mutex
}

// ConnectSerial opens a serial port. A zero baud rate means 9600.
func ConnectSerial(device string, baud int) (*SerialConnection, error) {
	if baud == 0 {
		baud = registry.DefaultBaud
	}
	port, err := serial.OpenPort(&serial.Config{Name: device, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return &SerialConnection{port: port}, nil
}

func (c *SerialConnection) Write(data []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port.Write(data)
}

func (c *SerialConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port.Close()
}
