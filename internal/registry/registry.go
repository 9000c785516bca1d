// Package registry keeps persistent ids and custom names for label
// printers.
package registry

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned for an unknown printer id.
var ErrNotFound = errors.New("printer not found")

// Printer connection types.
const (
	TypeNetwork = "network"
	TypeSerial  = "serial"
)

// DefaultBaud suits most serial thermal printers.
const DefaultBaud = 9600

// Entry stores persistent information about a printer.
type Entry struct {
	ID           string  `json:"id"`
	IdentityKey  string  `json:"identity_key"`
	Type         string  `json:"type"` // network, serial
	Device       string  `json:"device,omitempty"`
	Baud         int     `json:"baud,omitempty"`
	Host         string  `json:"host,omitempty"`
	Port         int     `json:"port,omitempty"`
	Description  string  `json:"description"`
	Name         string  `json:"name,omitempty"` // custom user-set name
	LabelWidthMM float64 `json:"label_width_mm,omitempty"`
}

// Info describes a printer being registered.
type Info struct {
	Type         string  `json:"type" validate:"required,oneof=network serial"`
	Description  string  `json:"description"`
	Device       string  `json:"device" validate:"required_if=Type serial"`
	Baud         int     `json:"baud" validate:"omitempty,min=1200"`
	Host         string  `json:"host" validate:"required_if=Type network"`
	Port         int     `json:"port" validate:"omitempty,min=1,max=65535"`
	LabelWidthMM float64 `json:"label_width_mm" validate:"omitempty,gt=0"`
}

// Registry manages printer identities, backed by a JSON file.
type Registry struct {
	filePath string
	data     map[string]*Entry
	mu       sync.RWMutex
}

// New loads the registry at filePath. A missing file is created on the
// first save.
func New(filePath string) (*Registry, error) {
	r := &Registry{
		filePath: filePath,
		data:     make(map[string]*Entry),
	}
	if err := r.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	return r, nil
}

// Register returns the entry for info, creating it with a fresh id the
// first time the printer is seen.
func (r *Registry) Register(info Info) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := identityKey(info)
	if entry, ok := r.data[key]; ok {
		return *entry, nil
	}

	entry := &Entry{
		ID:           uuid.New().String(),
		IdentityKey:  key,
		Type:         info.Type,
		Device:       info.Device,
		Baud:         info.Baud,
		Host:         info.Host,
		Port:         info.Port,
		Description:  info.Description,
		LabelWidthMM: info.LabelWidthMM,
	}
	if entry.Type == TypeSerial && entry.Baud == 0 {
		entry.Baud = DefaultBaud
	}
	if entry.Type == TypeNetwork && entry.Port == 0 {
		entry.Port = 9100
	}
	r.data[key] = entry

	if err := r.save(); err != nil {
		delete(r.data, key)
		return Entry{}, err
	}
	return *entry, nil
}

// Get returns a copy of the entry with id.
func (r *Registry) Get(id string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry := r.find(id); entry != nil {
		return *entry, nil
	}
	return Entry{}, ErrNotFound
}

// SetName sets the custom name of a printer.
func (r *Registry) SetName(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.find(id)
	if entry == nil {
		return ErrNotFound
	}
	entry.Name = strings.TrimSpace(name)
	return r.save()
}

// Remove deletes a printer.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.find(id)
	if entry == nil {
		return ErrNotFound
	}
	delete(r.data, entry.IdentityKey)
	return r.save()
}

// List returns every printer ordered by display name.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.data))
	for _, e := range r.data {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return strings.Compare(a.DisplayName()+a.ID, b.DisplayName()+b.ID)
	})
	return out
}

// DisplayName is the custom name, else the description, else the id.
func (e Entry) DisplayName() string {
	switch {
	case e.Name != "":
		return e.Name
	case e.Description != "":
		return e.Description
	default:
		return e.ID
	}
}

func (r *Registry) find(id string) *Entry {
	for _, entry := range r.data {
		if entry.ID == id {
			return entry
		}
	}
	return nil
}

func (r *Registry) load() error {
	data, err := os.ReadFile(r.filePath)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &r.data)
}

func (r *Registry) save() error {
	data, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.WriteFile(r.filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to save registry: %w", err)
	}
	return nil
}

// identityKey identifies a printer by how it is reached.
func identityKey(info Info) string {
	switch info.Type {
	case TypeSerial:
		if info.Device != "" {
			return "serial:" + info.Device
		}
	case TypeNetwork:
		if info.Host != "" {
			port := info.Port
			if port == 0 {
				port = 9100
			}
			return fmt.Sprintf("network:%s:%d", info.Host, port)
		}
	}
	sum := sha256.Sum256([]byte(info.Type + "|" + info.Description))
	return fmt.Sprintf("hash:%x", sum[:8])
}
