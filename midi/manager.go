package midi

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// Sender sends one message to an output port
type Sender func(gomidi.Message) error

// DeviceManager handles hot-plug detection of MIDI keyboards and owns
// the output port senders.
type DeviceManager struct {
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration

	// inputName restricts keyboards to one port, empty accepts all
	inputName string

	senders   map[string]Sender
	sendersMu sync.Mutex
}

// NewDeviceManager creates a new device manager
func NewDeviceManager(inputName string) *DeviceManager {
	return &DeviceManager{
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
		inputName:   inputName,
		senders:     make(map[string]Sender),
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	copy := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		copy[k] = v
	}
	return copy
}

// OutPorts lists output port names
func OutPorts() []string {
	var names []string
	for _, p := range gomidi.GetOutPorts() {
		names = append(names, p.String())
	}
	return names
}

// InPorts lists input port names
func InPorts() []string {
	var names []string
	for _, p := range gomidi.GetInPorts() {
		names = append(names, p.String())
	}
	return names
}

// Sender returns a sender for the named output port, opening it on first
// use. An empty name picks the first port.
func (dm *DeviceManager) Sender(portName string) (Sender, error) {
	dm.sendersMu.Lock()
	defer dm.sendersMu.Unlock()

	if s, ok := dm.senders[portName]; ok {
		return s, nil
	}

	var port drivers.Out
	var err error
	if portName == "" {
		port, err = gomidi.OutPort(0)
	} else {
		port, err = gomidi.FindOutPort(portName)
	}
	if err != nil {
		return nil, fmt.Errorf("find output %q: %w", portName, err)
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open output %q: %w", port.String(), err)
	}
	dm.senders[portName] = send
	return send, nil
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() {
	// Port enumeration can hang on some backends
	ch := make(chan []drivers.In, 1)
	go func() {
		ch <- gomidi.GetInPorts()
	}()

	var inPorts []drivers.In
	select {
	case inPorts = <-ch:
	case <-time.After(3 * time.Second):
		return
	}

	byName := make(map[string]drivers.In, len(inPorts))
	var seen []string
	for _, p := range inPorts {
		if !dm.wants(p.String()) {
			continue
		}
		byName[p.String()] = p
		seen = append(seen, p.String())
	}

	dm.mu.RLock()
	added, removed := diffPorts(dm.controllers, seen)
	dm.mu.RUnlock()

	for _, id := range added {
		kb, err := NewKeyboardController(id, byName[id])
		if err != nil {
			continue
		}
		dm.mu.Lock()
		dm.controllers[id] = kb
		dm.mu.Unlock()
		dm.events <- DeviceEvent{Type: DeviceConnected, Controller: kb, ID: id}
	}

	for _, id := range removed {
		dm.mu.Lock()
		c := dm.controllers[id]
		delete(dm.controllers, id)
		dm.mu.Unlock()
		if c != nil {
			c.Close()
		}
		dm.events <- DeviceEvent{Type: DeviceDisconnected, ID: id}
	}
}

// wants filters out virtual "through" ports and applies the configured name
func (dm *DeviceManager) wants(name string) bool {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "through") || strings.Contains(lower, "thru") {
		return false
	}
	if dm.inputName == "" {
		return true
	}
	return strings.Contains(lower, strings.ToLower(dm.inputName))
}

// diffPorts compares known controllers against the ports seen in a scan
func diffPorts(known map[string]Controller, seen []string) (added, removed []string) {
	seenSet := make(map[string]bool, len(seen))
	for _, id := range seen {
		seenSet[id] = true
		if _, ok := known[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range known {
		if !seenSet[id] {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}
