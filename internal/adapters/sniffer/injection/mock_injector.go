package injection

import "sync"

// MockInjector implements PacketInjector in memory. Set Err to make Inject fail and
// CloseErr to make Close fail.
type MockInjector struct {
	mu         sync.Mutex
	ReqPackets [][]byte
	Closed     bool
	Err        error
	CloseErr   error
}

// NewMockInjector creates a new instance of MockInjector.
func NewMockInjector() *MockInjector {
	return &MockInjector{
		ReqPackets: make([][]byte, 0),
	}
}

// Inject stores the packet in the ReqPackets slice.
func (m *MockInjector) Inject(packet []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	p := make([]byte, len(packet))
	copy(p, packet)

	m.ReqPackets = append(m.ReqPackets, p)
	return nil
}

// Close marks the injector as closed. It returns CloseErr when set.
func (m *MockInjector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return m.CloseErr
}

// GetPackets returns a copy of the captured packets.
func (m *MockInjector) GetPackets() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	packets := make([][]byte, len(m.ReqPackets))
	for i, p := range m.ReqPackets {
		packets[i] = make([]byte, len(p))
		copy(packets[i], p)
	}
	return packets
}
