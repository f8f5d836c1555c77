// Package capture reads and writes 802.11 radiotap captures, from pcap files or a
// monitor-mode interface.
package capture

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// SnapLen is the snapshot length written to file headers and used for live captures.
const SnapLen = 65536

// FileWriter appends radiotap frames to a pcap stream. It satisfies
// injection.PacketInjector so generated frames can be sent to a file instead of the air.
type FileWriter struct {
	mu     sync.Mutex
	w      *pcapgo.Writer
	closer io.Closer
	count  int

	// Now stamps each frame; defaults to time.Now.
	Now func() time.Time
}

// NewFileWriter writes the pcap file header to w.
func NewFileWriter(w io.Writer) (*FileWriter, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(SnapLen, layers.LinkTypeIEEE80211Radio); err != nil {
		return nil, fmt.Errorf("write pcap header: %w", err)
	}
	fw := &FileWriter{w: pw, Now: time.Now}
	if c, ok := w.(io.Closer); ok {
		fw.closer = c
	}
	return fw, nil
}

// CreateFile creates (or truncates) path and returns a writer for it.
func CreateFile(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	fw, err := NewFileWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return fw, nil
}

// Inject writes one frame as a captured packet.
func (f *FileWriter) Inject(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ci := gopacket.CaptureInfo{
		Timestamp:     f.Now(),
		CaptureLength: len(frame),
		Length:        len(frame),
	}
	if err := f.w.WritePacket(ci, frame); err != nil {
		return fmt.Errorf("write pcap packet: %w", err)
	}
	f.count++
	return nil
}

// Count returns how many frames have been written.
func (f *FileWriter) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// Close closes the underlying file, if the writer owns one. A failed close means the
// capture on disk may be incomplete.
func (f *FileWriter) Close() error {
	if f.closer == nil {
		return nil
	}
	if err := f.closer.Close(); err != nil {
		return fmt.Errorf("close pcap: %w", err)
	}
	return nil
}
