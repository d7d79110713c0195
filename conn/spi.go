// Package conn implements the SPI transport for displays on top of periph.io.
package conn

import (
	"fmt"
	"log"
	"os"

	pconn "periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// DefaultBatchSize is the largest single transfer the Linux spidev driver accepts by default.
const DefaultBatchSize = 4096

var debug = os.Getenv("EPAPER_DEBUG") != ""

// SPI is a write-only SPI connection that splits large writes into batches.
type SPI struct {
	port      spi.PortCloser
	conn      spi.Conn
	batchSize int
}

// OpenSPI opens the named SPI port (use "" for the first available port) and connects to it in
// the given mode with 8 bits per word.
func OpenSPI(name string, speed physic.Frequency, mode spi.Mode) (*SPI, error) {
	port, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("conn: SPI open %q: %w", name, err)
	}

	c, err := port.Connect(speed, mode, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("conn: SPI connect %s at %s: %w", port, speed, err)
	}

	s := NewSPI(c)
	s.port = port
	return s, nil
}

// NewSPI wraps an already connected SPI device.
func NewSPI(c spi.Conn) *SPI {
	s := &SPI{
		conn:      c,
		batchSize: DefaultBatchSize,
	}
	s.SetBatchSize(DefaultBatchSize)
	return s
}

// BatchSize is the largest number of bytes sent in one transfer.
func (s *SPI) BatchSize() int {
	return s.batchSize
}

// SetBatchSize limits the number of bytes sent in one transfer. The limit never exceeds what the
// underlying connection reports as its maximum.
func (s *SPI) SetBatchSize(n int) {
	if n <= 0 {
		n = DefaultBatchSize
	}
	if l, ok := s.conn.(pconn.Limits); ok {
		if limit := l.MaxTxSize(); limit > 0 && limit < n {
			n = limit
		}
	}
	s.batchSize = n
}

func (s *SPI) String() string {
	return fmt.Sprintf("SPI %s", s.conn)
}

// Close the port, if it was opened by OpenSPI.
func (s *SPI) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}

// Write sends b in batches of at most BatchSize bytes.
func (s *SPI) Write(b []byte) (n int, err error) {
	if debug && len(b) > s.batchSize {
		log.Printf("conn: write %d bytes of data in %d chunks", len(b), (len(b)+s.batchSize-1)/s.batchSize)
	}
	for len(b) > 0 {
		chunk := b
		if len(chunk) > s.batchSize {
			chunk = chunk[:s.batchSize]
		}
		if err = s.conn.Tx(chunk, nil); err != nil {
			return
		}
		n += len(chunk)
		b = b[len(chunk):]
	}
	return
}
