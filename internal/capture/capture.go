// Package capture records NCP frames to pcap files and reads them back.
//
// Every packet is one frame: a direction byte followed by the high-level
// frame exactly as it crossed the transport. Files use the USER0 link type
// so generic tools open them without guessing a dissector.
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// LinkTypeNCP is DLT_USER0.
const LinkTypeNCP = layers.LinkType(147)

// Snaplen bounds every record.
const Snaplen = 65535

// Direction says which side sent a frame.
type Direction uint8

const (
	HostToNCP Direction = 0
	NCPToHost Direction = 1
)

func (d Direction) String() string {
	switch d {
	case HostToNCP:
		return "tx"
	case NCPToHost:
		return "rx"
	}
	return fmt.Sprintf("dir(%d)", uint8(d))
}

// ErrShortRecord is returned for a packet without a direction byte.
var ErrShortRecord = errors.New("capture record shorter than direction byte")

// ErrLinkType is returned when a file does not carry NCP records.
var ErrLinkType = errors.New("capture is not an NCP frame capture")

// LayerTypeNCPRecord decodes one capture record.
var LayerTypeNCPRecord = gopacket.RegisterLayerType(4711, gopacket.LayerTypeMetadata{
	Name:    "NCPRecord",
	Decoder: gopacket.DecodeFunc(decodeNCPRecord),
})

// NCPRecord is the gopacket layer for a capture record. Payload holds the frame.
type NCPRecord struct {
	layers.BaseLayer
	Direction Direction
}

func (r *NCPRecord) LayerType() gopacket.LayerType { return LayerTypeNCPRecord }

// DecodeFromBytes implements gopacket.DecodingLayer.
func (r *NCPRecord) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < 1 {
		df.SetTruncated()
		return ErrShortRecord
	}
	r.Direction = Direction(data[0])
	r.BaseLayer = layers.BaseLayer{Contents: data[:1], Payload: data[1:]}
	return nil
}

func (r *NCPRecord) CanDecode() gopacket.LayerClass    { return LayerTypeNCPRecord }
func (r *NCPRecord) NextLayerType() gopacket.LayerType { return gopacket.LayerTypePayload }

// SerializeTo prepends the direction byte to the already serialized frame.
func (r *NCPRecord) SerializeTo(b gopacket.SerializeBuffer, _ gopacket.SerializeOptions) error {
	hdr, err := b.PrependBytes(1)
	if err != nil {
		return err
	}
	hdr[0] = uint8(r.Direction)
	return nil
}

func decodeNCPRecord(data []byte, p gopacket.PacketBuilder) error {
	r := &NCPRecord{}
	if err := r.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(r)
	if len(r.Payload) == 0 {
		return nil
	}
	return p.NextDecoder(r.NextLayerType())
}

// Record is one frame read from a capture.
type Record struct {
	Time      time.Time
	Direction Direction
	Frame     []byte
}

// Writer appends records to a pcap file. It is safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	file   *os.File
	writer *pcapgo.Writer
	count  int
	now    func() time.Time
}

// Create opens path for writing and emits the pcap file header.
func Create(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create capture file: %w", err)
	}
	w, err := NewWriter(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	w.file = file
	return w, nil
}

// NewWriter writes a pcap header to out and returns a writer over it.
func NewWriter(out io.Writer) (*Writer, error) {
	pw := pcapgo.NewWriter(out)
	if err := pw.WriteFileHeader(Snaplen, LinkTypeNCP); err != nil {
		return nil, fmt.Errorf("write pcap header: %w", err)
	}
	return &Writer{writer: pw, now: time.Now}, nil
}

// SetClock replaces the timestamp source.
func (w *Writer) SetClock(now func() time.Time) {
	w.mu.Lock()
	w.now = now
	w.mu.Unlock()
}

// Write appends one frame.
func (w *Writer) Write(dir Direction, frame []byte) error {
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{},
		&NCPRecord{Direction: dir},
		gopacket.Payload(frame),
	); err != nil {
		return fmt.Errorf("serialize record: %w", err)
	}
	data := buf.Bytes()
	if len(data) > Snaplen {
		data = data[:Snaplen]
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	ci := gopacket.CaptureInfo{
		Timestamp:     w.now(),
		CaptureLength: len(data),
		Length:        len(buf.Bytes()),
	}
	if err := w.writer.WritePacket(ci, data); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close closes the underlying file when the writer owns one.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Reader yields records from a pcap file.
type Reader struct {
	file   *os.File
	source *gopacket.PacketSource
}

// Open opens a capture file for reading.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture file: %w", err)
	}
	r, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.file = file
	return r, nil
}

// NewReader reads a pcap stream. The link type must be LinkTypeNCP.
func NewReader(in io.Reader) (*Reader, error) {
	pr, err := pcapgo.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("read pcap header: %w", err)
	}
	if pr.LinkType() != LinkTypeNCP {
		return nil, fmt.Errorf("%w: link type %d", ErrLinkType, pr.LinkType())
	}
	source := gopacket.NewPacketSource(pr, LayerTypeNCPRecord)
	source.DecodeOptions = gopacket.DecodeOptions{NoCopy: true}
	return &Reader{source: source}, nil
}

// Next returns the next record, or io.EOF at the end of the file.
func (r *Reader) Next() (Record, error) {
	pkt, err := r.source.NextPacket()
	if err != nil {
		return Record{}, err
	}
	if el := pkt.ErrorLayer(); el != nil {
		return Record{}, el.Error()
	}
	layer, ok := pkt.Layer(LayerTypeNCPRecord).(*NCPRecord)
	if !ok {
		return Record{}, ErrShortRecord
	}
	frame := make([]byte, len(layer.Payload))
	copy(frame, layer.Payload)
	return Record{
		Time:      pkt.Metadata().Timestamp,
		Direction: layer.Direction,
		Frame:     frame,
	}, nil
}

// All reads every remaining record.
func (r *Reader) All() ([]Record, error) {
	var out []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// Close closes the underlying file when the reader owns one.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// ReadFile loads every record of a capture file.
func ReadFile(path string) ([]Record, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.All()
}
