package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ugorji/go/codec"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/object"
)

// handle is shared by every encoder and decoder; it is safe for concurrent
// use once configured.
var handle = newHandle()

func newHandle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	return h
}

// Marshal encodes obj as MessagePack. Values and properties are included.
//
// # Errors
//
//   - Returns ErrNullInput if obj is nil or released
func Marshal(obj *object.Object) ([]byte, error) {
	if err := obj.Check(); err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	var b []byte
	if err := encodeBytes(&b, toWire(obj)); err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return b, nil
}

func encodeBytes(b *[]byte, v any) error {
	return codec.NewEncoderBytes(b, handle).Encode(v)
}

// Unmarshal decodes an object written by Marshal. The returned object holds
// one link owned by the caller.
//
// # Errors
//
//   - Returns ErrDomainDataInvalid for malformed data or data that breaks
//     the interval invariants
//   - Returns ErrUnsupported for an unknown format version
func Unmarshal(data []byte) (*object.Object, error) {
	var w wireObject
	if err := codec.NewDecoderBytes(data, handle).Decode(&w); err != nil {
		return nil, fmt.Errorf("unmarshal: %v: %w", err, domain.ErrDomainDataInvalid)
	}
	obj, err := fromWire(&w)
	if err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return obj, nil
}

// MarshalDomain encodes a bare planar domain.
func MarshalDomain(d *domain.IntervalDomain) ([]byte, error) {
	if d == nil || d.Released() {
		return nil, fmt.Errorf("marshal domain: %w", domain.ErrNullInput)
	}
	var b []byte
	if err := encodeBytes(&b, domainToWire(d)); err != nil {
		return nil, fmt.Errorf("marshal domain: %w", err)
	}
	return b, nil
}

// UnmarshalDomain decodes a domain written by MarshalDomain.
func UnmarshalDomain(data []byte) (*domain.IntervalDomain, error) {
	var w wireDomain
	if err := codec.NewDecoderBytes(data, handle).Decode(&w); err != nil {
		return nil, fmt.Errorf("unmarshal domain: %v: %w", err, domain.ErrDomainDataInvalid)
	}
	d, err := domainFromWire(&w)
	if err != nil {
		return nil, fmt.Errorf("unmarshal domain: %w", err)
	}
	return d, nil
}

// Writer writes a sequence of objects to a stream.
type Writer struct {
	bw  *bufio.Writer
	enc *codec.Encoder
}

// NewWriter returns a Writer on w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	return &Writer{bw: bw, enc: codec.NewEncoder(bw, handle)}
}

// Write appends obj to the stream.
func (w *Writer) Write(obj *object.Object) error {
	if err := obj.Check(); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	if err := w.enc.Encode(toWire(obj)); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error { return w.bw.Flush() }

// Reader reads a sequence of objects from a stream.
type Reader struct {
	br  *bufio.Reader
	dec *codec.Decoder
}

// NewReader returns a Reader on r.
func NewReader(r io.Reader) *Reader {
	br := bufio.NewReader(r)
	return &Reader{br: br, dec: codec.NewDecoder(br, handle)}
}

// Read returns the next object. At a clean end of the stream it returns
// ErrEndOfStream, which callers treat as normal termination.
//
// # Errors
//
//   - Returns ErrEndOfStream when no objects remain
//   - Returns ErrDomainDataInvalid for a truncated or malformed object
func (r *Reader) Read() (*object.Object, error) {
	// Only a stream that ends between objects ends cleanly.
	if _, err := r.br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.ErrEndOfStream
		}
		return nil, fmt.Errorf("read object: %w", err)
	}
	var w wireObject
	if err := r.dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("read object: %v: %w", err, domain.ErrDomainDataInvalid)
	}
	obj, err := fromWire(&w)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return obj, nil
}

// ReadAll reads objects until the end of the stream. On error the objects
// read so far are released.
func ReadAll(r io.Reader) ([]*object.Object, error) {
	rd := NewReader(r)
	var out []*object.Object
	for {
		obj, err := rd.Read()
		if errors.Is(err, domain.ErrEndOfStream) {
			return out, nil
		}
		if err != nil {
			object.FreeAll(out)
			return nil, err
		}
		out = append(out, obj)
	}
}

// SaveFile writes objs to path, replacing any existing file.
func SaveFile(path string, objs ...*object.Object) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("save %s: %w", path, cerr)
		}
	}()
	w := NewWriter(f)
	for _, obj := range objs {
		if err := w.Write(obj); err != nil {
			return err
		}
	}
	return w.Flush()
}

// LoadFile reads every object stored in path.
func LoadFile(path string) ([]*object.Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	defer f.Close()
	objs, err := ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return objs, nil
}
