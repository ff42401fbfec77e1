package orm

import (
	"encoding/binary"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Writer builds the fixed size little endian layout of a record.
type Writer struct {
	buf []byte
}

// NewWriter returns a writer with capacity for size bytes.
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

// Address appends a 32 byte identity. A nil address is written as zeros.
func (w *Writer) Address(a custody.Address) {
	var raw [custody.AddressLength]byte
	copy(raw[:], a)
	w.buf = append(w.buf, raw[:]...)
}

// OptionAddress appends a presence flag followed by the address.
func (w *Writer) OptionAddress(a custody.Address) {
	w.Bool(len(a) != 0)
	w.Address(a)
}

func (w *Writer) Uint64(v uint64) {
	var raw [8]byte
	binary.LittleEndian.PutUint64(raw[:], v)
	w.buf = append(w.buf, raw[:]...)
}

func (w *Writer) Int64(v int64) {
	w.Uint64(uint64(v))
}

func (w *Writer) Uint32(v uint32) {
	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], v)
	w.buf = append(w.buf, raw[:]...)
}

func (w *Writer) Uint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) Bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// String appends a u32 length prefix and the raw bytes.
func (w *Writer) String(s string) {
	w.Uint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// Bytes returns the encoded record.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reader decodes a layout written by Writer. The first failure is kept and
// every following read returns a zero value, so callers check Done once.
type Reader struct {
	buf []byte
	err error
}

// NewReader returns a reader over raw.
func NewReader(raw []byte) *Reader {
	return &Reader{buf: raw}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf) < n {
		r.err = errors.Wrapf(errors.ErrInvalidModel, "want %d more bytes, have %d", n, len(r.buf))
		return nil
	}
	chunk := r.buf[:n]
	r.buf = r.buf[n:]
	return chunk
}

func (r *Reader) Address() custody.Address {
	raw := r.take(custody.AddressLength)
	if raw == nil {
		return nil
	}
	return custody.Address(raw).Clone()
}

// OptionAddress reads a presence flag and an address. It returns nil when
// the flag is not set.
func (r *Reader) OptionAddress() custody.Address {
	present := r.Bool()
	addr := r.Address()
	if !present {
		return nil
	}
	return addr
}

func (r *Reader) Uint64() uint64 {
	raw := r.take(8)
	if raw == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(raw)
}

func (r *Reader) Int64() int64 {
	return int64(r.Uint64())
}

func (r *Reader) Uint32() uint32 {
	raw := r.take(4)
	if raw == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(raw)
}

func (r *Reader) Uint8() uint8 {
	raw := r.take(1)
	if raw == nil {
		return 0
	}
	return raw[0]
}

func (r *Reader) Bool() bool {
	switch v := r.Uint8(); v {
	case 0:
		return false
	case 1:
		return true
	default:
		if r.err == nil {
			r.err = errors.Wrapf(errors.ErrInvalidModel, "invalid bool value %d", v)
		}
		return false
	}
}

func (r *Reader) String() string {
	n := r.Uint32()
	raw := r.take(int(n))
	return string(raw)
}

// Done returns the first decoding failure, or an error if unread bytes
// remain.
func (r *Reader) Done() error {
	if r.err != nil {
		return r.err
	}
	if len(r.buf) != 0 {
		return errors.Wrapf(errors.ErrInvalidModel, "%d trailing bytes", len(r.buf))
	}
	return nil
}
