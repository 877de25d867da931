package socket

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"

	sockerr "tcpsock/internal/errors"
)

// ReadChunkSize is the size of each read issued by ReadString.
const ReadChunkSize = 1024

// WriteValue sends v in big-endian order.  v must be a fixed-size value
// or a pointer to one, as accepted by encoding/binary.
func (s *Socket) WriteValue(v any) error {
	size := binary.Size(v)
	if size < 0 {
		return sockerr.NewSocket(KindIO, "write", s.addr(),
			fmt.Errorf("value of type %T has no fixed size", v))
	}
	var buf bytes.Buffer
	buf.Grow(size)
	if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
		return sockerr.NewSocket(KindIO, "write", s.addr(), err)
	}
	_, err := s.Send(buf.Bytes())
	return err
}

// ReadValue receives exactly binary.Size(v) bytes and decodes them in
// big-endian order into v, which must be a pointer or a slice.  Any
// other v is rejected before a byte is consumed.
func (s *Socket) ReadValue(v any) error {
	if k := reflect.ValueOf(v).Kind(); k != reflect.Pointer && k != reflect.Slice {
		return sockerr.NewSocket(KindIO, "read", s.addr(),
			fmt.Errorf("cannot decode into non-pointer %T", v))
	}
	size := binary.Size(v)
	if size < 0 {
		return sockerr.NewSocket(KindIO, "read", s.addr(),
			fmt.Errorf("value of type %T has no fixed size", v))
	}
	buf := make([]byte, size)
	if _, err := s.Receive(buf); err != nil {
		return err
	}
	if err := binary.Read(bytes.NewReader(buf), binary.BigEndian, v); err != nil {
		return sockerr.NewSocket(KindIO, "read", s.addr(), err)
	}
	return nil
}

// WriteString sends str in full.
func (s *Socket) WriteString(str string) (int, error) {
	return s.Send([]byte(str))
}

// ReadString reads ReadChunkSize bytes at a time until a read comes back
// short, and returns everything read.
//
// A short read is taken as the end of the message, which is a
// heuristic: a message whose length is an exact multiple of
// ReadChunkSize costs one more read, and that read blocks until the
// peer sends more or closes.  If the peer closes after some data has
// arrived, that data is returned with a nil error.
func (s *Socket) ReadString() (string, error) {
	var (
		out   bytes.Buffer
		chunk [ReadChunkSize]byte
	)
	for {
		n, err := s.readSome(chunk[:])
		if err != nil {
			if out.Len() > 0 && KindOf(err) == KindPeerClosed {
				return out.String(), nil
			}
			return "", err
		}
		out.Write(chunk[:n])
		if n < ReadChunkSize {
			return out.String(), nil
		}
	}
}
