package diskstore

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/zeebo/xxh3"
)

const (
	opPut    byte = 1
	opDelete byte = 2

	// frame header: payload length (4) + xxh3 checksum (8)
	headerSize = 12
	// payload prefix: op (1) + key length (4)
	payloadPrefixSize = 5

	maxFrameSize = 64 << 20
)

var (
	errChecksumMismatch = errors.New("checksum mismatch")
	errMalformedFrame   = errors.New("malformed frame")
)

type record struct {
	op    byte
	key   string
	value []byte
}

func encodeFrame(r record) []byte {
	payloadLen := payloadPrefixSize + len(r.key) + len(r.value)
	buf := make([]byte, headerSize+payloadLen)

	payload := buf[headerSize:]
	payload[0] = r.op
	binary.LittleEndian.PutUint32(payload[1:5], uint32(len(r.key)))
	copy(payload[payloadPrefixSize:], r.key)
	copy(payload[payloadPrefixSize+len(r.key):], r.value)

	binary.LittleEndian.PutUint32(buf[0:4], uint32(payloadLen))
	binary.LittleEndian.PutUint64(buf[4:12], xxh3.Hash(payload))
	return buf
}

// readFrame returns io.EOF on a clean end of segment.
// A checksum or layout failure is returned together with a nil record and leaves the
// reader positioned at the next frame, so the caller may count it and go on.
func readFrame(br *bufio.Reader) (*record, int64, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, 0, fmt.Errorf("read header: %w", err)
		}
		return nil, 0, err
	}

	size := binary.LittleEndian.Uint32(header[0:4])
	if size < payloadPrefixSize || size > maxFrameSize {
		return nil, 0, fmt.Errorf("%w: payload size %d", errMalformedFrame, size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(br, payload); err != nil {
		return nil, 0, fmt.Errorf("read payload: %w", err)
	}
	n := int64(headerSize) + int64(size)

	if xxh3.Hash(payload) != binary.LittleEndian.Uint64(header[4:12]) {
		return nil, n, errChecksumMismatch
	}

	keyLen := binary.LittleEndian.Uint32(payload[1:5])
	if int64(keyLen) > int64(size)-payloadPrefixSize {
		return nil, n, fmt.Errorf("%w: key length %d", errMalformedFrame, keyLen)
	}
	op := payload[0]
	if op != opPut && op != opDelete {
		return nil, n, fmt.Errorf("%w: unknown op %d", errMalformedFrame, op)
	}

	keyEnd := payloadPrefixSize + int(keyLen)
	r := &record{op: op, key: string(payload[payloadPrefixSize:keyEnd])}
	if op == opPut {
		r.value = payload[keyEnd:]
	}
	return r, n, nil
}
