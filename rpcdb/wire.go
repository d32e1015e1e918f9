// Package rpcdb is the optional network collaborator for a Store: a
// length-prefixed JSON request/response protocol, translated from
// original_source/rpcserver/server.py and client.py. It imports store but
// store never imports rpcdb, keeping RPC surfacing separate from the core
// engine.
package rpcdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kmill/pynomic/codec"
	"github.com/kmill/pynomic/value"
)

// maxMessageSize bounds the length prefix accepted from a peer, guarding
// against a corrupt or hostile length field asking for an enormous read.
const maxMessageSize = 64 << 20

// readMessage reads one length-prefixed JSON value from r: a 4-byte
// little-endian byte count followed by that many bytes of JSON text,
// exactly struct.pack("<I", ...) on the Python side.
func readMessage(r io.Reader) (value.Value, error) {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > maxMessageSize {
		return nil, fmt.Errorf("rpcdb: message of %d bytes exceeds limit", size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return codec.Decode(bytes.NewReader(buf))
}

// writeMessage writes v as a length-prefixed JSON value to w.
func writeMessage(w io.Writer, v value.Value) error {
	var body bytes.Buffer
	if err := codec.Encode(&body, v); err != nil {
		return err
	}
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(body.Len()))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}
