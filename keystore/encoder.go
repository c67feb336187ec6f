package keystore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	recordFormatVersionCurrent = 1

	maxAlgorithmLen = math.MaxUint8
	maxBlobLen      = 1 << 20
)

// Encode serializes k into the current record format:
//
//	version(1) | id(16) | env(16) | alg len(1) | alg | sealed len(4) | sealed |
//	public len(4) | public | created_at(8)
func Encode(k *SealedKey) ([]byte, error) {
	if len(k.Algorithm) == 0 || len(k.Algorithm) > maxAlgorithmLen {
		return nil, errors.New("algorithm name length out of range")
	}
	if len(k.Sealed) == 0 || len(k.Sealed) > maxBlobLen {
		return nil, errors.New("sealed payload length out of range")
	}
	if len(k.PublicKey) > maxBlobLen {
		return nil, errors.New("public key too large")
	}

	var buf bytes.Buffer
	buf.Grow(1 + 32 + 1 + len(k.Algorithm) + 8 + len(k.Sealed) + len(k.PublicKey) + 8)

	buf.WriteByte(recordFormatVersionCurrent)
	buf.Write(k.ID[:])
	buf.Write(k.EnvironmentID[:])

	buf.WriteByte(byte(len(k.Algorithm)))
	buf.WriteString(k.Algorithm)

	writeUint32(&buf, uint32(len(k.Sealed)))
	buf.WriteString(k.Sealed)

	writeUint32(&buf, uint32(len(k.PublicKey)))
	buf.Write(k.PublicKey)

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(k.CreatedAt))
	buf.Write(ts[:])

	return buf.Bytes(), nil
}

// Decode parses a record produced by Encode. Every failure wraps ErrCorruptRecord.
func Decode(data []byte) (*SealedKey, error) {
	k, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return k, nil
}

func decode(data []byte) (*SealedKey, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersionCurrent {
		return nil, fmt.Errorf("unknown record version %d", version)
	}

	k := &SealedKey{}
	if _, err := io.ReadFull(reader, k.ID[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, k.EnvironmentID[:]); err != nil {
		return nil, err
	}

	algLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if algLen == 0 {
		return nil, errors.New("empty algorithm")
	}
	alg := make([]byte, algLen)
	if _, err := io.ReadFull(reader, alg); err != nil {
		return nil, err
	}
	k.Algorithm = string(alg)

	sealed, err := readBlob(reader)
	if err != nil {
		return nil, err
	}
	if len(sealed) == 0 {
		return nil, errors.New("empty sealed payload")
	}
	k.Sealed = string(sealed)

	pub, err := readBlob(reader)
	if err != nil {
		return nil, err
	}
	if len(pub) > 0 {
		k.PublicKey = pub
	}

	var created int64
	if err := binary.Read(reader, binary.BigEndian, &created); err != nil {
		return nil, err
	}
	k.CreatedAt = created

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes")
	}
	return k, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readBlob(reader *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	if n > maxBlobLen || int(n) > reader.Len() {
		return nil, io.ErrUnexpectedEOF
	}
	blob := make([]byte, n)
	if _, err := io.ReadFull(reader, blob); err != nil {
		return nil, err
	}
	return blob, nil
}
