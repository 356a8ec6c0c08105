package checkpoint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// Errors returned while loading a checkpoint.
var (
	ErrInvalidMagic       = errors.New("checkpoint: not a checkpoint file")
	ErrUnsupportedVersion = errors.New("checkpoint: unsupported format version")
	ErrChecksumMismatch   = errors.New("checkpoint: data checksum mismatch")
)

// Load reads a checkpoint file back into a state dictionary, verifying
// the data checksum recorded in the header.
func Load(path string) (map[string]*tensor.RawTensor, *Header, error) {
	file, err := os.Open(path) //nolint:gosec // G304: path is the caller's restore source
	if err != nil {
		return nil, nil, fmt.Errorf("checkpoint: open %s: %w", path, err)
	}
	defer file.Close()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(file, magic); err != nil {
		return nil, nil, fmt.Errorf("checkpoint: read magic: %w", err)
	}
	if string(magic) != MagicBytes {
		return nil, nil, ErrInvalidMagic
	}

	var version uint32
	if err := binary.Read(file, binary.LittleEndian, &version); err != nil {
		return nil, nil, fmt.Errorf("checkpoint: read version: %w", err)
	}
	if version != FormatVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	var headerSize uint64
	if err := binary.Read(file, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, fmt.Errorf("checkpoint: read header size: %w", err)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(file, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("checkpoint: read header: %w", err)
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, nil, fmt.Errorf("checkpoint: parse header: %w", err)
	}

	// Skip alignment padding before the data section.
	pos := int64(4+4+8) + int64(headerSize)
	if padding := (DataAlignment - pos%DataAlignment) % DataAlignment; padding > 0 {
		if _, err := file.Seek(padding, io.SeekCurrent); err != nil {
			return nil, nil, fmt.Errorf("checkpoint: seek data section: %w", err)
		}
	}

	stateDict := make(map[string]*tensor.RawTensor, len(header.Tensors))
	hash := sha256.New()
	var expectedOffset int64
	for _, meta := range header.Tensors {
		if meta.Offset != expectedOffset {
			return nil, nil, fmt.Errorf("checkpoint: tensor %s at offset %d, want %d", meta.Name, meta.Offset, expectedOffset)
		}
		dtype, ok := stringToDtype(meta.DType)
		if !ok {
			return nil, nil, fmt.Errorf("checkpoint: tensor %s has unknown dtype %q", meta.Name, meta.DType)
		}

		raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dtype, tensor.CPU)
		if err != nil {
			return nil, nil, fmt.Errorf("checkpoint: tensor %s: %w", meta.Name, err)
		}
		if int64(raw.ByteSize()) != meta.Size {
			return nil, nil, fmt.Errorf("checkpoint: tensor %s is %d bytes, shape %v wants %d",
				meta.Name, meta.Size, meta.Shape, raw.ByteSize())
		}

		if _, err := io.ReadFull(file, raw.Data()); err != nil {
			return nil, nil, fmt.Errorf("checkpoint: read tensor %s: %w", meta.Name, err)
		}
		hash.Write(raw.Data())

		stateDict[meta.Name] = raw
		expectedOffset += meta.Size
	}

	if sum := hex.EncodeToString(hash.Sum(nil)); sum != header.Checksum {
		return nil, nil, ErrChecksumMismatch
	}

	return stateDict, &header, nil
}
