// Package checkpoint saves and restores model weights in a small binary
// container:
//
//	[4 bytes: magic "CFNT"]
//	[4 bytes: version (uint32 LE)]
//	[8 bytes: header size (uint64 LE)]
//	[header: JSON metadata]
//	[tensor data: raw bytes, 64-byte aligned]
//
// Tensors are written in sorted name order so identical state dicts
// produce identical files. The header carries a SHA-256 checksum of the
// data section, verified on load.
package checkpoint

import (
	"time"

	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// Format constants.
const (
	MagicBytes    = "CFNT"
	FormatVersion = 1
	DataAlignment = 64 // tensor data starts on a 64-byte boundary
)

// Header is the JSON metadata block of a checkpoint file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	ModelType     string            `json:"model_type"`
	CreatedAt     time.Time         `json:"created_at"`
	Checksum      string            `json:"checksum"` // hex SHA-256 of the data section
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Training      *TrainingMeta     `json:"training,omitempty"`
}

// TrainingMeta records where in a training run the checkpoint was taken.
type TrainingMeta struct {
	Step int     `json:"step"`
	Loss float64 `json:"loss"`
}

// TensorMeta locates one tensor inside the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`
}

// dtypeToString converts a tensor dtype to its header representation.
func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return "float32"
	case tensor.Int32:
		return "int32"
	case tensor.Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}

// stringToDtype converts a header dtype string back to a tensor dtype.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case "float32":
		return tensor.Float32, true
	case "int32":
		return tensor.Int32, true
	case "uint8":
		return tensor.Uint8, true
	default:
		return 0, false
	}
}
