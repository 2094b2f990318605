package rhi

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// ErrImmutableBuffer is returned by Map on buffers created with BufferUsageImmutable.
var ErrImmutableBuffer = errors.New("rhi: buffer is immutable")

type BufferType uint8

const (
	BufferTypeNone BufferType = iota
	BufferTypeVertex
	BufferTypeIndex
	BufferTypeConstant
)

func (t BufferType) String() string {
	switch t {
	case BufferTypeVertex:
		return "vertex"
	case BufferTypeIndex:
		return "index"
	case BufferTypeConstant:
		return "constant"
	default:
		return "none"
	}
}

// BufferUsage describes how the CPU touches a buffer after creation.
type BufferUsage uint8

const (
	BufferUsageNone BufferUsage = iota
	BufferUsageDynamic
	BufferUsageImmutable
)

// GPUUsage maps an engine buffer type and usage to WebGPU usage flags.
func GPUUsage(t BufferType, u BufferUsage) gputypes.BufferUsage {
	var flags gputypes.BufferUsage
	switch t {
	case BufferTypeVertex:
		flags = gputypes.BufferUsageVertex
	case BufferTypeIndex:
		flags = gputypes.BufferUsageIndex
	case BufferTypeConstant:
		flags = gputypes.BufferUsageUniform
	}
	if u == BufferUsageDynamic {
		flags |= gputypes.BufferUsageCopyDst | gputypes.BufferUsageMapWrite
	}
	return flags
}

type BufferDescriptor struct {
	Label string
	// InitialData is copied into the buffer; it may be shorter than Size.
	InitialData []byte
	Size        int
	Type        BufferType
	Usage       BufferUsage
}

// Buffer is a linear block of GPU-visible memory.
type Buffer interface {
	Retainable
	Size() int
	Type() BufferType
	Usage() BufferUsage
	// Map exposes the buffer contents for CPU writes until Unmap.
	Map() ([]byte, error)
	Unmap()
}

// BufferInfo holds the descriptor fields every backend buffer reports. Backends
// embed it.
type BufferInfo struct {
	size  int
	typ   BufferType
	usage BufferUsage
}

func NewBufferInfo(desc BufferDescriptor) BufferInfo {
	return BufferInfo{size: desc.Size, typ: desc.Type, usage: desc.Usage}
}

func (b BufferInfo) Size() int          { return b.size }
func (b BufferInfo) Type() BufferType   { return b.typ }
func (b BufferInfo) Usage() BufferUsage { return b.usage }
