package pluginhost

import "fmt"

// guestMemory is the subset of a WASM instance's linear memory either
// back-end needs: byte-range read and write, given as offset+length into
// guest address space.
type guestMemory interface {
	Read(offset, length uint32) ([]byte, bool)
	Write(offset uint32, data []byte) bool
}

// guestFuncs is the subset of a rule module's required exports either
// back-end must be able to call. Results use a packed (ptr<<32 | len)
// i64 encoding, the convention this host uses for every export that
// returns a variable-length byte buffer.
type guestFuncs interface {
	Alloc(size uint32) (uint32, error)
	Dealloc(ptr, size uint32) error
	GetManifest() (packed uint64, err error)
	Lint(ptr, length uint32) (packed uint64, err error)
}

// guestInstance is a loaded rule module: its exported functions plus its
// memory, as seen through one back-end's types.
type guestInstance interface {
	guestFuncs
	guestMemory
}

func packPtrLen(ptr, length uint32) uint64 {
	return uint64(ptr)<<32 | uint64(length)
}

func unpackPtrLen(packed uint64) (ptr, length uint32) {
	return uint32(packed >> 32), uint32(packed)
}

// invokeGetManifest calls get_manifest and reads back the serialized
// manifest bytes.
func invokeGetManifest(g guestInstance) ([]byte, error) {
	packed, err := g.GetManifest()
	if err != nil {
		return nil, fmt.Errorf("get_manifest call failed: %w", err)
	}
	ptr, length := unpackPtrLen(packed)
	data, ok := g.Read(ptr, length)
	if !ok {
		return nil, fmt.Errorf("get_manifest returned an out-of-bounds buffer (ptr=%d len=%d)", ptr, length)
	}
	return data, nil
}

// invokeLint writes requestBytes into a guest-allocated buffer, calls
// lint, reads the response, and frees both buffers.
func invokeLint(g guestInstance, requestBytes []byte) ([]byte, error) {
	inPtr, err := g.Alloc(uint32(len(requestBytes)))
	if err != nil {
		return nil, fmt.Errorf("alloc for request failed: %w", err)
	}
	defer func() { _ = g.Dealloc(inPtr, uint32(len(requestBytes))) }()

	if !g.Write(inPtr, requestBytes) {
		return nil, fmt.Errorf("write of request buffer out of bounds (ptr=%d len=%d)", inPtr, len(requestBytes))
	}

	packed, err := g.Lint(inPtr, uint32(len(requestBytes)))
	if err != nil {
		return nil, fmt.Errorf("lint call failed: %w", err)
	}

	outPtr, outLen := unpackPtrLen(packed)
	data, ok := g.Read(outPtr, outLen)
	if !ok {
		return nil, fmt.Errorf("lint returned an out-of-bounds buffer (ptr=%d len=%d)", outPtr, outLen)
	}
	// Copy out of guest memory before the guest has a chance to reuse or
	// free the region from under us, then release it.
	out := make([]byte, len(data))
	copy(out, data)
	_ = g.Dealloc(outPtr, outLen)

	return out, nil
}
