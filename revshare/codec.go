package revshare

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	registryVersion    = 1
	registryHeaderSize = 13 // version(1) + total_shares(8) + num_entries(4)
	registryEntrySize  = 28 // address(20) + share(8)
)

// SerializeRegistry serializes a RegistryState to binary format.
func SerializeRegistry(state *RegistryState) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: nil state", ErrInvalidRegistryData)
	}
	if len(state.Entries) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d entries", ErrTooManyEntries, len(state.Entries))
	}
	buf := make([]byte, registryHeaderSize+registryEntrySize*len(state.Entries))
	offset := 0

	buf[offset] = registryVersion
	offset++

	binary.BigEndian.PutUint64(buf[offset:offset+8], state.TotalShares)
	offset += 8

	binary.BigEndian.PutUint32(buf[offset:offset+4], uint32(len(state.Entries)))
	offset += 4

	for _, entry := range state.Entries {
		copy(buf[offset:offset+AddressSize], entry.Address[:])
		offset += AddressSize
		binary.BigEndian.PutUint64(buf[offset:offset+8], entry.Share)
		offset += 8
	}
	return buf, nil
}

// DeserializeRegistry deserializes binary data into a RegistryState.
// It checks framing only; use ValidateState for the share invariants.
func DeserializeRegistry(data []byte) (*RegistryState, error) {
	if len(data) < registryHeaderSize {
		return nil, fmt.Errorf("%w: too short (%d bytes)", ErrInvalidRegistryData, len(data))
	}
	offset := 0

	if v := data[offset]; v != registryVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidRegistryData, v)
	}
	offset++

	state := &RegistryState{}
	state.TotalShares = binary.BigEndian.Uint64(data[offset : offset+8])
	offset += 8

	numEntries := int(binary.BigEndian.Uint32(data[offset : offset+4]))
	offset += 4

	expectedSize := registryHeaderSize + registryEntrySize*numEntries
	if len(data) != expectedSize {
		return nil, fmt.Errorf("%w: expected %d bytes for %d entries, got %d",
			ErrInvalidRegistryData, expectedSize, numEntries, len(data))
	}

	state.Entries = make([]RevShareEntry, numEntries)
	for i := 0; i < numEntries; i++ {
		copy(state.Entries[i].Address[:], data[offset:offset+AddressSize])
		offset += AddressSize
		state.Entries[i].Share = binary.BigEndian.Uint64(data[offset : offset+8])
		offset += 8
	}
	return state, nil
}
