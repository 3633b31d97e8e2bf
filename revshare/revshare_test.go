package revshare

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeAddr(seed byte) Address {
	var addr Address
	for i := range addr {
		addr[i] = seed
	}
	return addr
}

func sumShares(r *Registry) uint64 {
	var sum uint64
	for _, id := range r.Members() {
		sum += r.ShareOf(id)
	}
	return sum
}

// --- Registry tests ---

func TestAddOrUpdate_NewRecipient(t *testing.T) {
	r := NewRegistry()
	a, b := makeAddr(0xAA), makeAddr(0xBB)

	added, err := r.AddOrUpdate(a, 40)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = r.AddOrUpdate(b, 60)
	require.NoError(t, err)
	assert.True(t, added)

	assert.Equal(t, uint64(100), r.TotalShares())
	assert.Equal(t, []Address{a, b}, r.Members())
	assert.True(t, r.IsMember(a))
	assert.Equal(t, uint64(60), r.ShareOf(b))
}

func TestAddOrUpdate_UpdateKeepsPosition(t *testing.T) {
	r := NewRegistry()
	a, b, c := makeAddr(0x01), makeAddr(0x02), makeAddr(0x03)
	for _, id := range []Address{a, b, c} {
		_, err := r.AddOrUpdate(id, 20)
		require.NoError(t, err)
	}

	added, err := r.AddOrUpdate(a, 50)
	require.NoError(t, err)
	assert.False(t, added, "update must not report a new recipient")
	assert.Equal(t, []Address{a, b, c}, r.Members())
	assert.Equal(t, uint64(90), r.TotalShares())
}

func TestAddOrUpdate_Idempotent(t *testing.T) {
	r := NewRegistry()
	a := makeAddr(0x01)
	_, err := r.AddOrUpdate(a, 30)
	require.NoError(t, err)
	before := r.State()

	added, err := r.AddOrUpdate(a, 30)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, before, r.State())
}

func TestAddOrUpdate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   map[byte]uint64
		id      Address
		share   uint64
		wantErr error
	}{
		{"null recipient", nil, Address{}, 10, ErrInvalidRecipient},
		{"zero share", nil, makeAddr(0x01), 0, ErrInvalidShare},
		{"share above cap alone", nil, makeAddr(0x01), 150, ErrInvalidShare},
		{"new recipient over cap", map[byte]uint64{0x0A: 30, 0x0B: 30}, makeAddr(0x0C), 50, ErrShareCapExceeded},
		{"update over cap", map[byte]uint64{0x0A: 30, 0x0B: 60}, makeAddr(0x0A), 41, ErrShareCapExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			for seed, share := range tt.setup {
				_, err := r.AddOrUpdate(makeAddr(seed), share)
				require.NoError(t, err)
			}
			before := r.State()

			_, err := r.AddOrUpdate(tt.id, tt.share)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before.TotalShares, r.TotalShares(), "registry must be unchanged")
			assert.ElementsMatch(t, before.Entries, r.State().Entries)
		})
	}
}

func TestAddOrUpdate_ExactCap(t *testing.T) {
	r := NewRegistry()
	_, err := r.AddOrUpdate(makeAddr(0x01), 100)
	require.NoError(t, err)
	_, err = r.AddOrUpdate(makeAddr(0x02), 1)
	assert.ErrorIs(t, err, ErrShareCapExceeded)
}

func TestRemove(t *testing.T) {
	r := NewRegistry()
	a, b, c := makeAddr(0x01), makeAddr(0x02), makeAddr(0x03)
	_, _ = r.AddOrUpdate(a, 10)
	_, _ = r.AddOrUpdate(b, 20)
	_, _ = r.AddOrUpdate(c, 30)

	share, err := r.Remove(a)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), share)

	assert.False(t, r.IsMember(a))
	assert.Equal(t, uint64(0), r.ShareOf(a))
	assert.Equal(t, uint64(50), r.TotalShares())
	// Swap-remove moves the last entry into the vacated slot.
	assert.Equal(t, []Address{c, b}, r.Members())
	assert.Equal(t, sumShares(r), r.TotalShares())
}

func TestRemove_LastAndOnly(t *testing.T) {
	r := NewRegistry()
	a := makeAddr(0x01)
	_, _ = r.AddOrUpdate(a, 10)

	_, err := r.Remove(a)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, uint64(0), r.TotalShares())

	_, err = r.Remove(a)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestRemove_ThenReAdd(t *testing.T) {
	r := NewRegistry()
	a, b := makeAddr(0x01), makeAddr(0x02)
	_, _ = r.AddOrUpdate(a, 60)
	_, _ = r.AddOrUpdate(b, 40)
	_, err := r.Remove(a)
	require.NoError(t, err)

	added, err := r.AddOrUpdate(a, 60)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []Address{b, a}, r.Members())
}

func TestRegistry_InvariantUnderChurn(t *testing.T) {
	r := NewRegistry()
	ops := []struct {
		seed   byte
		share  uint64
		remove bool
	}{
		{1, 25, false}, {2, 25, false}, {3, 25, false}, {4, 25, false},
		{2, 0, true}, {5, 10, false}, {1, 40, false}, {3, 0, true},
		{6, 15, false}, {4, 5, false}, {7, 30, false}, {5, 0, true},
	}
	for _, op := range ops {
		if op.remove {
			_, _ = r.Remove(makeAddr(op.seed))
		} else {
			_, _ = r.AddOrUpdate(makeAddr(op.seed), op.share)
		}
		require.LessOrEqual(t, r.TotalShares(), MaxShares)
		require.Equal(t, sumShares(r), r.TotalShares())
		require.NoError(t, ValidateState(r.State()))
	}
}

func TestRestore_RejectsInvalidState(t *testing.T) {
	r := NewRegistry()
	_, _ = r.AddOrUpdate(makeAddr(0x01), 10)

	err := r.Restore(&RegistryState{
		TotalShares: 20,
		Entries:     []RevShareEntry{{Address: makeAddr(0x02), Share: 10}},
	})
	assert.ErrorIs(t, err, ErrShareConservationViolation)
	assert.True(t, r.IsMember(makeAddr(0x01)), "failed restore must leave registry unchanged")
}

func TestStateIsACopy(t *testing.T) {
	r := NewRegistry()
	_, _ = r.AddOrUpdate(makeAddr(0x01), 10)
	st := r.State()
	st.Entries[0].Share = 99
	assert.Equal(t, uint64(10), r.ShareOf(makeAddr(0x01)))
}

// --- Validation tests ---

func TestValidateState(t *testing.T) {
	tests := []struct {
		name    string
		state   *RegistryState
		wantErr error
	}{
		{"nil", nil, ErrInvalidRegistryData},
		{"empty", &RegistryState{}, nil},
		{"null address", &RegistryState{TotalShares: 10, Entries: []RevShareEntry{{Share: 10}}}, ErrInvalidRecipient},
		{"zero share", &RegistryState{Entries: []RevShareEntry{{Address: makeAddr(1)}}}, ErrInvalidShare},
		{"duplicate", &RegistryState{TotalShares: 20, Entries: []RevShareEntry{
			{Address: makeAddr(1), Share: 10}, {Address: makeAddr(1), Share: 10},
		}}, ErrDuplicateRecipient},
		{"total mismatch", &RegistryState{TotalShares: 11, Entries: []RevShareEntry{
			{Address: makeAddr(1), Share: 10},
		}}, ErrShareConservationViolation},
		{"over cap", &RegistryState{TotalShares: 110, Entries: []RevShareEntry{
			{Address: makeAddr(1), Share: 60}, {Address: makeAddr(2), Share: 50},
		}}, ErrShareCapExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateState(tt.state)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// --- Codec tests ---

func TestSerializeRegistry_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		state *RegistryState
	}{
		{"empty", &RegistryState{}},
		{"single entry", &RegistryState{
			TotalShares: 100,
			Entries:     []RevShareEntry{{Address: makeAddr(0xAA), Share: 100}},
		}},
		{"multiple entries", &RegistryState{
			TotalShares: 100,
			Entries: []RevShareEntry{
				{Address: makeAddr(0xAA), Share: 30},
				{Address: makeAddr(0xBB), Share: 20},
				{Address: makeAddr(0xCC), Share: 50},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := SerializeRegistry(tt.state)
			require.NoError(t, err)

			decoded, err := DeserializeRegistry(data)
			require.NoError(t, err)

			assert.Equal(t, tt.state.TotalShares, decoded.TotalShares)
			require.Len(t, decoded.Entries, len(tt.state.Entries))
			for i := range tt.state.Entries {
				assert.Equal(t, tt.state.Entries[i], decoded.Entries[i])
			}
		})
	}
}

func TestSerializeRegistry_Size(t *testing.T) {
	state := &RegistryState{
		TotalShares: 100,
		Entries: []RevShareEntry{
			{Address: makeAddr(0xAA), Share: 50},
			{Address: makeAddr(0xBB), Share: 50},
		},
	}
	data, err := SerializeRegistry(state)
	require.NoError(t, err)
	// Expected: 1 + 8 + 4 + 28*2 = 69
	assert.Len(t, data, 69)
}

func TestDeserializeRegistry_Malformed(t *testing.T) {
	good, err := SerializeRegistry(&RegistryState{
		TotalShares: 10,
		Entries:     []RevShareEntry{{Address: makeAddr(0x01), Share: 10}},
	})
	require.NoError(t, err)

	badVersion := append([]byte(nil), good...)
	badVersion[0] = 9

	tests := []struct {
		name string
		data []byte
	}{
		{"too short", []byte{0x01, 0x02}},
		{"truncated entry", good[:len(good)-1]},
		{"trailing bytes", append(append([]byte(nil), good...), 0x00)},
		{"bad version", badVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeserializeRegistry(tt.data)
			assert.ErrorIs(t, err, ErrInvalidRegistryData)
		})
	}
}

// --- Address tests ---

func TestParseAddress(t *testing.T) {
	want, err := hex.DecodeString("751e76e8199196d454941c45d1b3a323f1433bd6")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{"base58 mainnet", "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH"},
		{"hex", "751e76e8199196d454941c45d1b3a323f1433bd6"},
		{"surrounding whitespace", "  1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			require.NoError(t, err)
			assert.Equal(t, want, got[:])
		})
	}
}

func TestParseAddress_Invalid(t *testing.T) {
	for _, s := range []string{"", "not-an-address", "1BgGZ9tcN4rm0000"} {
		_, err := ParseAddress(s)
		assert.ErrorIs(t, err, ErrInvalidAddress, "input %q", s)
	}
}

func TestAddress_StringRoundTrip(t *testing.T) {
	a, err := ParseAddress("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa")
	require.NoError(t, err)
	assert.Equal(t, "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", a.String())
	assert.False(t, a.IsZero())
	assert.True(t, Address{}.IsZero())
}

func TestAddressFromPublicKeyHash(t *testing.T) {
	a, err := AddressFromPublicKeyHash(make([]byte, AddressSize))
	require.NoError(t, err)
	assert.True(t, a.IsZero())

	_, err = AddressFromPublicKeyHash([]byte{0x01})
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
