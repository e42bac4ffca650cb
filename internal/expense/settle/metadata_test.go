package settle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hostBlob   = `{"members":["Carl","Dana"],"hostPortion":"10.00","memberAmounts":{"Carl":"45.00","Dana":"35"}}`
	perPaxBlob = `{"members":[],"hostPortion":"25.00","numberOfPax":3,"perPaxAmount":"25.00"}`
	friendBlob = `{"members":[],"hostPortion":"0","paymentInstruction":"PayNow to 9123 4567"}`
)

func TestResolve_DispatchesOnMode(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		raw  string
		want Mode
	}{
		{name: "host", mode: ModeHost, raw: hostBlob, want: ModeHost},
		{name: "perpax", mode: ModePerPax, raw: perPaxBlob, want: ModePerPax},
		{name: "friend", mode: ModeFriend, raw: friendBlob, want: ModeFriend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, err := Resolve(tt.mode, json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, md.Mode())
		})
	}
}

func TestResolve_TypedShapes(t *testing.T) {
	md, err := Resolve(ModeHost, json.RawMessage(hostBlob))
	require.NoError(t, err)
	host, ok := md.(HostMetadata)
	require.True(t, ok)
	assert.Equal(t, []string{"Carl", "Dana"}, host.Members)
	amount, ok := host.AmountFor("carl")
	require.True(t, ok)
	assert.Equal(t, "45.00", FormatAmount(amount))

	md, err = Resolve(ModePerPax, json.RawMessage(perPaxBlob))
	require.NoError(t, err)
	perPax, ok := md.(PerPaxMetadata)
	require.True(t, ok)
	assert.Equal(t, 3, perPax.NumberOfPax)

	md, err = Resolve(ModeFriend, json.RawMessage(friendBlob))
	require.NoError(t, err)
	friend, ok := md.(FriendMetadata)
	require.True(t, ok)
	assert.Equal(t, "PayNow to 9123 4567", friend.PaymentInstruction)
}

func TestResolve_UnknownMode(t *testing.T) {
	for _, mode := range []Mode{"", "EVEN", "host"} {
		_, err := Resolve(mode, json.RawMessage(friendBlob))
		assert.ErrorIs(t, err, ErrUnknownSettleMode, "mode %q", mode)
		assert.True(t, IsConfigurationError(err))
	}
}

func TestResolve_RejectsBlobOfAnotherMode(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		raw  string
	}{
		{name: "perpax blob as host", mode: ModeHost, raw: perPaxBlob},
		{name: "friend blob as host", mode: ModeHost, raw: friendBlob},
		{name: "host blob as perpax", mode: ModePerPax, raw: hostBlob},
		{name: "friend blob as perpax", mode: ModePerPax, raw: friendBlob},
		{name: "host blob as friend", mode: ModeFriend, raw: hostBlob},
		{name: "perpax blob as friend", mode: ModeFriend, raw: perPaxBlob},
		{name: "empty", mode: ModeFriend, raw: ``},
		{name: "null", mode: ModeFriend, raw: `null`},
		{name: "missing members", mode: ModeFriend, raw: `{"hostPortion":"1"}`},
		{name: "bad host portion", mode: ModeFriend, raw: `{"members":[],"hostPortion":"abc"}`},
		{name: "zero pax", mode: ModePerPax, raw: `{"members":[],"hostPortion":"","numberOfPax":0,"perPaxAmount":"5"}`},
		{name: "bad per pax amount", mode: ModePerPax, raw: `{"members":[],"hostPortion":"","numberOfPax":2,"perPaxAmount":"five"}`},
		{name: "negative member amount", mode: ModeHost, raw: `{"members":["A"],"hostPortion":"","memberAmounts":{"A":"-1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, err := Resolve(tt.mode, json.RawMessage(tt.raw))
			assert.ErrorIs(t, err, ErrMalformedMetadata)
			assert.Nil(t, md)
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("PERPAX")
	require.NoError(t, err)
	assert.Equal(t, ModePerPax, m)

	for _, raw := range []string{"SPLIT", "friend", " HOST", ""} {
		_, err = ParseMode(raw)
		assert.ErrorIs(t, err, ErrUnknownSettleMode, raw)
	}
}

func TestResolve_HostMemberAmountsCaseCollision(t *testing.T) {
	raw := json.RawMessage(`{"members":["Alice"],"hostPortion":"0","memberAmounts":{"alice":"10","Alice":"20"}}`)
	_, err := Resolve(ModeHost, raw)
	assert.ErrorIs(t, err, ErrMalformedMetadata)
}
