package settle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Mode identifies how each participant's owed amount is derived.
type Mode string

const (
	ModeHost   Mode = "HOST"
	ModePerPax Mode = "PERPAX"
	ModeFriend Mode = "FRIEND"
)

// ParseMode validates a raw settle mode string. Only the exact tags HOST,
// PERPAX and FRIEND are accepted, matching what Resolve reads back.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeHost, ModePerPax, ModeFriend:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSettleMode, s)
	}
}

// Metadata is the decoded per-mode configuration of an expense. The only
// implementations are HostMetadata, PerPaxMetadata and FriendMetadata.
type Metadata interface {
	Mode() Mode
	Base() Common
	isMetadata()
}

// Common holds the fields every mode carries.
type Common struct {
	Members     []string `json:"members"`
	HostPortion string   `json:"hostPortion"`
}

// Base returns the shared fields.
func (c Common) Base() Common { return c }

func (Common) isMetadata() {}

// HostPortionAmount returns the host's own share, zero when unset.
func (c Common) HostPortionAmount() (decimal.Decimal, error) {
	return parseOptionalAmount(c.HostPortion)
}

// HostMetadata: the host pre-assigns an exact amount per named member.
type HostMetadata struct {
	Common
	MemberAmounts map[string]string `json:"memberAmounts"`
}

func (HostMetadata) Mode() Mode { return ModeHost }

// AmountFor looks up the amount assigned to name. An exact key match wins over
// a case-insensitive one.
func (m HostMetadata) AmountFor(name string) (decimal.Decimal, bool) {
	raw, ok := m.MemberAmounts[name]
	if !ok {
		for k, v := range m.MemberAmounts {
			if strings.EqualFold(k, name) {
				raw, ok = v, true
				break
			}
		}
	}
	if !ok {
		return decimal.Zero, false
	}
	d, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// PerPaxMetadata: the total is split evenly across a fixed headcount.
type PerPaxMetadata struct {
	Common
	NumberOfPax  int    `json:"numberOfPax"`
	PerPaxAmount string `json:"perPaxAmount"`
}

func (PerPaxMetadata) Mode() Mode { return ModePerPax }

// Amount returns the fixed per-person amount.
func (m PerPaxMetadata) Amount() (decimal.Decimal, error) {
	return ParseAmount(m.PerPaxAmount)
}

// FriendMetadata: each participant declares their own contribution.
type FriendMetadata struct {
	Common
	PaymentInstruction string `json:"paymentInstruction"`
}

func (FriendMetadata) Mode() Mode { return ModeFriend }

// Resolve decodes raw into the metadata shape of mode. Unknown keys, missing
// required keys and unparseable amounts are rejected, so a blob written for a
// different mode never decodes silently.
func Resolve(mode Mode, raw json.RawMessage) (Metadata, error) {
	switch mode {
	case ModeHost:
		var m HostMetadata
		if err := decodeStrict(raw, &m); err != nil {
			return nil, err
		}
		if err := m.check(); err != nil {
			return nil, err
		}
		return m, nil
	case ModePerPax:
		var m PerPaxMetadata
		if err := decodeStrict(raw, &m); err != nil {
			return nil, err
		}
		if err := m.check(); err != nil {
			return nil, err
		}
		return m, nil
	case ModeFriend:
		var m FriendMetadata
		if err := decodeStrict(raw, &m); err != nil {
			return nil, err
		}
		if err := m.check(); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSettleMode, mode)
	}
}

func decodeStrict(raw json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%w: empty metadata", ErrMalformedMetadata)
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}
	return nil
}

func (c Common) check() error {
	if c.Members == nil {
		return fmt.Errorf("%w: members is required", ErrMalformedMetadata)
	}
	if _, err := c.HostPortionAmount(); err != nil {
		return fmt.Errorf("%w: hostPortion: %v", ErrMalformedMetadata, err)
	}
	return nil
}

func (m HostMetadata) check() error {
	if err := m.Common.check(); err != nil {
		return err
	}
	if m.MemberAmounts == nil {
		return fmt.Errorf("%w: memberAmounts is required", ErrMalformedMetadata)
	}
	seen := make(map[string]string, len(m.MemberAmounts))
	for name, raw := range m.MemberAmounts {
		key := strings.ToLower(strings.TrimSpace(name))
		if other, ok := seen[key]; ok {
			return fmt.Errorf("%w: memberAmounts keys %q and %q collide", ErrMalformedMetadata, other, name)
		}
		seen[key] = name

		d, err := ParseAmount(raw)
		if err != nil {
			return fmt.Errorf("%w: memberAmounts[%s]: %v", ErrMalformedMetadata, name, err)
		}
		if d.IsNegative() {
			return fmt.Errorf("%w: memberAmounts[%s] is negative", ErrMalformedMetadata, name)
		}
	}
	return nil
}

func (m PerPaxMetadata) check() error {
	if err := m.Common.check(); err != nil {
		return err
	}
	if m.NumberOfPax <= 0 {
		return fmt.Errorf("%w: numberOfPax must be positive", ErrMalformedMetadata)
	}
	d, err := m.Amount()
	if err != nil {
		return fmt.Errorf("%w: perPaxAmount: %v", ErrMalformedMetadata, err)
	}
	if !d.IsPositive() {
		return fmt.Errorf("%w: perPaxAmount must be positive", ErrMalformedMetadata)
	}
	return nil
}

func (m FriendMetadata) check() error {
	return m.Common.check()
}

// IsConfigurationError reports whether err means the stored expense data
// itself is broken rather than anything the caller sent.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrUnknownSettleMode) || errors.Is(err, ErrMalformedMetadata)
}
