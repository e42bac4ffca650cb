package settle

import (
	"errors"
	"strings"
)

const (
	MsgNameRequired      = "Name is required"
	MsgNameTaken         = "This name has already been taken"
	MsgSelectParticipant = "Please select your name from the list"
	MsgRosterFull        = "All spots have already been claimed"
	MsgAmountRequired    = "Amount is required"
	MsgAmountNotNumber   = "Amount must be a number"
	MsgAmountNotPositive = "Amount must be greater than zero"
	MsgAmountTooLarge    = "Amount is too large"
)

// ClaimInput is a prospective claim as typed by the user.
type ClaimInput struct {
	// ParticipantID is empty for a new participant.
	ParticipantID string
	Name          string
	Amount        string
}

// Validate runs every field rule against in. The checks are an optimistic
// pre-check on a roster snapshot; the store enforces uniqueness and budget
// authoritatively at write time.
func Validate(md Metadata, in ClaimInput, roster Roster) Result {
	var res Result
	res = res.With(FieldName, checkName(md, in, roster))
	res = res.With(FieldAmount, CheckAmount(md.Mode(), in.Amount))
	return res
}

// Revalidate re-runs only the rule for field and leaves the other messages of
// prev untouched. Revalidating FieldGeneric clears it.
func Revalidate(prev Result, field Field, md Metadata, in ClaimInput, roster Roster) Result {
	switch field {
	case FieldName:
		return prev.With(FieldName, checkName(md, in, roster))
	case FieldAmount:
		return prev.With(FieldAmount, CheckAmount(md.Mode(), in.Amount))
	default:
		return prev.With(field, "")
	}
}

func checkName(md Metadata, in ClaimInput, roster Roster) string {
	name := strings.TrimSpace(in.Name)

	if in.ParticipantID == "" {
		if !acceptsNew(md, roster) {
			if md.Mode() == ModeHost {
				return MsgSelectParticipant
			}
			return MsgRosterFull
		}
		if name == "" {
			return MsgNameRequired
		}
	} else {
		// Host-assigned names are fixed and not the participant's to change.
		if md.Mode() == ModeHost {
			return ""
		}
		if name == "" {
			return MsgNameRequired
		}
	}

	if roster.NameTaken(name, in.ParticipantID) {
		return MsgNameTaken
	}
	return ""
}

// CheckAmount returns the amount rule's message, or "". Only FRIEND amounts
// are typed by the user; the other modes derive theirs.
func CheckAmount(mode Mode, amount string) string {
	if mode != ModeFriend {
		return ""
	}
	d, err := ParseAmount(amount)
	switch {
	case errors.Is(err, ErrAmountRequired):
		return MsgAmountRequired
	case errors.Is(err, ErrAmountOutOfRange):
		return MsgAmountTooLarge
	case err != nil:
		return MsgAmountNotNumber
	case !d.IsPositive():
		return MsgAmountNotPositive
	}
	return ""
}
