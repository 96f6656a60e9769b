package models

import "errors"

var ErrBanned = errors.New("account is banned")

// CanModify reports whether u may edit or delete something owned by ownerID.
func (u *User) CanModify(ownerID string) bool {
	return u.ID == ownerID || u.IsSuperAdmin()
}

// CanParticipate gates posting, commenting and liking.
func (u *User) CanParticipate() error {
	if u.IsBanned {
		return ErrBanned
	}
	return nil
}
