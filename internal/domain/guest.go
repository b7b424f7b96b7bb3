// Package domain contains entities without transport, just meta-data and validation.
package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const MaxGuestNameLen = 36

// GuestInfo is what a guest told the room about themselves.
// Empty fields are treated as absent.
type GuestInfo struct {
	Name  string
	Image string
}

// GuestUpdate carries the fields present in one join payload.
// A nil field was absent and leaves the stored value alone; a non-nil
// empty Image clears the avatar.
type GuestUpdate struct {
	Name  *string
	Image *string
}

// Validate trims the name in place and enforces size limits.
func (u *GuestUpdate) Validate(maxImageBytes int) error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if utf8.RuneCountInString(name) > MaxGuestNameLen {
			return fmt.Errorf("%w: max %d characters", ErrNameTooLong, MaxGuestNameLen)
		}
		u.Name = &name
	}
	if u.Image != nil && maxImageBytes > 0 && len(*u.Image) > maxImageBytes {
		return fmt.Errorf("%w: max %d bytes", ErrImageTooLarge, maxImageBytes)
	}
	return nil
}

// Merge applies the present fields of u on top of g.
func (g GuestInfo) Merge(u GuestUpdate) GuestInfo {
	if u.Name != nil {
		g.Name = *u.Name
	}
	if u.Image != nil {
		g.Image = *u.Image
	}
	return g
}
