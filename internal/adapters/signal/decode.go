package signal

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dkeye/Karaoke/internal/domain"
)

// joinCommand is the one internal shape of room:join, whichever of the
// two wire forms the client used.
type joinCommand struct {
	Code   domain.RoomCode
	Update domain.GuestUpdate
}

type queueAddCommand struct {
	Code  domain.RoomCode
	Track domain.TrackRequest
}

var jsonNull = []byte("null")

func isAbsent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, jsonNull)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidPayload}, args...)...)
}

func decodeString(raw json.RawMessage, field string) (string, error) {
	var s string
	if isAbsent(raw) {
		return "", invalid("%s is required", field)
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", invalid("%s must be a string", field)
	}
	return s, nil
}

// decodeCode accepts a bare "code" string or an object with a code field.
func decodeCode(raw json.RawMessage) (domain.RoomCode, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var obj struct {
			Code json.RawMessage `json:"code"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return "", invalid("malformed object")
		}
		raw = obj.Code
	}
	s, err := decodeString(raw, "code")
	if err != nil {
		return "", err
	}
	code := domain.NormalizeRoomCode(s)
	if code == "" {
		return "", invalid("code is required")
	}
	return code, nil
}

// decodeJoin turns either "abcd1234" or {code, name?, image?} into a
// joinCommand. A field that is present overwrites; an absent one does not.
// image:null clears the avatar, name:null counts as absent.
func decodeJoin(raw json.RawMessage) (joinCommand, error) {
	var cmd joinCommand
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		code, err := decodeCode(raw)
		cmd.Code = code
		return cmd, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return cmd, invalid("malformed object")
	}
	code, err := decodeCode(fields["code"])
	if err != nil {
		return cmd, err
	}
	cmd.Code = code

	if v, ok := fields["name"]; ok && !isAbsent(v) {
		name, err := decodeString(v, "name")
		if err != nil {
			return cmd, err
		}
		cmd.Update.Name = &name
	}
	if v, ok := fields["image"]; ok {
		image := ""
		if !isAbsent(v) {
			if image, err = decodeString(v, "image"); err != nil {
				return cmd, err
			}
		}
		cmd.Update.Image = &image
	}
	return cmd, nil
}

// decodeRoomName treats a missing name as empty; the store substitutes
// the default.
func decodeRoomName(raw json.RawMessage) (string, error) {
	if isAbsent(raw) {
		return "", nil
	}
	return decodeString(raw, "roomName")
}

// decodeQueueAdd reads {code, item:{id,title,artist,coverUrl?}}. Any
// addedBy/addedAt the client sends is ignored.
func decodeQueueAdd(raw json.RawMessage) (queueAddCommand, error) {
	var cmd queueAddCommand
	var p struct {
		Code json.RawMessage `json:"code"`
		Item *struct {
			ID       string `json:"id"`
			Title    string `json:"title"`
			Artist   string `json:"artist"`
			CoverURL string `json:"coverUrl"`
		} `json:"item"`
	}
	if isAbsent(raw) {
		return cmd, invalid("payload is required")
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return cmd, invalid("malformed queue item")
	}
	code, err := decodeCode(p.Code)
	if err != nil {
		return cmd, err
	}
	if p.Item == nil {
		return cmd, invalid("item is required")
	}
	cmd.Code = code
	cmd.Track = domain.TrackRequest{
		ID:       p.Item.ID,
		Title:    p.Item.Title,
		Artist:   p.Item.Artist,
		CoverURL: p.Item.CoverURL,
	}
	return cmd, nil
}
