package signal

import (
	"encoding/json"
	"testing"

	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCode(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    domain.RoomCode
		wantErr bool
	}{
		{name: "bare string", raw: `"ab12cd34"`, want: "ab12cd34"},
		{name: "object", raw: `{"code":"AB12CD34"}`, want: "ab12cd34"},
		{name: "padded", raw: `"  ab12cd34 "`, want: "ab12cd34"},
		{name: "missing", raw: ``, wantErr: true},
		{name: "null", raw: `null`, wantErr: true},
		{name: "empty string", raw: `"   "`, wantErr: true},
		{name: "number", raw: `42`, wantErr: true},
		{name: "object without code", raw: `{"name":"x"}`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeCode(json.RawMessage(tc.raw))
			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeJoin_BothShapesAgree(t *testing.T) {
	bare, err := decodeJoin(json.RawMessage(`"ab12cd34"`))
	require.NoError(t, err)
	obj, err := decodeJoin(json.RawMessage(`{"code":"ab12cd34"}`))
	require.NoError(t, err)

	assert.Equal(t, bare, obj)
	assert.Nil(t, obj.Update.Name)
	assert.Nil(t, obj.Update.Image)
}

func TestDecodeJoin_Fields(t *testing.T) {
	cmd, err := decodeJoin(json.RawMessage(`{"code":"ab12cd34","name":"Sam","image":"data:x"}`))
	require.NoError(t, err)
	require.NotNil(t, cmd.Update.Name)
	require.NotNil(t, cmd.Update.Image)
	assert.Equal(t, "Sam", *cmd.Update.Name)
	assert.Equal(t, "data:x", *cmd.Update.Image)

	cmd, err = decodeJoin(json.RawMessage(`{"code":"ab12cd34","name":null,"image":null}`))
	require.NoError(t, err)
	assert.Nil(t, cmd.Update.Name, "null name leaves the old one")
	require.NotNil(t, cmd.Update.Image, "null image clears the avatar")
	assert.Empty(t, *cmd.Update.Image)

	_, err = decodeJoin(json.RawMessage(`{"code":"ab12cd34","name":7}`))
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	_, err = decodeJoin(json.RawMessage(`{"name":"Sam"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestDecodeRoomName(t *testing.T) {
	name, err := decodeRoomName(json.RawMessage(`"Friday Night"`))
	require.NoError(t, err)
	assert.Equal(t, "Friday Night", name)

	name, err = decodeRoomName(nil)
	require.NoError(t, err)
	assert.Empty(t, name)

	_, err = decodeRoomName(json.RawMessage(`{"roomName":1}`))
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestDecodeQueueAdd(t *testing.T) {
	cmd, err := decodeQueueAdd(json.RawMessage(`{
		"code":"ab12cd34",
		"item":{"id":"x1","title":"Song","artist":"Artist","coverUrl":"c.jpg","addedBy":"spoof","addedAt":1}
	}`))
	require.NoError(t, err)
	assert.Equal(t, domain.RoomCode("ab12cd34"), cmd.Code)
	assert.Equal(t, domain.TrackRequest{ID: "x1", Title: "Song", Artist: "Artist", CoverURL: "c.jpg"}, cmd.Track)

	for _, raw := range []string{``, `null`, `[]`, `{"code":"ab12cd34"}`, `{"item":{"id":"x"}}`} {
		_, err := decodeQueueAdd(json.RawMessage(raw))
		assert.ErrorIs(t, err, domain.ErrInvalidPayload, raw)
	}
}
