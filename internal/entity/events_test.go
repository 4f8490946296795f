package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRecordDecode(t *testing.T) {
	tests := []struct {
		eventType string
		payload   string
		want      Event
	}{
		{
			EventItemAdded,
			`{"cart_id":"c1","product_id":"p1","quantity":2,"price":1999.99}`,
			ItemAdded{CartID: "c1", ProductID: "p1", Quantity: 2, Price: 1999.99},
		},
		{
			EventItemUpdated,
			`{"cart_id":"c1","product_id":"p1","quantity":5}`,
			ItemUpdated{CartID: "c1", ProductID: "p1", Quantity: 5},
		},
		{
			EventItemRemoved,
			`{"cart_id":"c1","product_id":"p1","quantity":1}`,
			ItemRemoved{CartID: "c1", ProductID: "p1", Quantity: 1},
		},
		{
			EventItemSavedForLater,
			`{"cart_id":"c1","product_id":"p1"}`,
			ItemSavedForLater{CartID: "c1", ProductID: "p1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			rec := EventRecord{EventType: tt.eventType, Payload: []byte(tt.payload)}
			event, err := rec.Decode()
			require.NoError(t, err)
			assert.Equal(t, tt.want, event)
			assert.Equal(t, tt.eventType, event.EventType())
		})
	}
}

func TestEventRecordDecode_UnknownType(t *testing.T) {
	rec := EventRecord{EventType: "cart_exploded", Payload: []byte(`{}`)}
	_, err := rec.Decode()
	assert.Error(t, err)
}

func TestEventEnvelopeDecode(t *testing.T) {
	raw := `{"event_type":"item_added","user_id":"u1","cart_id":"c1","data":{"cart_id":"c1","product_id":"p1","quantity":1,"price":500}}`

	var env EventEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	require.NotNil(t, env.UserID)
	assert.Equal(t, "u1", *env.UserID)
	assert.Nil(t, env.SessionID)

	event, err := env.DecodeEvent()
	require.NoError(t, err)
	assert.Equal(t, ItemAdded{CartID: "c1", ProductID: "p1", Quantity: 1, Price: 500}, event)
}
