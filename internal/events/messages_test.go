package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_ToJSON(t *testing.T) {
	event := NewEvent(CategoriesDeleted, CategoriesDeletedPayload{
		Types:    []string{"food"},
		Fallback: "health",
		Count:    2,
	})

	body, err := event.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "categories.deleted", decoded["name"])

	payload := decoded["payload"].(map[string]interface{})
	assert.Equal(t, "health", payload["fallback"])
	assert.Equal(t, float64(2), payload["count"])
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), NewEvent(CategoryUpdated, nil)))
	assert.NoError(t, p.Close())
}
