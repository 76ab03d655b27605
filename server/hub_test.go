package server

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendWaitsForRoom(t *testing.T) {
	c := newClient("c1", "s1", nil)
	c.sendWait = 20 * time.Millisecond
	for i := 0; i < sendBuffer; i++ {
		require.NoError(t, c.SendJSON(Message{Type: "render"}))
	}

	err := c.SendJSON(Message{Type: "navigate", Path: "/qpick/catalog"})
	assert.ErrorIs(t, err, ErrSlowClient)

	c.sendWait = time.Second
	go func() {
		time.Sleep(10 * time.Millisecond)
		<-c.send
	}()
	require.NoError(t, c.SendJSON(Message{Type: "navigate", Path: "/qpick/catalog"}))

	var last Message
	for i := 0; i < sendBuffer; i++ {
		require.NoError(t, json.Unmarshal(<-c.send, &last))
	}
	assert.Equal(t, "navigate", last.Type)
	assert.Equal(t, "/qpick/catalog", last.Path)
}

func TestClientSendAfterClose(t *testing.T) {
	c := newClient("c1", "s1", nil)
	c.Close()
	c.Close()
	assert.NoError(t, c.SendJSON(Message{Type: "render"}))
}
