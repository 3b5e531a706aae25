package feed

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool { return true }

func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }

func (t *fakeToken) Done() <-chan struct{} { return t.done }

func (t *fakeToken) Error() error { return t.err }

// fakeClient records publishes; the embedded interface panics on anything
// else, which no test calls.
type fakeClient struct {
	mqtt.Client
	topic        string
	qos          byte
	retained     bool
	payload      []byte
	err          error
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.topic = topic
	c.qos = qos
	c.retained = retained
	c.payload = payload.([]byte)
	return newFakeToken(c.err)
}

func (c *fakeClient) Disconnect(uint) {
	c.disconnected = true
}

func TestMQTTMirror_PublishesRetainedSnapshot(t *testing.T) {
	client := &fakeClient{}
	mirror := NewMQTTMirror(client, "engineeye/forum/snapshot")

	err := mirror.PublishSnapshot(context.Background(), Snapshot{Version: 7, Posts: posts("a")})
	require.NoError(t, err)

	assert.Equal(t, "engineeye/forum/snapshot", client.topic)
	assert.Equal(t, byte(1), client.qos)
	assert.True(t, client.retained)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(client.payload, &snap))
	assert.Equal(t, uint64(7), snap.Version)

	mirror.Close()
	assert.True(t, client.disconnected)
}

func TestMQTTMirror_PublishError(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	mirror := NewMQTTMirror(client, "t")

	err := mirror.PublishSnapshot(context.Background(), Snapshot{})
	assert.ErrorContains(t, err, "not connected")
}

func TestMQTTMirror_AsHubMirror(t *testing.T) {
	client := &fakeClient{}
	hub := NewHub(nil, NewMQTTMirror(client, "t"))

	hub.Publish(posts("a", "b"))
	hub.Close()

	var snap Snapshot
	require.NoError(t, json.Unmarshal(client.payload, &snap))
	assert.Len(t, snap.Posts, 2)
}
