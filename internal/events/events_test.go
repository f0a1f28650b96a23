package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"
)

type stubToken struct {
	err      error
	reported chan struct{}
}

func (t *stubToken) Wait() bool                     { return true }
func (t *stubToken) WaitTimeout(time.Duration) bool { return true }

func (t *stubToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (t *stubToken) Error() error {
	if t.reported != nil {
		select {
		case t.reported <- struct{}{}:
		default:
		}
	}
	return t.err
}

type stubClient struct {
	topics   []string
	payloads [][]byte
	token    *stubToken
}

func (c *stubClient) IsConnected() bool      { return true }
func (c *stubClient) IsConnectionOpen() bool { return true }
func (c *stubClient) Connect() mqtt.Token    { return c.token }
func (c *stubClient) Disconnect(uint)        {}

func (c *stubClient) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	c.topics = append(c.topics, topic)
	c.payloads = append(c.payloads, payload.([]byte))
	return c.token
}

func (c *stubClient) Subscribe(string, byte, mqtt.MessageHandler) mqtt.Token { return c.token }

func (c *stubClient) SubscribeMultiple(map[string]byte, mqtt.MessageHandler) mqtt.Token {
	return c.token
}

func (c *stubClient) Unsubscribe(...string) mqtt.Token        { return c.token }
func (c *stubClient) AddRoute(string, mqtt.MessageHandler)    {}
func (c *stubClient) OptionsReader() mqtt.ClientOptionsReader { return mqtt.ClientOptionsReader{} }

func TestPublisherDefaultsLoggerAndPrefix(t *testing.T) {
	client := &stubClient{token: &stubToken{}}
	p := newMQTTPublisher(client, "", 0, nil)
	require.NotNil(t, p.logger)
	require.Equal(t, "registry/events", p.prefix)
}

func TestPublishLifecycleTopicAndPayload(t *testing.T) {
	client := &stubClient{token: &stubToken{}}
	p := newMQTTPublisher(client, "owl", 1, nil)

	p.PublishLifecycle("device", "hw-1", ActionCreated)

	require.Equal(t, []string{"owl/device/created"}, client.topics)
	var event LifecycleEvent
	require.NoError(t, json.Unmarshal(client.payloads[0], &event))
	require.Equal(t, "device", event.EntityType)
	require.Equal(t, "hw-1", event.Token)
	require.Equal(t, ActionCreated, event.Action)
}

func TestPublishLifecycleBrokerErrorIsSwallowed(t *testing.T) {
	reported := make(chan struct{}, 1)
	client := &stubClient{token: &stubToken{err: errors.New("broker down"), reported: reported}}

	// No logger supplied; a failed publish must still be safe to report.
	p := newMQTTPublisher(client, "", 0, nil)
	p.PublishLifecycle("site", "site-1", ActionDeleted)

	select {
	case <-reported:
	case <-time.After(time.Second):
		t.Fatal("publish result was never checked")
	}
}
