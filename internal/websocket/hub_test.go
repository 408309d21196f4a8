package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/isdelr/mediinsight-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func newTestClient(h *Hub, username string, admin bool) *Client {
	return NewClient(h, nil, models.Identity{Username: username, IsAdmin: admin})
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected message %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_ReportCreated_OwnerAndAdminsOnly(t *testing.T) {
	h := startHub(t)
	alice := newTestClient(h, "alice", false)
	bob := newTestClient(h, "bob", false)
	admin := newTestClient(h, "root", true)
	h.Register(alice)
	h.Register(bob)
	h.Register(admin)

	h.ReportCreated(models.Report{ID: 7, User: "alice", ModelType: models.KindTumor, Result: models.LabelBenign})

	msg := receive(t, alice)
	assert.Equal(t, ActionReportCreated, msg.Action)
	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 7, payload["id"])

	assert.Equal(t, ActionReportCreated, receive(t, admin).Action)
	assertSilent(t, bob)
}

func TestHub_AdminOwner_ReceivesOnce(t *testing.T) {
	h := startHub(t)
	admin := newTestClient(h, "root", true)
	h.Register(admin)

	h.ReportDeleted(models.Report{ID: 1, User: "root"})

	assert.Equal(t, ActionReportDeleted, receive(t, admin).Action)
	assertSilent(t, admin)
}

func TestHub_Unregister_ClosesSend(t *testing.T) {
	h := startHub(t)
	c := newTestClient(h, "alice", false)
	h.Register(c)
	h.Unregister(c)

	select {
	case _, ok := <-c.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	h := startHub(t)
	c := newTestClient(h, "alice", false)
	h.Register(c)

	for i := 0; i < sendBuffer+1; i++ {
		h.ReportCreated(models.Report{ID: int64(i), User: "alice"})
	}

	assert.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-c.Send:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 10*time.Millisecond)
}
