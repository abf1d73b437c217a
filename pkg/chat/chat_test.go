package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageStringFormat(t *testing.T) {
	m := New("OnConsoleMessage").Set("msg", "hello")
	assert.Equal(t, "action|OnConsoleMessage\nmsg|hello", m.String())
}

func TestParseRoundTrip(t *testing.T) {
	m := New("OnTalkBubble").Set("netID", "5").Set("msg", "hi")
	action, values := Parse(m.String())
	assert.Equal(t, "OnTalkBubble", action)
	assert.Equal(t, "5", values["netID"])
	assert.Equal(t, "hi", values["msg"])
}

func TestErrorConsoleMessageWrapsRed(t *testing.T) {
	m := ErrorConsoleMessage("nope")
	assert.Contains(t, m.String(), "`4nope`")
}

type fakeCtx struct {
	replies     []*Message
	hidden      bool
	nick        string
	nickErr     error
}

func (f *fakeCtx) SenderName() string       { return "tester" }
func (f *fakeCtx) Reply(msg *Message)       { f.replies = append(f.replies, msg) }
func (f *fakeCtx) Stats() string            { return "stats" }
func (f *fakeCtx) Status() string           { return "status" }
func (f *fakeCtx) HidePlayers()             { f.hidden = true }
func (f *fakeCtx) ShowPlayers()             { f.hidden = false }
func (f *fakeCtx) Roles() string            { return "roles" }
func (f *fakeCtx) FarmerStatus() string     { return "farmer" }
func (f *fakeCtx) SetNick(nick string) error {
	if f.nickErr != nil {
		return f.nickErr
	}
	f.nick = nick
	return nil
}

func TestDispatchKnownCommands(t *testing.T) {
	f := &fakeCtx{}
	Dispatch(f, "/hideplayers")
	assert.True(t, f.hidden)
	require.Len(t, f.replies, 1)

	Dispatch(f, "/showplayers")
	assert.False(t, f.hidden)
}

func TestDispatchNickSetsAndReports(t *testing.T) {
	f := &fakeCtx{}
	Dispatch(f, "/nick newname")
	assert.Equal(t, "newname", f.nick)
	require.Len(t, f.replies, 1)
	assert.Contains(t, f.replies[0].String(), "Nickname updated.")
}

func TestDispatchUnknownCommandRepliesError(t *testing.T) {
	f := &fakeCtx{}
	Dispatch(f, "/bogus")
	require.Len(t, f.replies, 1)
	assert.Contains(t, f.replies[0].String(), "Unknown command")
}
