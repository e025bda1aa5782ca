package testutil

import (
	"sync"

	tele "gopkg.in/telebot.v3"
)

// Reply is one outgoing text recorded by the fakes
type Reply struct {
	Text    string
	Markup  *tele.ReplyMarkup
	Edited  bool
	Deleted bool
}

// FakeContext is a tele.Context that records replies. Methods not
// overridden panic through the nil embedded interface.
type FakeContext struct {
	tele.Context

	mu        sync.Mutex
	sender    *tele.User
	text      string
	callback  *tele.Callback
	store     map[string]interface{}
	Replies   []Reply
	Responses []*tele.CallbackResponse
}

// NewTextContext builds a context for a text message
func NewTextContext(userID int64, text string) *FakeContext {
	return &FakeContext{
		sender: &tele.User{ID: userID, FirstName: "Test", Username: "tester"},
		text:   text,
	}
}

// NewCallbackContext builds a context for a button press
func NewCallbackContext(userID int64, unique, data string) *FakeContext {
	return &FakeContext{
		sender: &tele.User{ID: userID, FirstName: "Test", Username: "tester"},
		callback: &tele.Callback{
			ID:      "cb",
			Unique:  unique,
			Data:    data,
			Message: &tele.Message{ID: 10, Chat: &tele.Chat{ID: userID}},
		},
	}
}

func (c *FakeContext) Sender() *tele.User { return c.sender }

func (c *FakeContext) Chat() *tele.Chat { return &tele.Chat{ID: c.sender.ID} }

func (c *FakeContext) Recipient() tele.Recipient { return c.sender }

func (c *FakeContext) Text() string { return c.text }

func (c *FakeContext) Callback() *tele.Callback { return c.callback }

func (c *FakeContext) Message() *tele.Message {
	if c.callback != nil {
		return c.callback.Message
	}
	return &tele.Message{ID: 1, Text: c.text, Chat: c.Chat(), Sender: c.sender}
}

func (c *FakeContext) Set(key string, val interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = make(map[string]interface{})
	}
	c.store[key] = val
}

func (c *FakeContext) Get(key string) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *FakeContext) Send(what interface{}, opts ...interface{}) error {
	c.record(what, opts, false)
	return nil
}

func (c *FakeContext) Edit(what interface{}, opts ...interface{}) error {
	c.record(what, opts, true)
	return nil
}

func (c *FakeContext) Respond(resp ...*tele.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Responses = append(c.Responses, resp...)
	return nil
}

// Last returns the most recent reply
func (c *FakeContext) Last() Reply {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Replies) == 0 {
		return Reply{}
	}
	return c.Replies[len(c.Replies)-1]
}

func (c *FakeContext) record(what interface{}, opts []interface{}, edited bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Replies = append(c.Replies, Reply{Text: textOf(what), Markup: markupOf(opts), Edited: edited})
}

// FakeMessenger records messages posted, edited and deleted through the bot
type FakeMessenger struct {
	mu       sync.Mutex
	nextID   int
	Messages []Reply
}

func (m *FakeMessenger) Send(_ tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.Messages = append(m.Messages, Reply{Text: textOf(what), Markup: markupOf(opts)})
	return &tele.Message{ID: m.nextID, Text: textOf(what)}, nil
}

func (m *FakeMessenger) Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, Reply{Text: textOf(what), Markup: markupOf(opts), Edited: true})
	return &tele.Message{Text: textOf(what)}, nil
}

func (m *FakeMessenger) Delete(msg tele.Editable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, Reply{Deleted: true})
	return nil
}

// Snapshot returns a copy of the recorded messages
func (m *FakeMessenger) Snapshot() []Reply {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Reply(nil), m.Messages...)
}

func textOf(what interface{}) string {
	if s, ok := what.(string); ok {
		return s
	}
	return ""
}

func markupOf(opts []interface{}) *tele.ReplyMarkup {
	for _, o := range opts {
		if m, ok := o.(*tele.ReplyMarkup); ok {
			return m
		}
	}
	return nil
}
