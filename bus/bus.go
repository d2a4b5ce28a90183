// Package bus is an in-process pub/sub bus for telemetry.
// Topics are token paths; "+" matches one token and "#" matches the rest.
// Retained messages are replayed to later subscribers.
package bus

import (
	"strings"
	"sync"
)

const (
	AnyOne  = "+"
	AnyRest = "#"
)

// Topic is a sequence of path tokens.
type Topic []string

// T builds a Topic from tokens.
func T(tokens ...string) Topic { return Topic(tokens) }

// Parse splits a slash-separated topic such as "light/state".
func Parse(s string) Topic {
	if s == "" {
		return nil
	}
	return Topic(strings.Split(s, "/"))
}

func (t Topic) String() string { return strings.Join(t, "/") }

// Matches reports whether the concrete topic t is selected by pattern p.
func (t Topic) Matches(p Topic) bool {
	for i, tok := range p {
		if tok == AnyRest {
			return true
		}
		if i >= len(t) {
			return false
		}
		if tok != AnyOne && tok != t[i] {
			return false
		}
	}
	return len(t) == len(p)
}

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
}

type Subscription struct {
	pattern Topic
	ch      chan *Message
	conn    *Connection
}

func (s *Subscription) Topic() Topic             { return s.pattern }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

type node struct {
	children map[string]*node
	subs     []*Subscription
}

type Bus struct {
	mu       sync.Mutex
	root     *node
	retained map[string]*Message
	qLen     int
}

// NewBus creates a bus whose subscriptions queue up to queueLen messages.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Bus{
		root:     &node{},
		retained: make(map[string]*Message),
		qLen:     queueLen,
	}
}

// NewMessage is a convenience constructor.
func (b *Bus) NewMessage(t Topic, payload any, retained bool) *Message {
	return &Message{Topic: t, Payload: payload, Retained: retained}
}

// Retained returns the retained message for a concrete topic, if any.
func (b *Bus) Retained(t Topic) (*Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.retained[t.String()]
	return m, ok
}

func (b *Bus) subscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, tok := range sub.pattern {
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		child, ok := n.children[tok]
		if !ok {
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}
	n.subs = append(n.subs, sub)

	for _, m := range b.retained {
		if m.Topic.Matches(sub.pattern) {
			deliver(sub, m)
		}
	}
}

// Publish delivers msg to every matching subscription. A retained message
// with a nil payload clears the retained slot for its topic.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if msg.Retained {
		key := msg.Topic.String()
		if msg.Payload == nil {
			delete(b.retained, key)
		} else {
			b.retained[key] = msg
		}
	}
	b.walk(b.root, msg.Topic, func(s *Subscription) { deliver(s, msg) })
}

func (b *Bus) walk(n *node, rest Topic, fn func(*Subscription)) {
	if n == nil {
		return
	}
	if hash := n.children[AnyRest]; hash != nil {
		for _, s := range hash.subs {
			fn(s)
		}
	}
	if len(rest) == 0 {
		for _, s := range n.subs {
			fn(s)
		}
		return
	}
	b.walk(n.children[rest[0]], rest[1:], fn)
	if rest[0] != AnyOne {
		b.walk(n.children[AnyOne], rest[1:], fn)
	}
}

// deliver drops the oldest queued message when the subscriber is full.
func deliver(s *Subscription, m *Message) {
	select {
	case s.ch <- m:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- m:
	default:
	}
}

func (b *Bus) unsubscribe(sub *Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	stack := make([]*node, 0, len(sub.pattern))
	for _, tok := range sub.pattern {
		child := n.children[tok]
		if child == nil {
			return false
		}
		stack = append(stack, n)
		n = child
	}
	found := false
	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			found = true
			break
		}
	}
	for i := len(sub.pattern) - 1; i >= 0; i-- {
		parent, key := stack[i], sub.pattern[i]
		child := parent.children[key]
		if len(child.subs) != 0 || len(child.children) != 0 {
			break
		}
		delete(parent.children, key)
	}
	return found
}

// Connection groups subscriptions so they can be dropped together.
type Connection struct {
	bus  *Bus
	id   string
	mu   sync.Mutex
	subs []*Subscription
}

func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) Publish(msg *Message) { c.bus.Publish(msg) }

func (c *Connection) NewMessage(t Topic, payload any, retained bool) *Message {
	return c.bus.NewMessage(t, payload, retained)
}

func (c *Connection) Subscribe(pattern Topic) *Subscription {
	sub := &Subscription{
		pattern: append(Topic(nil), pattern...),
		ch:      make(chan *Message, c.bus.qLen),
		conn:    c,
	}
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	c.bus.subscribe(sub)
	return sub
}

// Unsubscribe removes sub and closes its channel. Repeated calls are no-ops.
func (c *Connection) Unsubscribe(sub *Subscription) {
	c.mu.Lock()
	owned := false
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			owned = true
			break
		}
	}
	c.mu.Unlock()
	if owned && c.bus.unsubscribe(sub) {
		close(sub.ch)
	}
}

// Disconnect drops every subscription held by the connection.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()
	for _, s := range subs {
		if c.bus.unsubscribe(s) {
			close(s.ch)
		}
	}
}
