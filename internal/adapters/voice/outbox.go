package voice

import "sync"

// Announcement is one utterance queued for the client's speech engine.
type Announcement struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// Outbox buffers announcements until the client drains them. When full, the
// oldest utterance is dropped: stale guidance is worse than none.
type Outbox struct {
	mu    sync.Mutex
	lang  string
	limit int
	items []Announcement
}

func NewOutbox(lang string, limit int) *Outbox {
	if limit <= 0 {
		limit = 32
	}
	return &Outbox{lang: lang, limit: limit}
}

func (o *Outbox) Announce(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.items) == o.limit {
		o.items = o.items[1:]
	}
	o.items = append(o.items, Announcement{Text: text, Lang: o.lang})
}

// Drain returns and clears the pending announcements.
func (o *Outbox) Drain() []Announcement {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := o.items
	o.items = nil
	if out == nil {
		out = []Announcement{}
	}
	return out
}
