package llm

import (
	"context"
	"errors"
	"sync"
)

type FakeReply struct {
	Text string
	Err  error
}

// Fake replays canned replies in order and records every request.
type Fake struct {
	mu      sync.Mutex
	replies []FakeReply
	Calls   []Request
}

func NewFake(replies ...FakeReply) *Fake {
	return &Fake{replies: replies}
}

func (f *Fake) Name() string  { return "fake" }
func (f *Fake) Model() string { return "fake-model" }

func (f *Fake) Generate(_ context.Context, req Request) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, req)
	if len(f.replies) == 0 {
		return nil, &Error{Provider: "fake", Kind: KindUnavailable, Err: errors.New("no replies queued")}
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	if r.Err != nil {
		return nil, r.Err
	}
	return &Response{Text: r.Text, Model: "fake-model", FinishReason: FinishStop}, nil
}

func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}
