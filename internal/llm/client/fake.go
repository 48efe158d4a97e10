package llmclient

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeProvider answers from a handler instead of the network. It records
// every request so tests can assert on what was sent.
type FakeProvider struct {
	name    Name
	handler func(Request) (string, error)

	mu    sync.Mutex
	calls []Request
}

func NewFakeProvider(name Name, handler func(Request) (string, error)) *FakeProvider {
	if handler == nil {
		handler = OfflineReply
	}
	return &FakeProvider{name: name, handler: handler}
}

// NewScriptedProvider replies with replies in order, repeating the last one.
func NewScriptedProvider(name Name, replies ...string) *FakeProvider {
	var mu sync.Mutex
	i := 0
	return NewFakeProvider(name, func(Request) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(replies) == 0 {
			return "", nil
		}
		r := replies[min(i, len(replies)-1)]
		i++
		return r, nil
	})
}

func (f *FakeProvider) Name() Name   { return f.name }
func (f *FakeProvider) Close() error { return nil }

func (f *FakeProvider) Complete(ctx context.Context, req Request) (Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	content, err := f.handler(req)
	if err != nil {
		return Response{}, err
	}
	return Response{Content: content, Model: "fake", Provider: f.name}, nil
}

// Requests returns a copy of the requests received so far.
func (f *FakeProvider) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.calls...)
}

// OfflineReply returns deterministic, well-formed output per task, for
// running the pipeline without credentials.
func OfflineReply(req Request) (string, error) {
	switch {
	case strings.HasPrefix(req.Task, "keyword:"):
		dim := strings.TrimPrefix(req.Task, "keyword:")
		out := make([]string, 8)
		for i := range out {
			out[i] = fmt.Sprintf("%s-%d", dim, i+1)
		}
		return strings.Join(out, ","), nil
	case req.Task == "topicSynthesis":
		out := make([]string, 30)
		for i := range out {
			out[i] = fmt.Sprintf("%d. offline topic number %d", i+1, i+1)
		}
		return strings.Join(out, "\n"), nil
	case req.Task == "classify":
		return "[]", nil
	case req.Task == "contentPlan":
		return `{"hook":"offline hook","positioning":"offline positioning","painpoint":"offline painpoint","solution":"step one; step two; step three","cta":"follow for more","outline":["shot 1","shot 2","shot 3","shot 4","shot 5"]}`, nil
	}
	return "", nil
}
