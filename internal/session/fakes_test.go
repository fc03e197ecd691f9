package session

import (
	"context"
	"errors"

	"github.com/taeskim-42/repstack-backend/internal/provider"
)

// fakeStore records store traffic for assertions.
type fakeStore struct {
	history  []provider.Message
	loadErr  error
	saveErr  error
	replErr  error
	loads    int
	saved    [][]provider.Message
	replaced [][]provider.Message
}

func (f *fakeStore) LoadHistory(ctx context.Context, userID int64) ([]provider.Message, error) {
	f.loads++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append([]provider.Message(nil), f.history...), nil
}

func (f *fakeStore) SaveMessages(ctx context.Context, userID int64, msgs []provider.Message) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, msgs)
	return nil
}

func (f *fakeStore) ReplaceHistory(ctx context.Context, userID int64, msgs []provider.Message) error {
	if f.replErr != nil {
		return f.replErr
	}
	f.replaced = append(f.replaced, msgs)
	return nil
}

// fakeSummarizer returns a fixed summary or error.
type fakeSummarizer struct {
	summary string
	err     error
	calls   int
	seen    []provider.Message
}

func (f *fakeSummarizer) Summarize(ctx context.Context, messages []provider.Message) (string, error) {
	f.calls++
	f.seen = messages
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

// fakeProvider returns canned responses for LLMSummarizer tests.
type fakeProvider struct {
	resp *provider.ChatResponse
	err  error
	last *provider.ChatRequest
}

func (f *fakeProvider) Chat(ctx context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeProvider) Name() string         { return "fake" }
func (f *fakeProvider) DefaultModel() string { return "fake-model" }

var errBoom = errors.New("boom")
