package llm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"arivu-ai-be/pkg/llm/keypool"
)

// fakeProvider scripts one response per call, keyed by the credential it
// was built with.
type fakeProvider struct {
	key     string
	replies []string
	errs    []error
	calls   int
}

func (f *fakeProvider) ChatMultimodal(ctx context.Context, history []Message, prompt string, attachments []Attachment, options ...Option) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", errors.New("unscripted call")
}

func (f *fakeProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	return f.ChatMultimodal(ctx, history, "", nil)
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return f.ChatMultimodal(ctx, nil, prompt, nil)
}

func newTestGateway(keys []string, providers map[string]*fakeProvider) *Gateway {
	pool := keypool.New(keys)
	return NewGateway(pool, func(apiKey string) LLMProvider {
		return providers[apiKey]
	})
}

func TestSendHappyPath(t *testing.T) {
	providers := map[string]*fakeProvider{
		"k1": {key: "k1", replies: []string{"hello back"}},
	}
	g := newTestGateway([]string{"k1"}, providers)

	reply, err := g.Send(context.Background(), "hello", nil, nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply != "hello back" {
		t.Errorf("reply = %q, want %q", reply, "hello back")
	}
}

func TestSendNoKeys(t *testing.T) {
	g := newTestGateway(nil, nil)

	_, err := g.Send(context.Background(), "hi", nil, nil)
	var ge *GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("expected *GatewayError, got %T", err)
	}
	if ge.Kind != ErrKindNoApiKey {
		t.Errorf("Kind = %v, want %v", ge.Kind, ErrKindNoApiKey)
	}
}

func TestSendRotatesOnceOnQuota(t *testing.T) {
	providers := map[string]*fakeProvider{
		"k1": {key: "k1", errs: []error{errors.New("429 quota exceeded")}},
		"k2": {key: "k2", replies: []string{"from second key"}},
	}
	g := newTestGateway([]string{"k1", "k2"}, providers)

	reply, err := g.Send(context.Background(), "hi", nil, nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply != "from second key" {
		t.Errorf("reply = %q, want %q", reply, "from second key")
	}
	if g.Pool().Index() != 1 {
		t.Errorf("pool index = %d, want 1", g.Pool().Index())
	}
	if providers["k1"].calls != 1 || providers["k2"].calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", providers["k1"].calls, providers["k2"].calls)
	}
}

func TestSendRetriesExactlyOnce(t *testing.T) {
	providers := map[string]*fakeProvider{
		"k1": {key: "k1", errs: []error{errors.New("RESOURCE_EXHAUSTED")}},
		"k2": {key: "k2", errs: []error{errors.New("429 still limited")}},
	}
	g := newTestGateway([]string{"k1", "k2"}, providers)

	_, err := g.Send(context.Background(), "hi", nil, nil)
	var ge *GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("expected *GatewayError, got %T", err)
	}
	// The second failure is surfaced; no third attempt happens.
	if ge.Kind != ErrKindQuotaExceeded {
		t.Errorf("Kind = %v, want %v", ge.Kind, ErrKindQuotaExceeded)
	}
	if providers["k1"].calls != 1 || providers["k2"].calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", providers["k1"].calls, providers["k2"].calls)
	}
}

func TestSendDoesNotRotateOnTransient(t *testing.T) {
	providers := map[string]*fakeProvider{
		"k1": {key: "k1", errs: []error{errors.New("context deadline exceeded")}},
		"k2": {key: "k2", replies: []string{"unused"}},
	}
	g := newTestGateway([]string{"k1", "k2"}, providers)

	_, err := g.Send(context.Background(), "hi", nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if providers["k2"].calls != 0 {
		t.Errorf("second key was called %d times, want 0", providers["k2"].calls)
	}
	if g.Pool().Index() != 0 {
		t.Errorf("pool index = %d, want 0", g.Pool().Index())
	}
}

// flakyProvider is safe for concurrent use; every other call fails with a
// rotatable error so overlapping sends keep both cache entries hot.
type flakyProvider struct {
	calls atomic.Int64
}

func (p *flakyProvider) ChatMultimodal(ctx context.Context, history []Message, prompt string, attachments []Attachment, options ...Option) (string, error) {
	if p.calls.Add(1)%2 == 1 {
		return "", errors.New("429 quota exceeded")
	}
	return "ok", nil
}

func (p *flakyProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	return p.ChatMultimodal(ctx, history, "", nil)
}

func (p *flakyProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return p.ChatMultimodal(ctx, nil, prompt, nil)
}

func TestSendConcurrentExchanges(t *testing.T) {
	g := NewGateway(keypool.New([]string{"k1", "k2"}), func(apiKey string) LLMProvider {
		return &flakyProvider{}
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reply, err := g.Send(context.Background(), "hi", nil, nil)
			if err != nil {
				var ge *GatewayError
				if !errors.As(err, &ge) {
					t.Errorf("expected *GatewayError, got %T", err)
				}
				return
			}
			if reply != "ok" {
				t.Errorf("reply = %q, want %q", reply, "ok")
			}
		}()
	}
	wg.Wait()
}

func TestSendSingleKeyNoRetry(t *testing.T) {
	providers := map[string]*fakeProvider{
		"k1": {key: "k1", errs: []error{errors.New("429 quota")}},
	}
	g := newTestGateway([]string{"k1"}, providers)

	_, err := g.Send(context.Background(), "hi", nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if providers["k1"].calls != 1 {
		t.Errorf("calls = %d, want 1", providers["k1"].calls)
	}
}
