package pluralkit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"reply_reminder_bot/internal/domain/proxy"
)

const proxiedBody = `{"timestamp":"2024-03-01T12:00:00.123456+00:00","id":"1001","original":"1000","sender":"77","channel":"200","guild":"100","system":{"id":"abcde"},"member":{"id":"fghij"}}`

func TestClientResolveParsesMessage(t *testing.T) {
	var capturedPath, capturedAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(proxiedBody))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL + "/", HTTPClient: server.Client(), UserAgent: "tests/1"})
	msg, err := client.Resolve(context.Background(), "1001")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if capturedPath != "/v2/messages/1001" {
		t.Errorf("path = %s, want /v2/messages/1001", capturedPath)
	}
	if capturedAgent != "tests/1" {
		t.Errorf("User-Agent = %q, want tests/1", capturedAgent)
	}
	if msg.SenderID != "77" || msg.OriginalID != "1000" || msg.ID != "1001" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if msg.ChannelID != "200" || msg.GuildID != "100" {
		t.Errorf("unexpected location: %+v", msg)
	}
	want := time.Date(2024, 3, 1, 12, 0, 0, 123456000, time.UTC)
	if !msg.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", msg.Timestamp, want)
	}
}

func TestClientResolveNotFoundIsNotProxied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Message not found.","code":20006}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL, HTTPClient: server.Client()})
	msg, err := client.Resolve(context.Background(), "1001")
	if !errors.Is(err, proxy.ErrNotProxied) {
		t.Fatalf("err = %v, want ErrNotProxied", err)
	}
	if msg != nil {
		t.Errorf("msg = %+v, want nil", msg)
	}
}

func TestClientResolveServerErrorIsNotNotProxied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"slow down"}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL, HTTPClient: server.Client()})
	_, err := client.Resolve(context.Background(), "1001")
	if err == nil {
		t.Fatalf("expected error for 429")
	}
	if errors.Is(err, proxy.ErrNotProxied) {
		t.Fatalf("429 must not be reported as not proxied")
	}
	if !strings.Contains(err.Error(), "status=429") || !strings.Contains(err.Error(), "slow down") {
		t.Errorf("error should carry status and body, got %v", err)
	}
}

func TestClientResolveRejectsMalformedIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"timestamp":"2024-03-01T12:00:00Z","id":"1001","original":"1000","sender":"not-a-number","channel":"200","guild":"100"}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL, HTTPClient: server.Client()})
	_, err := client.Resolve(context.Background(), "1001")
	if err == nil || !strings.Contains(err.Error(), "sender") {
		t.Fatalf("expected sender parse error, got %v", err)
	}
}

type countingResolver struct {
	calls int32
	msg   *proxy.Message
	err   error
}

func (c *countingResolver) Resolve(ctx context.Context, messageID string) (*proxy.Message, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.err != nil {
		return nil, c.err
	}
	m := *c.msg
	return &m, nil
}

func TestCachingResolverCachesSuccess(t *testing.T) {
	inner := &countingResolver{msg: &proxy.Message{ID: "1001", SenderID: "77"}}
	resolver := NewCachingResolver(inner, time.Minute)
	defer resolver.Stop()

	for i := 0; i < 3; i++ {
		msg, err := resolver.Resolve(context.Background(), "1001")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if msg.SenderID != "77" {
			t.Fatalf("SenderID = %s, want 77", msg.SenderID)
		}
	}
	if got := atomic.LoadInt32(&inner.calls); got != 1 {
		t.Errorf("inner resolver called %d times, want 1", got)
	}
}

func TestCachingResolverDoesNotCacheNotProxied(t *testing.T) {
	inner := &countingResolver{err: proxy.ErrNotProxied}
	resolver := NewCachingResolver(inner, time.Minute)
	defer resolver.Stop()

	for i := 0; i < 2; i++ {
		if _, err := resolver.Resolve(context.Background(), "1001"); !errors.Is(err, proxy.ErrNotProxied) {
			t.Fatalf("err = %v, want ErrNotProxied", err)
		}
	}
	if got := atomic.LoadInt32(&inner.calls); got != 2 {
		t.Errorf("inner resolver called %d times, want 2", got)
	}
}

func TestCachingResolverSlidingExpiration(t *testing.T) {
	inner := &countingResolver{msg: &proxy.Message{ID: "1001", SenderID: "77"}}
	resolver := NewCachingResolver(inner, 300*time.Millisecond)
	defer resolver.Stop()

	ctx := context.Background()
	resolver.Resolve(ctx, "1001")
	// Each hit lands before the previous expiry and extends it.
	for i := 0; i < 3; i++ {
		time.Sleep(150 * time.Millisecond)
		resolver.Resolve(ctx, "1001")
	}
	if got := atomic.LoadInt32(&inner.calls); got != 1 {
		t.Fatalf("inner resolver called %d times while the entry was hot, want 1", got)
	}

	time.Sleep(500 * time.Millisecond)
	resolver.Resolve(ctx, "1001")
	if got := atomic.LoadInt32(&inner.calls); got != 2 {
		t.Errorf("inner resolver called %d times after expiry, want 2", got)
	}
}

func TestNewResolverWithoutCache(t *testing.T) {
	resolver := NewResolver(ClientOptions{}, 0)
	if _, ok := resolver.(*Client); !ok {
		t.Errorf("NewResolver with ttl 0 = %T, want *Client", resolver)
	}
	cached := NewResolver(ClientOptions{}, time.Minute)
	c, ok := cached.(*CachingResolver)
	if !ok {
		t.Fatalf("NewResolver with ttl = %T, want *CachingResolver", cached)
	}
	c.Stop()
}
