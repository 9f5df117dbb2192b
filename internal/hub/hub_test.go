package hub

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipflow/clipflow/internal/content"
)

func textEnv(s string) content.Envelope {
	return content.Envelope{Content: content.Text{Text: s}, Timestamp: 1}
}

func TestFanoutToAllSubscribers(t *testing.T) {
	b := New(4)
	s1 := b.Subscribe()
	s2 := b.Subscribe()
	defer s1.Cancel()
	defer s2.Cancel()

	b.Publish(textEnv("x"))

	assert.Equal(t, textEnv("x"), <-s1.C())
	assert.Equal(t, textEnv("x"), <-s2.C())
}

func TestNoReplayForLateSubscriber(t *testing.T) {
	b := New(4)
	b.Publish(textEnv("before"))

	s := b.Subscribe()
	defer s.Cancel()

	select {
	case env := <-s.C():
		t.Fatalf("late subscriber saw pre-subscription envelope %v", env)
	default:
	}
}

func TestLaggedSubscriberSkipsOldestKeepsNewest(t *testing.T) {
	b := New(3)
	s := b.Subscribe()
	defer s.Cancel()

	for i := 0; i < 10; i++ {
		b.Publish(textEnv(fmt.Sprintf("m%d", i)))
	}

	// Buffer holds the newest 3; everything older was silently skipped.
	assert.Equal(t, textEnv("m7"), <-s.C())
	assert.Equal(t, textEnv("m8"), <-s.C())
	assert.Equal(t, textEnv("m9"), <-s.C())
	assert.Equal(t, uint64(7), s.Lagged())
}

func TestPublishNeverBlocks(t *testing.T) {
	b := New(1)
	s := b.Subscribe() // never drained
	defer s.Cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			b.Publish(textEnv("spam"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-timeout(t):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func timeout(t *testing.T) <-chan time.Time {
	t.Helper()
	return time.After(5 * time.Second)
}

func TestCancelClosesChannel(t *testing.T) {
	b := New(2)
	s := b.Subscribe()
	s.Cancel()

	_, ok := <-s.C()
	require.False(t, ok)

	// Publishing after cancel must not panic or deliver.
	b.Publish(textEnv("gone"))
}

func TestDefaultCapacity(t *testing.T) {
	b := New(0)
	assert.Equal(t, DefaultCapacity, b.capacity)
}
