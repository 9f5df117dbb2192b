package wire

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipflow/clipflow/internal/content"
)

func pipePair(t *testing.T) (*Conn, *Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	return New(a), New(b)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	sender, receiver := pipePair(t)

	want := content.NewEnvelope(content.Text{Text: "hello clipflow"}, "linux-42")

	done := make(chan error, 1)
	go func() { done <- sender.WriteEnvelope(want) }()

	got, err := receiver.ReadEnvelope()
	require.NoError(t, <-done)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSequentialFrames(t *testing.T) {
	sender, receiver := pipePair(t)

	go func() {
		for i := 0; i < 3; i++ {
			_ = sender.WriteEnvelope(content.Envelope{
				Content:   content.Text{Text: string(rune('a' + i))},
				Timestamp: uint64(i),
			})
		}
	}()

	for i := 0; i < 3; i++ {
		env, err := receiver.ReadEnvelope()
		require.NoError(t, err)
		assert.Equal(t, uint64(i), env.Timestamp)
	}
}

func TestInvalidLength(t *testing.T) {
	for name, length := range map[string]uint32{
		"zero":     0,
		"over-cap": MaxFrameSize + 1,
	} {
		t.Run(name, func(t *testing.T) {
			a, b := net.Pipe()
			defer a.Close()
			defer b.Close()

			var prefix [4]byte
			binary.BigEndian.PutUint32(prefix[:], length)
			go func() {
				_, _ = a.Write(prefix[:])
				// Keep the conn open: ReadEnvelope must fail on the prefix
				// alone, without waiting for a body.
			}()

			c := New(b)
			errCh := make(chan error, 1)
			go func() {
				_, err := c.ReadEnvelope()
				errCh <- err
			}()

			select {
			case err := <-errCh:
				assert.ErrorIs(t, err, ErrInvalidLength)
			case <-time.After(2 * time.Second):
				t.Fatal("ReadEnvelope consumed past the 4-byte prefix")
			}
		})
	}
}

func TestTruncatedFrame(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()

	go func() {
		var prefix [4]byte
		binary.BigEndian.PutUint32(prefix[:], 100)
		_, _ = a.Write(prefix[:])
		_, _ = a.Write([]byte("only a little"))
		_ = a.Close()
	}()

	_, err := New(b).ReadEnvelope()
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestMalformedBody(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	body := []byte("this is not json")
	go func() {
		var prefix [4]byte
		binary.BigEndian.PutUint32(prefix[:], uint32(len(body)))
		_, _ = a.Write(prefix[:])
		_, _ = a.Write(body)
	}()

	_, err := New(b).ReadEnvelope()
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestCleanCloseIsEOF(t *testing.T) {
	a, b := net.Pipe()
	_ = a.Close()

	_, err := New(b).ReadEnvelope()
	assert.ErrorIs(t, err, io.EOF)
}
