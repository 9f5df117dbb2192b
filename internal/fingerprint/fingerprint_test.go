package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clipflow/clipflow/internal/content"
)

func TestShouldSyncIdempotence(t *testing.T) {
	var d Detector
	c := content.Text{Text: "hello"}

	assert.True(t, d.ShouldSync(c), "first sight must sync")
	assert.False(t, d.ShouldSync(c), "identical content must not re-sync")
	assert.True(t, d.ShouldSync(content.Text{Text: "world"}))
	assert.False(t, d.ShouldSync(content.Text{Text: "world"}))
}

func TestKindTagPreventsCrossKindCollision(t *testing.T) {
	// Same byte payloads under different kinds must fingerprint differently.
	assert.NotEqual(t, Of(content.Text{Text: "x"}), Of(content.HTML{HTML: "x"}))
	assert.NotEqual(t, Of(content.Text{Text: "abc"}), Of(content.Image{Data: "abc"}))
}

func TestDimensionsAffectImageFingerprint(t *testing.T) {
	a := content.Image{Data: "QUJD", Width: 10, Height: 20}
	b := content.Image{Data: "QUJD", Width: 20, Height: 10}
	assert.NotEqual(t, Of(a), Of(b))
}

func TestRebaseSuppressesNextCapture(t *testing.T) {
	var d Detector
	remote := content.Text{Text: "from the network"}

	d.Rebase(remote)
	assert.False(t, d.ShouldSync(remote), "just-applied content must not re-broadcast")
	assert.True(t, d.ShouldSync(content.Text{Text: "genuinely new"}))
}

func TestDetectorStartsEmpty(t *testing.T) {
	var d Detector
	// Even content hashing to the zero-adjacent digest syncs on first sight.
	assert.True(t, d.ShouldSync(content.Text{}))
}
