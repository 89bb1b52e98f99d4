package testutil

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestContextAwareLogging(t *testing.T) {
	t.Parallel()

	ctx, getLogs := NewTestContext(t)

	zerolog.Ctx(ctx).Debug().Msg("Test message")

	assert.Contains(t, getLogs(), "Test message")
}

func TestLoadTestdataFile(t *testing.T) {
	t.Parallel()

	data := LoadTestdataFile(t, "springer.mrc")
	assert.Len(t, data, 1760)
	assert.Equal(t, "01760", string(data[:5]))
}

func TestVerifyNoLeaks_NoGoroutineLeaks(t *testing.T) {
	defer VerifyNoLeaks(t)

	done := make(chan struct{})
	go func() { close(done) }()
	<-done
}
