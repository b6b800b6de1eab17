package buffers_test

import (
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/bulkops/internal/buffers"
)

func TestGetReturnsModeSizedBuffer(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	turbo := buffers.Get(true)
	normal := buffers.Get(false)

	g.Expect(*turbo).To(HaveLen(buffers.TurboSize))
	g.Expect(*normal).To(HaveLen(buffers.NormalSize))

	buffers.Put(turbo)
	buffers.Put(normal)
}

func TestPutIgnoresForeignBuffers(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	odd := make([]byte, 10)

	g.Expect(func() { buffers.Put(&odd) }).NotTo(Panic())
	g.Expect(func() { buffers.Put(nil) }).NotTo(Panic())
}

func TestStatsCountAllocations(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	buf := buffers.Get(true)
	defer buffers.Put(buf)

	g.Expect(buffers.GetStats().TurboAllocations).To(BeNumerically(">=", 1))
}
