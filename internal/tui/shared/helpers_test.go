package shared_test

import (
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/bulkops/internal/tui/shared"
)

func TestFormatBytes(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(shared.FormatBytes(500)).Should(Equal("500 B"))
	g.Expect(shared.FormatBytes(1024)).Should(Equal("1.0 KB"))
	g.Expect(shared.FormatBytes(1536)).Should(Equal("1.5 KB"))
	g.Expect(shared.FormatBytes(10 * 1024 * 1024)).Should(Equal("10.0 MB"))
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(shared.FormatDuration(30 * time.Second)).Should(Equal("30s"))
	g.Expect(shared.FormatDuration(150 * time.Second)).Should(Equal("2m 30s"))
	g.Expect(shared.FormatDuration(time.Hour + 2*time.Minute + 3*time.Second)).Should(Equal("1h 2m 3s"))
}

func TestFormatRate(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(shared.FormatRate(500)).Should(Equal("500 B/s"))
	g.Expect(shared.FormatRate(1024)).Should(Equal("1.0 KB/s"))
	g.Expect(shared.FormatRate(5.5 * 1024 * 1024)).Should(Equal("5.5 MB/s"))
}

func TestETA(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	eta, ok := shared.ETA(1000, 100)
	g.Expect(ok).To(BeTrue())
	g.Expect(eta).To(Equal(10 * time.Second))

	_, ok = shared.ETA(1000, 0)
	g.Expect(ok).To(BeFalse())

	_, ok = shared.ETA(0, 50)
	g.Expect(ok).To(BeFalse())
}

func TestTruncatePath(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(shared.TruncatePath("/short", 20)).To(Equal("/short"))
	g.Expect(shared.TruncatePath("/a/very/long/path/file.txt", 12)).To(Equal(".../file.txt"))
	g.Expect(shared.TruncatePath("/abc", 2)).To(Equal("/abc"))
}
