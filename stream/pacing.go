package stream

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/soragoto/kokoro/core"
)

// PacingConfig tunes the pseudo-streaming delays. The zero value streams
// without delay, which is what tests use; DefaultPacingConfig returns the
// production feel.
type PacingConfig struct {
	// TypewriterCharDelay is the pause after each character.
	TypewriterCharDelay time.Duration

	// LineBaseDelay is the base pause after each line.
	LineBaseDelay time.Duration
	// LineCharDelay is added per character of the line just sent.
	LineCharDelay time.Duration
	// LineMinDelay and LineMaxDelay clamp the computed per-line delay.
	LineMinDelay time.Duration
	LineMaxDelay time.Duration
	// LineRandomMin and LineRandomMax bound the random jitter added to each
	// line delay so output feels less mechanical.
	LineRandomMin time.Duration
	LineRandomMax time.Duration

	// Rand supplies the jitter source. Nil uses the shared global source.
	Rand *rand.Rand
}

// DefaultPacingConfig returns the delays used for live character output.
func DefaultPacingConfig() PacingConfig {
	return PacingConfig{
		TypewriterCharDelay: 30 * time.Millisecond,
		LineBaseDelay:       500 * time.Millisecond,
		LineCharDelay:       100 * time.Millisecond,
		LineMinDelay:        500 * time.Millisecond,
		LineMaxDelay:        6 * time.Second,
		LineRandomMin:       100 * time.Millisecond,
		LineRandomMax:       2 * time.Second,
	}
}

func (c PacingConfig) jitter() time.Duration {
	span := c.LineRandomMax - c.LineRandomMin
	if span <= 0 {
		return c.LineRandomMin
	}
	if c.Rand != nil {
		return c.LineRandomMin + time.Duration(c.Rand.Int63n(int64(span)))
	}
	return c.LineRandomMin + time.Duration(rand.Int63n(int64(span)))
}

func (c PacingConfig) lineDelay(line string) time.Duration {
	d := c.LineBaseDelay + time.Duration(len([]rune(line)))*c.LineCharDelay + c.jitter()
	if d < c.LineMinDelay {
		d = c.LineMinDelay
	}
	if c.LineMaxDelay > 0 && d > c.LineMaxDelay {
		d = c.LineMaxDelay
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Typewriter streams text character by character. The returned channel is
// closed when the text is exhausted or ctx is cancelled.
func Typewriter(ctx context.Context, text string, cfg PacingConfig) <-chan string {
	out := make(chan string, 16)
	go func() {
		defer close(out)
		for _, r := range text {
			select {
			case <-ctx.Done():
				return
			case out <- string(r):
			}
			if !sleep(ctx, cfg.TypewriterCharDelay) {
				return
			}
		}
	}()
	return out
}

// LineByLine streams text one line at a time with a delay proportional to
// line length plus random jitter. Newline variants are normalized and
// literal "\n" sequences are treated as line breaks, matching how chat
// models tend to emit multi-line replies. Each chunk keeps its trailing
// newline except the last line of input that did not end with one.
func LineByLine(ctx context.Context, text string, cfg PacingConfig) <-chan string {
	out := make(chan string, 16)
	go func() {
		defer close(out)
		normalized := strings.ReplaceAll(text, "\r\n", "\n")
		normalized = strings.ReplaceAll(normalized, "\r", "\n")
		normalized = strings.ReplaceAll(normalized, `\n`, "\n")
		if normalized == "" {
			return
		}
		endsWithNewline := strings.HasSuffix(normalized, "\n")
		lines := strings.Split(normalized, "\n")
		if endsWithNewline {
			lines = lines[:len(lines)-1]
		}
		for i, line := range lines {
			chunk := line
			if i < len(lines)-1 || endsWithNewline {
				chunk += "\n"
			}
			select {
			case <-ctx.Done():
				return
			case out <- chunk:
			}
			if i < len(lines)-1 {
				if !sleep(ctx, cfg.lineDelay(line)) {
					return
				}
			}
		}
	}()
	return out
}

// ByCategory selects the pacing transform for a message category:
// typewriter for in-person speech, line-by-line for telegram, and a single
// whole-text chunk for everything else.
func ByCategory(ctx context.Context, text string, category core.MessageCategory, cfg PacingConfig) <-chan string {
	switch category {
	case core.CategorySpeakInPerson:
		return Typewriter(ctx, text, cfg)
	case core.CategoryTelegram:
		return LineByLine(ctx, text, cfg)
	default:
		out := make(chan string, 1)
		if text != "" {
			out <- text
		}
		close(out)
		return out
	}
}
