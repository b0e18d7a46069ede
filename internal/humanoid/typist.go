// internal/humanoid/typist.go
package humanoid

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/veyraqa/lexprobe/internal/config"
)

// keyboardNeighbors maps each key to its physical neighbors on a QWERTY
// layout, used to pick plausible mistyped characters.
var keyboardNeighbors = map[rune]string{
	'1': "2q`", '2': "13wq", '3': "24we", '4': "35er", '5': "46rt", '6': "57ty",
	'7': "68yu", '8': "79ui", '9': "80io", '0': "9-op",
	'q': "wa1s", 'w': "qase23", 'e': "wsdr34", 'r': "edft45", 't': "rfgy56",
	'y': "tghu67", 'u': "yhji78", 'i': "ujko89", 'o': "iklp90", 'p': "ol;0-",
	'a': "qwsz", 's': "awedxz", 'd': "serfcx", 'f': "drtgvc", 'g': "ftyhbv",
	'h': "gyujnb", 'j': "huikmn", 'k': "jiol,m", 'l': "kop;.",
	'z': "asx", 'x': "zsdc", 'c': "xdfv", 'v': "cfgb", 'b': "vghn", 'n': "bhjm", 'm': "njk,",
}

// commonNgrams are letter sequences typed noticeably faster by practiced
// typists.
var commonNgrams = map[string]bool{
	"th": true, "he": true, "in": true, "er": true, "an": true, "re": true,
	"es": true, "on": true, "st": true, "nt": true,
	"the": true, "and": true, "ing": true, "ion": true, "tio": true,
}

// Typist produces chromedp actions that type with human-like cadence:
// normally distributed inter-key delays, n-gram rhythm, and occasional
// corrected neighbor typos.
type Typist struct {
	cfg    config.HumanoidConfig
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand

	// focus and press dispatch to the browser; tests substitute recorders.
	focus func(ctx context.Context, selector string) error
	press func(ctx context.Context, key string) error
}

// NewTypist creates a Typist. A nil rng gets a time-seeded source; tests
// inject a fixed seed for determinism.
func NewTypist(cfg config.HumanoidConfig, logger *zap.Logger, rng *rand.Rand) *Typist {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Typist{
		cfg:    cfg,
		logger: logger,
		rng:    rng,
		focus:  focusElement,
		press:  pressKey,
	}
}

// focusElement brings the target into view and clicks it so key events land
// on it.
func focusElement(ctx context.Context, selector string) error {
	return chromedp.Tasks{
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	}.Do(ctx)
}

// pressKey dispatches one key to the focused element.
func pressKey(ctx context.Context, key string) error {
	return chromedp.SendKeys("document.activeElement", key, chromedp.ByJSPath).Do(ctx)
}

// Type returns an action that focuses the element and types the text one key
// at a time.
func (t *Typist) Type(selector, text string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := t.focus(ctx, selector); err != nil {
			return fmt.Errorf("humanoid: failed to focus selector %q: %w", selector, err)
		}

		if err := t.CognitivePause().Do(ctx); err != nil {
			return err
		}

		runes := []rune(text)
		for i := 0; i < len(runes); i++ {
			if err := chromedp.Sleep(t.InterKeyDelay(runes, i)).Do(ctx); err != nil {
				return err
			}

			if t.rollTypo() {
				if err := t.typoAndCorrect(ctx, runes[i]); err != nil {
					return fmt.Errorf("humanoid: typo simulation failed: %w", err)
				}
				continue
			}

			if err := t.sendKey(ctx, string(runes[i])); err != nil {
				return fmt.Errorf("humanoid: failed to send key %q: %w", runes[i], err)
			}
		}
		return nil
	})
}

// CognitivePause returns a short randomized pause, the think-time between
// focusing a field and starting to type or after completing an action.
func (t *Typist) CognitivePause() chromedp.Action {
	t.mu.Lock()
	mean := t.cfg.PauseMeanMs
	jitter := t.cfg.PauseJitterMs
	offset := 0.0
	if jitter > 0 {
		offset = (t.rng.Float64()*2 - 1) * jitter
	}
	t.mu.Unlock()

	d := time.Duration(math.Max(50, mean+offset)) * time.Millisecond
	return chromedp.Sleep(d)
}

// InterKeyDelay computes the flight time before the key at index. Common
// digrams and trigrams come out faster; everything is floored at the
// configured minimum.
func (t *Typist) InterKeyDelay(runes []rune, index int) time.Duration {
	mean := t.cfg.InterKeyMeanMs
	if mean <= 0 {
		mean = 70.0
	}
	minDelay := t.cfg.InterKeyMinMs
	if minDelay <= 0 {
		minDelay = 35.0
	}
	stdDev := mean * 0.4

	ngramFactor := 1.0
	if index >= 2 {
		if commonNgrams[strings.ToLower(string(runes[index-2:index+1]))] {
			ngramFactor = 0.55
		}
	}
	if ngramFactor == 1.0 && index >= 1 {
		if commonNgrams[strings.ToLower(string(runes[index-1:index+1]))] {
			ngramFactor = 0.7
		}
	}

	t.mu.Lock()
	randNorm := t.rng.NormFloat64()
	t.mu.Unlock()

	delay := math.Max(minDelay*ngramFactor, randNorm*stdDev+mean*ngramFactor)
	return time.Duration(delay) * time.Millisecond
}

// KeyHoldDelay is the dwell time a key stays pressed.
func (t *Typist) KeyHoldDelay() time.Duration {
	mean := t.cfg.KeyHoldMeanMs
	if mean <= 0 {
		mean = 55.0
	}
	stdDev := t.cfg.KeyHoldStdDevMs

	t.mu.Lock()
	randNorm := t.rng.NormFloat64()
	t.mu.Unlock()

	delay := math.Max(20, randNorm*stdDev+mean)
	return time.Duration(delay) * time.Millisecond
}

func (t *Typist) rollTypo() bool {
	if t.cfg.TypoRate <= 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rng.Float64() < t.cfg.TypoRate
}

// NeighborOf picks a neighboring key for the given character, preserving
// case most of the time. The second return is false when the character has
// no mapped neighbors (digits outside the map, punctuation, whitespace).
func (t *Typist) NeighborOf(char rune) (rune, bool) {
	neighbors, ok := keyboardNeighbors[unicode.ToLower(char)]
	if !ok || len(neighbors) == 0 {
		return 0, false
	}
	t.mu.Lock()
	typo := rune(neighbors[t.rng.Intn(len(neighbors))])
	if unicode.IsUpper(char) && t.rng.Float64() < 0.8 {
		typo = unicode.ToUpper(typo)
	}
	t.mu.Unlock()
	return typo, true
}

// typoAndCorrect types a neighboring key, notices, backspaces, and types the
// intended character. Characters without neighbors are typed directly.
func (t *Typist) typoAndCorrect(ctx context.Context, char rune) error {
	typo, ok := t.NeighborOf(char)
	if !ok {
		return t.sendKey(ctx, string(char))
	}

	if err := t.sendKey(ctx, string(typo)); err != nil {
		return err
	}
	// Recognition pause, then the correction.
	if err := chromedp.Sleep(2 * t.KeyHoldDelay()).Do(ctx); err != nil {
		return err
	}
	if err := t.sendKey(ctx, kb.Backspace); err != nil {
		return err
	}
	if err := chromedp.Sleep(t.KeyHoldDelay()).Do(ctx); err != nil {
		return err
	}
	return t.sendKey(ctx, string(char))
}

// sendKey dispatches one key to the focused element, then dwells.
func (t *Typist) sendKey(ctx context.Context, key string) error {
	if err := t.press(ctx, key); err != nil {
		return err
	}
	return chromedp.Sleep(t.KeyHoldDelay()).Do(ctx)
}
