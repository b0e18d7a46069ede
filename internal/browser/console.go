// internal/browser/console.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	cdplog "github.com/chromedp/cdproto/log"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ConsoleLog is one captured browser console entry.
type ConsoleLog struct {
	Timestamp time.Time
	Type      string
	Text      string
	Source    string
}

// consoleCapture listens for console API calls, log entries and uncaught
// exceptions on a tab and accumulates them for diagnostics.
type consoleCapture struct {
	logger *zap.Logger

	sessionCtx     context.Context
	listenerCtx    context.Context
	cancelListener context.CancelFunc

	mu      sync.RWMutex
	entries []ConsoleLog
	started bool
}

func newConsoleCapture(sessionCtx context.Context, logger *zap.Logger) *consoleCapture {
	return &consoleCapture{
		sessionCtx: sessionCtx,
		logger:     logger.Named("console"),
		entries:    make([]ConsoleLog, 0),
	}
}

// Start enables the runtime and log domains and begins listening.
func (c *consoleCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}

	c.listenerCtx, c.cancelListener = context.WithCancel(c.sessionCtx)

	chromedp.ListenTarget(c.listenerCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			c.handleConsoleAPICalled(e)
		case *cdplog.EventEntryAdded:
			c.handleLogEntryAdded(e)
		case *runtime.EventExceptionThrown:
			c.handleExceptionThrown(e)
		}
	})

	if err := chromedp.Run(c.sessionCtx, runtime.Enable(), cdplog.Enable()); err != nil {
		c.cancelListener()
		return err
	}

	c.started = true
	c.logger.Debug("Console capture started.")
	return nil
}

// Stop halts event collection. Already-captured entries remain readable.
func (c *consoleCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return
	}
	if c.cancelListener != nil {
		c.cancelListener()
		c.cancelListener = nil
	}
	c.started = false
}

// Entries returns a copy of the captured console entries.
func (c *consoleCapture) Entries() []ConsoleLog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ConsoleLog, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *consoleCapture) handleConsoleAPICalled(e *runtime.EventConsoleAPICalled) {
	var text strings.Builder
	for i, arg := range e.Args {
		if i > 0 {
			text.WriteString(" ")
		}
		var val interface{}
		if arg.Value != nil && json.Unmarshal(arg.Value, &val) == nil {
			text.WriteString(fmt.Sprintf("%v", val))
		} else if arg.Description != "" {
			text.WriteString(arg.Description)
		} else {
			text.WriteString(fmt.Sprintf("[%s]", arg.Type))
		}
	}

	c.append(ConsoleLog{
		Timestamp: e.Timestamp.Time(),
		Type:      string(e.Type),
		Text:      text.String(),
		Source:    "console-api",
	})
}

func (c *consoleCapture) handleLogEntryAdded(e *cdplog.EventEntryAdded) {
	if e.Entry == nil {
		return
	}
	c.append(ConsoleLog{
		Timestamp: e.Entry.Timestamp.Time(),
		Type:      string(e.Entry.Level),
		Text:      e.Entry.Text,
		Source:    string(e.Entry.Source),
	})
}

func (c *consoleCapture) handleExceptionThrown(e *runtime.EventExceptionThrown) {
	if e.ExceptionDetails == nil {
		return
	}
	c.append(ConsoleLog{
		Timestamp: e.Timestamp.Time(),
		Type:      "exception",
		Text:      e.ExceptionDetails.Error(),
		Source:    "runtime",
	})
}

func (c *consoleCapture) append(entry ConsoleLog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}
