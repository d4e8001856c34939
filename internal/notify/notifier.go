// Package notify renders automaton notifications as localized owner messages.
package notify

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/l1jgo/autobuild/internal/automaton"
	"github.com/l1jgo/autobuild/internal/blueprint"
)

// Sink receives rendered messages, e.g. an in-game chat channel.
type Sink interface {
	Deliver(owner automaton.OwnerID, text string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(owner automaton.OwnerID, text string)

func (f SinkFunc) Deliver(owner automaton.OwnerID, text string) { f(owner, text) }

// Notifier implements automaton.Notifier. Single-goroutine access only.
type Notifier struct {
	tag     language.Tag
	printer *message.Printer
	sink    Sink
	log     *zap.Logger
}

// New creates a notifier for the given locale string. Unknown or unsupported
// locales fall back to English. A nil sink only logs.
func New(locale string, sink Sink, log *zap.Logger) (*Notifier, error) {
	cat, err := buildCatalog()
	if err != nil {
		return nil, fmt.Errorf("build message catalog: %w", err)
	}
	tag := Match(locale)
	return &Notifier{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
		sink:    sink,
		log:     log,
	}, nil
}

// Match picks the supported locale closest to s.
func Match(s string) language.Tag {
	_, idx := language.MatchStrings(language.NewMatcher(supported), s)
	return supported[idx]
}

// Language reports the locale messages are rendered in.
func (n *Notifier) Language() language.Tag { return n.tag }

func (n *Notifier) Notify(owner automaton.OwnerID, key string, args ...any) {
	text := n.Render(key, args...)
	n.log.Info("通知建造者",
		zap.String("owner", string(owner)),
		zap.String("key", key),
		zap.String("text", text),
	)
	if n.sink != nil {
		n.sink.Deliver(owner, text)
	}
}

// Render formats one message. Resource costs become localized amount lists
// and failure codes attached to MsgAborted become readable reasons.
func (n *Notifier) Render(key string, args ...any) string {
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case blueprint.ResourceCost:
			out[i] = n.cost(v)
		case string:
			if key == automaton.MsgAborted {
				out[i] = n.reason(v)
			} else {
				out[i] = v
			}
		default:
			out[i] = a
		}
	}
	return n.printer.Sprintf(key, out...)
}

func (n *Notifier) cost(c blueprint.ResourceCost) string {
	names := resourceNames[n.tag]
	var parts []string
	for r := blueprint.Resource(0); r < blueprint.NumResources; r++ {
		if c[r] <= 0 {
			continue
		}
		parts = append(parts, n.printer.Sprintf("%s %d", names[r], c[r]))
	}
	if len(parts) == 0 {
		return "-"
	}
	sep := ", "
	if n.tag == language.TraditionalChinese {
		sep = "、"
	}
	return strings.Join(parts, sep)
}

func (n *Notifier) reason(code string) string {
	if r, ok := reasons[n.tag][code]; ok {
		return r
	}
	return code
}
