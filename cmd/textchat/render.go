package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gookit/color"

	"github.com/z0r1k/textchat-acc-pack/internal/core"
	"github.com/z0r1k/textchat-acc-pack/internal/domain"
)

var (
	dividerStyle = color.New(color.FgGray)
	sentStyle    = color.New(color.FgCyan, color.OpBold)
	recvStyle    = color.New(color.FgGreen, color.OpBold)
	noticeStyle  = color.New(color.FgYellow)
	errorStyle   = color.New(color.FgRed)
)

// renderer prints session events as chat lines. Grouped messages omit the
// sender header.
type renderer struct {
	out io.Writer
}

func (r renderer) Notify(e core.Event) {
	switch ev := e.(type) {
	case core.Connected:
		r.notice("connected as %s", ev.Self.Alias)
	case core.ConnectFailed:
		r.fail("connect failed: %v", ev.Err)
	case core.Disconnected:
		if ev.Err != nil {
			r.notice("disconnected: %v", ev.Err)
		} else {
			r.notice("disconnected")
		}
	case core.ConnectionCreated:
		r.notice("%s joined", aliasOf(ev.Connection))
	case core.ConnectionDestroyed:
		r.notice("%s left", aliasOf(ev.Connection))
	case core.MessageSent:
		r.message(ev.Message)
	case core.MessageReceived:
		r.message(ev.Message)
	case core.SendFailed:
		r.fail("not sent: %v", ev.Err)
	case core.MessageDeliveryFailed:
		r.fail("delivery failed for %q: %v", ev.Message.Text, ev.Err)
	}
}

func (r renderer) message(m domain.Message) {
	if m.DividerBefore {
		fmt.Fprintln(r.out, dividerStyle.Render(divider(m.Timestamp)))
	}
	body := m.Text
	if body == "" && len(m.Data) > 0 {
		body = string(m.Data)
	}
	if m.Classification == domain.GroupedWithPrevious {
		fmt.Fprintf(r.out, "    %s\n", body)
		return
	}
	style := recvStyle
	if m.Direction == domain.Sent {
		style = sentStyle
	}
	name := m.SenderAlias
	if name == "" {
		name = "anonymous"
	}
	fmt.Fprintf(r.out, "%s %s\n    %s\n", style.Render(name), dividerStyle.Render(m.Timestamp.Local().Format("15:04")), body)
}

func divider(at time.Time) string {
	label := " " + at.Local().Format("Mon 15:04") + " "
	pad := strings.Repeat("-", 12)
	return pad + label + pad
}

func (r renderer) notice(format string, args ...any) {
	fmt.Fprintln(r.out, noticeStyle.Sprintf("* "+format, args...))
}

func (r renderer) fail(format string, args ...any) {
	fmt.Fprintln(r.out, errorStyle.Sprintf("! "+format, args...))
}

func aliasOf(c domain.Connection) string {
	if c.Alias != "" {
		return c.Alias
	}
	return string(c.ID)
}
