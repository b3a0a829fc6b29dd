package handler

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/emberwild/server/internal/core/event"
	"github.com/emberwild/server/internal/net"
	"github.com/emberwild/server/internal/protocol"
	"github.com/emberwild/server/internal/sim"
)

const maxChatLen = 256

// HandleChat normalizes the text and routes it: a leading slash makes it
// a command for the apply phase, anything else is a broadcast.
func HandleChat(s *net.Session, raw []byte, rs *sim.Resources) {
	var msg protocol.ChatMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	e, ok := boundEntity(s, rs)
	if !ok {
		return
	}

	text := norm.NFC.String(strings.TrimSpace(msg.Text))
	if text == "" {
		return
	}
	if len(text) > maxChatLen {
		// Back off to a rune boundary so truncation never emits broken
		// UTF-8.
		cut := maxChatLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	if strings.HasPrefix(text, "/") {
		fields := strings.Fields(text[1:])
		if len(fields) == 0 {
			return
		}
		rs.ServerEvents.EmitNow(event.ChatCmd{
			Entity: e,
			Cmd:    fields[0],
			Args:   fields[1:],
		})
		return
	}

	uid, ok := rs.Uids.Uid(e)
	if !ok {
		return
	}
	rs.ServerEvents.EmitNow(event.Chat{From: &uid, Msg: text})
}
