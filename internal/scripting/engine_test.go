package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

const testScript = `
register_command("ping", false, function(ctx, args)
	ctx.reply("pong " .. tostring(#args))
end)

register_command("boom", false, function(ctx, args)
	error("kaboom")
end)

register_command("wipe", true, function(ctx, args)
	ctx.reply("wiped")
end)
`

func testEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	cmdDir := filepath.Join(dir, "commands")
	if err := os.MkdirAll(cmdDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cmdDir, "test.lua"), []byte(testScript), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Close)
	return e
}

func dispatch(e *Engine, name string, args []string, admin bool) []string {
	var replies []string
	e.Dispatch(name, args, &CommandContext{
		CallerAlias: "tester",
		CallerAdmin: admin,
		Reply:       func(msg string) { replies = append(replies, msg) },
		Broadcast:   func(string) {},
	})
	return replies
}

func TestDispatchRepliesWithArgs(t *testing.T) {
	e := testEngine(t)
	if !e.Has("ping") || e.Has("nope") {
		t.Fatal("command registry wrong")
	}
	got := dispatch(e, "ping", []string{"a", "b"}, false)
	if len(got) != 1 || got[0] != "pong 2" {
		t.Fatalf("replies = %v", got)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	e := testEngine(t)
	got := dispatch(e, "nope", nil, false)
	if len(got) != 1 || got[0] != "unknown command: nope" {
		t.Fatalf("replies = %v", got)
	}
}

func TestScriptErrorReachesCaller(t *testing.T) {
	e := testEngine(t)
	got := dispatch(e, "boom", nil, false)
	if len(got) != 1 || got[0] != "command failed" {
		t.Fatalf("replies = %v", got)
	}
	// The VM survives a failed command.
	if got := dispatch(e, "ping", nil, false); len(got) != 1 || got[0] != "pong 0" {
		t.Fatalf("replies after failure = %v", got)
	}
}

func TestAdminGate(t *testing.T) {
	e := testEngine(t)
	if got := dispatch(e, "wipe", nil, false); len(got) != 1 || got[0] != "insufficient privileges" {
		t.Fatalf("non-admin replies = %v", got)
	}
	if got := dispatch(e, "wipe", nil, true); len(got) != 1 || got[0] != "wiped" {
		t.Fatalf("admin replies = %v", got)
	}
}
