package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSpanTree(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "search", "req-1")
	childCtx, child := StartChildSpan(ctx, "boolean")
	_, grandchild := StartChildSpan(childCtx, "suggest")
	grandchild.SetAttr("candidates", 3)
	grandchild.End()
	child.End()
	root.End()

	if FromContext(childCtx) != child {
		t.Fatal("FromContext should return the innermost span")
	}
	kids := root.Children()
	if len(kids) != 1 || kids[0] != child {
		t.Fatalf("root children = %v, want [boolean]", kids)
	}
	if grandchild.TraceID != "req-1" {
		t.Errorf("trace id = %q, want req-1", grandchild.TraceID)
	}

	var buf bytes.Buffer
	root.Log(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	out := buf.String()
	if got := strings.Count(out, "msg=span"); got != 3 {
		t.Errorf("logged %d spans, want 3:\n%s", got, out)
	}
	if !strings.Contains(out, "candidates=3") {
		t.Errorf("missing attribute in output:\n%s", out)
	}
}

func TestDetachedChild(t *testing.T) {
	ctx, s := StartChildSpan(context.Background(), "orphan")
	if FromContext(ctx) != s {
		t.Fatal("detached span should still be stored in ctx")
	}
	if s.TraceID != "" {
		t.Errorf("trace id = %q, want empty", s.TraceID)
	}
}
