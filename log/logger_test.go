package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stdout)

	SetLevel(Warning)
	defer SetLevel(Notice)

	logger := New("log test")
	logger.Infof("hidden %d", 1)
	logger.Warningf("visible %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info message to be filtered; got %q", out)
	}
	if !strings.Contains(out, "visible 2") {
		t.Fatalf("expected warning message in output; got %q", out)
	}
	if !strings.Contains(out, "[log test]") {
		t.Fatalf("expected module name in output; got %q", out)
	}
}

func TestSetSinkKeepsLevel(t *testing.T) {
	SetLevel(Debug)
	defer SetLevel(Notice)

	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stdout)

	if GetLevel() != Debug {
		t.Fatalf("expected level to be %s; got %s", Debug, GetLevel())
	}

	New("log test").Debug("debug line")
	if !strings.Contains(buf.String(), "debug line") {
		t.Fatalf("expected debug message in output; got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	type spec struct {
		in     string
		exp    Level
		expErr bool
	}

	specs := []spec{
		{"debug", Debug, false},
		{" WARNING ", Warning, false},
		{"error", Error, false},
		{"verbose", Notice, true},
	}

	for index, s := range specs {
		level, err := ParseLevel(s.in)
		if s.expErr != (err != nil) {
			t.Fatalf("[spec %d] expected error %t; got %v", index, s.expErr, err)
		}
		if level != s.exp {
			t.Fatalf("[spec %d] expected level %s; got %s", index, s.exp, level)
		}
	}
}
