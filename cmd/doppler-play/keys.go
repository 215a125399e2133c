package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

type keyAction int

const (
	keyNone keyAction = iota
	keyToggle
	keyPause
	keyQuit
)

// parseKey maps a key press to an action. Digits 1-9 toggle the matching
// source.
func parseKey(b byte) (keyAction, int) {
	switch {
	case b >= '1' && b <= '9':
		return keyToggle, int(b - '1')
	case b == 'p' || b == 'P' || b == ' ':
		return keyPause, 0
	case b == 'q' || b == 'Q' || b == keyEscape || b == keyCtrlC:
		return keyQuit, 0
	default:
		return keyNone, 0
	}
}

type toggler interface {
	Toggle(i int) (bool, error)
}

type pauser interface {
	Pause()
	Resume()
	Paused() bool
}

// applyKey performs the action for one key press and describes the result.
// It reports quit for the quit keys.
func applyKey(b byte, src toggler, eng pauser) (msg string, quit bool) {
	action, idx := parseKey(b)
	switch action {
	case keyToggle:
		active, err := src.Toggle(idx)
		if err != nil {
			return err.Error(), false
		}
		if active {
			return fmt.Sprintf("source %d active", idx+1), false
		}
		return fmt.Sprintf("source %d inactive", idx+1), false
	case keyPause:
		if eng.Paused() {
			eng.Resume()
			return "resumed", false
		}
		eng.Pause()
		return "paused", false
	case keyQuit:
		return "quit", true
	default:
		return "", false
	}
}

// keyboard reads single key presses from a raw-mode terminal.
type keyboard struct {
	fd       int
	oldState *term.State
	keys     chan byte
	once     sync.Once
}

// openKeyboard switches stdin to raw mode. It fails when stdin is not a
// terminal.
func openKeyboard() (*keyboard, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("stdin is not a terminal")
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to set raw mode: %w", err)
	}

	k := &keyboard{fd: fd, oldState: oldState, keys: make(chan byte, 16)}
	go k.read(os.Stdin)
	return k, nil
}

func (k *keyboard) read(r io.Reader) {
	defer close(k.keys)
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			k.keys <- buf[0]
		}
		if err != nil {
			return
		}
	}
}

// Keys returns the key press channel. It closes when stdin does.
func (k *keyboard) Keys() <-chan byte {
	return k.keys
}

// Restore returns the terminal to its previous mode.
func (k *keyboard) Restore() {
	k.once.Do(func() {
		_ = term.Restore(k.fd, k.oldState)
	})
}

// crlfWriter translates line feeds for a terminal in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
