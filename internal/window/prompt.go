// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ijkwin Contributors

package window

import (
	"context"
	"unicode"
)

// promptPrefix is shown before the command being typed.
const promptPrefix = "> "

// prompt is the line editor of the command prompt.
type prompt struct {
	text []rune
}

func (r *Router) openPrompt(initial string) {
	r.prompt = &prompt{text: []rune(initial)}
	r.showPrompt()
}

func (r *Router) closePrompt() {
	r.prompt = nil
	r.setStatus("")
}

func (r *Router) showPrompt() {
	r.setStatus(promptPrefix + string(r.prompt.text))
}

// promptKey edits the prompt line. Enter runs the line as a command and
// Escape cancels.
func (r *Router) promptKey(ctx context.Context, ev Event) error {
	if ev.Kind != KindKeyDown {
		return nil
	}
	switch {
	case ev.Key == KeyEscape:
		r.closePrompt()
		return nil
	case ev.Key == KeyEnter:
		text := string(r.prompt.text)
		r.closePrompt()
		return r.command(ctx, text)
	case ev.Key == KeyBackspace:
		if n := len(r.prompt.text); n > 0 {
			r.prompt.text = r.prompt.text[:n-1]
		}
	case ev.Rune != 0 && unicode.IsPrint(ev.Rune):
		r.prompt.text = append(r.prompt.text, ev.Rune)
	default:
		return nil
	}
	r.showPrompt()
	return nil
}
