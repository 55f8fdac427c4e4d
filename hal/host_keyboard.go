package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type hostKeyboard struct {
	ch chan KeyEvent
}

func newHostKeyboard() *hostKeyboard {
	return &hostKeyboard{ch: make(chan KeyEvent, 64)}
}

func (k *hostKeyboard) Events() <-chan KeyEvent { return k.ch }

// Control chords the console line editor understands. Ebiten reports no
// input char while Ctrl is held, so these are synthesized here.
var ctrlChords = []struct {
	key ebiten.Key
	r   rune
}{
	{ebiten.KeyC, 0x03},
	{ebiten.KeyU, 0x15},
	{ebiten.KeyW, 0x17},
}

// Non-text keys forwarded by code. Letter keys arrive as input chars
// instead.
var codeKeys = []struct {
	key  ebiten.Key
	code KeyCode
}{
	{ebiten.KeyArrowUp, KeyUp},
	{ebiten.KeyArrowDown, KeyDown},
	{ebiten.KeyArrowLeft, KeyLeft},
	{ebiten.KeyArrowRight, KeyRight},
	{ebiten.KeyEnter, KeyEnter},
	{ebiten.KeyNumpadEnter, KeyEnter},
	{ebiten.KeyEscape, KeyEscape},
	{ebiten.KeyBackspace, KeyBackspace},
	{ebiten.KeyTab, KeyTab},
	{ebiten.KeyDelete, KeyDelete},
	{ebiten.KeyHome, KeyHome},
	{ebiten.KeyEnd, KeyEnd},
	{ebiten.KeyF1, KeyF1},
	{ebiten.KeyF2, KeyF2},
	{ebiten.KeyF3, KeyF3},
}

func (k *hostKeyboard) poll() {
	send := func(ev KeyEvent) {
		select {
		case k.ch <- ev:
		default:
		}
	}

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	if ctrl {
		for _, c := range ctrlChords {
			if inpututil.IsKeyJustPressed(c.key) {
				send(KeyEvent{Press: true, Rune: c.r})
			}
		}
	}

	for _, r := range ebiten.AppendInputChars(nil) {
		send(KeyEvent{Press: true, Rune: r})
	}

	for _, ck := range codeKeys {
		if inpututil.IsKeyJustPressed(ck.key) {
			send(KeyEvent{Code: ck.code, Press: true})
		}
		if inpututil.IsKeyJustReleased(ck.key) {
			send(KeyEvent{Code: ck.code})
		}
	}
}
