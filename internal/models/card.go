package models

// Kind classifies a card as a numbered card, a colored action card, or a wild.
type Kind string

const (
	KindNumber Kind = "number"
	KindAction Kind = "action"
	KindWild   Kind = "wild"
)

// Color is a card color. ColorNone is only valid on wild cards.
type Color string

const (
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorNone   Color = "none"
)

// Colors lists the four playable colors in canonical order.
var Colors = []Color{ColorRed, ColorYellow, ColorGreen, ColorBlue}

// Playable reports whether c is one of the four real colors a wild may declare.
func (c Color) Playable() bool {
	for _, pc := range Colors {
		if c == pc {
			return true
		}
	}
	return false
}

// Values for action and wild cards. Number cards carry their digit as the value.
const (
	ValueSkip    = "skip"
	ValueReverse = "reverse"
	ValueDraw2   = "draw2"
	ValueWild    = "wild"
	ValueDraw4   = "draw4"
)

// Card is an immutable card value. Cards have no identity beyond their three
// fields; duplicates are legal and expected.
type Card struct {
	Kind  Kind   `json:"kind"`
	Color Color  `json:"color"`
	Value string `json:"value"`
}
