package tour

// Defaults used by Place when the card has not been measured yet.
var DefaultCardSize = Size{W: 320, H: 180}

// DefaultMargin is the gap kept between card, anchor and viewport edges.
const DefaultMargin = 14

// Place returns the card's box next to anchor, preferring side pos.
//
// A card that would overflow the viewport vertically moves to the opposite
// side of the anchor when that side fits. The result is then clamped into
// the viewport, keeping margin from each edge where the viewport allows.
func Place(anchor Rect, card, viewport Size, pos Position, margin int) Rect {
	w, h := card.W, card.H
	if w <= 0 {
		w = DefaultCardSize.W
	}
	if h <= 0 {
		h = DefaultCardSize.H
	}
	above := anchor.Y - h - margin
	below := anchor.Bottom() + margin

	var top, left int
	switch pos {
	case Top:
		top, left = above, anchor.X
	case Left:
		top, left = anchor.Y, anchor.X-w-margin
	case Right:
		top, left = anchor.Y, anchor.Right()+margin
	default:
		top, left = below, anchor.X
	}

	switch {
	case top+h > viewport.H-margin:
		if above >= margin {
			top = above
		}
	case pos == Top && top < margin:
		if below+h <= viewport.H-margin {
			top = below
		}
	}

	if left+w > viewport.W-margin {
		left = viewport.W - w - margin
	}
	if left < margin {
		left = margin
	}
	if top < margin {
		top = margin
	}
	top = clamp(top, margin, viewport.H-h-margin)
	left = clamp(left, margin, viewport.W-w-margin)
	return Rect{X: left, Y: top, W: w, H: h}
}

// clamp bounds v to [lo, hi]; when hi < lo the upper bound wins.
func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
