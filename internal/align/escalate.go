package align

// Escalating wraps a Layout so that an 8-bit-lane alignment whose
// result saturates is transparently retried at 16-bit precision. Most
// pairs never saturate an 8-bit lane, so the wide retry is paid only
// when needed.
type Escalating struct {
	Layout
}

// Escalate wraps l so Width8 calls that saturate are redone at
// Width16 automatically.
func Escalate(l Layout) Layout { return Escalating{Layout: l} }

func (e Escalating) Align(q, r []byte, score ScoreFunc, open, gap int, mode Mode, width Width) (Cell, error) {
	c, err := e.Layout.Align(q, r, score, open, gap, mode, width)
	if err != nil {
		return Cell{}, err
	}
	if width == Width8 && c.Saturated {
		return e.Layout.Align(q, r, score, open, gap, mode, Width16)
	}
	return c, nil
}
