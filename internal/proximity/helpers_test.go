package proximity

type testKey struct {
	code   int
	x, y   int
	w, h   int
	spacer bool
}

func (k *testKey) Code() int      { return k.code }
func (k *testKey) X() int         { return k.x }
func (k *testKey) Y() int         { return k.y }
func (k *testKey) Width() int     { return k.w }
func (k *testKey) Height() int    { return k.h }
func (k *testKey) IsSpacer() bool { return k.spacer }
func (k *testKey) HitBox() Rect {
	return Rect{Left: k.x, Top: k.y, Right: k.x + k.w + 1, Bottom: k.y + k.h}
}

func (k *testKey) SquaredDistanceToEdge(x, y int) int {
	left, right := k.x, k.x+k.w
	top, bottom := k.y, k.y+k.h
	edgeX := min(max(x, left), right)
	edgeY := min(max(y, top), bottom)
	dx, dy := x-edgeX, y-edgeY
	return dx*dx + dy*dy
}

func newKey(code, x, y, w, h int) *testKey {
	return &testKey{code: code, x: x, y: y, w: w, h: h}
}

func keysOf(keys ...*testKey) []Key {
	out := make([]Key, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}

func codesOf(keys []Key) []int {
	out := make([]int, len(keys))
	for i, k := range keys {
		out[i] = k.Code()
	}
	return out
}

type fakeCorrector struct {
	valid bool
	rows  [][3]float32
}

func (c fakeCorrector) Valid() bool { return c.valid }
func (c fakeCorrector) Rows() int   { return len(c.rows) }
func (c fakeCorrector) Bias(row int) (float32, float32, float32) {
	r := c.rows[row]
	return r[0], r[1], r[2]
}
