package worldcore

import "testing"

func TestChunkBlockPositionLinearizeOrdering(t *testing.T) {
	origin := NewChunkBlockPosition(0, 0, 0)
	if got := origin.Linearize(); got != 0 {
		t.Fatalf("Linearize(origin) = %d, want 0", got)
	}

	// idx = (y*16 + z)*16 + x
	p := NewChunkBlockPosition(3, 2, 1)
	want := uint16((2*ChunkSize+1)*ChunkSize + 3)
	if got := p.Linearize(); got != want {
		t.Fatalf("Linearize() = %d, want %d", got, want)
	}

	last := NewChunkBlockPosition(ChunkSize-1, ChunkSize-1, ChunkSize-1)
	if got := last.Linearize(); got != SectionVolume-1 {
		t.Fatalf("Linearize(last) = %d, want %d", got, SectionVolume-1)
	}
}

func TestLinearToPosInvertsLinearize(t *testing.T) {
	for i := uint16(0); i < SectionVolume; i += 37 {
		pos := linearToPos(i)
		if got := pos.Linearize(); got != i {
			t.Fatalf("linearToPos(%d).Linearize() = %d, want %d", i, got, i)
		}
	}
}

func TestBlockPositionSplit(t *testing.T) {
	section, local := BlockPosition{X: 1, Y: 20, Z: 2}.Split()
	if section != 1 {
		t.Fatalf("section = %d, want 1", section)
	}
	if local != (ChunkBlockPosition{X: 1, Y: 4, Z: 2}) {
		t.Fatalf("local = %+v, want {1 4 2}", local)
	}
}

func TestBlockPositionSplitNegativeY(t *testing.T) {
	// Y=-1 must land in the section below zero at local y=15, not panic or
	// wrap the way truncating division would.
	section, local := BlockPosition{X: 0, Y: -1, Z: 0}.Split()
	if int8(section) != -1 {
		t.Fatalf("section (as int8) = %d, want -1", int8(section))
	}
	if local.Y != ChunkSize-1 {
		t.Fatalf("local.Y = %d, want %d", local.Y, ChunkSize-1)
	}
}

func TestFloorDivFloorModNegativeSafe(t *testing.T) {
	cases := []struct{ a, b, div, mod int32 }{
		{7, 16, 0, 7},
		{-1, 16, -1, 15},
		{-16, 16, -1, 0},
		{-17, 16, -2, 15},
	}
	for _, c := range cases {
		if got := floorDiv(c.a, c.b); got != c.div {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.div)
		}
		if got := floorMod(c.a, c.b); got != c.mod {
			t.Errorf("floorMod(%d, %d) = %d, want %d", c.a, c.b, got, c.mod)
		}
	}
}
