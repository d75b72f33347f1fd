package board

import (
	"math/rand"
	"testing"
)

func TestMergeLine(t *testing.T) {
	tests := []struct {
		in     [Size]int
		want   [Size]int
		gained int
	}{
		{[Size]int{2, 2, 0, 0}, [Size]int{4, 0, 0, 0}, 4},
		{[Size]int{2, 2, 2, 2}, [Size]int{4, 4, 0, 0}, 8},
		{[Size]int{4, 0, 4, 8}, [Size]int{8, 8, 0, 0}, 8},
		{[Size]int{2, 2, 4, 0}, [Size]int{4, 4, 0, 0}, 4},
		{[Size]int{0, 0, 0, 2}, [Size]int{2, 0, 0, 0}, 0},
		{[Size]int{2, 4, 8, 16}, [Size]int{2, 4, 8, 16}, 0},
		{[Size]int{8, 8, 8, 0}, [Size]int{16, 8, 0, 0}, 16},
	}
	for _, tt := range tests {
		got, gained := mergeLine(tt.in)
		if got != tt.want || gained != tt.gained {
			t.Errorf("mergeLine(%v) = %v, %d, want %v, %d", tt.in, got, gained, tt.want, tt.gained)
		}
	}
}

func TestMove_Directions(t *testing.T) {
	start := Grid{
		{2, 0, 0, 2},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{2, 0, 0, 0},
	}
	tests := []struct {
		dir   Direction
		r, c  int
		value int
		score int
	}{
		{Left, 0, 0, 4, 4},
		{Right, 0, 3, 4, 4},
		{Up, 0, 0, 4, 4},
		{Down, 3, 0, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			g := FromGrid(start, 0, rand.New(rand.NewSource(1)))
			if !g.Move(tt.dir) {
				t.Fatal("Move() = false, want true")
			}
			if got := g.Grid()[tt.r][tt.c]; got != tt.value {
				t.Errorf("grid[%d][%d] = %d, want %d", tt.r, tt.c, got, tt.value)
			}
			if g.Score() != tt.score {
				t.Errorf("Score() = %d, want %d", g.Score(), tt.score)
			}
			if g.Moves() != 1 {
				t.Errorf("Moves() = %d, want 1", g.Moves())
			}
		})
	}
}

func TestMove_NoChangeNoSpawn(t *testing.T) {
	start := Grid{
		{2, 4, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}
	g := FromGrid(start, 0, rand.New(rand.NewSource(1)))
	if g.Move(Left) {
		t.Fatal("Move(Left) = true on a packed row")
	}
	if g.Grid() != start {
		t.Error("grid changed after a no-op move")
	}
	if g.Moves() != 0 {
		t.Errorf("Moves() = %d, want 0", g.Moves())
	}
}

func TestMove_Spawns(t *testing.T) {
	g := FromGrid(Grid{{0, 0, 0, 2}}, 0, rand.New(rand.NewSource(7)))
	g.Move(Left)
	tiles := 0
	for _, row := range g.Grid() {
		for _, v := range row {
			if v != 0 {
				tiles++
				if v != 2 && v != 4 {
					t.Errorf("unexpected tile %d", v)
				}
			}
		}
	}
	if tiles != 2 {
		t.Errorf("tiles = %d, want 2", tiles)
	}
}

func TestNew(t *testing.T) {
	g := New(rand.New(rand.NewSource(42)))
	tiles := 0
	for _, row := range g.Grid() {
		for _, v := range row {
			if v != 0 {
				tiles++
			}
		}
	}
	if tiles != 2 {
		t.Errorf("new game has %d tiles, want 2", tiles)
	}
	if g.Over() {
		t.Error("new game should not be over")
	}

	again := New(rand.New(rand.NewSource(42)))
	if again.Grid() != g.Grid() {
		t.Error("same seed should give the same opening")
	}
}

func TestOverAndWon(t *testing.T) {
	stuck := Grid{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{4, 2, 4, 2},
	}
	if !FromGrid(stuck, 0, nil).Over() {
		t.Error("checkerboard should be over")
	}

	full := stuck
	full[0][1] = 2
	if FromGrid(full, 0, nil).Over() {
		t.Error("adjacent equal tiles mean a move remains")
	}

	won := Grid{{2048}}
	g := FromGrid(won, 0, nil)
	if !g.Won() || g.MaxTile() != 2048 {
		t.Errorf("Won() = %v MaxTile() = %d", g.Won(), g.MaxTile())
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"up", Up, true},
		{"W", Up, true},
		{"j", Down, true},
		{" left ", Left, true},
		{"d", Right, true},
		{"q", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseDirection(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseDirection(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
