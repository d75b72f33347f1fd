// Package board is the 2048 tile-merge game that produces scores.
package board

import (
	"math/rand"
	"strconv"
	"strings"
)

const (
	Size = 4
	Goal = 2048
)

type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "unknown"
}

// ParseDirection accepts arrow names, wasd and vim keys.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "w", "k":
		return Up, true
	case "down", "s", "j":
		return Down, true
	case "left", "a", "h":
		return Left, true
	case "right", "d", "l":
		return Right, true
	}
	return 0, false
}

type Grid [Size][Size]int

type Game struct {
	grid  Grid
	score int
	moves int
	rng   *rand.Rand
}

// New starts a game with two random tiles.
func New(rng *rand.Rand) *Game {
	g := &Game{rng: rng}
	g.spawn()
	g.spawn()
	return g
}

// FromGrid resumes a game from a known position without spawning.
func FromGrid(grid Grid, score int, rng *rand.Rand) *Game {
	return &Game{grid: grid, score: score, rng: rng}
}

func (g *Game) Grid() Grid { return g.grid }
func (g *Game) Score() int { return g.score }
func (g *Game) Moves() int { return g.moves }

// MaxTile is the largest tile on the board.
func (g *Game) MaxTile() int {
	best := 0
	for _, row := range g.grid {
		for _, v := range row {
			if v > best {
				best = v
			}
		}
	}
	return best
}

func (g *Game) Won() bool {
	return g.MaxTile() >= Goal
}

// Over reports whether no move can change the grid.
func (g *Game) Over() bool {
	for _, d := range []Direction{Up, Down, Left, Right} {
		if _, _, changed := slide(g.grid, d); changed {
			return false
		}
	}
	return true
}

// Move slides the tiles and returns whether anything moved. A new tile spawns
// only after a move that changed the grid.
func (g *Game) Move(d Direction) bool {
	next, gained, changed := slide(g.grid, d)
	if !changed {
		return false
	}
	g.grid = next
	g.score += gained
	g.moves++
	g.spawn()
	return true
}

func (g *Game) spawn() {
	var empty [][2]int
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if g.grid[r][c] == 0 {
				empty = append(empty, [2]int{r, c})
			}
		}
	}
	if len(empty) == 0 {
		return
	}
	cell := empty[g.rng.Intn(len(empty))]
	value := 2
	if g.rng.Float64() >= 0.9 {
		value = 4
	}
	g.grid[cell[0]][cell[1]] = value
}

func slide(grid Grid, d Direction) (Grid, int, bool) {
	var out Grid
	gained := 0
	for i := 0; i < Size; i++ {
		var line [Size]int
		for j := 0; j < Size; j++ {
			r, c := cell(d, i, j)
			line[j] = grid[r][c]
		}
		merged, pts := mergeLine(line)
		gained += pts
		for j := 0; j < Size; j++ {
			r, c := cell(d, i, j)
			out[r][c] = merged[j]
		}
	}
	return out, gained, out != grid
}

// cell maps position j of line i to grid coordinates, with j=0 being the edge
// tiles move toward.
func cell(d Direction, i, j int) (int, int) {
	switch d {
	case Left:
		return i, j
	case Right:
		return i, Size - 1 - j
	case Up:
		return j, i
	default:
		return Size - 1 - j, i
	}
}

// mergeLine compacts toward index 0. Each tile merges at most once.
func mergeLine(line [Size]int) ([Size]int, int) {
	var out [Size]int
	pos, gained := 0, 0
	canMerge := false
	for _, v := range line {
		if v == 0 {
			continue
		}
		if canMerge && out[pos-1] == v {
			out[pos-1] = v * 2
			gained += v * 2
			canMerge = false
			continue
		}
		out[pos] = v
		pos++
		canMerge = true
	}
	return out, gained
}

func (g *Game) String() string {
	var b strings.Builder
	for _, row := range g.grid {
		for c, v := range row {
			if c > 0 {
				b.WriteByte(' ')
			}
			cell := "."
			if v > 0 {
				cell = strconv.Itoa(v)
			}
			b.WriteString(strings.Repeat(" ", 5-len(cell)) + cell)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
