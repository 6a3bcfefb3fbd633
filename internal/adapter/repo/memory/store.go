package memory

import (
	"context"
	"sort"
	"sync"

	"farmstead/internal/domain/farm"
	"farmstead/internal/domain/spatial"
)

type txKeyType struct{}

var txKey = txKeyType{}

// Store keeps plots in a table keyed by id plus a grid hash from cell to the
// ids planted in it. Cells hold ids, never plot values.
type Store struct {
	mu     sync.RWMutex
	grid   spatial.Grid
	plots  map[string]farm.Plot
	cells  map[spatial.Cell]map[string]struct{}
	owners map[string]farm.Owner
}

func NewStore(grid spatial.Grid) *Store {
	return &Store{
		grid:   spatial.NewGrid(grid.CellSize),
		plots:  make(map[string]farm.Plot),
		cells:  make(map[spatial.Cell]map[string]struct{}),
		owners: make(map[string]farm.Owner),
	}
}

func (s *Store) Grid() spatial.Grid {
	return s.grid
}

func (s *Store) inTx(ctx context.Context) bool {
	v, ok := ctx.Value(txKey).(*Store)
	return ok && v == s
}

func (s *Store) withTx(ctx context.Context) context.Context {
	return context.WithValue(ctx, txKey, s)
}

// read and write skip locking when the caller already holds the store
// through RunInTx.
func (s *Store) read(ctx context.Context, fn func()) {
	if s.inTx(ctx) {
		fn()
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

func (s *Store) write(ctx context.Context, fn func() error) error {
	if s.inTx(ctx) {
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

type snapshot struct {
	plots  map[string]farm.Plot
	owners map[string]farm.Owner
}

func (s *Store) snapshot() snapshot {
	out := snapshot{
		plots:  make(map[string]farm.Plot, len(s.plots)),
		owners: make(map[string]farm.Owner, len(s.owners)),
	}
	for k, v := range s.plots {
		out.plots[k] = v
	}
	for k, v := range s.owners {
		out.owners[k] = v
	}
	return out
}

func (s *Store) restore(snap snapshot) {
	s.plots = snap.plots
	s.owners = snap.owners
	s.cells = make(map[spatial.Cell]map[string]struct{}, len(snap.plots))
	for id, p := range snap.plots {
		s.index(id, p.Cell())
	}
}

func (s *Store) index(id string, c spatial.Cell) {
	bucket, ok := s.cells[c]
	if !ok {
		bucket = make(map[string]struct{})
		s.cells[c] = bucket
	}
	bucket[id] = struct{}{}
}

func (s *Store) unindex(id string, c spatial.Cell) {
	bucket, ok := s.cells[c]
	if !ok {
		return
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(s.cells, c)
	}
}

// candidates returns the plots filed under the cells of box. Very large boxes
// fall back to a full scan.
func (s *Store) candidates(box spatial.CellBox) []farm.Plot {
	if box.Empty() {
		return nil
	}
	width := int64(box.MaxX-box.MinX) + 1
	height := int64(box.MaxY-box.MinY) + 1
	out := make([]farm.Plot, 0)
	n := int64(len(s.cells))
	if width <= 0 || height <= 0 || width > n || height > n/width {
		for _, p := range s.plots {
			if box.Contains(p.Cell()) {
				out = append(out, p)
			}
		}
		return out
	}
	for _, c := range box.Cells() {
		for id := range s.cells[c] {
			out = append(out, s.plots[id])
		}
	}
	return out
}

func sortPlots(plots []farm.Plot) {
	sort.Slice(plots, func(i, j int) bool {
		if !plots[i].PlantedAt.Equal(plots[j].PlantedAt) {
			return plots[i].PlantedAt.Before(plots[j].PlantedAt)
		}
		return plots[i].ID < plots[j].ID
	})
}

func (s *Store) SeedPlot(p farm.Plot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.plots[p.ID]; ok {
		s.unindex(p.ID, old.Cell())
	}
	s.plots[p.ID] = p
	s.index(p.ID, p.Cell())
}

func (s *Store) SeedOwner(o farm.Owner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[o.ID] = o
}
