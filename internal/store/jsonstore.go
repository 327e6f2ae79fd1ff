// Package store implements the lightweight JSON-file fallback mode. The
// whole state is a single document { config: {rows, cols}, people: [...] }
// guarded by a mutex and rewritten atomically on every mutation. It
// serves the person registry and the flat seat matrix; palcos and auth
// require the mysql driver.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/acmevents/palco-checkin/internal/model"
	"github.com/acmevents/palco-checkin/internal/repository"
)

// GridConfig describes the flat seat grid of the fallback mode: rows
// lettered A.. and columns numbered 1..cols.
type GridConfig struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Document is the on-disk shape of the store.
type Document struct {
	Config GridConfig     `json:"config"`
	People []model.Person `json:"people"`
}

// JSONStore is a mutex-guarded file-backed person store. All methods
// take a context for interface parity with the SQL repository; the file
// operations themselves are not cancellable.
type JSONStore struct {
	path   string
	mu     sync.Mutex
	doc    Document
	nextID uint64
}

// Open loads the document at path, creating it with a default 4x12 grid
// when missing.
func Open(path string) (*JSONStore, error) {
	s := &JSONStore{path: path}
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.doc = Document{Config: GridConfig{Rows: 4, Cols: 12}}
		if err := s.save(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(raw, &s.doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	for _, p := range s.doc.People {
		if p.ID >= s.nextID {
			s.nextID = p.ID
		}
	}
	s.nextID++
	return s, nil
}

// save rewrites the document atomically: write to a temp file in the
// same directory, then rename over the original.
func (s *JSONStore) save() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *JSONStore) find(id uint64) int {
	for i := range s.doc.People {
		if s.doc.People[i].ID == id {
			return i
		}
	}
	return -1
}

// List returns all people, newest first.
func (s *JSONStore) List(ctx context.Context) ([]model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Person, len(s.doc.People))
	copy(out, s.doc.People)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// Create appends a person, assigning the next id and timestamps.
func (s *JSONStore) Create(ctx context.Context, p *model.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	p.ID = s.nextID
	s.nextID++
	p.CreatedAt = now
	p.UpdatedAt = now
	s.doc.People = append(s.doc.People, *p)
	return s.save()
}

// Update applies a partial update and returns the refreshed record.
func (s *JSONStore) Update(ctx context.Context, id uint64, upd model.PersonUpdate) (model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(id)
	if i < 0 {
		return model.Person{}, repository.ErrNotFound
	}
	p := &s.doc.People[i]
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Doc != nil {
		p.Doc = *upd.Doc
	}
	if upd.Org != nil {
		p.Org = *upd.Org
	}
	if upd.Cargo != nil {
		p.Cargo = *upd.Cargo
	}
	if upd.SeatCode != nil {
		if *upd.SeatCode == "" {
			p.SeatCode = nil
		} else {
			code := strings.ToUpper(strings.TrimSpace(*upd.SeatCode))
			p.SeatCode = &code
		}
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.save(); err != nil {
		return model.Person{}, err
	}
	return *p, nil
}

// Delete removes a person, reporting whether a record was deleted.
func (s *JSONStore) Delete(ctx context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(id)
	if i < 0 {
		return false, nil
	}
	s.doc.People = append(s.doc.People[:i], s.doc.People[i+1:]...)
	return true, s.save()
}

// CheckInByID marks a person present with the current UTC timestamp.
func (s *JSONStore) CheckInByID(ctx context.Context, id uint64) (model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(id)
	if i < 0 {
		return model.Person{}, repository.ErrNotFound
	}
	return s.checkIn(i)
}

func (s *JSONStore) checkIn(i int) (model.Person, error) {
	now := time.Now().UTC()
	p := &s.doc.People[i]
	p.Present = true
	p.PresentAt = &now
	p.UpdatedAt = now
	if err := s.save(); err != nil {
		return model.Person{}, err
	}
	return *p, nil
}

// CheckInByName marks a person present by exact, case-insensitive name
// match, optionally auto-creating a bare record on miss.
func (s *JSONStore) CheckInByName(ctx context.Context, name string, autocreate bool) (model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doc.People {
		if strings.EqualFold(s.doc.People[i].Name, name) {
			return s.checkIn(i)
		}
	}
	if !autocreate {
		return model.Person{}, repository.ErrNotFound
	}
	now := time.Now().UTC()
	p := model.Person{ID: s.nextID, Name: name, CreatedAt: now, UpdatedAt: now}
	s.nextID++
	s.doc.People = append(s.doc.People, p)
	return s.checkIn(len(s.doc.People) - 1)
}

// Search performs a case-insensitive substring match across name, doc,
// org and cargo, ordered by name ascending and capped at limit entries.
func (s *JSONStore) Search(ctx context.Context, q string, limit int) ([]model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(strings.TrimSpace(q))
	var out []model.Person
	for _, p := range s.doc.People {
		hay := strings.ToLower(p.Name + "\x00" + p.Doc + "\x00" + p.Org + "\x00" + p.Cargo)
		if strings.Contains(hay, needle) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Matrix is the flat-grid payload of the fallback mode: the seat codes
// laid out row by row plus a status map for every referenced seat.
type Matrix struct {
	Rows   int               `json:"rows"`
	Cols   int               `json:"cols"`
	Seats  [][]string        `json:"seats"`
	Status map[string]string `json:"status"`
}

// SeatMatrix builds the seat code matrix and the derived status of each
// referenced seat: present wins over assigned, unreferenced codes are
// omitted (free).
func (s *JSONStore) SeatMatrix(ctx context.Context) (Matrix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := Matrix{
		Rows:   s.doc.Config.Rows,
		Cols:   s.doc.Config.Cols,
		Status: map[string]string{},
	}
	for r := 0; r < m.Rows; r++ {
		row := make([]string, 0, m.Cols)
		letter := string(rune('A' + r))
		for c := 1; c <= m.Cols; c++ {
			row = append(row, fmt.Sprintf("%s%d", letter, c))
		}
		m.Seats = append(m.Seats, row)
	}
	for _, p := range s.doc.People {
		if p.SeatCode == nil || *p.SeatCode == "" {
			continue
		}
		if p.Present {
			m.Status[*p.SeatCode] = "present"
		} else if m.Status[*p.SeatCode] != "present" {
			m.Status[*p.SeatCode] = "assigned"
		}
	}
	return m, nil
}
