package core

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/distances.yaml
var defaultDistances []byte

const (
	minEstimatedKm = 100
	maxEstimatedKm = 1000
)

var ErrEmptyCity = errors.New("empty city")

// Distance is the result of a lookup. Estimated distances are random
// placeholders, not measurements.
type Distance struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Km        float64 `json:"km"`
	Estimated bool    `json:"estimated"`
}

type distanceFile struct {
	Distances []struct {
		From string  `yaml:"from"`
		To   string  `yaml:"to"`
		Km   float64 `yaml:"km"`
	} `yaml:"distances"`
}

type cityPair struct{ a, b string }

func newCityPair(from, to string) cityPair {
	a := strings.ToLower(strings.TrimSpace(from))
	b := strings.ToLower(strings.TrimSpace(to))
	if b < a {
		a, b = b, a
	}
	return cityPair{a, b}
}

// DistanceTable answers city-pair distance lookups.
type DistanceTable struct {
	pairs  map[cityPair]float64
	random func() float64
}

// DistanceOption configures a DistanceTable.
type DistanceOption func(*DistanceTable)

// WithRandom replaces the source used for unknown pairs. fn must return
// values in [0, 1).
func WithRandom(fn func() float64) DistanceOption {
	return func(t *DistanceTable) { t.random = fn }
}

// LoadDistanceTable reads a YAML table of distances.
func LoadDistanceTable(r io.Reader, opts ...DistanceOption) (*DistanceTable, error) {
	var f distanceFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode distances: %w", err)
	}
	t := &DistanceTable{
		pairs:  make(map[cityPair]float64, len(f.Distances)),
		random: rand.Float64,
	}
	for i, d := range f.Distances {
		if strings.TrimSpace(d.From) == "" || strings.TrimSpace(d.To) == "" {
			return nil, fmt.Errorf("distance entry %d: %w", i, ErrEmptyCity)
		}
		if d.Km < 0 {
			return nil, fmt.Errorf("distance entry %d: negative km", i)
		}
		t.pairs[newCityPair(d.From, d.To)] = d.Km
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// DefaultDistanceTable returns the table bundled with the binary.
func DefaultDistanceTable(opts ...DistanceOption) *DistanceTable {
	t, err := LoadDistanceTable(bytes.NewReader(defaultDistances), opts...)
	if err != nil {
		panic(fmt.Sprintf("bundled distance table: %v", err))
	}
	return t
}

// Lookup returns the known distance between two cities. The same city is
// zero km apart. Unknown pairs get an estimate in [100, 1000) km.
func (t *DistanceTable) Lookup(from, to string) (Distance, error) {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return Distance{}, ErrEmptyCity
	}
	d := Distance{From: strings.TrimSpace(from), To: strings.TrimSpace(to)}
	key := newCityPair(from, to)
	if key.a == key.b {
		return d, nil
	}
	if km, ok := t.pairs[key]; ok {
		d.Km = km
		return d, nil
	}
	d.Km = float64(int(minEstimatedKm + t.random()*(maxEstimatedKm-minEstimatedKm)))
	d.Estimated = true
	return d, nil
}

// Len reports how many pairs are known.
func (t *DistanceTable) Len() int {
	return len(t.pairs)
}
