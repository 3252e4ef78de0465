// Package objectives supplies the search queries a session works through.
package objectives

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// Fallback is used when no keywords file exists.
var Fallback = []string{
	"best hotels in murudeshwar",
	"murudeshwar accommodation",
	"places to stay in murudeshwar",
}

// Origin records where a list of objectives came from.
type Origin string

const (
	OriginExplicit Origin = "explicit"
	OriginFile     Origin = "file"
	OriginFallback Origin = "fallback"
)

// Set is a resolved list of objectives.
type Set struct {
	Queries []string
	Origin  Origin
	Path    string
}

// LoadFile reads one query per line from path. Lines are trimmed and blank
// lines skipped. A missing file yields os.ErrNotExist.
func LoadFile(fs afero.Fs, path string) ([]string, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func parse(data []byte) ([]string, error) {
	var queries []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			queries = append(queries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read keywords: %w", err)
	}
	return queries, nil
}

// Options controls Resolve.
type Options struct {
	// Explicit queries win over the file when non-empty.
	Explicit []string
	// Path of the keywords file.
	Path string
	// Max samples that many queries at random; 0 keeps them all.
	Max int
	// Rand drives sampling. Required when Max > 0.
	Rand *rand.Rand
}

// Resolve picks the queries for a session: explicit queries if given, else
// the keywords file, else Fallback. Sampling applies to file and fallback
// queries only.
func Resolve(fs afero.Fs, opts Options) (Set, error) {
	if explicit := clean(opts.Explicit); len(explicit) > 0 {
		return Set{Queries: explicit, Origin: OriginExplicit}, nil
	}

	set := Set{Origin: OriginFile, Path: opts.Path}
	queries, err := LoadFile(fs, opts.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		set.Origin = OriginFallback
		queries = append([]string(nil), Fallback...)
	case err != nil:
		return Set{}, fmt.Errorf("failed to load keywords from %s: %w", opts.Path, err)
	case len(queries) == 0:
		return Set{}, fmt.Errorf("keywords file %s has no queries", opts.Path)
	}

	if opts.Max > 0 {
		queries = Sample(queries, opts.Max, opts.Rand)
	}
	set.Queries = queries
	return set, nil
}

// Sample returns n distinct queries in random order. When n covers the whole
// list, a shuffled copy is returned.
func Sample(queries []string, n int, rng *rand.Rand) []string {
	out := append([]string(nil), queries...)
	if rng == nil {
		return truncate(out, n)
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return truncate(out, n)
}

func truncate(list []string, n int) []string {
	if n < len(list) {
		return list[:n]
	}
	return list
}

func clean(queries []string) []string {
	var out []string
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}
