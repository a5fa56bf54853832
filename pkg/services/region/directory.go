// Package region loads the static region -> sub-region directory and resolves
// region names to the sub-regions a query fans out to.
package region

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/de-tools/realty-atlas/pkg/models/domain"
)

//go:embed data/regions.json
var defaultRegions []byte

// Resolver resolves a region name into fetch targets.
type Resolver interface {
	Resolve(name string) ([]domain.Target, error)
}

type regionEntry struct {
	Name    string         `json:"si_do_name"`
	Code    string         `json:"si_do_code"`
	Sigungu []sigunguEntry `json:"sigungu"`
}

type sigunguEntry struct {
	Code string `json:"sigungu_code"`
	Name string `json:"sigungu_name"`
}

// Directory is read-only after construction and safe for concurrent use.
type Directory struct {
	regions []domain.Region
	byName  map[string]int
}

// Load reads a directory document from path.
func Load(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.DirectoryLoadError{Source: path, Err: err}
	}
	defer f.Close()

	return parse(path, f)
}

// Parse reads a directory document from r.
func Parse(r io.Reader) (*Directory, error) {
	return parse("reader", r)
}

// Default returns the directory bundled with the binary.
func Default() (*Directory, error) {
	return parse("embedded", bytes.NewReader(defaultRegions))
}

func parse(source string, r io.Reader) (*Directory, error) {
	var entries []regionEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, &domain.DirectoryLoadError{Source: source, Err: fmt.Errorf("decode: %w", err)}
	}

	dir, err := build(entries)
	if err != nil {
		return nil, &domain.DirectoryLoadError{Source: source, Err: err}
	}
	return dir, nil
}

func build(entries []regionEntry) (*Directory, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no regions defined")
	}

	dir := &Directory{
		regions: make([]domain.Region, 0, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	codes := make(map[string]struct{}, len(entries))

	for i, e := range entries {
		if e.Name == "" || e.Code == "" {
			return nil, fmt.Errorf("region %d: si_do_name and si_do_code are required", i)
		}
		if domain.IsNationwide(e.Name) {
			return nil, fmt.Errorf("region %d: %q is reserved", i, e.Name)
		}
		if _, dup := dir.byName[e.Name]; dup {
			return nil, fmt.Errorf("region %d: duplicate name %q", i, e.Name)
		}
		if _, dup := codes[e.Code]; dup {
			return nil, fmt.Errorf("region %d: duplicate code %q", i, e.Code)
		}
		if len(e.Sigungu) == 0 {
			return nil, fmt.Errorf("region %q: sigungu list is empty", e.Name)
		}

		reg := domain.Region{Name: e.Name, Code: e.Code, SubRegions: make([]domain.SubRegion, 0, len(e.Sigungu))}
		subCodes := make(map[string]struct{}, len(e.Sigungu))
		for j, s := range e.Sigungu {
			if s.Code == "" || s.Name == "" {
				return nil, fmt.Errorf("region %q sigungu %d: sigungu_code and sigungu_name are required", e.Name, j)
			}
			if _, dup := subCodes[s.Code]; dup {
				return nil, fmt.Errorf("region %q: duplicate sigungu code %q", e.Name, s.Code)
			}
			subCodes[s.Code] = struct{}{}
			reg.SubRegions = append(reg.SubRegions, domain.SubRegion{Code: s.Code, Name: s.Name})
		}

		codes[e.Code] = struct{}{}
		dir.byName[e.Name] = len(dir.regions)
		dir.regions = append(dir.regions, reg)
	}

	return dir, nil
}

// Resolve returns the sub-regions of the named region, or of every region for the
// nationwide sentinel, in load order.
func (d *Directory) Resolve(name string) ([]domain.Target, error) {
	if domain.IsNationwide(name) {
		targets := make([]domain.Target, 0, d.Len())
		for _, reg := range d.regions {
			targets = appendTargets(targets, reg)
		}
		return targets, nil
	}

	idx, ok := d.byName[name]
	if !ok {
		return nil, &domain.UnknownRegionError{Name: name}
	}
	reg := d.regions[idx]
	return appendTargets(make([]domain.Target, 0, len(reg.SubRegions)), reg), nil
}

func appendTargets(targets []domain.Target, reg domain.Region) []domain.Target {
	for _, sub := range reg.SubRegions {
		targets = append(targets, domain.Target{RegionName: reg.Name, SubRegion: sub})
	}
	return targets
}

// Region looks up a region by name.
func (d *Directory) Region(name string) (domain.Region, bool) {
	idx, ok := d.byName[name]
	if !ok {
		return domain.Region{}, false
	}
	return cloneRegion(d.regions[idx]), true
}

// Regions returns a copy of every region in load order.
func (d *Directory) Regions() []domain.Region {
	out := make([]domain.Region, len(d.regions))
	for i, reg := range d.regions {
		out[i] = cloneRegion(reg)
	}
	return out
}

// Len returns the total number of sub-regions.
func (d *Directory) Len() int {
	n := 0
	for _, reg := range d.regions {
		n += len(reg.SubRegions)
	}
	return n
}

func cloneRegion(reg domain.Region) domain.Region {
	reg.SubRegions = append([]domain.SubRegion(nil), reg.SubRegions...)
	return reg
}
