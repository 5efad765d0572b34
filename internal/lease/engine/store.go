package engine

import (
	"fmt"
	"sort"

	"landrush.gg/internal/lease/model"
)

// RegionStore owns the authoritative in-memory region map. Only the market
// mutates it, from the market goroutine; reads are safe there by construction.
// Replace enforces lease-version compare-and-swap so a transition built
// against a stale view fails instead of clobbering a newer lease.
type RegionStore struct {
	regions map[string]*model.Region
	groups  map[string]model.Group
}

func NewRegionStore() *RegionStore {
	return &RegionStore{
		regions: make(map[string]*model.Region),
		groups:  make(map[string]model.Group),
	}
}

func (s *RegionStore) Get(name string) (*model.Region, bool) {
	r, ok := s.regions[name]
	return r, ok
}

// Put inserts or overwrites without a version check. Admin/startup only.
func (s *RegionStore) Put(r *model.Region) {
	s.regions[r.Name] = r
}

// Replace swaps in next if the stored region still carries expectedVersion.
func (s *RegionStore) Replace(next *model.Region, expectedVersion uint64) error {
	cur, ok := s.regions[next.Name]
	if !ok {
		return fmt.Errorf("region %q not found", next.Name)
	}
	if cur.LeaseVersion != expectedVersion {
		return fmt.Errorf("region %q lease version %d, expected %d", next.Name, cur.LeaseVersion, expectedVersion)
	}
	s.regions[next.Name] = next
	return nil
}

func (s *RegionStore) Remove(name string) {
	delete(s.regions, name)
}

// List returns regions sorted by name, optionally filtered by group.
func (s *RegionStore) List(group string) []*model.Region {
	out := make([]*model.Region, 0, len(s.regions))
	for _, r := range s.regions {
		if group != "" && !r.InGroup(group) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *RegionStore) Len() int { return len(s.regions) }

func (s *RegionStore) Group(name string) (model.Group, bool) {
	g, ok := s.groups[name]
	return g, ok
}

func (s *RegionStore) PutGroup(g model.Group) {
	s.groups[g.Name] = g
}

func (s *RegionStore) RemoveGroup(name string) {
	delete(s.groups, name)
}
