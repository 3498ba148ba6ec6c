package core

// HierarchyIndex resolves canonical names to identifiers across the three
// administrative levels. It is seeded once from the store at the start of a
// run and mutated in place as the planner synthesizes nodes, so a later row
// naming the same (parent, name) pair resolves to the id already allocated.
//
// Lookups are exact matches on canonical keys only. The index is not safe for
// concurrent use; a run owns its index.
type HierarchyIndex struct {
	states map[string]string            // state key -> state id
	lgas   map[string]map[string]string // state id -> LGA key -> LGA id
	wards  map[string]map[string]string // LGA id -> ward key -> ward id

	lgaCount  int
	wardCount int
}

// NewHierarchyIndex returns an empty index.
func NewHierarchyIndex() *HierarchyIndex {
	return &HierarchyIndex{
		states: make(map[string]string),
		lgas:   make(map[string]map[string]string),
		wards:  make(map[string]map[string]string),
	}
}

// Seed loads existing store rows. When two rows share a canonical key under
// the same parent, the first one wins.
func (x *HierarchyIndex) Seed(states []State, lgas []LGA, wards []Ward) {
	for _, s := range states {
		key := CanonicalState(s.Name)
		if key == "" {
			continue
		}
		if _, exists := x.states[key]; !exists {
			x.states[key] = s.ID
		}
	}
	for _, l := range lgas {
		x.RegisterLGA(l.StateID, l.Name, l.ID)
	}
	for _, w := range wards {
		x.RegisterWard(w.LGAID, w.Name, w.ID)
	}
}

// ResolveState returns the id of the state named name, after aliasing.
func (x *HierarchyIndex) ResolveState(name string) (string, bool) {
	key := CanonicalState(name)
	if key == "" {
		return "", false
	}
	id, ok := x.states[key]
	return id, ok
}

// LookupLGA returns the id of the LGA named name under stateID.
func (x *HierarchyIndex) LookupLGA(stateID, name string) (string, bool) {
	return lookup(x.lgas, stateID, Canonicalize(name))
}

// LookupWard returns the id of the ward named name under lgaID.
func (x *HierarchyIndex) LookupWard(lgaID, name string) (string, bool) {
	return lookup(x.wards, lgaID, Canonicalize(name))
}

// RegisterLGA records an LGA under stateID. It reports false, leaving the
// index unchanged, if the name is empty after canonicalization or already
// registered under that state.
func (x *HierarchyIndex) RegisterLGA(stateID, name, id string) bool {
	if !register(x.lgas, stateID, Canonicalize(name), id) {
		return false
	}
	x.lgaCount++
	return true
}

// RegisterWard records a ward under lgaID with the same rules as RegisterLGA.
func (x *HierarchyIndex) RegisterWard(lgaID, name, id string) bool {
	if !register(x.wards, lgaID, Canonicalize(name), id) {
		return false
	}
	x.wardCount++
	return true
}

// IndexCounts reports how many entries each level holds.
type IndexCounts struct {
	States int `json:"states"`
	LGAs   int `json:"lgas"`
	Wards  int `json:"wards"`
}

// Counts returns the number of indexed states, LGAs and wards.
func (x *HierarchyIndex) Counts() IndexCounts {
	return IndexCounts{
		States: len(x.states),
		LGAs:   x.lgaCount,
		Wards:  x.wardCount,
	}
}

func lookup(level map[string]map[string]string, parentID, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	children, ok := level[parentID]
	if !ok {
		return "", false
	}
	id, ok := children[key]
	return id, ok
}

func register(level map[string]map[string]string, parentID, key, id string) bool {
	if key == "" {
		return false
	}
	children, ok := level[parentID]
	if !ok {
		children = make(map[string]string)
		level[parentID] = children
	}
	if _, exists := children[key]; exists {
		return false
	}
	children[key] = id
	return true
}
