package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SyntheticCodePrefix marks LGA and ward codes minted by the importer.
// Authoritative registry codes are numeric, so the prefix never collides.
const SyntheticCodePrefix = "AUTO-"

// IsSyntheticCode reports whether code was minted by the importer.
func IsSyntheticCode(code string) bool {
	return strings.HasPrefix(code, SyntheticCodePrefix)
}

// codeMinter issues strictly increasing codes for one entity kind in one run.
type codeMinter struct {
	prefix string
	n      int
}

func (m *codeMinter) next() string {
	m.n++
	return fmt.Sprintf("%s%05d", m.prefix, m.n)
}

// Plan is the hierarchy creation batch produced by a planning pass.
type Plan struct {
	LGAs  []LGA
	Wards []Ward

	// UnresolvedStates holds the distinct raw state names that did not
	// resolve, in first-seen order.
	UnresolvedStates []string
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithIDGenerator overrides how synthesized node ids are allocated.
func WithIDGenerator(fn func() string) PlannerOption {
	return func(p *Planner) {
		p.newID = fn
	}
}

// Planner synthesizes the LGAs and wards a registry references but the store
// lacks. It performs one forward pass and registers every synthesized node in
// the index immediately, so at most one node is created per (parent,
// canonical name) pair in a run.
type Planner struct {
	index *HierarchyIndex
	newID func() string
	lgas  codeMinter
	wards codeMinter
}

// NewPlanner creates a planner over index. runTag is embedded in synthetic
// codes so codes minted by different runs never collide.
func NewPlanner(index *HierarchyIndex, runTag string, opts ...PlannerOption) *Planner {
	p := &Planner{
		index: index,
		newID: func() string { return uuid.New().String() },
		lgas:  codeMinter{prefix: syntheticPrefix("LGA", runTag)},
		wards: codeMinter{prefix: syntheticPrefix("WARD", runTag)},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func syntheticPrefix(kind, runTag string) string {
	if runTag == "" {
		return SyntheticCodePrefix + kind + "-"
	}
	return SyntheticCodePrefix + kind + "-" + runTag + "-"
}

// Plan walks rows in order and returns the nodes to create. Rows whose state
// does not resolve are left for the load pass to count as skipped.
func (p *Planner) Plan(rows []RawImportRow) Plan {
	var plan Plan
	unresolved := make(map[string]struct{})

	for _, row := range rows {
		stateID, ok := p.index.ResolveState(row.StateName)
		if !ok {
			// Spellings that fold to the same key are reported once.
			key := CanonicalState(row.StateName)
			if _, seen := unresolved[key]; !seen {
				unresolved[key] = struct{}{}
				plan.UnresolvedStates = append(plan.UnresolvedStates, row.StateName)
			}
			continue
		}

		lgaID, ok := p.index.LookupLGA(stateID, row.LGAName)
		if !ok {
			lga := LGA{
				ID:      p.newID(),
				Name:    row.LGAName,
				StateID: stateID,
			}
			// An empty canonical name cannot be registered; such rows are
			// skipped when units are loaded.
			if !p.index.RegisterLGA(stateID, lga.Name, lga.ID) {
				continue
			}
			lga.Code = p.lgas.next()
			plan.LGAs = append(plan.LGAs, lga)
			lgaID = lga.ID
		}

		if _, ok := p.index.LookupWard(lgaID, row.WardName); ok {
			continue
		}
		ward := Ward{
			ID:    p.newID(),
			Name:  row.WardName,
			LGAID: lgaID,
		}
		if !p.index.RegisterWard(lgaID, ward.Name, ward.ID) {
			continue
		}
		ward.Code = p.wards.next()
		plan.Wards = append(plan.Wards, ward)
	}

	return plan
}
