package extract

import (
	"regexp"
	"strings"
)

// normalizeName is the lookup key normalization for the canonical maps.
func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a name and collapses everything outside [a-z0-9] into
// hyphens. Names with no ASCII letters or digits, which is the common case
// for Chinese text, slugify to "".
func Slugify(s string) string {
	slug := slugStripRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(slug, "-")
}

type personEntry struct {
	rec *PersonProposal
	// existing marks an entry seeded from the canonical snapshot. Its id is
	// immutable and only its alias set may grow during a run.
	existing bool
}

type placeEntry struct {
	rec      *PlaceProposal
	existing bool
}

// Canonicalizer maintains the per-invocation name→record maps for persons and
// places. It is built fresh from a caller-supplied snapshot on every run and
// never shared across runs; two concurrent runs minting different ids for the
// same new name is an accepted gap resolved later at approval time.
type Canonicalizer struct {
	persons map[string]*personEntry
	places  map[string]*placeEntry

	// touched entries in first-touch order become the run's output proposals.
	personOrder   []*personEntry
	placeOrder    []*placeEntry
	personTouched map[*personEntry]bool
	placeTouched  map[*placeEntry]bool
}

// NewCanonicalizer seeds the maps from the existing-entity snapshot. Every
// alias of an existing entity is registered as a secondary key pointing at
// the same record.
func NewCanonicalizer(snap Snapshot) *Canonicalizer {
	c := &Canonicalizer{
		persons:       make(map[string]*personEntry),
		places:        make(map[string]*placeEntry),
		personTouched: make(map[*personEntry]bool),
		placeTouched:  make(map[*placeEntry]bool),
	}

	for _, p := range snap.Persons {
		entry := &personEntry{
			rec: &PersonProposal{
				ID:        p.ID,
				Name:      p.Name,
				Aliases:   append([]string(nil), p.Aliases...),
				Role:      string(p.Role),
				Faction:   string(p.Faction),
				Biography: p.Biography,
				BirthYear: FormatYear(p.BirthYear),
				DeathYear: FormatYear(p.DeathYear),
			},
			existing: true,
		}
		c.registerPerson(p.Name, entry)
		for _, alias := range p.Aliases {
			c.registerPerson(alias, entry)
		}
	}

	for _, p := range snap.Places {
		entry := &placeEntry{
			rec: &PlaceProposal{
				ID:          p.ID,
				Name:        p.Name,
				Aliases:     append([]string(nil), p.Aliases...),
				ModernName:  p.ModernName,
				Coordinates: p.Coordinates,
				Description: p.Description,
			},
			existing: true,
		}
		c.registerPlace(p.Name, entry)
		for _, alias := range p.Aliases {
			c.registerPlace(alias, entry)
		}
	}

	return c
}

// registerPerson points a name key at an entry unless the key is taken.
// First registration wins so an alias collision never rebinds a name.
func (c *Canonicalizer) registerPerson(name string, entry *personEntry) {
	key := normalizeName(name)
	if key == "" {
		return
	}
	if _, ok := c.persons[key]; !ok {
		c.persons[key] = entry
	}
}

func (c *Canonicalizer) registerPlace(name string, entry *placeEntry) {
	key := normalizeName(name)
	if key == "" {
		return
	}
	if _, ok := c.places[key]; !ok {
		c.places[key] = entry
	}
}

// mintID slugifies a name, falling back to the normalized key when
// slugification yields nothing.
func mintID(name string) string {
	if slug := Slugify(name); slug != "" {
		return slug
	}
	return normalizeName(name)
}

// UpsertPerson folds a proposed person into the map and returns the record
// the name now resolves to.
//
// Unseen names mint a new id. Names resolving to a snapshot entry keep that
// entry's id untouched, regardless of any id claimed by the payload, and only
// union in aliases. Names minted earlier in this same run keep their
// first-assigned id and shallow-merge the remaining fields, last write wins
// per field.
func (c *Canonicalizer) UpsertPerson(p PersonProposal) *PersonProposal {
	name := strings.TrimSpace(p.Name)
	key := normalizeName(name)
	if key == "" {
		return nil
	}

	entry, ok := c.persons[key]
	if !ok {
		rec := p
		rec.Name = name
		rec.ID = mintID(name)
		rec.Aliases = unionAliases(nil, p.Aliases, name)
		entry = &personEntry{rec: &rec}
		c.persons[key] = entry
	} else if entry.existing {
		entry.rec.Aliases = unionAliases(entry.rec.Aliases, appendAlias(p.Aliases, name), entry.rec.Name)
	} else {
		mergePersonFields(entry.rec, &p)
		entry.rec.Aliases = unionAliases(entry.rec.Aliases, appendAlias(p.Aliases, name), entry.rec.Name)
	}

	for _, alias := range entry.rec.Aliases {
		c.registerPerson(alias, entry)
	}

	if !c.personTouched[entry] {
		c.personTouched[entry] = true
		c.personOrder = append(c.personOrder, entry)
	}
	return entry.rec
}

// UpsertPlace folds a proposed place into the map. The raw name is split into
// primary name and bracketed alias first, so "鸿门 (戏)" canonicalizes under
// "鸿门" with "戏" as an alias.
func (c *Canonicalizer) UpsertPlace(p PlaceProposal) *PlaceProposal {
	raw := strings.TrimSpace(p.Name)
	name := CleanLocationName(raw)
	if alias := LocationAlias(raw); alias != "" {
		p.Aliases = append(append([]string(nil), p.Aliases...), alias)
	}
	key := normalizeName(name)
	if key == "" {
		return nil
	}

	entry, ok := c.places[key]
	if !ok {
		rec := p
		rec.Name = name
		rec.ID = mintID(name)
		rec.Aliases = unionAliases(nil, p.Aliases, name)
		entry = &placeEntry{rec: &rec}
		c.places[key] = entry
	} else if entry.existing {
		entry.rec.Aliases = unionAliases(entry.rec.Aliases, appendAlias(p.Aliases, name), entry.rec.Name)
	} else {
		mergePlaceFields(entry.rec, &p)
		entry.rec.Aliases = unionAliases(entry.rec.Aliases, appendAlias(p.Aliases, name), entry.rec.Name)
	}

	for _, alias := range entry.rec.Aliases {
		c.registerPlace(alias, entry)
	}

	if !c.placeTouched[entry] {
		c.placeTouched[entry] = true
		c.placeOrder = append(c.placeOrder, entry)
	}
	return entry.rec
}

// ResolvePerson returns the canonical id for a name, or "" when unresolved.
func (c *Canonicalizer) ResolvePerson(name string) (string, bool) {
	entry, ok := c.persons[normalizeName(name)]
	if !ok {
		return "", false
	}
	return entry.rec.ID, true
}

// ResolvePlace returns the canonical id for a place name, resolving through
// the cleaned primary name, or "" when unresolved.
func (c *Canonicalizer) ResolvePlace(name string) (string, bool) {
	entry, ok := c.places[normalizeName(CleanLocationName(name))]
	if !ok {
		return "", false
	}
	return entry.rec.ID, true
}

// Persons returns the person records touched during this run, in first-touch
// order. Snapshot entries appear only if the run added aliases to them.
func (c *Canonicalizer) Persons() []PersonProposal {
	out := make([]PersonProposal, 0, len(c.personOrder))
	for _, entry := range c.personOrder {
		out = append(out, *entry.rec)
	}
	return out
}

// Places returns the place records touched during this run, in first-touch
// order.
func (c *Canonicalizer) Places() []PlaceProposal {
	out := make([]PlaceProposal, 0, len(c.placeOrder))
	for _, entry := range c.placeOrder {
		out = append(out, *entry.rec)
	}
	return out
}

// appendAlias copies the slice before appending so the caller's backing
// array is never written through.
func appendAlias(aliases []string, name string) []string {
	out := make([]string, 0, len(aliases)+1)
	out = append(out, aliases...)
	return append(out, name)
}

// unionAliases appends incoming aliases onto existing, dropping duplicates,
// blanks, and the primary name itself.
func unionAliases(existing, incoming []string, primaryName string) []string {
	seen := make(map[string]bool, len(existing))
	primary := normalizeName(primaryName)
	out := make([]string, 0, len(existing)+len(incoming))
	for _, lists := range [][]string{existing, incoming} {
		for _, alias := range lists {
			alias = strings.TrimSpace(alias)
			key := normalizeName(alias)
			if key == "" || key == primary || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, alias)
		}
	}
	return out
}

// mergePersonFields shallow-merges src into dst, last write wins per field.
// Id, name, and aliases are handled by the caller.
func mergePersonFields(dst, src *PersonProposal) {
	if src.Role != "" {
		dst.Role = src.Role
	}
	if src.Faction != "" {
		dst.Faction = src.Faction
	}
	if src.Biography != "" {
		dst.Biography = src.Biography
	}
	if src.BirthYear != "" {
		dst.BirthYear = src.BirthYear
	}
	if src.DeathYear != "" {
		dst.DeathYear = src.DeathYear
	}
	if src.ActivePeriodStart != "" {
		dst.ActivePeriodStart = src.ActivePeriodStart
	}
	if src.ActivePeriodEnd != "" {
		dst.ActivePeriodEnd = src.ActivePeriodEnd
	}
	if src.ExistingID != "" {
		dst.ExistingID = src.ExistingID
	}
	dst.Truncated = dst.Truncated && src.Truncated
}

func mergePlaceFields(dst, src *PlaceProposal) {
	if src.ModernName != "" {
		dst.ModernName = src.ModernName
	}
	if src.Coordinates != nil {
		dst.Coordinates = src.Coordinates
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
	if src.ExistingID != "" {
		dst.ExistingID = src.ExistingID
	}
	dst.Truncated = dst.Truncated && src.Truncated
}
