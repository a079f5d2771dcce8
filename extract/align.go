package extract

// AlignEvents rewrites actor and location references on every named proposal
// to canonical ids. An unresolved name keeps an empty id and is surfaced to a
// human reviewer; ids are never guessed. The raw location name stays on the
// proposal alongside the resolved id.
func AlignEvents(events []EventProposal, c *Canonicalizer) {
	for i := range events {
		ev := &events[i]
		if ev.Name == "" {
			continue
		}

		for j := range ev.Actors {
			actor := &ev.Actors[j]
			if id, ok := c.ResolvePerson(actor.Name); ok {
				actor.ID = id
			} else {
				actor.ID = ""
			}
		}

		if ev.LocationName != "" {
			if alias := LocationAlias(ev.LocationName); alias != "" && ev.LocationAlias == "" {
				ev.LocationAlias = alias
			}
			if id, ok := c.ResolvePlace(ev.LocationName); ok {
				ev.LocationID = id
			} else {
				ev.LocationID = ""
			}
		}
	}
}
