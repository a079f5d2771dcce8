package extract

import "strings"

// DeriveRelations projects per-event relationship mentions into standalone
// relation records, each tagged with the event it was observed in. Source and
// target ids are resolved best-effort against the canonical person map;
// missing resolution keeps the names only. No deduplication happens here:
// duplicate mentions across events are an accepted intermediate state.
func DeriveRelations(events []EventProposal, c *Canonicalizer) []Relation {
	var relations []Relation
	for _, ev := range events {
		for _, mention := range ev.Relationships {
			if mention.SourceName == "" || mention.TargetName == "" {
				continue
			}
			rel := Relation{
				SourceName:  mention.SourceName,
				TargetName:  mention.TargetName,
				Type:        mention.Type,
				Description: mention.Description,
			}
			if id, ok := c.ResolvePerson(mention.SourceName); ok {
				rel.SourceID = id
			}
			if id, ok := c.ResolvePerson(mention.TargetName); ok {
				rel.TargetID = id
			}
			if ev.Name != "" {
				rel.RelatedEvents = []string{ev.Name}
			}
			relations = append(relations, rel)
		}
	}
	return relations
}

// relationKey identifies a relation by endpoint and type. The key is
// order-sensitive: (a, b, "盟友") and (b, a, "盟友") stay distinct.
func relationKey(rel Relation) string {
	source := rel.SourceID
	if source == "" {
		source = mintID(rel.SourceName)
	}
	target := rel.TargetID
	if target == "" {
		target = mintID(rel.TargetName)
	}
	return strings.Join([]string{source, target, rel.Type}, "|")
}

// MergeRelations collapses duplicate relation mentions. On a key collision
// the first record wins, keeping its description unless empty, and the
// related-event name lists are unioned in encounter order.
func MergeRelations(relations []Relation) []Relation {
	merged := make([]Relation, 0, len(relations))
	index := make(map[string]int)

	for _, rel := range relations {
		key := relationKey(rel)
		at, ok := index[key]
		if !ok {
			index[key] = len(merged)
			rel.RelatedEvents = append([]string(nil), rel.RelatedEvents...)
			merged = append(merged, rel)
			continue
		}

		kept := &merged[at]
		if kept.Description == "" {
			kept.Description = rel.Description
		}
		for _, name := range rel.RelatedEvents {
			if !containsString(kept.RelatedEvents, name) {
				kept.RelatedEvents = append(kept.RelatedEvents, name)
			}
		}
	}
	return merged
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
