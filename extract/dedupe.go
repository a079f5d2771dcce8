package extract

import "unicode/utf8"

// DedupeEvents collapses proposals sharing a normalized name into one record
// per event. Within a group, the proposal with the longest combined summary
// and impact text is selected as primary; on a tie the earlier-created one
// wins. The other members contribute paragraphs, actors, relationship
// mentions, and any scalar field the primary left empty. Unnamed proposals
// pass through untouched. Output order follows first occurrence.
func DedupeEvents(events []EventProposal) []EventProposal {
	groups := make(map[string][]int)

	// slots preserves first-occurrence order: a non-negative slot is the
	// index of an unnamed pass-through proposal, keys mark named groups.
	type slot struct {
		index int
		key   string
	}
	var slots []slot

	for i, ev := range events {
		key := normalizeName(ev.Name)
		if key == "" {
			slots = append(slots, slot{index: i})
			continue
		}
		if _, ok := groups[key]; !ok {
			slots = append(slots, slot{index: -1, key: key})
		}
		groups[key] = append(groups[key], i)
	}

	var out []EventProposal
	for _, s := range slots {
		if s.index >= 0 {
			out = append(out, events[s.index])
			continue
		}
		members := groups[s.key]
		primary := members[0]
		for _, idx := range members[1:] {
			if detailLen(events[idx]) > detailLen(events[primary]) {
				primary = idx
			}
		}

		merged := events[primary]
		merged.RelatedParagraphs = append([]string(nil), merged.RelatedParagraphs...)
		merged.Actors = append([]ActorMention(nil), merged.Actors...)
		merged.Relationships = append([]RelationshipMention(nil), merged.Relationships...)

		for _, idx := range members {
			if idx == primary {
				continue
			}
			mergeEventInto(&merged, events[idx])
		}
		out = append(out, merged)
	}
	return out
}

// detailLen measures a proposal's combined summary and impact length in
// runes.
func detailLen(ev EventProposal) int {
	return utf8.RuneCountInString(ev.Summary) + utf8.RuneCountInString(ev.Impact)
}

// mergeEventInto folds a secondary proposal into the selected primary.
func mergeEventInto(dst *EventProposal, src EventProposal) {
	if dst.Type == "" {
		dst.Type = src.Type
	}
	if dst.TimeRangeStart == "" {
		dst.TimeRangeStart = src.TimeRangeStart
	}
	if dst.TimeRangeEnd == "" {
		dst.TimeRangeEnd = src.TimeRangeEnd
	}
	if dst.TimePrecision == "" {
		dst.TimePrecision = src.TimePrecision
	}
	if dst.LocationName == "" {
		dst.LocationName = src.LocationName
	}
	if dst.LocationModernName == "" {
		dst.LocationModernName = src.LocationModernName
	}
	if dst.LocationAlias == "" {
		dst.LocationAlias = src.LocationAlias
	}
	if dst.LocationID == "" {
		dst.LocationID = src.LocationID
	}
	if dst.Summary == "" {
		dst.Summary = src.Summary
	}
	if dst.Impact == "" {
		dst.Impact = src.Impact
	}

	for _, id := range src.RelatedParagraphs {
		if !containsString(dst.RelatedParagraphs, id) {
			dst.RelatedParagraphs = append(dst.RelatedParagraphs, id)
		}
	}

	for _, actor := range src.Actors {
		if !hasActor(dst.Actors, actor.Name) {
			dst.Actors = append(dst.Actors, actor)
		}
	}

	dst.Relationships = append(dst.Relationships, src.Relationships...)

	// A stub only stays a stub when every member of the group is one.
	dst.Truncated = dst.Truncated && src.Truncated
}

func hasActor(actors []ActorMention, name string) bool {
	key := normalizeName(name)
	for _, a := range actors {
		if normalizeName(a.Name) == key {
			return true
		}
	}
	return false
}
