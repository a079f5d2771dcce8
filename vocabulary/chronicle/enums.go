package chronicle

// PersonRole classifies a historical person's primary function.
type PersonRole string

const (
	// RoleMonarch is a sovereign ruler (emperor, king, hegemon).
	RoleMonarch PersonRole = "MONARCH"

	// RoleAdvisor is a strategist or counselor.
	RoleAdvisor PersonRole = "ADVISOR"

	// RoleGeneral is a military commander.
	RoleGeneral PersonRole = "GENERAL"

	// RoleCivilOfficial is a civil administrator.
	RoleCivilOfficial PersonRole = "CIVIL_OFFICIAL"

	// RoleMilitaryOfficial is a military officer below general rank.
	RoleMilitaryOfficial PersonRole = "MILITARY_OFFICIAL"

	// RoleRelative is an imperial relative or consort-kin.
	RoleRelative PersonRole = "RELATIVE"

	// RoleEunuch is a palace eunuch.
	RoleEunuch PersonRole = "EUNUCH"

	// RoleOther is the catch-all role.
	RoleOther PersonRole = "OTHER"
)

// IsValid checks whether the role is a known vocabulary member.
func (r PersonRole) IsValid() bool {
	switch r {
	case RoleMonarch, RoleAdvisor, RoleGeneral, RoleCivilOfficial,
		RoleMilitaryOfficial, RoleRelative, RoleEunuch, RoleOther:
		return true
	}
	return false
}

// String returns the string representation of the role.
func (r PersonRole) String() string { return string(r) }

// Faction identifies which side of the conflict an entity belongs to.
type Faction string

const (
	// FactionHan is the Han side (Liu Bang's camp).
	FactionHan Faction = "HAN"

	// FactionChu is the Chu side (Xiang Yu's camp).
	FactionChu Faction = "CHU"

	// FactionNeutral marks entities aligned with neither side.
	FactionNeutral Faction = "NEUTRAL"

	// FactionOther is the catch-all faction.
	FactionOther Faction = "OTHER"
)

// IsValid checks whether the faction is a known vocabulary member.
func (f Faction) IsValid() bool {
	switch f {
	case FactionHan, FactionChu, FactionNeutral, FactionOther:
		return true
	}
	return false
}

// String returns the string representation of the faction.
func (f Faction) String() string { return string(f) }

// EventType classifies an extracted historical event.
type EventType string

const (
	// EventBattle is a military engagement.
	EventBattle EventType = "BATTLE"

	// EventPolitical is a political maneuver, pact, or court affair.
	EventPolitical EventType = "POLITICAL"

	// EventPersonal is a personal or biographical episode.
	EventPersonal EventType = "PERSONAL"

	// EventOther is the catch-all event type.
	EventOther EventType = "OTHER"
)

// IsValid checks whether the event type is a known vocabulary member.
func (e EventType) IsValid() bool {
	switch e {
	case EventBattle, EventPolitical, EventPersonal, EventOther:
		return true
	}
	return false
}

// String returns the string representation of the event type.
func (e EventType) String() string { return string(e) }

// PlaceType classifies a canonical place geographically.
type PlaceType string

const (
	// PlaceCity is a city, town, or walled settlement.
	PlaceCity PlaceType = "CITY"

	// PlaceBattlefield is a site known primarily as a battleground.
	PlaceBattlefield PlaceType = "BATTLEFIELD"

	// PlaceRiver is a river or waterway.
	PlaceRiver PlaceType = "RIVER"

	// PlaceMountain is a mountain or mountain range.
	PlaceMountain PlaceType = "MOUNTAIN"

	// PlaceRegion is a broader territory or administrative region.
	PlaceRegion PlaceType = "REGION"

	// PlaceOther is the catch-all place type.
	PlaceOther PlaceType = "OTHER"
)

// IsValid checks whether the place type is a known vocabulary member.
func (p PlaceType) IsValid() bool {
	switch p {
	case PlaceCity, PlaceBattlefield, PlaceRiver, PlaceMountain,
		PlaceRegion, PlaceOther:
		return true
	}
	return false
}

// String returns the string representation of the place type.
func (p PlaceType) String() string { return string(p) }

// TimePrecision indicates how precisely an event's time range is known.
type TimePrecision string

const (
	// PrecisionExactDate means the exact day is known.
	PrecisionExactDate TimePrecision = "EXACT_DATE"

	// PrecisionMonth means the month is known.
	PrecisionMonth TimePrecision = "MONTH"

	// PrecisionSeason means only the season is known.
	PrecisionSeason TimePrecision = "SEASON"

	// PrecisionYear means only the year is known.
	PrecisionYear TimePrecision = "YEAR"

	// PrecisionDecade means the event is placed within a decade.
	PrecisionDecade TimePrecision = "DECADE"

	// PrecisionApproximate means the dating is an estimate.
	PrecisionApproximate TimePrecision = "APPROXIMATE"
)

// ActorRole describes how a person participates in an event.
type ActorRole string

const (
	// ActorProtagonist is a principal party to the event.
	ActorProtagonist ActorRole = "PROTAGONIST"

	// ActorAlly supports a principal party.
	ActorAlly ActorRole = "ALLY"

	// ActorOpposing opposes a principal party.
	ActorOpposing ActorRole = "OPPOSING"

	// ActorAdvisor counsels a principal party within the event.
	ActorAdvisor ActorRole = "ADVISOR"

	// ActorExecutor carries out orders within the event.
	ActorExecutor ActorRole = "EXECUTOR"

	// ActorObserver witnesses the event without acting.
	ActorObserver ActorRole = "OBSERVER"

	// ActorOther is the catch-all actor role.
	ActorOther ActorRole = "OTHER"
)

// ReviewStatus represents the lifecycle state of a review item.
type ReviewStatus string

const (
	// ReviewPending indicates the item awaits human review.
	ReviewPending ReviewStatus = "PENDING"

	// ReviewApproved indicates the item was accepted and committed.
	// Terminal: an approved item is never reopened.
	ReviewApproved ReviewStatus = "APPROVED"

	// ReviewRejected indicates the item was declined.
	// Terminal: a rejected item is never reopened.
	ReviewRejected ReviewStatus = "REJECTED"

	// ReviewModified indicates a reviewer edited the payload; the item
	// remains reviewable with the modified payload taking precedence.
	ReviewModified ReviewStatus = "MODIFIED"
)

// IsTerminal reports whether the status permits no further transitions.
func (s ReviewStatus) IsTerminal() bool {
	return s == ReviewApproved || s == ReviewRejected
}

// ReviewType discriminates what kind of proposal a review item wraps.
type ReviewType string

const (
	// ReviewTypeEvent wraps an extracted event proposal.
	ReviewTypeEvent ReviewType = "EVENT"

	// ReviewTypePerson wraps an extracted person proposal.
	ReviewTypePerson ReviewType = "PERSON"

	// ReviewTypePlace wraps an extracted place proposal.
	ReviewTypePlace ReviewType = "PLACE"

	// ReviewTypeRelationship wraps a derived relationship proposal.
	ReviewTypeRelationship ReviewType = "RELATIONSHIP"
)

// EntityType identifies the kind of canonical entity a change-log entry
// or storage operation refers to.
type EntityType string

const (
	// EntityPerson is a canonical person record.
	EntityPerson EntityType = "PERSON"

	// EntityPlace is a canonical place record.
	EntityPlace EntityType = "PLACE"

	// EntityEvent is a canonical event record.
	EntityEvent EntityType = "EVENT"

	// EntityRelationship is a canonical relationship record.
	EntityRelationship EntityType = "RELATIONSHIP"
)

// ChangeAction tags what kind of mutation a change-log entry records.
type ChangeAction string

const (
	// ActionCreate records the first version of an entity.
	ActionCreate ChangeAction = "CREATE"

	// ActionUpdate records a field-level edit.
	ActionUpdate ChangeAction = "UPDATE"

	// ActionMerge records an arbitrated merge of a proposal into an
	// existing entity.
	ActionMerge ChangeAction = "MERGE"

	// ActionDelete records a removal.
	ActionDelete ChangeAction = "DELETE"
)
