package chronicle

import "strings"

// roleMap normalizes free-text role strings onto the closed PersonRole set.
// Includes synonyms inference services commonly emit for this corpus.
var roleMap = map[string]PersonRole{
	"EMPEROR":           RoleMonarch,
	"EMPRESS":           RoleMonarch,
	"KING":              RoleMonarch,
	"WARLORD":           RoleGeneral,
	"MINISTER":          RoleAdvisor,
	"SCHOLAR":           RoleCivilOfficial,
	"MONARCH":           RoleMonarch,
	"ADVISOR":           RoleAdvisor,
	"GENERAL":           RoleGeneral,
	"CIVIL_OFFICIAL":    RoleCivilOfficial,
	"MILITARY_OFFICIAL": RoleMilitaryOfficial,
	"RELATIVE":          RoleRelative,
	"EUNUCH":            RoleEunuch,
	"OTHER":             RoleOther,
	"皇帝":                RoleMonarch,
	"帝":                 RoleMonarch,
	"王":                 RoleMonarch,
	"诸侯王":               RoleMonarch,
	"谋士":                RoleAdvisor,
	"丞相":                RoleAdvisor,
	"将军":                RoleGeneral,
	"将领":                RoleGeneral,
	"武将":                RoleMilitaryOfficial,
	"文臣":                RoleCivilOfficial,
	"外戚":                RoleRelative,
	"宦官":                RoleEunuch,
}

// MapRole converts a free-text role string to a PersonRole.
// Unrecognized or empty input maps to RoleOther.
func MapRole(s string) PersonRole {
	trimmed := strings.TrimSpace(s)
	if role, ok := roleMap[trimmed]; ok {
		return role
	}
	if role, ok := roleMap[strings.ToUpper(trimmed)]; ok {
		return role
	}
	return RoleOther
}

// factionMap normalizes free-text faction strings, including the Chinese
// faction names the extraction prompts work with.
var factionMap = map[string]Faction{
	"汉":       FactionHan,
	"HAN":     FactionHan,
	"楚":       FactionChu,
	"CHU":     FactionChu,
	"张楚":      FactionChu,
	"NEUTRAL": FactionNeutral,
	"OTHER":   FactionOther,
}

// MapFaction converts a free-text faction string to a Faction.
// Unrecognized or empty input maps to FactionOther.
func MapFaction(s string) Faction {
	trimmed := strings.TrimSpace(s)
	if f, ok := factionMap[trimmed]; ok {
		return f
	}
	if f, ok := factionMap[strings.ToUpper(trimmed)]; ok {
		return f
	}
	return FactionOther
}

// placeTypeMap normalizes free-text place type strings.
var placeTypeMap = map[string]PlaceType{
	"CITY":        PlaceCity,
	"TOWN":        PlaceCity,
	"BATTLEFIELD": PlaceBattlefield,
	"RIVER":       PlaceRiver,
	"MOUNTAIN":    PlaceMountain,
	"REGION":      PlaceRegion,
	"OTHER":       PlaceOther,
	"城池":          PlaceCity,
	"城":           PlaceCity,
	"战场":          PlaceBattlefield,
	"河流":          PlaceRiver,
	"河":           PlaceRiver,
	"山":           PlaceMountain,
	"山脉":          PlaceMountain,
	"地区":          PlaceRegion,
	"区域":          PlaceRegion,
}

// MapPlaceType converts a free-text place type string to a PlaceType.
// Unrecognized or empty input maps to PlaceOther.
func MapPlaceType(s string) PlaceType {
	trimmed := strings.TrimSpace(s)
	if t, ok := placeTypeMap[trimmed]; ok {
		return t
	}
	if t, ok := placeTypeMap[strings.ToUpper(trimmed)]; ok {
		return t
	}
	return PlaceOther
}

// eventTypeMap normalizes free-text event type strings.
var eventTypeMap = map[string]EventType{
	"WAR":       EventBattle,
	"BATTLE":    EventBattle,
	"MILITARY":  EventBattle,
	"POLITICS":  EventPolitical,
	"POLITICAL": EventPolitical,
	"PERSONAL":  EventPersonal,
}

// MapEventType converts a free-text event type string to an EventType.
// Unrecognized or empty input maps to EventOther.
func MapEventType(s string) EventType {
	if t, ok := eventTypeMap[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return t
	}
	return EventOther
}

// MapTimePrecision converts a free-text precision string to a TimePrecision.
// Unrecognized or empty input defaults to PrecisionYear, the coarsest
// precision the extraction prompts request routinely.
func MapTimePrecision(s string) TimePrecision {
	switch TimePrecision(strings.ToUpper(strings.TrimSpace(s))) {
	case PrecisionExactDate:
		return PrecisionExactDate
	case PrecisionMonth:
		return PrecisionMonth
	case PrecisionSeason:
		return PrecisionSeason
	case PrecisionYear:
		return PrecisionYear
	case PrecisionDecade:
		return PrecisionDecade
	case PrecisionApproximate:
		return PrecisionApproximate
	default:
		return PrecisionYear
	}
}

// MapActorRole converts a free-text actor role string to an ActorRole.
// Unrecognized or empty input maps to ActorOther.
func MapActorRole(s string) ActorRole {
	switch ActorRole(strings.ToUpper(strings.TrimSpace(s))) {
	case ActorProtagonist:
		return ActorProtagonist
	case ActorAlly:
		return ActorAlly
	case ActorOpposing:
		return ActorOpposing
	case ActorAdvisor:
		return ActorAdvisor
	case ActorExecutor:
		return ActorExecutor
	case ActorObserver:
		return ActorObserver
	default:
		return ActorOther
	}
}
