// Package chronicle defines the closed vocabularies of the chronicler domain:
// person roles, factions, event types, time precision, actor roles, review
// lifecycle states, and change-log actions, together with the mapping tables
// that normalize free-text model output onto them.
//
// Every mapping is total: unrecognized input maps to the OTHER member (or the
// documented default) rather than producing an error. Inference services
// return uncontrolled strings; the vocabulary is where they become typed.
package chronicle
