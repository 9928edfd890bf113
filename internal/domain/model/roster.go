// Package model contains domain models passed between layers.
package model

// RosterEntry is one player of a starting eleven.
type RosterEntry struct {
	Name          string `json:"name"`
	PositionShort string `json:"position"`      // e.g. "Zagueiro", "ST"
	PositionFull  string `json:"position_full"` // e.g. "Zagueiro Central"
	Overall       int    `json:"overall"`       // 1..99
}

// Sector identifies a part of the pitch a player contributes to.
type Sector string

const (
	SectorGoalkeeper Sector = "goalkeeper"
	SectorDefense    Sector = "defense"
	SectorMidfield   Sector = "midfield"
	SectorAttack     Sector = "attack"
)

// Sectors lists every sector in a stable order.
var Sectors = []Sector{SectorGoalkeeper, SectorDefense, SectorMidfield, SectorAttack}

// SectorStrength is the rounded average overall and head count of a sector.
type SectorStrength struct {
	Average int `json:"average"`
	Count   int `json:"count"`
}

// TeamStrength is the derived strength of a starting eleven.
type TeamStrength struct {
	Overall    int                       `json:"overall"` // 1..100
	Attack     int                       `json:"attack"`
	Midfield   int                       `json:"midfield"`
	Defense    int                       `json:"defense"`
	Goalkeeper int                       `json:"goalkeeper"`
	Sectors    map[Sector]SectorStrength `json:"sectors"`
}

// Club is a participant's club. OwnerID is the participant id.
type Club struct {
	OwnerID   string `json:"owner_id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	Crest     string `json:"crest"`
	Formation string `json:"formation"`
}

// ClubSnapshot is the display data of a club frozen into an outcome.
type ClubSnapshot struct {
	Name  string `json:"name"`
	Code  string `json:"code"`
	Crest string `json:"crest"`
}

// Snapshot returns the display data of the club.
func (c Club) Snapshot() ClubSnapshot {
	return ClubSnapshot{Name: c.Name, Code: c.Code, Crest: c.Crest}
}

// ManagerRating is a participant id with its manager skill.
type ManagerRating struct {
	ParticipantID string `json:"participant_id"`
	Skill         int    `json:"skill"`
}
