package monitor

import (
	"ProctorWatch/internal/entity"
	"slices"
)

const incidentLogSize = 10

// Session holds the counters and the most recent incidents. It is not safe for
// concurrent use; Monitor serializes access.
type Session struct {
	totalIncidents int
	lastStatus     entity.Status
	incidents      []entity.Incident
	generation     uint64
}

func (s *Session) MarkSafe() {
	s.lastStatus = entity.StatusSafe
}

// OpenIncident counts a new incident and returns the generation its record
// must be appended under.
func (s *Session) OpenIncident() uint64 {
	s.totalIncidents++
	s.lastStatus = entity.StatusCheatingDetected
	return s.generation
}

// AppendIncident stores the record unless the session was reset since
// OpenIncident returned generation. Captures finish in any order, so the
// record is placed by Timestamp and the log keeps the newest entries.
func (s *Session) AppendIncident(generation uint64, incident entity.Incident) bool {
	if generation != s.generation {
		return false
	}

	i := len(s.incidents)
	for i > 0 && s.incidents[i-1].Timestamp.After(incident.Timestamp) {
		i--
	}
	s.incidents = slices.Insert(s.incidents, i, incident)
	if len(s.incidents) > incidentLogSize {
		s.incidents = append([]entity.Incident(nil), s.incidents[len(s.incidents)-incidentLogSize:]...)
	}
	return true
}

func (s *Session) Snapshot() entity.SessionSnapshot {
	incidents := make([]entity.Incident, len(s.incidents))
	copy(incidents, s.incidents)

	return entity.SessionSnapshot{
		TotalIncidents: s.totalIncidents,
		LastStatus:     s.lastStatus,
		Incidents:      incidents,
	}
}

func (s *Session) Reset() {
	s.totalIncidents = 0
	s.lastStatus = entity.StatusSafe
	s.incidents = nil
	s.generation++
}
