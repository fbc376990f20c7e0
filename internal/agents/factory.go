package agents

// NewbornDefaults seeds a freshly registered newborn agent, grounded on the
// teacher's agents.Spawner initial-state construction.
func NewbornDefaults(id ID, name string, day int, teacher *ID) *Agent {
	return &Agent{
		ID:                 id,
		DisplayName:        name,
		Role:               RoleNewborn,
		Status:             StatusAlive,
		AgeDays:            0,
		Mood:               0,
		ComprehensionScore: 0,
		AssignedTeacher:    teacher,
		BornDay:            day,
	}
}

// RoleDefaults seeds a non-newborn agent registered directly into a role
// (used for initial city population at genesis).
func RoleDefaults(id ID, name string, role Role, day int) *Agent {
	a := &Agent{
		ID:          id,
		DisplayName: name,
		Role:        role,
		Status:      StatusAlive,
		AgeDays:     0,
		Mood:        0,
		BornDay:     day,
	}
	if role == RolePolice {
		a.BribeSusceptibility = 0.1
	}
	return a
}
