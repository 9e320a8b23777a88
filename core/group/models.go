package group

// Student is a roster entry. The roster is seeded once and read-only from the
// app's perspective.
type Student struct {
	ID         string `json:"id" db:"id"`
	LastName   string `json:"lastName" db:"last_name"`
	FirstName  string `json:"firstName" db:"first_name"`
	MiddleName string `json:"middleName" db:"middle_name"`
}

func (s Student) FullName() string {
	name := s.LastName + " " + s.FirstName
	if s.MiddleName != "" {
		name += " " + s.MiddleName
	}
	return name
}
