package state

// View is the composed record handed to the presentation layer.
//
// Every View is assembled from a single State generation; it never mixes
// fields from two different records.
type View struct {
	Pagination Pagination `json:"pagination"`
	Criteria   string     `json:"criteria"`
	Users      []User     `json:"users"`
	Loading    bool       `json:"loading"`
	Error      string     `json:"error,omitempty"`
}

// Equal reports whether two views hold the same values.
func (v View) Equal(o View) bool {
	return v.Criteria == o.Criteria &&
		v.Loading == o.Loading &&
		v.Error == o.Error &&
		v.Pagination.Equal(o.Pagination) &&
		EqualUsers(v.Users, o.Users)
}
