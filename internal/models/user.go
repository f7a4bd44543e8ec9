package models

// User is a campus account as stored in the user directory. Field names
// match the legacy users.json records, so existing data files load as-is.
type User struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password,omitempty"`
	Rating   float64  `json:"rating"`
	Avatar   string   `json:"avatar"`
	Intent   string   `json:"intent"`
	Year     string   `json:"year"`
	Branch   string   `json:"branch"`
	Courses  []string `json:"courses"`
}

// Public returns a copy safe to serialize in API responses: the password is
// never sent to clients.
func (u *User) Public() User {
	pub := *u
	pub.Password = ""
	if pub.Courses == nil {
		pub.Courses = []string{}
	}
	return pub
}
