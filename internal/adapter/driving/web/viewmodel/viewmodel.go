// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// Page carries what every page needs around its body.
type Page struct {
	Title     string
	User      *User
	Flashes   []Flash
	CSRFToken string
}

// User is the signed-in user shown in the navigation bar.
type User struct {
	Name  string
	Email string
}

// Flash is a one-shot notification. Level doubles as the CSS modifier.
type Flash struct {
	Level   string
	Message string
}

// VideoCard holds presentation-ready data for one video in a listing.
type VideoCard struct {
	ID         string
	Title      string
	Thumbnail  string
	Username   string
	Views      int64
	Uploaded   string
	PlayerPath string
	EditPath   string
	DeletePath string
}

// SortOption is one entry of the sort selector.
type SortOption struct {
	Value    string
	Label    string
	Selected bool
}

// VideoList holds the data for both the public listing and "my videos".
type VideoList struct {
	Heading string
	Videos  []VideoCard
	Search  string
	Sorts   []SortOption
	// Mine enables the edit and delete actions and hides the search form.
	Mine bool
}

// Player holds the data for the player page.
type Player struct {
	Video           VideoCard
	DescriptionHTML string
	StreamPath      string
	StartPath       string
	StopPath        string
	RestartPath     string
}

// LoginForm re-populates the login form after a failed attempt.
type LoginForm struct {
	Email string
	Error string
}

// RegisterForm re-populates the registration form. ErrorField names the
// input the error belongs to, or is empty for form-level errors.
type RegisterForm struct {
	Username   string
	Email      string
	Error      string
	ErrorField string
}

// VideoForm backs both the upload and the edit pages.
type VideoForm struct {
	Action      string
	Title       string
	Description string
	Thumbnail   string
	Edit        bool
	Error       string
	ErrorField  string
	Accept      string
}
