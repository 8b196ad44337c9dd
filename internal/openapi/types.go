package openapi

// Access is the authentication an operation requires.
type Access int

const (
	// Public operations need no session.
	Public Access = iota
	// Authenticated operations need a valid session.
	Authenticated
	// Admin operations need a valid session of an active admin.
	Admin
)

func (a Access) String() string {
	switch a {
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	default:
		return "public"
	}
}

// Param describes one query parameter.
type Param struct {
	Name        string
	Type        string // string, integer or boolean
	Description string
}

// Operation is one documented route. Request and Response hold zero values
// of the payload types; their JSON shape is derived by reflection.
type Operation struct {
	ID       string
	Method   string
	Path     string
	Tag      string
	Summary  string
	Access   Access
	Status   int // success status, 200 when zero
	Query    []Param
	Request  any
	Response any
	// HTML marks operations answering with text/html instead of JSON.
	HTML bool
}

// Info is the document metadata.
type Info struct {
	Title       string
	Description string
	Version     string
	ServerURL   string
}
