package models

// Role is a structural category of UI element tracked across pages.
// It is independent of the markup that renders the element.
type Role string

const (
	RoleBackButton    Role = "back-button"
	RoleHeader        Role = "header"
	RoleTabBar        Role = "tab-bar"
	RolePrimaryButton Role = "primary-button"
	RolePageTitle     Role = "page-title"
)

// DefaultRoles lists the built-in roles in capture order
var DefaultRoles = []Role{
	RoleBackButton,
	RoleHeader,
	RoleTabBar,
	RolePrimaryButton,
	RolePageTitle,
}

// IsButton reports whether elements of this role are tapped by the user
func (r Role) IsButton() bool {
	return r == RoleBackButton || r == RolePrimaryButton
}

// Box is an element's bounding rectangle in viewport pixels
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Viewport is the browser viewport size at capture time
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ElementObservation is one structural element seen on one page.
// Width and Height are always positive.
type ElementObservation struct {
	Role     Role     `json:"role"`
	Page     string   `json:"page"`
	Box      Box      `json:"box"`
	Viewport Viewport `json:"viewport"`

	// Style facts captured alongside geometry
	BackgroundColor string `json:"background_color,omitempty"`
	ClassName       string `json:"class_name,omitempty"`
	Tag             string `json:"tag,omitempty"`
	Label           string `json:"label,omitempty"`
}

// Valid reports whether the observation satisfies the capture contract
func (o ElementObservation) Valid() bool {
	return o.Box.Width > 0 && o.Box.Height > 0
}
