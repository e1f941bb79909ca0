package models

// PageTarget identifies a page to audit
type PageTarget struct {
	ID  string `json:"id" toml:"id"`
	URL string `json:"url" toml:"url"`
}

// PageSnapshot is everything captured from one rendered page
type PageSnapshot struct {
	Page         PageTarget           `json:"page"`
	Viewport     Viewport             `json:"viewport"`
	Dir          string               `json:"dir"`
	Lang         string               `json:"lang"`
	HTML         string               `json:"-"`
	Observations []ElementObservation `json:"observations"`
}
