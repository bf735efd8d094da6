package domain

import "time"

// Companion es un registro creado por un usuario con metadatos de materia y tema.
// IsAuthor y Bookmarked se calculan en lectura para el usuario actual y nunca se persisten.
type Companion struct {
	ID         string    `json:"id"`
	Author     string    `json:"author"`
	Name       string    `json:"name"`
	Subject    string    `json:"subject"`
	Topic      string    `json:"topic"`
	Voice      string    `json:"voice,omitempty"`
	Style      string    `json:"style,omitempty"`
	Duration   int       `json:"duration"`
	CreatedAt  time.Time `json:"created_at"`
	IsAuthor   bool      `json:"is_author"`
	Bookmarked bool      `json:"bookmarked"`
}

// CompanionFilter describe una pagina del listado general.
type CompanionFilter struct {
	Limit   int
	Page    int
	Subject string
	Topic   string
}

// Offset devuelve el inicio del rango [(page-1)*limit, page*limit-1].
func (f CompanionFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
