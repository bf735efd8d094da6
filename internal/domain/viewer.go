package domain

import "strings"

const (
	PlanPro               = "pro"
	Feature20CompanionCap = "20_companion_limit"
	Feature10CompanionCap = "10_companion_limit"
)

// Entitlements es la foto de plan y features que entrega el proveedor de identidad.
type Entitlements struct {
	Plan     string   `json:"plan,omitempty"`
	Features []string `json:"features,omitempty"`
}

func (e Entitlements) HasPlan(plan string) bool {
	return plan != "" && strings.EqualFold(strings.TrimSpace(e.Plan), plan)
}

func (e Entitlements) HasFeature(feature string) bool {
	for _, f := range e.Features {
		if strings.EqualFold(strings.TrimSpace(f), feature) {
			return true
		}
	}
	return false
}

// Viewer es el usuario de la request actual. Un UserID vacio representa a un anonimo.
type Viewer struct {
	UserID       string
	Entitlements Entitlements
}

// Anonymous devuelve un Viewer sin identidad.
func Anonymous() Viewer {
	return Viewer{}
}

func (v Viewer) Authenticated() bool {
	return strings.TrimSpace(v.UserID) != ""
}
