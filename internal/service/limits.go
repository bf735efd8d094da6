package service

import "companion-api/internal/domain"

// Limit es el cupo de companions que puede tener un usuario.
type Limit struct {
	Unlimited bool
	Cap       int
}

// Allows indica si con count companions existentes se puede crear uno mas.
func (l Limit) Allows(count int) bool {
	return l.Unlimited || count < l.Cap
}

// ResolveLimit traduce los entitlements a un cupo. El orden importa: plan pro, luego la
// feature de 20, luego la de 10; sin ninguna el cupo es 0.
func ResolveLimit(e domain.Entitlements) Limit {
	switch {
	case e.HasPlan(domain.PlanPro):
		return Limit{Unlimited: true}
	case e.HasFeature(domain.Feature20CompanionCap):
		return Limit{Cap: 20}
	case e.HasFeature(domain.Feature10CompanionCap):
		return Limit{Cap: 10}
	default:
		return Limit{}
	}
}
