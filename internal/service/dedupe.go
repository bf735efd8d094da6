package service

import "companion-api/internal/domain"

// dedupeByID elimina companions repetidos. Cada id conserva la posicion de su primera
// aparicion y el valor de la ultima, igual que un mapa ordenado por insercion.
func dedupeByID(list []domain.Companion) []domain.Companion {
	order := make([]string, 0, len(list))
	byID := make(map[string]domain.Companion, len(list))
	for _, c := range list {
		if _, seen := byID[c.ID]; !seen {
			order = append(order, c.ID)
		}
		byID[c.ID] = c
	}

	out := make([]domain.Companion, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out
}
