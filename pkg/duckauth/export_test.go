package duckauth

// RefreshesInFlight reports how many callers are attached to refreshes.
func (m *Manager) RefreshesInFlight() int { return m.refreshes.InFlight() }
