package entity

// Damage is a request to hurt a combatant, produced by controllers that do not
// own the life-loss path.
type Damage struct {
	TargetID string
	Amount   int
	HitFlash int
	// Killer names the synthetic attacker credited in the kill feed.
	Killer string
}
