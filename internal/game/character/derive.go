package character

// DeriveMaxHP returns the maximum HP for a level and vitality.
func DeriveMaxHP(level, vitality int) int {
	return 100 + level*10 + vitality*5
}

// DeriveMaxMP returns the maximum MP for a level and intelligence.
func DeriveMaxMP(level, intelligence int) int {
	return 10 + level*2 + intelligence*2
}

// Recompute derives MaxHP and MaxMP from level and attributes and clamps the
// current values into [0, max].
func Recompute(c *Character) {
	c.MaxHP = DeriveMaxHP(c.Level, c.Attributes.Vitality)
	c.MaxMP = DeriveMaxMP(c.Level, c.Attributes.Intelligence)
	clampVitals(c)
}

// RestoreFull sets HP and MP to their maxima.
func RestoreFull(c *Character) {
	c.HP = c.MaxHP
	c.MP = c.MaxMP
}

func clampVitals(c *Character) {
	c.HP = max(0, min(c.HP, c.MaxHP))
	c.MP = max(0, min(c.MP, c.MaxMP))
}

// restoreFor recomputes derived maxima after s changed and fully restores the
// resource s drives.
func restoreFor(c *Character, s Stat) {
	Recompute(c)
	switch s {
	case Vitality:
		c.HP = c.MaxHP
	case Intelligence:
		c.MP = c.MaxMP
	}
}

// AllocateStat spends one stat point on s.
//
// Postcondition: returns false with c unchanged when no points remain;
// otherwise s grew by 1, StatPoints shrank by 1 and, for vitality or
// intelligence, the matching resource is at its new maximum.
func AllocateStat(c *Character, s Stat) bool {
	if c.StatPoints <= 0 || !validStat(s) {
		return false
	}
	c.Attributes.Add(s, 1)
	c.StatPoints--
	restoreFor(c, s)
	return true
}

// DeallocateStat refunds one point from s.
//
// Postcondition: returns false with c unchanged when s is at BaseAttribute.
// A refund after an allocation restores attributes and points but not HP/MP:
// the full restore granted on allocation is kept.
func DeallocateStat(c *Character, s Stat) bool {
	if !validStat(s) || c.Attributes.Get(s) <= BaseAttribute {
		return false
	}
	c.Attributes.Add(s, -1)
	c.StatPoints++
	restoreFor(c, s)
	return true
}

// ApplyStatRewards adds positive attribute increments keyed by stat key.
// Unknown keys and non-positive values are skipped.
func ApplyStatRewards(c *Character, rewards map[string]int) {
	for key, n := range rewards {
		if n <= 0 {
			continue
		}
		s, err := ParseStat(key)
		if err != nil {
			continue
		}
		c.Attributes.Add(s, n)
		restoreFor(c, s)
	}
}

// AddGold changes gold by n, flooring at zero.
func AddGold(c *Character, n int) {
	c.Gold = max(0, c.Gold+n)
}

func validStat(s Stat) bool {
	for _, v := range AllStats {
		if v == s {
			return true
		}
	}
	return false
}
