package data

// LevelTable maps level → experience required to advance from that
// level to the next. Index 0 is unused; the last defined level has no
// further threshold and caps progression.
type LevelTable []int64

// ExpToAdvance returns the experience required to advance from the
// given level, and whether a threshold is defined. Progression stops
// at the first level with no threshold.
func (t LevelTable) ExpToAdvance(level int32) (int64, bool) {
	if level < 1 || int(level) >= len(t) {
		return 0, false
	}
	req := t[level]
	if req <= 0 {
		return 0, false
	}
	return req, true
}

// MaxLevel returns the highest reachable level.
func (t LevelTable) MaxLevel() int32 {
	return int32(len(t) - 1)
}

// defaultLevelTable covers levels 1-30 with quadratic-ish growth.
var defaultLevelTable = LevelTable{
	0,     // 0 (unused)
	15,    // 1
	34,    // 2
	57,    // 3
	92,    // 4
	135,   // 5
	372,   // 6
	560,   // 7
	840,   // 8
	1242,  // 9
	1716,  // 10
	2360,  // 11
	3216,  // 12
	4200,  // 13
	5460,  // 14
	7050,  // 15
	8840,  // 16
	11040, // 17
	13716, // 18
	16680, // 19
	20216, // 20
	24402, // 21
	28980, // 22
	34320, // 23
	40512, // 24
	47216, // 25
	54900, // 26
	63666, // 27
	73080, // 28
	83270, // 29
}
