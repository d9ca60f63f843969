package models

import (
	"fmt"
	"strconv"
	"strings"
)

type BetType string

const (
	BetStraight BetType = "straight"
	BetRed      BetType = "red"
	BetBlack    BetType = "black"
	BetOdd      BetType = "odd"
	BetEven     BetType = "even"
	BetLow      BetType = "low"
	BetHigh     BetType = "high"
	BetDozen1   BetType = "dozen1"
	BetDozen2   BetType = "dozen2"
	BetDozen3   BetType = "dozen3"
	BetColumn1  BetType = "column1"
	BetColumn2  BetType = "column2"
	BetColumn3  BetType = "column3"
)

func (t BetType) Valid() bool {
	switch t {
	case BetStraight, BetRed, BetBlack, BetOdd, BetEven, BetLow, BetHigh,
		BetDozen1, BetDozen2, BetDozen3, BetColumn1, BetColumn2, BetColumn3:
		return true
	}
	return false
}

// Multiplier is the payout multiplier for a winning bet of this type, on top
// of the returned stake.
func (t BetType) Multiplier() int64 {
	switch t {
	case BetStraight:
		return 35
	case BetDozen1, BetDozen2, BetDozen3, BetColumn1, BetColumn2, BetColumn3:
		return 2
	default:
		return 1
	}
}

// BetKey identifies one staked position. Target is meaningful only for
// straight bets, where it is the backed number.
type BetKey struct {
	Type   BetType `json:"type"`
	Target int     `json:"target"`
}

// String renders the wire form: "straight-17" for straights, the bare type
// name for everything else.
func (k BetKey) String() string {
	if k.Type == BetStraight {
		return fmt.Sprintf("straight-%d", k.Target)
	}
	return string(k.Type)
}

func (k BetKey) Validate() error {
	if !k.Type.Valid() {
		return fmt.Errorf("invalid bet type: %s", k.Type)
	}
	if k.Type == BetStraight && (k.Target < 0 || k.Target > 36) {
		return fmt.Errorf("straight target out of range: %d", k.Target)
	}
	if k.Type != BetStraight && k.Target != 0 {
		return fmt.Errorf("bet type %s takes no target", k.Type)
	}
	return nil
}

// ParseBetKey accepts the wire form produced by String.
func ParseBetKey(s string) (BetKey, error) {
	if rest, ok := strings.CutPrefix(s, "straight-"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil {
			return BetKey{}, fmt.Errorf("invalid straight target %q", rest)
		}
		key := BetKey{Type: BetStraight, Target: n}
		return key, key.Validate()
	}
	key := BetKey{Type: BetType(s)}
	return key, key.Validate()
}

// Wins reports whether this position pays for the given winning number.
// Zero pays straight-0 only: it has no color, parity, half, dozen or column.
func (k BetKey) Wins(winning int) bool {
	if k.Type == BetStraight {
		return k.Target == winning
	}
	if winning == 0 {
		return false
	}
	switch k.Type {
	case BetRed:
		return ColorOf(winning) == ColorRed
	case BetBlack:
		return ColorOf(winning) == ColorBlack
	case BetOdd:
		return winning%2 == 1
	case BetEven:
		return winning%2 == 0
	case BetLow:
		return winning <= 18
	case BetHigh:
		return winning >= 19
	case BetDozen1:
		return winning <= 12
	case BetDozen2:
		return winning >= 13 && winning <= 24
	case BetDozen3:
		return winning >= 25
	case BetColumn1:
		return ColumnOf(winning) == 1
	case BetColumn2:
		return ColumnOf(winning) == 2
	case BetColumn3:
		return ColumnOf(winning) == 3
	}
	return false
}
