package rules

import "fmt"

// Zone identifies where a game object currently lives.
type Zone int

const (
	ZoneOutside Zone = iota
	ZoneLibrary
	ZoneHand
	ZoneBattlefield
	ZoneGraveyard
	ZoneStack
	ZoneExile
	ZoneCommand
)

var zoneNames = map[Zone]string{
	ZoneOutside:     "OUTSIDE",
	ZoneLibrary:     "LIBRARY",
	ZoneHand:        "HAND",
	ZoneBattlefield: "BATTLEFIELD",
	ZoneGraveyard:   "GRAVEYARD",
	ZoneStack:       "STACK",
	ZoneExile:       "EXILE",
	ZoneCommand:     "COMMAND",
}

func (z Zone) String() string {
	if name, ok := zoneNames[z]; ok {
		return name
	}
	return fmt.Sprintf("ZONE_%d", int(z))
}

// IsPublic reports whether objects in the zone are visible to every player.
func (z Zone) IsPublic() bool {
	return z != ZoneLibrary && z != ZoneHand && z != ZoneOutside
}

// IsShared reports whether the zone is common to all players rather than
// one per player.
func (z Zone) IsShared() bool {
	switch z {
	case ZoneBattlefield, ZoneStack, ZoneExile, ZoneCommand:
		return true
	}
	return false
}
