package models

// Game modes accepted in query strings and leaderboard paths
var ValidModes = []string{"std", "taiko", "catch", "mania"}

// Mod groups accepted in query strings and leaderboard paths
var ValidMods = []string{"vn", "rx", "ap"}

// Leaderboard sort keys
var ValidSorts = []string{"tscore", "rscore", "pp", "plays", "playtime", "acc", "maxcombo"}

const (
	DefaultMode = "std"
	DefaultMods = "vn"
	DefaultSort = "pp"
)

// modeIndex maps mods+mode to the combined index used by the stats table.
// Relax has no mania variant; autopilot only exists for std.
var modeIndex = map[string]map[string]int{
	"vn": {"std": 0, "taiko": 1, "catch": 2, "mania": 3},
	"rx": {"std": 4, "taiko": 5, "catch": 6},
	"ap": {"std": 7},
}

// AllModeIndexes lists every combined mode index in ascending order
var AllModeIndexes = []int{0, 1, 2, 3, 4, 5, 6, 7}

// ModeIndex returns the combined stats index for mods and mode
func ModeIndex(mods, mode string) (int, bool) {
	idx, ok := modeIndex[mods][mode]
	return idx, ok
}

// IsValidMode reports whether mode is one of ValidModes
func IsValidMode(mode string) bool { return contains(ValidModes, mode) }

// IsValidMods reports whether mods is one of ValidMods
func IsValidMods(mods string) bool { return contains(ValidMods, mods) }

// IsValidSort reports whether sort is one of ValidSorts
func IsValidSort(sort string) bool { return contains(ValidSorts, sort) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
