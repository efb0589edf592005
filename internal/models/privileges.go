package models

// Privileges is the bitmask stored in users.priv
type Privileges int

const (
	Normal      Privileges = 1 << 0 // unrestricted access; unset means banned
	Verified    Privileges = 1 << 1 // account has logged in from the game client
	Whitelisted Privileges = 1 << 2
	Supporter   Privileges = 1 << 4
	Premium     Privileges = 1 << 5
	Alumni      Privileges = 1 << 7
	Tournament  Privileges = 1 << 10
	Nominator   Privileges = 1 << 11
	Mod         Privileges = 1 << 12
	Admin       Privileges = 1 << 13
	Dangerous   Privileges = 1 << 14

	Donator = Supporter | Premium
	Staff   = Mod | Admin | Dangerous
)

// ProfileVisibleThreshold is the lowest priv value whose profile is shown
// to everyone. Accounts below it (banned or unverified) are only visible
// to staff.
const ProfileVisibleThreshold = Normal | Verified

// Has reports whether any bit of p is set in priv
func (priv Privileges) Has(p Privileges) bool {
	return priv&p != 0
}

// Hidden reports whether a profile with this priv is hidden from non-staff
func (priv Privileges) Hidden() bool {
	return priv < ProfileVisibleThreshold
}
