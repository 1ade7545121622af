//go:build !race

package auth

// Cost factor is fixed at 12: slow enough to make offline brute force
// expensive, bounded enough for interactive logins.
func passwordHashCost() int {
	return 12
}
