//go:build !race

package blog

func passwordHashCost() int {
	return 12
}
