package services

import "fmt"

func formatScore(score float64) string {
	return fmt.Sprintf("%.1f", score)
}
