package usecase

import (
	"sort"
	"strings"
)

// similarityRatio returns a 0-100 character similarity between two strings,
// based on edit distance over the longer length. Two empty strings are
// identical by convention.
func similarityRatio(s1, s2 string) float64 {
	if s1 == s2 {
		return 100
	}
	longest := len([]rune(s1))
	if l2 := len([]rune(s2)); l2 > longest {
		longest = l2
	}
	if longest == 0 {
		return 100
	}
	dist := levenshteinDistance(s1, s2)
	return (1 - float64(dist)/float64(longest)) * 100
}

// tokenSortRatio compares two strings with their tokens sorted first, making
// the comparison insensitive to word order ("yogourt vanille iogo" vs
// "iogo yogourt vanille").
func tokenSortRatio(s1, s2 string) float64 {
	return similarityRatio(sortTokens(s1), sortTokens(s2))
}

func sortTokens(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len([]rune(s2))
	}
	if len(s2) == 0 {
		return len([]rune(s1))
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	// Use two rows instead of the full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = minOf(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

func minOf(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
