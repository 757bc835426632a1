package algo

import (
	"strings"

	"github.com/huangsam/runlens/schema"
)

// categoryRules are checked in order; the first rule with a matching keyword wins.
var categoryRules = []struct {
	category string
	keywords []string
}{
	{schema.TimeoutCategory, []string{"timeout", "time out"}},
	{schema.ConnectionCategory, []string{"connection"}},
	{schema.PermissionCategory, []string{"permission", "access"}},
	{schema.MemoryCategory, []string{"memory"}},
	{schema.ValidationCategory, []string{"validation"}},
	{schema.DeadlockCategory, []string{"deadlock"}},
}

// CategorizeError assigns an error message to a category by case-insensitive keyword.
func CategorizeError(message string) string {
	lower := strings.ToLower(message)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return schema.OtherCategory
}
