package cache

import "fmt"

func RateLimitKey(keySnippet string) string {
	return fmt.Sprintf("ratelimit:%s", keySnippet)
}
