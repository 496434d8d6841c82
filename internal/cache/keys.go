package cache

import "fmt"

func OAuthClientUsageKey(clientID string, startMillis, endMillis int64) string {
	return fmt.Sprintf("oauthClientUsage.%s-%d-%d", clientID, startMillis, endMillis)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
