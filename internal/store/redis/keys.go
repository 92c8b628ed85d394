package redis

const (
	// KeyPrefix namespaces every key written by the service
	KeyPrefix = "sightings:"
	// KeyStats holds the JSON encoded stats record
	KeyStats = KeyPrefix + "stats"
)

// StatsKey returns the Redis key for the stats record, optionally scoped to
// an instance name so several daemons can share one database.
func StatsKey(instance string) string {
	if instance == "" {
		return KeyStats
	}
	return KeyStats + ":" + instance
}
