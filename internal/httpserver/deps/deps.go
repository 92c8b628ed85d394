package deps

import (
	"time"

	"github.com/MrSnakeDoc/sightings/internal/domain"
	"github.com/MrSnakeDoc/sightings/internal/logger"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time // process start, for uptime
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time               // for testing, defaults to time.Now
	AllowedCIDRS []string                       // IPs allowed to read /api/stats (empty = everyone)
	Snapshot     func() *domain.CollectionStats // latest published stats, nil before the first publish
	Ready        func() bool                    // true once the initial collection was attempted
}

// Now returns the current time from TimeNow, falling back to time.Now.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
