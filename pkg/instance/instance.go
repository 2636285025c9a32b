package instance

import "github.com/angelmondragon/stockroom-backend/pkg/env"

// GetID returns the process instance identifier used in startup logs and metric groupings.
func GetID() string {
	return env.First("local", "STOCKROOM_INSTANCE_ID", "DYNO", "HOSTNAME")
}
