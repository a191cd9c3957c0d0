package instance

import "os"

// GetID identifies this process in logs. Explicit configuration wins over the platform's
// dyno name and the host name.
func GetID() string {
	for _, key := range []string{"AFRIFURN_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
