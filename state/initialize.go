package state

import (
	"time"

	"github.com/google/uuid"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	env := &LocalEnv{start: time.Now()}
	if id, err := uuid.NewV7(); err == nil {
		env.SessionID = id.String()
	} else {
		env.SessionID = uuid.NewString()
	}
	return env
}
