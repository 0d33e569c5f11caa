package coordinator

import "sync"

var (
	instanceOnce sync.Once
	instance     *Coordinator
)

// GetOrCreate returns the process-wide coordinator, constructing it from
// opts on first call. Later callers receive the same instance and their
// options are ignored; the instance lives for the life of the process.
func GetOrCreate(opts Options) *Coordinator {
	instanceOnce.Do(func() {
		instance = New(opts)
	})
	return instance
}
