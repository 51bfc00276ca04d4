package util

type Pass[T any] interface {
	Process(T)
}

// Run the passes in order.  Processing stops early once shouldEarlyExit
// returns true.
func Process[T any](
	node T,
	passes []Pass[T],
	shouldEarlyExit func() bool, // optional
) {
	for _, pass := range passes {
		pass.Process(node)

		if shouldEarlyExit != nil && shouldEarlyExit() {
			return
		}
	}
}
