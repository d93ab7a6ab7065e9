// Package async defines the asynchronous declaration shapes understood by
// syncwrap.
//
// Go has no async keyword, so a function is asynchronous when its single
// result is one of the types below. The computation does not start until the
// returned value is driven with a context:
//
//	func Greet(name string) async.Future[string] {
//		return func(ctx context.Context) string {
//			return "hello " + name
//		}
//	}
//
// A driver from package blocking runs the computation to completion on behalf
// of a synchronous caller. Child work started with Go or GoTask is scheduled
// on the Spawner found in the context, which is the driver itself when one is
// running.
package async
