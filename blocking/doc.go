// Package blocking drives asynchronous computations from package async to
// completion on behalf of a synchronous caller.
//
// Code generated by syncwrap calls it with a fresh driver per call:
//
//	func GreetBlocking(name string) string {
//		return blocking.Await(blocking.New(), func() async.Future[string] {
//			...
//		}())
//	}
//
// The driver owned by a call is closed when the call returns, on every path.
// Creating one driver per call is deliberate and has a cost: a context, an
// errgroup and at least one goroutine per call. A pooled implementation can be
// plugged in through the Driver interface and the generator's constructor
// setting without changing generated bodies.
package blocking
