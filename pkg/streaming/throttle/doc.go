// Package throttle caps flow emission rates.
//
// Throttle grants a fixed number of emissions per discrete window,
// either suspending the producer (backpressure) or dropping overflow.
// RateLimit is the smooth token-bucket alternative.
package throttle
