// Package ratelimit paces requests to the Flickr API.
//
// The pipeline uses a fixed delay between units of work: 700ms between grid
// cells and 300ms between photos by default. FixedDelay implements this and
// honours context cancellation so an interrupted run stops promptly.
//
// Usage:
//
//	throttle := ratelimit.NewFixedDelay(cfg.Throttle.SearchDelay)
//	for _, cell := range cells {
//	    process(cell)
//	    if err := throttle.Wait(ctx); err != nil {
//	        return err
//	    }
//	}
package ratelimit
