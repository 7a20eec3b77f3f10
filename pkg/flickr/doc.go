// Package flickr is a minimal Flickr REST API client.
//
// It covers the two methods the pipeline uses:
//   - flickr.photos.search, one page per call, through Client.Search
//   - flickr.photos.getInfo through Client.GetInfo
//
// Requests use format=json. The JSONP wrapper Flickr adds to such responses
// is stripped before decoding, and a response whose stat is not "ok" is
// reported as a protocol error carrying Flickr's message. Network failures
// and non-2xx statuses are reported as transport errors. Nothing is retried.
//
// Payload fields that Flickr serialises inconsistently (counts, epochs,
// coordinates) decode through FlexString and FlexInt. Optional blocks such as
// location and originalsecret are pointers.
package flickr
