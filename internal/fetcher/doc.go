// Package fetcher retrieves pages and turns them into Markdown.
//
// A Fetcher takes a URL and returns a model.PageResult holding the page
// title, its content converted to Markdown, and the absolute outbound links
// found in the HTML. Failures are reported as *Error values whose Kind is
// one of the model.FailureKind classes, so the crawler can decide whether a
// retry makes sense.
//
// Two engines are provided:
//
//   - HTTPFetcher issues plain GET requests, optionally through a SOCKS5
//     proxy and with a site cookie and extra headers injected into every
//     request.
//   - BrowserFetcher drives Chromium over the DevTools protocol (chromedp).
//     It renders JavaScript-heavy sites and can reuse a persistent browser
//     profile, so pages behind a login can be crawled with an existing
//     session.
//
// Both engines share the extraction step: the HTML is cleaned with goquery
// (navigation chrome such as headers, footers and forms is removed), links
// are made absolute, and the result is converted with html-to-markdown.
package fetcher
